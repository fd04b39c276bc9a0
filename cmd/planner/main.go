// Command planner plans a round trip from the command line:
//
//	planner -home "1 Main St" "5 Oak Ave" "9 Elm Rd"
//
// It prints the visiting order followed by the total distance and duration.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/config"
	"github.com/ukydev/trip-planner/internal/controller"
	"github.com/ukydev/trip-planner/internal/models"
	"github.com/ukydev/trip-planner/internal/providers"
	"github.com/ukydev/trip-planner/internal/store"
)

var errUsage = errors.New("usage: planner -home ADDRESS DESTINATION...")

type options struct {
	home    string
	dests   []string
	geojson bool
}

func parseArgs(args []string) (*options, error) {
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	opts := &options{}
	fs.StringVar(&opts.home, "home", "", "start and end address")
	fs.BoolVar(&opts.geojson, "geojson", false, "print the map as GeoJSON instead of a summary")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	opts.home = strings.TrimSpace(opts.home)
	for _, d := range fs.Args() {
		if d = strings.TrimSpace(d); d != "" {
			opts.dests = append(opts.dests, d)
		}
	}
	if opts.home == "" || len(opts.dests) == 0 {
		return nil, errUsage
	}
	return opts, nil
}

// plan enters every address into app and returns the resulting snapshot.
func plan(ctx context.Context, app *controller.App, opts *options) (controller.Snapshot, error) {
	app.Start(ctx)
	if err := app.UpdateField(ctx, models.HomeID, string(models.FieldAddress), opts.home); err != nil {
		return controller.Snapshot{}, err
	}
	for _, dest := range opts.dests {
		id := app.NewLocation()
		if err := app.UpdateField(ctx, id, string(models.FieldAddress), dest); err != nil {
			return controller.Snapshot{}, err
		}
	}

	snap := app.Snapshot()
	for _, row := range snap.Rows {
		if row.State != controller.RowRouted {
			log.WithFields(log.Fields{"address": row.Address, "state": row.State}).Warn("Address not included in the route")
		}
	}
	if snap.Trip == nil {
		return snap, errors.New("no route could be planned")
	}
	return snap, nil
}

func printSummary(w io.Writer, snap controller.Snapshot) {
	addresses := make(map[string]string, len(snap.Rows))
	for _, row := range snap.Rows {
		addresses[row.ID] = row.Address
	}
	waypoints := append([]models.Waypoint(nil), snap.Trip.Waypoints...)
	sort.Slice(waypoints, func(i, j int) bool { return waypoints[i].Index < waypoints[j].Index })

	for _, wp := range waypoints {
		fmt.Fprintf(w, "%d. %s (%.5f, %.5f)\n", wp.Index+1, addresses[wp.LocationID], wp.Location.Lat(), wp.Location.Lon())
	}
	fmt.Fprintf(w, "Total distance: %s\n", snap.Distance)
	fmt.Fprintf(w, "Total time: %s\n", snap.Duration)
}

func run(ctx context.Context, args []string, out io.Writer, newApp func() (*controller.App, error)) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	app, err := newApp()
	if err != nil {
		return err
	}
	snap, err := plan(ctx, app, opts)
	if err != nil {
		return err
	}
	if opts.geojson {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap.Map)
	}
	printSummary(out, snap)
	return nil
}

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	newApp := func() (*controller.App, error) {
		geocoder, err := providers.Geocoder(cfg)
		if err != nil {
			return nil, err
		}
		planner, err := providers.Planner(cfg)
		if err != nil {
			return nil, err
		}
		return controller.NewApp("cli", controller.Deps{
			Store:    store.NewLocationStore(store.NewMemoryBackend()),
			Geocoder: geocoder,
			Planner:  planner,
		}), nil
	}

	if err := run(ctx, os.Args[1:], os.Stdout, newApp); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.WithError(err).Fatal("Planning failed")
	}
}
