// Package controller drives a user's trip: it applies address edits, geocodes
// them, keeps markers and bounds current and re-plans the route.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/events"
	"github.com/ukydev/trip-planner/internal/format"
	"github.com/ukydev/trip-planner/internal/geocode"
	"github.com/ukydev/trip-planner/internal/models"
	"github.com/ukydev/trip-planner/internal/render"
	"github.com/ukydev/trip-planner/internal/routing"
	"github.com/ukydev/trip-planner/internal/store"
)

// ErrMalformedRow is returned for an edit that does not identify its row.
var ErrMalformedRow = errors.New("row has no identifier")

// Deps are the collaborators of an App.
type Deps struct {
	Store     *store.LocationStore
	Geocoder  geocode.Geocoder
	Planner   routing.Planner
	Publisher events.Publisher
	Surface   *render.Map
}

// App holds one owner's trip. Network calls are made without holding mu and
// their results are applied in completion order.
type App struct {
	owner     string
	store     *store.LocationStore
	surface   *render.Map
	renderer  *render.MarkerRenderer
	geocoder  geocode.Geocoder
	planner   routing.Planner
	publisher events.Publisher
	now       func() time.Time

	mu           sync.Mutex
	rows         []string
	routed       map[string]bool
	routeMarkers []*models.Marker
	trip         *models.Trip
	seq          uint64
}

// NewApp creates an App for owner. A nil Surface or Publisher is replaced
// with an empty map and a no-op publisher.
func NewApp(owner string, deps Deps) *App {
	surface := deps.Surface
	if surface == nil {
		surface = render.NewMap()
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &App{
		owner:     owner,
		store:     deps.Store,
		surface:   surface,
		renderer:  render.NewMarkerRenderer(surface),
		geocoder:  deps.Geocoder,
		planner:   deps.Planner,
		publisher: publisher,
		now:       time.Now,
		rows:      []string{models.HomeID},
		routed:    make(map[string]bool),
	}
}

// Owner returns the user the App belongs to.
func (a *App) Owner() string {
	return a.owner
}

// Start restores the stored locations, places their markers, fits the map
// and plans the initial route.
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	a.store.Load(ctx)
	for _, loc := range a.store.All() {
		a.ensureRow(loc.ID)
		a.renderer.PlaceOrUpdate(loc, nil)
	}
	a.renderer.FitBoundsToAll(a.store.All())
	log.WithFields(log.Fields{
		"owner":     a.owner,
		"locations": a.store.Len(),
	}).Info("Trip restored")
	a.mu.Unlock()

	a.replan(ctx)
}

// NewLocation appends an empty row and returns its identifier.
func (a *App) NewLocation() string {
	id := uuid.NewString()
	a.mu.Lock()
	a.rows = append(a.rows, id)
	a.mu.Unlock()
	return id
}

// UpdateField applies an edit to a row. Address edits are geocoded; on
// success the marker, bounds and route are refreshed. Geocoding and routing
// failures leave the previous state in place and are not returned.
func (a *App) UpdateField(ctx context.Context, rowID, fieldName, value string) error {
	rowID = strings.TrimSpace(rowID)
	if rowID == "" {
		return ErrMalformedRow
	}
	field, err := models.ParseField(fieldName)
	if err != nil {
		return err
	}

	a.mu.Lock()
	loc, ok := a.store.Get(rowID)
	if !ok {
		loc = models.NewLocation(rowID)
	}
	if err := loc.Apply(field, value); err != nil {
		a.mu.Unlock()
		return err
	}
	a.store.Set(loc)
	a.ensureRow(rowID)
	seq := a.nextSeq()
	a.mu.Unlock()

	logger := log.WithFields(log.Fields{"owner": a.owner, "location": rowID, "seq": seq})

	if field == models.FieldAddress {
		point, err := a.geocoder.Resolve(ctx, value)
		if err != nil {
			logger.WithError(err).Warn("Geocoding failed, keeping previous coordinates")
			a.save(ctx)
			return nil
		}

		a.mu.Lock()
		a.noteStale(logger, seq)
		loc.SetPoint(point)
		a.renderer.PlaceOrUpdate(loc, nil)
		a.renderer.FitBoundsToAll(a.store.All())
		a.mu.Unlock()

		logger.WithField("point", point).Debug("Address resolved")
		a.replan(ctx)
	}

	a.save(ctx)
	return nil
}

// replan requests a new route for the resolved locations and, on success,
// replaces every previous route marker and the route line.
func (a *App) replan(ctx context.Context) {
	a.mu.Lock()
	snapshot := make([]*models.Location, 0, a.store.Len())
	for _, loc := range a.store.All() {
		c := *loc
		c.Marker = nil
		snapshot = append(snapshot, &c)
	}
	if len(routing.RequestOrder(snapshot)) < 2 {
		a.mu.Unlock()
		log.WithField("owner", a.owner).Debug("Not enough resolved locations to plan a route")
		return
	}
	seq := a.nextSeq()
	a.mu.Unlock()

	logger := log.WithFields(log.Fields{"owner": a.owner, "seq": seq})

	trip, err := a.planner.PlanRoute(ctx, snapshot)
	if errors.Is(err, routing.ErrTooFewLocations) {
		logger.Debug("Not enough resolved locations to plan a route")
		return
	}
	if err != nil {
		logger.WithError(err).Warn("Route planning failed, keeping previous route")
		return
	}

	a.mu.Lock()
	a.noteStale(logger, seq)
	a.applyTrip(trip)
	event := events.TripPlanned{
		Owner:     a.owner,
		Distance:  format.Distance(trip.DistanceMeters),
		Duration:  format.Duration(trip.DurationSeconds),
		Trip:      trip,
		Locations: waypointIDs(trip),
		PlannedAt: a.now().UTC(),
	}
	a.mu.Unlock()

	logger.WithFields(log.Fields{
		"waypoints": len(trip.Waypoints),
		"distance":  event.Distance,
		"duration":  event.Duration,
	}).Info("Route planned")

	if err := a.publisher.PublishTrip(ctx, event); err != nil {
		logger.WithError(err).Warn("Failed to publish trip")
	}
}

// applyTrip must be called with mu held.
func (a *App) applyTrip(trip *models.Trip) {
	locationMarkers := make([]*models.Marker, 0, a.store.Len())
	for _, loc := range a.store.All() {
		locationMarkers = append(locationMarkers, loc.Marker)
	}
	a.renderer.ClearAll(locationMarkers)
	a.renderer.ClearAll(a.routeMarkers)

	a.routeMarkers = make([]*models.Marker, 0, len(trip.Waypoints))
	a.routed = make(map[string]bool, len(trip.Waypoints))
	for _, wp := range trip.Waypoints {
		a.routeMarkers = append(a.routeMarkers, a.renderer.PlaceWaypoint(wp))
		a.routed[wp.LocationID] = true
	}
	a.renderer.DrawRoute(trip.Geometry)
	a.trip = trip
}

func (a *App) save(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.Save(ctx); err != nil {
		log.WithFields(log.Fields{"owner": a.owner}).WithError(err).Warn("Failed to persist locations")
	}
}

// ensureRow must be called with mu held.
func (a *App) ensureRow(id string) {
	for _, r := range a.rows {
		if r == id {
			return
		}
	}
	a.rows = append(a.rows, id)
}

// nextSeq must be called with mu held.
func (a *App) nextSeq() uint64 {
	a.seq++
	return a.seq
}

// noteStale must be called with mu held.
func (a *App) noteStale(logger *log.Entry, seq uint64) {
	if seq < a.seq {
		logger.WithField("latest", a.seq).Debug("Applying response older than the latest request")
	}
}

func waypointIDs(trip *models.Trip) []string {
	ids := make([]string, 0, len(trip.Waypoints))
	for _, wp := range trip.Waypoints {
		ids = append(ids, wp.LocationID)
	}
	return ids
}
