package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/auth"
	"github.com/ukydev/trip-planner/internal/config"
	"github.com/ukydev/trip-planner/internal/controller"
	"github.com/ukydev/trip-planner/internal/db"
	"github.com/ukydev/trip-planner/internal/events"
	"github.com/ukydev/trip-planner/internal/geocode"
	"github.com/ukydev/trip-planner/internal/handlers"
	"github.com/ukydev/trip-planner/internal/middleware"
	"github.com/ukydev/trip-planner/internal/models"
	"github.com/ukydev/trip-planner/internal/providers"
	"github.com/ukydev/trip-planner/internal/routing"
	"github.com/ukydev/trip-planner/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// BackendFactory returns the state backend for one owner.
type BackendFactory func(owner string) (store.Backend, error)

// server holds everything the HTTP API is built from.
type server struct {
	authService *auth.Service
	users       db.UserCollection
	backends    BackendFactory
	geocoder    geocode.Geocoder
	planner     routing.Planner
	publisher   events.Publisher
}

func (s *server) sessions() *controller.Sessions {
	return controller.NewSessions(func(_ context.Context, owner string) (*controller.App, error) {
		backend, err := s.backends(owner)
		if err != nil {
			return nil, fmt.Errorf("open state for %s: %w", owner, err)
		}
		return controller.NewApp(owner, controller.Deps{
			Store:     store.NewLocationStore(backend),
			Geocoder:  s.geocoder,
			Planner:   s.planner,
			Publisher: s.publisher,
		}), nil
	})
}

func (s *server) routes() http.Handler {
	authHandler := handlers.NewAuthHandler(s.authService, s.users)
	tripHandler := handlers.NewTripHandler(s.sessions())
	authMW := middleware.NewAuthMiddleware(s.authService)

	canView := authMW.RequirePermission(models.ActionViewTrip)
	canEdit := authMW.RequirePermission(models.ActionEditTrip)
	canManage := authMW.RequirePermission(models.ActionManageUsers)
	editLimit := middleware.NewRateLimitMiddleware().RateLimit(60, time.Minute)
	authLimit := middleware.NewRateLimitMiddleware().RateLimit(10, time.Minute)

	locations := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			canView(http.HandlerFunc(tripHandler.Locations)).ServeHTTP(w, r)
			return
		}
		canEdit(http.HandlerFunc(tripHandler.Locations)).ServeHTTP(w, r)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/api/auth/login", authLimit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("/api/auth/register", authLimit(http.HandlerFunc(authHandler.Register)))
	mux.HandleFunc("/api/auth/profile", authHandler.GetProfile)
	mux.Handle("/api/users", canManage(http.HandlerFunc(authHandler.ListUsers)))
	mux.Handle("/api/users/{id}/active", canManage(http.HandlerFunc(authHandler.SetUserActive)))
	mux.Handle("/api/locations", locations)
	mux.Handle("/api/locations/{id}", canEdit(editLimit(http.HandlerFunc(tripHandler.UpdateLocation))))
	mux.Handle("/api/trip", canView(http.HandlerFunc(tripHandler.GetTrip)))
	mux.Handle("/api/map", canView(http.HandlerFunc(tripHandler.GetMap)))

	return middleware.RequestLogger(authMW.Authenticate(mux))
}

// openStorage selects the user and state persistence. The returned close
// function releases any database connection.
func openStorage(ctx context.Context, cfg *config.Config) (db.UserCollection, BackendFactory, func(), error) {
	switch cfg.Storage {
	case config.StorageMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, nil, err
		}
		database := client.Database(cfg.MongoDB)
		users := &db.MongoUserCollection{Collection: database.Collection("users")}
		states := &db.MongoStateCollection{Collection: database.Collection("state")}
		if err := users.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("Failed to create user indexes")
		}
		if err := states.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("Failed to create state indexes")
		}
		log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		closer := func() { disconnect(client) }
		return users, func(owner string) (store.Backend, error) { return states.ForOwner(owner), nil }, closer, nil

	case config.StorageFile:
		files, err := store.NewFileBackend(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		log.WithField("dir", cfg.DataDir).Info("Storing trips on disk")
		return db.NewMemoryUserCollection(), func(owner string) (store.Backend, error) {
			return files.ForOwner(owner)
		}, func() {}, nil

	default:
		log.Warn("Using in-memory storage, trips are lost on restart")
		return db.NewMemoryUserCollection(), func(string) (store.Backend, error) {
			return store.NewMemoryBackend(), nil
		}, func() {}, nil
	}
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.WithError(err).Warn("Failed to disconnect from MongoDB")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	authService, err := auth.NewService()
	if err != nil {
		return err
	}
	geocoder, err := providers.Geocoder(cfg)
	if err != nil {
		return err
	}
	planner, err := providers.Planner(cfg)
	if err != nil {
		return err
	}
	publisher, err := providers.Publisher(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close event publisher")
		}
	}()

	users, backends, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	srv := &server{
		authService: authService,
		users:       users,
		backends:    backends,
		geocoder:    geocoder,
		planner:     planner,
		publisher:   publisher,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":     cfg.Port,
			"geocoder": cfg.Geocoder,
			"router":   cfg.Router,
			"storage":  cfg.Storage,
		}).Info("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
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

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
