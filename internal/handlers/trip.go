package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/controller"
	"github.com/ukydev/trip-planner/internal/middleware"
	"github.com/ukydev/trip-planner/internal/models"
)

// FieldUpdate is the body of a location edit.
type FieldUpdate struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// TripHandler exposes the authenticated user's trip.
type TripHandler struct {
	sessions *controller.Sessions
}

func NewTripHandler(sessions *controller.Sessions) *TripHandler {
	return &TripHandler{sessions: sessions}
}

// app resolves the caller's App, writing an error response on failure.
func (h *TripHandler) app(w http.ResponseWriter, r *http.Request) (*controller.App, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, false
	}
	app, err := h.sessions.Get(r.Context(), claims.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", claims.UserID).Error("Failed to open trip session")
		http.Error(w, "Failed to load trip", http.StatusInternalServerError)
		return nil, false
	}
	return app, true
}

// Locations lists the rows on GET and appends an empty row on POST.
func (h *TripHandler) Locations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		app, ok := h.app(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, app.Rows())
	case http.MethodPost:
		app, ok := h.app(w, r)
		if !ok {
			return
		}
		id := app.NewLocation()
		w.Header().Set("Location", "/api/locations/"+id)
		writeJSON(w, http.StatusCreated, controller.Row{ID: id, State: controller.RowEmpty})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// UpdateLocation applies a field edit to the row named in the path and
// returns the resulting snapshot. Geocoding or routing failures are not
// errors here; the snapshot simply shows the previous state.
func (h *TripHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update FieldUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	app, ok := h.app(w, r)
	if !ok {
		return
	}

	err := app.UpdateField(r.Context(), r.PathValue("id"), update.Field, update.Value)
	switch {
	case errors.Is(err, controller.ErrMalformedRow):
		http.Error(w, "Location id is required", http.StatusBadRequest)
		return
	case errors.Is(err, models.ErrUnknownField):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "Failed to update location", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, app.Snapshot())
}

// GetTrip returns the rows, route totals and map surface.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, app.Snapshot())
}

// GetMap returns the map surface as a GeoJSON FeatureCollection.
func (h *TripHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	app, ok := h.app(w, r)
	if !ok {
		return
	}

	data, err := app.Snapshot().Map.MarshalJSON()
	if err != nil {
		http.Error(w, "Failed to encode map", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
