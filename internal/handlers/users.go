package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/trip-planner/internal/db"
	"github.com/ukydev/trip-planner/internal/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActiveUpdate is the body of an account activation change.
type ActiveUpdate struct {
	Active bool `json:"active"`
}

// ListUsers returns every account ordered by username.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.userCollection.ListUsers(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// SetUserActive enables or disables the account named in the path. A
// disabled account can no longer log in.
func (h *AuthHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	if !primitive.IsValidObjectID(id) {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	var update ActiveUpdate
	if !decodeJSON(w, r, &update) {
		return
	}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok && claims.UserID == id && !update.Active {
		http.Error(w, "Cannot deactivate your own account", http.StatusBadRequest)
		return
	}

	err := h.userCollection.SetActive(r.Context(), id, update.Active)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithError(err).WithField("user_id", id).Error("Failed to update user")
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), id)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	log.WithFields(log.Fields{"user_id": id, "active": update.Active}).Info("User activation changed")
	writeJSON(w, http.StatusOK, user)
}
