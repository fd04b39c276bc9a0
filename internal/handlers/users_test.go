package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/trip-planner/internal/auth"
	"github.com/ukydev/trip-planner/internal/db"
	"github.com/ukydev/trip-planner/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAuthHandler_ListUsers(t *testing.T) {
	authService, err := auth.NewService()
	require.NoError(t, err)

	t.Run("lists users without password hashes", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("ListUsers", mock.Anything).Return([]models.User{
			{ID: primitive.NewObjectID(), Username: "alice", PasswordHash: "secret-hash", Role: models.RoleAdmin},
			{ID: primitive.NewObjectID(), Username: "bob", PasswordHash: "secret-hash", Role: models.RolePlanner},
		}, nil)

		w := httptest.NewRecorder()
		handler.ListUsers(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got []models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "alice", got[0].Username)
		assert.NotContains(t, w.Body.String(), "secret-hash")
	})

	t.Run("store failure", func(t *testing.T) {
		users := new(MockUserCollection)
		handler := NewAuthHandler(authService, users)
		users.On("ListUsers", mock.Anything).Return(nil, errors.New("db down"))

		w := httptest.NewRecorder()
		handler.ListUsers(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		handler := NewAuthHandler(authService, new(MockUserCollection))
		w := httptest.NewRecorder()
		handler.ListUsers(w, httptest.NewRequest(http.MethodPost, "/api/users", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestAuthHandler_SetUserActive(t *testing.T) {
	authService, err := auth.NewService()
	require.NoError(t, err)

	target := &models.User{ID: primitive.NewObjectID(), Username: "bob", Role: models.RolePlanner}
	self := primitive.NewObjectID().Hex()

	tests := []struct {
		name  string
		id    string
		body  any
		setup func(users *MockUserCollection)
		want  int
	}{
		{
			name: "deactivate",
			id:   target.ID.Hex(),
			body: ActiveUpdate{Active: false},
			setup: func(users *MockUserCollection) {
				users.On("SetActive", mock.Anything, target.ID.Hex(), false).Return(nil)
				users.On("FindUserByID", mock.Anything, target.ID.Hex()).Return(target, nil)
			},
			want: http.StatusOK,
		},
		{
			name: "unknown user",
			id:   target.ID.Hex(),
			body: ActiveUpdate{Active: true},
			setup: func(users *MockUserCollection) {
				users.On("SetActive", mock.Anything, target.ID.Hex(), true).Return(db.ErrNotFound)
			},
			want: http.StatusNotFound,
		},
		{
			name: "store failure",
			id:   target.ID.Hex(),
			body: ActiveUpdate{Active: true},
			setup: func(users *MockUserCollection) {
				users.On("SetActive", mock.Anything, target.ID.Hex(), true).Return(errors.New("db down"))
			},
			want: http.StatusInternalServerError,
		},
		{name: "invalid id", id: "not-an-id", body: ActiveUpdate{}, want: http.StatusBadRequest},
		{name: "invalid body", id: target.ID.Hex(), body: "yes", want: http.StatusBadRequest},
		{name: "cannot deactivate self", id: self, body: ActiveUpdate{Active: false}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserCollection)
			if tt.setup != nil {
				tt.setup(users)
			}
			handler := NewAuthHandler(authService, users)

			mux := http.NewServeMux()
			mux.HandleFunc("/api/users/{id}/active", handler.SetUserActive)
			req := httptest.NewRequest(http.MethodPut, "/api/users/"+tt.id+"/active", jsonBody(t, tt.body))
			req = asUser(req, self)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code, w.Body.String())
			users.AssertExpectations(t)
		})
	}
}
