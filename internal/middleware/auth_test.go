package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/trip-planner/internal/auth"
	"github.com/ukydev/trip-planner/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func tokenFor(t *testing.T, svc *auth.Service, role models.Role) string {
	t.Helper()
	token, err := svc.GenerateToken(&models.User{
		ID:       primitive.NewObjectID(),
		Username: string(role) + "-user",
		Role:     role,
	})
	require.NoError(t, err)
	return token
}

// serve runs h and reports whether the wrapped handler was reached.
func serve(h func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, bool) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	w := httptest.NewRecorder()
	h(next).ServeHTTP(w, req)
	return w, called
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	authService, _ := auth.NewService()
	mw := NewAuthMiddleware(authService)

	t.Run("valid token", func(t *testing.T) {
		token := tokenFor(t, authService, models.RolePlanner)
		req := httptest.NewRequest(http.MethodGet, "/api/trip", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		var claims *models.Claims
		handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ = GetUserFromContext(r.Context())
		}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, claims)
		assert.Equal(t, "planner-user", claims.Username)
		assert.Equal(t, models.RolePlanner, claims.Role)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
		called bool
	}{
		{"missing header", "/api/trip", "", http.StatusUnauthorized, false},
		{"not bearer", "/api/trip", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, false},
		{"invalid token", "/api/locations", "Bearer invalid-token", http.StatusUnauthorized, false},
		{"login is public", "/api/auth/login", "", http.StatusOK, true},
		{"register is public", "/api/auth/register/", "", http.StatusOK, true},
		{"health is public", "/health", "", http.StatusOK, true},
		{"profile needs token", "/api/auth/profile", "", http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w, called := serve(mw.Authenticate, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.called, called)
		})
	}
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	authService, _ := auth.NewService()
	mw := NewAuthMiddleware(authService)

	tests := []struct {
		name   string
		role   models.Role
		action string
		want   int
	}{
		{"admin manages users", models.RoleAdmin, models.ActionManageUsers, http.StatusOK},
		{"planner edits trip", models.RolePlanner, models.ActionEditTrip, http.StatusOK},
		{"viewer views trip", models.RoleViewer, models.ActionViewTrip, http.StatusOK},
		{"viewer cannot edit", models.RoleViewer, models.ActionEditTrip, http.StatusForbidden},
		{"planner cannot manage users", models.RolePlanner, models.ActionManageUsers, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/locations/home", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, tt.role))
			chain := func(next http.Handler) http.Handler {
				return mw.Authenticate(mw.RequirePermission(tt.action)(next))
			}
			w, _ := serve(chain, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	t.Run("no claims in context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/trip", nil)
		w, called := serve(mw.RequirePermission(models.ActionViewTrip), req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, called)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimitMiddleware()
	rl.now = func() time.Time { return now }
	limit := rl.RateLimit(2, time.Minute)

	request := func(addr string) *http.Request {
		req := httptest.NewRequest(http.MethodPut, "/api/locations/home", nil)
		req.RemoteAddr = addr
		return req
	}

	for i := 0; i < 2; i++ {
		w, called := serve(limit, request("192.168.1.1:12345"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
	}

	w, called := serve(limit, request("192.168.1.1:12345"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.False(t, called)

	w, _ = serve(limit, request("192.168.1.2:12345"))
	assert.Equal(t, http.StatusOK, w.Code, "other clients are unaffected")

	now = now.Add(61 * time.Second)
	w, _ = serve(limit, request("192.168.1.1:12345"))
	assert.Equal(t, http.StatusOK, w.Code, "window has moved on")
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "ip:10.0.0.1", clientKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "ip:203.0.113.7", clientKey(req))

	ctx := context.WithValue(req.Context(), UserContextKey, &models.Claims{UserID: "abc"})
	assert.Equal(t, "user:abc", clientKey(req.WithContext(ctx)))
}

func TestGetUserFromContext(t *testing.T) {
	claims := &models.Claims{
		UserID:   "test-id",
		Username: "testuser",
		Role:     models.RoleAdmin,
	}

	ctx := context.WithValue(context.Background(), UserContextKey, claims)
	retrieved, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, retrieved)

	_, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)
}

func TestRequestLogger(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trip", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	handler = RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
