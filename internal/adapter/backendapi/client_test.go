package backendapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/logger"
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
)

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

func testClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, staticTokens(token), 2*time.Second, logger.InitLogger("api-test", logger.LevelError))
	return c, srv
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(models.Ride{Status: types.StatusRequested})
	}, "token-123")

	id, _ := uuid.New()
	if _, err := c.GetRide(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer token-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestClient_NoTokenRejectedLocally(t *testing.T) {
	called := false
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, "")

	id, _ := uuid.New()
	_, err := c.GetRide(context.Background(), id)
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if called {
		t.Fatal("tokenless call must not reach the backend")
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, types.ErrUnauthorized},
		{http.StatusForbidden, types.ErrForbidden},
		{http.StatusNotFound, types.ErrRideNotFound},
		{http.StatusConflict, types.ErrStateConflict},
		{http.StatusUnprocessableEntity, types.ErrValidation},
		{http.StatusTooManyRequests, types.ErrUnavailable},
		{http.StatusInternalServerError, types.ErrUnavailable},
		{http.StatusBadGateway, types.ErrUnavailable},
	}

	for _, tt := range tests {
		c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
		}, "token-123")

		id, _ := uuid.New()
		_, err := c.AcceptRide(context.Background(), id)
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
	}
}

func TestClient_UnauthorizedFiresHookOnAuthedCallsOnly(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "token expired"})
	}, "token-123")

	cleared := 0
	c.SetOnUnauthorized(func() { cleared++ })

	id, _ := uuid.New()
	if _, err := c.GetRide(context.Background(), id); !errors.Is(err, types.ErrUnauthorized) {
		t.Fatal("expected ErrUnauthorized")
	}
	if cleared != 1 {
		t.Fatalf("expected session clear hook to fire once, fired %d times", cleared)
	}

	// 401 на логине это неверные креды, сессию чистить не за что
	if _, _, err := c.Login(context.Background(), "a@b.c", "wrong"); !errors.Is(err, types.ErrUnauthorized) {
		t.Fatal("expected ErrUnauthorized from login")
	}
	if cleared != 1 {
		t.Fatalf("login 401 must not fire the hook, fired %d times", cleared)
	}
}

func TestClient_NetworkFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // заранее гасим сервер

	c := New(srv.URL, staticTokens("token-123"), time.Second, logger.InitLogger("api-test", logger.LevelError))
	_, err := c.AvailableRides(context.Background())
	if !errors.Is(err, types.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestClient_LoginDecodesUserAndToken(t *testing.T) {
	userID, _ := uuid.New()
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user":  models.User{ID: userID, Role: types.RoleRider},
			"token": "issued-token",
		})
	}, "")

	user, token, err := c.Login(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != userID || token != "issued-token" {
		t.Fatalf("unexpected login result: %+v %q", user, token)
	}
}
