package backendapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/logger"
	wrap "github.com/Temutjin2k/ride-hail-client/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-hail-client/pkg/metrics"
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
)

// TokenSource supplies the current credential. Empty string means
// logged out.
type TokenSource interface {
	Token() string
}

/*
Client consumes the backend's REST contract and maps every failure onto
the domain error taxonomy, so nothing above this package ever inspects
an HTTP status code. A 401 on an authenticated call fires the
onUnauthorized hook (the app wires it to the session store's Clear) and
surfaces ErrUnauthorized.
*/
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	l       logger.Logger

	onUnauthorized func()
}

func New(baseURL string, tokens TokenSource, timeout time.Duration, l logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		l:       l,
	}
}

// SetOnUnauthorized registers the hook fired when an authenticated call
// comes back 401.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

type authResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Login exchanges credentials for a user record and token.
// A 401 here means bad credentials, not an expired session, so the
// onUnauthorized hook is not fired.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	body := map[string]string{"email": email, "password": password}

	var out authResponse
	if err := c.do(ctx, call{op: "login", method: http.MethodPost, path: "/v1/auth/login", public: true}, body, &out); err != nil {
		return nil, "", err
	}
	return &out.User, out.Token, nil
}

// Register creates an account and returns the authenticated user.
func (c *Client) Register(ctx context.Context, name, email, password string, role types.UserRole) (*models.User, string, error) {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     role.String(),
	}

	var out authResponse
	if err := c.do(ctx, call{op: "register", method: http.MethodPost, path: "/v1/auth/register", public: true}, body, &out); err != nil {
		return nil, "", err
	}
	return &out.User, out.Token, nil
}

// CreateRide submits a new ride request; the backend answers with the
// created ride in REQUESTED state.
func (c *Client) CreateRide(ctx context.Context, req models.RideRequest) (*models.Ride, error) {
	var out models.Ride
	if err := c.do(ctx, call{op: "create_ride", method: http.MethodPost, path: "/v1/rides"}, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRide fetches the current snapshot of a single ride.
func (c *Client) GetRide(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	var out models.Ride
	if err := c.do(ctx, call{op: "get_ride", method: http.MethodGet, path: "/v1/rides/" + id.String()}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailableRides returns the open requests visible to the driver.
func (c *Client) AvailableRides(ctx context.Context) ([]models.Ride, error) {
	var out struct {
		Rides []models.Ride `json:"rides"`
	}
	if err := c.do(ctx, call{op: "available_rides", method: http.MethodGet, path: "/v1/rides/available"}, nil, &out); err != nil {
		return nil, err
	}
	return out.Rides, nil
}

// AcceptRide claims an open request. The backend applies the accept as a
// conditional update; losing the race comes back as ErrStateConflict.
func (c *Client) AcceptRide(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	var out models.Ride
	if err := c.do(ctx, call{op: "accept_ride", method: http.MethodPost, path: "/v1/rides/" + id.String() + "/accept"}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdvanceStatus asks the backend to move the ride to the given status.
func (c *Client) AdvanceStatus(ctx context.Context, id uuid.UUID, to types.RideStatus) (*models.Ride, error) {
	body := map[string]string{"status": to.String()}

	var out models.Ride
	if err := c.do(ctx, call{op: "advance_status", method: http.MethodPost, path: "/v1/rides/" + id.String() + "/status"}, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetAvailability flips the authenticated driver's online flag.
func (c *Client) SetAvailability(ctx context.Context, online bool) (*models.Availability, error) {
	body := map[string]bool{"is_online": online}

	var out models.Availability
	if err := c.do(ctx, call{op: "set_availability", method: http.MethodPut, path: "/v1/drivers/availability"}, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type call struct {
	op     string
	method string
	path   string

	// public calls carry no credential and never fire onUnauthorized
	public bool
}

func (c *Client) do(ctx context.Context, cl call, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s: failed to encode request body: %w", cl.op, err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, &buf)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: failed to build request: %w", cl.op, err))
	}
	req.Header.Set("Content-Type", "application/json")

	if !cl.public {
		token := c.tokens.Token()
		if token == "" {
			return wrap.Error(ctx, types.ErrNoActiveSession)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(cl.op, 0, time.Since(start))
		ctx = wrap.WithAction(ctx, types.ActionExternalAPIFailed)
		// Сеть/таймаут: транзиент, можно повторить с бэкоффом
		return wrap.Error(ctx, fmt.Errorf("%w: %s: %v", types.ErrUnavailable, cl.op, err))
	}
	defer resp.Body.Close()

	metrics.RecordAPIRequest(cl.op, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s: failed to decode response: %w", cl.op, err))
		}
		return nil
	}

	return wrap.Error(ctx, c.mapError(ctx, cl, resp))
}

type apiError struct {
	Error string `json:"error"`
}

// mapError turns a non-2xx response into a taxonomy error.
func (c *Client) mapError(ctx context.Context, cl call, resp *http.Response) error {
	var payload apiError
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	detail := payload.Error
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if !cl.public && c.onUnauthorized != nil {
			c.l.Warn(ctx, "authentication rejected by backend, clearing session", "operation", cl.op)
			c.onUnauthorized()
		}
		return fmt.Errorf("%w: %s", types.ErrUnauthorized, detail)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", types.ErrForbidden, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", types.ErrRideNotFound, detail)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", types.ErrStateConflict, detail)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", types.ErrValidation, detail)
	default:
		// 429 и вся пятисотая серия: транзиент
		return fmt.Errorf("%w: %s: %s", types.ErrUnavailable, cl.op, detail)
	}
}
