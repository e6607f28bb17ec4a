package ride

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/logger"
	wrap "github.com/Temutjin2k/ride-hail-client/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-hail-client/pkg/metrics"
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
	"github.com/Temutjin2k/ride-hail-client/pkg/validator"
)

/*
Controller owns the client-side ride lifecycle: the cached active ride,
the driver's view of open requests, and the concurrency discipline around
them. The backend owns every ride; the controller holds an eventually
consistent copy reconciled through polling, the ws stream and mutation
responses. No other component writes to the cache.
*/
type Controller struct {
	backend  Backend
	sessions SessionSource
	l        logger.Logger

	mu sync.Mutex

	// active is the last backend-confirmed ride record.
	active *models.Ride

	// pending is the optimistic overlay during an advance call.
	// Никогда не трогаем active до подтверждения бэкенда.
	pending *models.Ride

	// available holds the driver's current snapshot of open requests,
	// replaced wholesale on every successful poll.
	available []models.Ride

	// inflight serializes advance calls per ride id.
	inflight map[uuid.UUID]struct{}

	online bool
}

// requestKey занимает слот в inflight на время создания заказа.
// Настоящая поездка с нулевым id не существует.
var requestKey uuid.UUID

func NewController(backend Backend, sessions SessionSource, l logger.Logger) *Controller {
	return &Controller{
		backend:  backend,
		sessions: sessions,
		l:        l,
		inflight: make(map[uuid.UUID]struct{}),
	}
}

// Request submits a new ride for the rider. Input is validated locally
// before any network call; a validation failure never reaches the wire.
func (c *Controller) Request(ctx context.Context, req models.RideRequest) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "request_ride")

	sess, err := c.transactingSession(types.RoleRider)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	ctx = wrap.WithUserID(ctx, sess.User.ID.String())

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		return nil, wrap.Error(ctx, validationError(v))
	}

	c.mu.Lock()
	if c.active != nil && !c.active.Terminal() {
		c.mu.Unlock()
		return nil, wrap.Error(ctx, fmt.Errorf("%w: a ride is already in progress", types.ErrValidation))
	}
	if _, busy := c.inflight[requestKey]; busy {
		// Предыдущая отправка еще в полете, дубликат режем локально
		c.mu.Unlock()
		return nil, wrap.Error(ctx, types.ErrRequestInFlight)
	}
	c.inflight[requestKey] = struct{}{}
	c.mu.Unlock()

	created, err := c.backend.CreateRide(ctx, req)

	c.mu.Lock()
	delete(c.inflight, requestKey)
	if err != nil {
		c.mu.Unlock()
		return nil, wrap.Error(ctx, err)
	}
	c.active = created
	c.mu.Unlock()

	metrics.RideTransitionsTotal.WithLabelValues(created.Status.String()).Inc()
	c.l.Info(wrap.WithRideID(ctx, created.ID.String()), "ride requested", "status", created.Status)

	return c.ActiveRide(), nil
}

// Cancel moves the active ride to CANCELLED. Allowed for the rider while
// the ride is open or accepted, and for the assigned driver once accepted.
func (c *Controller) Cancel(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "cancel_ride")
	return c.advance(ctx, rideID, types.StatusCancelled)
}

// Advance moves the active ride one step forward in the lifecycle.
func (c *Controller) Advance(ctx context.Context, rideID uuid.UUID, to types.RideStatus) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "advance_ride")
	return c.advance(ctx, rideID, to)
}

func (c *Controller) advance(ctx context.Context, rideID uuid.UUID, to types.RideStatus) (*models.Ride, error) {
	ctx = wrap.WithRideID(ctx, rideID.String())

	sess := c.sessions.Current()
	if sess == nil {
		return nil, wrap.Error(ctx, types.ErrNoActiveSession)
	}
	if sess.User.IsBlocked {
		return nil, wrap.Error(ctx, types.ErrAccountBlocked)
	}
	ctx = wrap.WithUserID(ctx, sess.User.ID.String())

	c.mu.Lock()
	if c.active == nil || c.active.ID != rideID {
		c.mu.Unlock()
		return nil, wrap.Error(ctx, types.ErrRideNotFound)
	}
	if _, busy := c.inflight[rideID]; busy {
		// Второй клик пока первый запрос в полете: отклоняем локально,
		// без похода в сеть.
		c.mu.Unlock()
		return nil, wrap.Error(ctx, types.ErrAdvanceInFlight)
	}
	if err := ValidateTransition(c.active, to, &sess.User); err != nil {
		c.mu.Unlock()
		return nil, wrap.Error(ctx, err)
	}

	// Optimistic overlay on top of the confirmed record.
	overlay := *c.active
	overlay.Status = to
	c.pending = &overlay
	c.inflight[rideID] = struct{}{}
	c.mu.Unlock()

	updated, err := c.backend.AdvanceStatus(ctx, rideID, to)

	c.mu.Lock()
	delete(c.inflight, rideID)
	c.pending = nil // rollback to last confirmed unless the call succeeded

	if err != nil {
		c.mu.Unlock()
		switch {
		case errors.Is(err, types.ErrRideNotFound):
			// Поездки больше нет, держать кэш нет смысла
			c.dropActive(rideID)
			c.l.Warn(ctx, "ride vanished during status change")
		case errors.Is(err, types.ErrStateConflict):
			// The ride moved past what we assumed. Refresh, don't retry.
			c.refreshActive(ctx, rideID)
		}
		return nil, wrap.Error(ctx, err)
	}

	c.applyLocked(updated)
	c.mu.Unlock()

	metrics.RideTransitionsTotal.WithLabelValues(updated.Status.String()).Inc()
	c.l.Info(ctx, "ride status advanced", "status", updated.Status)

	return c.ActiveRide(), nil
}

// Accept claims an open request for the driver. Losing the race to
// another driver is a normal outcome, not a failure: the ride is removed
// from the local view and ErrRideTaken tells the caller to show
// "that ride was just taken".
func (c *Controller) Accept(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "accept_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())

	sess, err := c.transactingSession(types.RoleDriver)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	ctx = wrap.WithUserID(ctx, sess.User.ID.String())

	if !sess.User.Approved() {
		return nil, wrap.Error(ctx, types.ErrDriverNotApproved)
	}

	c.mu.Lock()
	if !c.online {
		c.mu.Unlock()
		return nil, wrap.Error(ctx, fmt.Errorf("%w: driver is offline", types.ErrValidation))
	}
	if _, busy := c.inflight[rideID]; busy {
		c.mu.Unlock()
		return nil, wrap.Error(ctx, types.ErrAdvanceInFlight)
	}
	c.inflight[rideID] = struct{}{}
	c.mu.Unlock()

	accepted, err := c.backend.AcceptRide(ctx, rideID)

	c.mu.Lock()
	delete(c.inflight, rideID)
	if err != nil {
		if errors.Is(err, types.ErrStateConflict) || errors.Is(err, types.ErrRideNotFound) {
			// Проигрыш гонки: заказ занят, из списка убираем.
			// Транзиентные ошибки список не трогают, цель повтора
			// должна остаться на месте.
			c.removeAvailableLocked(rideID)
			c.mu.Unlock()
			metrics.AcceptConflictsTotal.Inc()
			c.l.Info(ctx, "ride already taken by another driver")
			return nil, wrap.Error(ctx, types.ErrRideTaken)
		}
		c.mu.Unlock()
		return nil, wrap.Error(ctx, err)
	}

	c.removeAvailableLocked(rideID)
	c.active = accepted
	c.pending = nil
	c.mu.Unlock()

	metrics.RideTransitionsTotal.WithLabelValues(accepted.Status.String()).Inc()
	c.l.Info(ctx, "ride accepted", "status", accepted.Status)

	return c.ActiveRide(), nil
}

// ToggleAvailability flips the driver's online flag. An unapproved driver
// is rejected locally before any network call.
func (c *Controller) ToggleAvailability(ctx context.Context, online bool) error {
	ctx = wrap.WithAction(ctx, "toggle_availability")

	sess, err := c.transactingSession(types.RoleDriver)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	ctx = wrap.WithUserID(ctx, sess.User.ID.String())

	if online && !sess.User.Approved() {
		return wrap.Error(ctx, types.ErrDriverNotApproved)
	}

	av, err := c.backend.SetAvailability(ctx, online)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	c.mu.Lock()
	c.online = av.IsOnline
	if !c.online {
		// Офлайн водителю открытые заказы не видны
		c.available = nil
	}
	c.mu.Unlock()

	if av.IsOnline {
		metrics.DriverOnlineGauge.Set(1)
	} else {
		metrics.DriverOnlineGauge.Set(0)
	}
	c.l.Info(ctx, "availability changed", "is_online", av.IsOnline)

	return nil
}

// Reconcile applies a ride snapshot fetched from the backend. A snapshot
// older than the applied one (earlier status rank, or same rank with an
// earlier updated_at) is discarded so a late retry cannot overwrite newer
// confirmed state. Returns whether the snapshot was applied.
func (c *Controller) Reconcile(ctx context.Context, r *models.Ride) bool {
	if r == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && c.active.ID == r.ID && !r.NewerThan(c.active) {
		metrics.StaleResponsesDropped.Inc()
		ctx = wrap.WithAction(ctx, types.ActionStaleRideDropped)
		c.l.Debug(wrap.WithRideID(ctx, r.ID.String()), "stale ride snapshot dropped",
			"cached_status", c.active.Status, "snapshot_status", r.Status)
		return false
	}

	c.applyLocked(r)
	return true
}

// ReplaceAvailable swaps the open-request view wholesale. Membership is a
// point-in-time snapshot, not an append-only log, so partial merges would
// resurrect rides other drivers already took.
func (c *Controller) ReplaceAvailable(rides []models.Ride) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = rides
}

// ActiveRide returns the ride as the presentation layer should render it:
// the optimistic overlay while an advance is in flight, otherwise the
// last confirmed record. Always a copy.
func (c *Controller) ActiveRide() *models.Ride {
	c.mu.Lock()
	defer c.mu.Unlock()

	src := c.active
	if c.pending != nil {
		src = c.pending
	}
	if src == nil {
		return nil
	}
	cp := *src
	return &cp
}

// AvailableRides returns a copy of the current open-request snapshot.
func (c *Controller) AvailableRides() []models.Ride {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Ride, len(c.available))
	copy(out, c.available)
	return out
}

// Online reports the local availability flag.
func (c *Controller) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Reset drops all cached state. Called on logout; availability falls back
// to offline.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = nil
	c.pending = nil
	c.available = nil
	c.online = false
	metrics.DriverOnlineGauge.Set(0)
}

// eligibleForOffers reports whether the open-request poller should run:
// authenticated approved driver, online, not blocked.
func (c *Controller) eligibleForOffers() bool {
	sess := c.sessions.Current()
	if sess == nil || sess.User.IsBlocked || !sess.User.Approved() {
		return false
	}
	return c.Online()
}

// WatchingRide returns the active ride id while it needs watching:
// a session holds a non-terminal ride.
func (c *Controller) WatchingRide() (uuid.UUID, bool) {
	if c.sessions.Current() == nil {
		return uuid.UUID{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.Terminal() {
		return uuid.UUID{}, false
	}
	return c.active.ID, true
}

// transactingSession loads the session and enforces the standing checks
// shared by every mutating call: logged in, not blocked, right role.
func (c *Controller) transactingSession(role types.UserRole) (*models.Session, error) {
	sess := c.sessions.Current()
	if sess == nil {
		return nil, types.ErrNoActiveSession
	}
	if sess.User.IsBlocked {
		return nil, types.ErrAccountBlocked
	}
	if sess.User.Role != role {
		return nil, types.ErrForbidden
	}
	return sess, nil
}

// applyLocked installs a confirmed ride record. Caller holds c.mu.
func (c *Controller) applyLocked(r *models.Ride) {
	cp := *r
	c.active = &cp
}

func (c *Controller) dropActive(rideID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.ID == rideID {
		c.active = nil
	}
}

// refreshActive re-fetches the ride after a state conflict so the local
// cache reflects what actually happened.
func (c *Controller) refreshActive(ctx context.Context, rideID uuid.UUID) {
	fresh, err := c.backend.GetRide(ctx, rideID)
	if err != nil {
		if errors.Is(err, types.ErrRideNotFound) {
			c.dropActive(rideID)
		}
		return
	}
	c.Reconcile(ctx, fresh)
}

func (c *Controller) removeAvailableLocked(rideID uuid.UUID) {
	for i := range c.available {
		if c.available[i].ID == rideID {
			c.available = append(c.available[:i], c.available[i+1:]...)
			return
		}
	}
}

// validationError folds the validator's field map into one error value.
func validationError(v *validator.Validator) error {
	keys := make([]string, 0, len(v.Errors))
	for k := range v.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, v.Errors[k]))
	}
	return fmt.Errorf("%w: %s", types.ErrValidation, strings.Join(parts, "; "))
}
