package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-hail-client/config"
	"github.com/Temutjin2k/ride-hail-client/internal/adapter/backendapi"
	"github.com/Temutjin2k/ride-hail-client/internal/adapter/ws"
	"github.com/Temutjin2k/ride-hail-client/internal/authz"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/internal/ride"
	"github.com/Temutjin2k/ride-hail-client/internal/session"
	"github.com/Temutjin2k/ride-hail-client/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/*
App is the composition root: it owns the session store, the API client,
the lifecycle controller and the watchers, and exposes the operations
the presentation layer calls. The session is injected into the gate and
the controller, never read from ambient globals.
*/
type App struct {
	cfg config.Config
	log logger.Logger

	store      *session.Store
	api        *backendapi.Client
	controller *ride.Controller
	poller     *ride.Poller
	stream     *ws.Stream
}

// NewApplication wires all components together.
func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	store := session.New(cfg.Session.Path, log)
	api := backendapi.New(cfg.API.BaseURL, store, cfg.API.Timeout, log)
	controller := ride.NewController(api, store, log)

	// Отказ аутентификации на любом эндпоинте гасит сессию;
	// следующий Authorize уведет на логин.
	api.SetOnUnauthorized(func() {
		store.Clear()
		controller.Reset()
	})

	a := &App{
		cfg:        cfg,
		log:        log,
		store:      store,
		api:        api,
		controller: controller,
		poller:     ride.NewPoller(controller, cfg.Polling.Interval, cfg.Polling.MaxBackoff, log),
	}

	if cfg.Stream.Enabled {
		a.stream = ws.New(cfg.Stream.URL, store, controller, log)
	}

	return a, nil
}

// Run starts the watchers for the configured mode and blocks until the
// context is cancelled. Cancelling tears every poller down with it.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.Metrics.Addr != "" {
		go a.serveMetrics(ctx)
	}

	switch a.cfg.Mode {
	case types.DriverMode:
		go a.poller.WatchAvailable(ctx)
	case types.RiderMode:
		// у пассажира только активная поездка
	}

	if a.stream != nil {
		go a.runStream(ctx)
	} else {
		go a.poller.WatchActive(ctx)
	}

	a.log.Info(ctx, "client started", "mode", a.cfg.Mode)
	<-ctx.Done()
	a.log.Info(context.Background(), "client stopped")

	return nil
}

// Login authenticates and populates the session store.
func (a *App) Login(ctx context.Context, email, password string) error {
	user, token, err := a.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	a.store.Set(*user, token)
	a.log.Info(ctx, "logged in", "role", user.Role)
	return nil
}

// Register creates an account and populates the session store.
func (a *App) Register(ctx context.Context, name, email, password string, role types.UserRole) error {
	user, token, err := a.api.Register(ctx, name, email, password, role)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	a.store.Set(*user, token)
	a.log.Info(ctx, "registered", "role", user.Role)
	return nil
}

// Logout clears the session and drops all cached ride state.
// Availability falls back to offline.
func (a *App) Logout(ctx context.Context) {
	if a.controller.Online() {
		// Бэкенду лучше знать что водитель ушел, но логаут не ждет
		if err := a.controller.ToggleAvailability(ctx, false); err != nil {
			a.log.Warn(ctx, "failed to go offline before logout", "reason", err.Error())
		}
	}
	a.store.Clear()
	a.controller.Reset()
}

// Authorize runs the gate against the current session.
func (a *App) Authorize(action types.Action) authz.Verdict {
	return authz.Authorize(a.store.Current(), action)
}

// Rides exposes the lifecycle controller to the presentation layer.
func (a *App) Rides() *ride.Controller {
	return a.controller
}

// Sessions exposes the session store.
func (a *App) Sessions() *session.Store {
	return a.store
}

// runStream keeps a websocket subscription on whichever ride is active,
// falling back to waiting when there is none.
func (a *App) runStream(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}

		rideID, ok := a.controller.WatchingRide()
		if !ok {
			continue
		}

		if err := a.stream.Run(ctx, rideID); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn(ctx, "ride stream ended", "reason", err.Error())
		}
	}
}

func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info(ctx, "metrics endpoint up", "addr", a.cfg.Metrics.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error(ctx, "metrics endpoint failed", err)
	}
}
