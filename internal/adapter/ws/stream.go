package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/models"
	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/logger"
	wrap "github.com/Temutjin2k/ride-hail-client/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-hail-client/pkg/metrics"
	"github.com/Temutjin2k/ride-hail-client/pkg/uuid"
	"github.com/gorilla/websocket"
)

// TokenSource supplies the current credential for the handshake.
type TokenSource interface {
	Token() string
}

// Sink receives ride snapshots decoded from the stream. The controller's
// Reconcile satisfies this, so pushed updates go through the same
// staleness gate as poll responses.
type Sink interface {
	Reconcile(ctx context.Context, r *models.Ride) bool
}

/*
Stream subscribes to ride status updates over a websocket instead of
polling. The lifecycle semantics are identical either way, only the
trigger differs. Reconnects with capped exponential backoff until the
context is cancelled.
*/
type Stream struct {
	baseURL string // ws:// or wss:// endpoint root
	tokens  TokenSource
	sink    Sink
	l       logger.Logger

	dialTimeout time.Duration
	maxBackoff  time.Duration
}

func New(baseURL string, tokens TokenSource, sink Sink, l logger.Logger) *Stream {
	return &Stream{
		baseURL:     baseURL,
		tokens:      tokens,
		sink:        sink,
		l:           l,
		dialTimeout: 5 * time.Second,
		maxBackoff:  30 * time.Second,
	}
}

// Run subscribes to one ride's status stream and feeds every frame to
// the sink. Returns when ctx is cancelled or the ride reaches a terminal
// state.
func (s *Stream) Run(ctx context.Context, rideID uuid.UUID) error {
	ctx = wrap.WithRideID(ctx, rideID.String())
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		token := s.tokens.Token()
		if token == "" {
			return types.ErrNoActiveSession
		}

		terminal, err := s.listen(ctx, rideID, token)
		if terminal {
			return nil
		}
		if errors.Is(err, context.Canceled) {
			return err
		}

		connCtx := wrap.WithAction(ctx, types.ActionWSDisconnected)
		s.l.Warn(connCtx, "ride stream dropped, reconnecting", "delay", backoff.String(), "reason", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
}

// listen dials once and consumes frames until the connection drops, the
// ride ends or the context is cancelled.
func (s *Stream) listen(ctx context.Context, rideID uuid.UUID, token string) (terminal bool, err error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.dialTimeout}
	header := http.Header{"Authorization": []string{"Bearer " + token}}

	conn, _, err := dialer.DialContext(ctx, s.baseURL+"/ws/rides/"+rideID.String(), header)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	metrics.WebSocketConnectedGauge.Set(1)
	defer metrics.WebSocketConnectedGauge.Set(0)

	connCtx := wrap.WithAction(ctx, types.ActionWSConnected)
	s.l.Info(connCtx, "ride stream connected")

	// Закрываем соединение при отмене контекста, Read вернет ошибку
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var update models.RideStatusUpdate
		if err := conn.ReadJSON(&update); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, err
		}

		if update.Ride.ID != rideID {
			continue
		}
		s.sink.Reconcile(ctx, &update.Ride)

		if update.Ride.Terminal() {
			return true, nil
		}
	}
}
