package ride

import (
	"context"
	"errors"
	"time"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/logger"
	wrap "github.com/Temutjin2k/ride-hail-client/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-hail-client/pkg/metrics"
)

const (
	watcherAvailable = "available_rides"
	watcherActive    = "active_ride"
)

/*
Poller drives reconciliation on a fixed interval. Each watcher checks its
preconditions on every tick and simply skips the fetch while they do not
hold, so polling pauses when the actor is offline or unauthenticated and
resumes by itself. Transient backend failures back the interval off
exponentially up to a cap; any success resets it.
*/
type Poller struct {
	c *Controller
	l logger.Logger

	interval   time.Duration
	maxBackoff time.Duration
}

func NewPoller(c *Controller, interval, maxBackoff time.Duration, l logger.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if maxBackoff < interval {
		maxBackoff = 8 * interval
	}
	return &Poller{
		c:          c,
		l:          l,
		interval:   interval,
		maxBackoff: maxBackoff,
	}
}

// WatchAvailable keeps the driver's open-request view fresh. The fetched
// set replaces the local view wholesale. Runs until ctx is cancelled.
func (p *Poller) WatchAvailable(ctx context.Context) {
	delay := p.interval

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		if !p.c.eligibleForOffers() {
			// Предусловия не выполнены, просто ждем следующего тика
			delay = p.interval
			continue
		}

		rides, err := p.c.backend.AvailableRides(ctx)
		metrics.RecordPollTick(watcherAvailable, err)
		if err != nil {
			delay = p.next(ctx, watcherAvailable, delay, err)
			continue
		}

		p.c.ReplaceAvailable(rides)
		delay = p.interval
	}
}

// WatchActive polls the single active ride and reconciles every response.
// Stops fetching once the ride reaches a terminal state or the session
// goes away; keeps waiting for a new active ride until ctx is cancelled.
func (p *Poller) WatchActive(ctx context.Context) {
	delay := p.interval

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		rideID, ok := p.c.WatchingRide()
		if !ok {
			delay = p.interval
			continue
		}

		fresh, err := p.c.backend.GetRide(ctx, rideID)
		metrics.RecordPollTick(watcherActive, err)
		if err != nil {
			if errors.Is(err, types.ErrRideNotFound) {
				p.c.dropActive(rideID)
				delay = p.interval
				continue
			}
			delay = p.next(ctx, watcherActive, delay, err)
			continue
		}

		p.c.Reconcile(ctx, fresh)
		delay = p.interval
	}
}

// next computes the delay before the following tick after a failure.
// Unavailable doubles the delay up to the cap; everything else (including
// unauthorized, which clears the session via the API client) returns to
// the base interval since the precondition check handles it.
func (p *Poller) next(ctx context.Context, watcher string, delay time.Duration, err error) time.Duration {
	if !errors.Is(err, types.ErrUnavailable) {
		return p.interval
	}

	delay *= 2
	if delay > p.maxBackoff {
		delay = p.maxBackoff
	}

	ctx = wrap.WithAction(ctx, types.ActionPollBackoff)
	p.l.Warn(ctx, "poll failed, backing off", "watcher", watcher, "delay", delay.String(), "reason", err.Error())
	return delay
}
