// Package tracking derives delivery tracking snapshots and drives the
// periodic tracking feed pushed to customers.
package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/jwillz7667/dank-deals-delivery-sub001/logging"
	"github.com/jwillz7667/dank-deals-delivery-sub001/metrics"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultMaxTicks = 120
)

// ErrTickLimit ends a feed that never reached a final status.
var ErrTickLimit = errors.New("tracking: tick limit reached")

// Sink receives each update. An error from the sink ends the feed.
type Sink func(Update) error

type Feed struct {
	source   LocationSource
	interval time.Duration
	maxTicks int
	now      func() time.Time
}

func NewFeed(source LocationSource, interval time.Duration, maxTicks int) *Feed {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	return &Feed{source: source, interval: interval, maxTicks: maxTicks, now: time.Now}
}

// Run sends a snapshot, then one update per tick until the order reaches a
// final status, the tick limit is hit or ctx is cancelled. It returns nil
// only when a final status was delivered to the sink.
func (f *Feed) Run(ctx context.Context, o *models.Order, sink Sink) error {
	log := logging.FromCtx(ctx).With("order_number", o.OrderNumber)

	first := Snapshot(o, f.now())
	if err := sink(first); err != nil {
		return err
	}
	if first.Status.Final() {
		return nil
	}

	metrics.TrackingStreams.Inc()
	defer metrics.TrackingStreams.Dec()

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for tick := 1; tick <= f.maxTicks; tick++ {
		select {
		case <-ctx.Done():
			log.Debug("tracking feed cancelled", "tick", tick)
			return ctx.Err()
		case <-ticker.C:
		}

		u, err := f.source.Next(ctx, o, tick)
		if err != nil {
			return err
		}
		if err := sink(u); err != nil {
			return err
		}
		if u.Status.Final() {
			log.Debug("tracking feed finished", "status", u.Status, "tick", tick)
			return nil
		}
	}
	log.Info("tracking feed hit tick limit", "max_ticks", f.maxTicks)
	return ErrTickLimit
}
