// Package sensor ingests hazard signals from a line-oriented TCP bridge
// (typically a serial-to-TCP adapter in front of a hardware sensor). Each
// line matching the configured signal token records one auto-located
// hazard report.
package sensor

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"safewalk/internal/danger"
)

// Locator produces the coordinates stamped on a sensor-originated report.
// The sensor feed itself carries no position.
type Locator func() (lat, lng float64)

// Listener maintains a connection to the sensor bridge and records a
// hazard for every signal token received. Connection failures are retried
// indefinitely with a fixed delay; the listener only stops when its
// context is cancelled.
type Listener struct {
	addr       string
	token      string
	retryDelay time.Duration
	store      danger.Store
	locate     Locator
	logger     *slog.Logger

	// dial is swapped out in tests.
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

// NewListener creates a sensor listener. retryDelay governs the pause
// between reconnection attempts after any dial or read failure.
func NewListener(addr, token string, retryDelay time.Duration, store danger.Store, locate Locator, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		addr:       addr,
		token:      token,
		retryDelay: retryDelay,
		store:      store,
		locate:     locate,
		logger:     logger.With("component", "sensor_listener"),
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		},
	}
}

// Run blocks until ctx is cancelled, reconnecting to the bridge across
// failures. It returns ctx.Err() on cancellation and never any other
// error: an unreachable sensor degrades ingestion, not the service.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := l.dial(ctx, l.addr)
		if err != nil {
			l.logger.Warn("sensor bridge unreachable, retrying",
				slog.String("addr", l.addr),
				slog.Duration("retry_delay", l.retryDelay),
				slog.Any("error", err),
			)
			if err := l.wait(ctx); err != nil {
				return err
			}
			continue
		}

		l.logger.Info("connected to sensor bridge", slog.String("addr", l.addr))
		err = l.consume(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.logger.Warn("sensor connection lost, retrying",
			slog.Duration("retry_delay", l.retryDelay),
			slog.Any("error", err),
		)
		if err := l.wait(ctx); err != nil {
			return err
		}
	}
}

// consume reads lines from an established connection until it fails or
// the context is cancelled. A goroutine tied to ctx unblocks the reader
// by closing the connection.
func (l *Listener) consume(ctx context.Context, conn net.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line != l.token {
			continue
		}

		lat, lng := l.locate()
		point, err := l.store.Add(ctx, lat, lng)
		if err != nil {
			l.logger.Error("failed to record sensor hazard", slog.Any("error", err))
			continue
		}
		l.logger.Info("sensor hazard recorded",
			slog.String("id", point.ID),
			slog.Float64("lat", point.Lat),
			slog.Float64("lng", point.Lng),
		)
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("sensor stream closed")
}

// wait sleeps for the retry delay, aborting early on cancellation.
func (l *Listener) wait(ctx context.Context) error {
	timer := time.NewTimer(l.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
