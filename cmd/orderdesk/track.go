package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kingrea/orderdesk/internal/desk"
	"github.com/kingrea/orderdesk/internal/order"
	"github.com/kingrea/orderdesk/internal/tracker"
)

type trackFunc func(ctx context.Context, tag string) (desk.TrackResult, error)

// runPlainTracker polls tag until it stops polling or ctx ends, printing a
// status line per change and a countdown line per second.
func runPlainTracker(ctx context.Context, track trackFunc, tag string, interval time.Duration, logger tracker.Logger, out io.Writer) error {
	var (
		mu     sync.Mutex
		latest desk.TrackResult
		seen   bool
	)
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(out, format, args...)
	}
	fetch := func(ctx context.Context) (order.Order, error) {
		result, err := track(ctx, tag)
		if err != nil {
			return order.Order{}, err
		}
		mu.Lock()
		latest, seen = result, true
		mu.Unlock()
		return result.Order, nil
	}
	var lastStatus order.Status = -1
	poller := tracker.NewPoller(fetch,
		tracker.WithInterval(interval),
		tracker.WithLogger(logger),
		tracker.OnUpdate(func(o order.Order) {
			if o.Status != lastStatus {
				lastStatus = o.Status
				printf("%s %s\n", tag, o.Status)
			}
		}),
		tracker.OnError(func(err error) {
			printf("%s error: %s\n", tag, desk.Describe(err))
		}),
	)
	poller.Start(ctx)
	defer poller.Stop()
	done := poller.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			if err := ctx.Err(); err != nil {
				return nil
			}
			printf("%s tracking stopped\n", tag)
			return nil
		case now := <-ticker.C:
			mu.Lock()
			result, ok := latest, seen
			mu.Unlock()
			if !ok {
				continue
			}
			countdown := tracker.Remaining(result.Order, result.EstimateMinutes, now)
			if countdown.Hidden {
				continue
			}
			printf("%s %s %3.0f%%\n", tag, countdown.Label(), countdown.Progress)
		}
	}
}
