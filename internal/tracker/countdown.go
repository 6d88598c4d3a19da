// Package tracker derives the live countdown shown to a waiting customer and
// drives the re-poll that keeps the tracked order fresh.
package tracker

import (
	"fmt"
	"time"

	"github.com/kingrea/orderdesk/internal/order"
)

// Countdown is the read-model of a tracked order at one instant.
type Countdown struct {
	MinutesLeft int
	SecondsLeft int
	Remaining   time.Duration
	Total       time.Duration
	Overdue     bool
	// Progress is a percentage in [0, 100].
	Progress float64
	// Hidden is set for orders past the kitchen: nothing is rendered for them.
	Hidden bool
}

// Remaining computes the countdown for o against an estimate in minutes.
// Negative estimates count as zero. A zero CreatedAt is treated as now.
func Remaining(o order.Order, estimateMinutes int, now time.Time) Countdown {
	if hidden(o.Status) {
		return Countdown{Hidden: true}
	}
	if estimateMinutes < 0 {
		estimateMinutes = 0
	}
	total := time.Duration(estimateMinutes) * time.Minute
	created := o.CreatedAt
	if created.IsZero() {
		created = now
	}
	remaining := created.Add(total).Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > total {
		remaining = total
	}
	c := Countdown{
		MinutesLeft: int(remaining / time.Minute),
		SecondsLeft: int(remaining % time.Minute / time.Second),
		Remaining:   remaining,
		Total:       total,
		Overdue:     remaining == 0 && o.Status <= order.Ready,
		Progress:    100,
	}
	if total > 0 {
		elapsed := total - remaining
		c.Progress = float64(elapsed) / float64(total) * 100
		if c.Progress > 100 {
			c.Progress = 100
		}
	}
	return c
}

// Label renders "mm:ss", or "overdue" once the estimate has passed.
func (c Countdown) Label() string {
	switch {
	case c.Hidden:
		return ""
	case c.Overdue:
		return "overdue"
	default:
		return fmt.Sprintf("%02d:%02d", c.MinutesLeft, c.SecondsLeft)
	}
}

func hidden(s order.Status) bool {
	switch s {
	case order.Completed, order.Delivered, order.Cancelled, order.Rejected:
		return true
	}
	return !s.Valid()
}
