// Package desk is the staff-facing application service. It gates every action
// through the order lifecycle before asking the gateway to execute it, and
// records the outcome in the activity journal.
package desk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/orderdesk/internal/gateway"
	"github.com/kingrea/orderdesk/internal/order"
	"github.com/kingrea/orderdesk/internal/orderlist"
	"github.com/kingrea/orderdesk/internal/ordertype"
)

// ErrTransitionNotAllowed is returned, without a round trip, when the
// lifecycle forbids the requested move.
var ErrTransitionNotAllowed = errors.New("desk: transition not allowed")

// Gateway is the slice of the order API the desk needs.
type Gateway interface {
	ListPending(ctx context.Context) ([]order.Order, error)
	ListBranchOrders(ctx context.Context) ([]order.Order, error)
	ListDeleted(ctx context.Context) ([]order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	Confirm(ctx context.Context, id int64, req gateway.ConfirmRequest) (order.Order, error)
	Reject(ctx context.Context, id int64, req gateway.RejectRequest) (order.Order, error)
	ChangeStatus(ctx context.Context, id int64, req gateway.ChangeStatusRequest) (order.Order, error)
	Track(ctx context.Context, tag string) (gateway.Tracking, error)
}

// Journal records staff activity per order tag.
type Journal interface {
	Info(tag, format string, args ...any)
	Warn(tag, format string, args ...any)
	Error(tag, format string, args ...any)
}

// Logger receives failed loads and mutations.
type Logger interface {
	Errorf(format string, args ...any)
}

// Service is safe for concurrent use as long as its collaborators are.
type Service struct {
	gateway         Gateway
	types           *ordertype.Cache
	journal         Journal
	logger          Logger
	defaultEstimate int
}

// Option customizes service construction.
type Option func(*Service)

// WithJournal records actions in j.
func WithJournal(j Journal) Option {
	return func(s *Service) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultEstimate sets the estimate used when neither the tracking
// response nor the order type has one.
func WithDefaultEstimate(minutes int) Option {
	return func(s *Service) {
		if minutes >= 0 {
			s.defaultEstimate = minutes
		}
	}
}

// New wires a service. types may be nil, in which case pricing carries no
// service charge and estimates fall back to the default.
func New(gw Gateway, types *ordertype.Cache, opts ...Option) *Service {
	s := &Service{
		gateway:         gw,
		types:           types,
		journal:         nopJournal{},
		logger:          nopLogger{},
		defaultEstimate: 30,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load fetches the list for mode while warming the order-type cache.
func (s *Service) Load(ctx context.Context, mode orderlist.ViewMode) ([]order.Order, error) {
	list, err := s.lister(mode)
	if err != nil {
		return nil, err
	}
	var orders []order.Order
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = list(gctx)
		return err
	})
	if s.types != nil {
		g.Go(func() error {
			// Cache reads never fail; a stale or empty catalog is acceptable.
			s.types.ListActive(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Errorf("desk: load %s failed: %v", mode, err)
		return nil, fmt.Errorf("load %s orders: %w", mode, err)
	}
	return orders, nil
}

func (s *Service) lister(mode orderlist.ViewMode) (func(context.Context) ([]order.Order, error), error) {
	switch mode {
	case orderlist.ViewPending:
		return s.gateway.ListPending, nil
	case orderlist.ViewBranch:
		return s.gateway.ListBranchOrders, nil
	case orderlist.ViewDeleted:
		return s.gateway.ListDeleted, nil
	default:
		return nil, fmt.Errorf("desk: unknown view mode %q", mode)
	}
}

// Refresh re-reads one order, e.g. after a Conflict.
func (s *Service) Refresh(ctx context.Context, o order.Order) (order.Order, error) {
	fresh, err := s.gateway.GetOrder(ctx, o.ID)
	if err != nil {
		return order.Order{}, fmt.Errorf("refresh order %s: %w", label(o), err)
	}
	return fresh, nil
}

// Confirm moves a pending order to Confirmed.
func (s *Service) Confirm(ctx context.Context, o order.Order) (order.Order, error) {
	if !order.CanModify(o.Status) || !order.CanTransition(o.Status, order.Confirmed) {
		return order.Order{}, s.refuse(o, "confirm", order.Confirmed)
	}
	updated, err := s.gateway.Confirm(ctx, o.ID, gateway.ConfirmRequest{RowVersion: o.RowVersion})
	return s.record(o, "confirm", updated, err)
}

// Reject moves a pending order to Rejected with reason.
func (s *Service) Reject(ctx context.Context, o order.Order, reason string) (order.Order, error) {
	if !order.CanTransition(o.Status, order.Rejected) {
		return order.Order{}, s.refuse(o, "reject", order.Rejected)
	}
	req := gateway.RejectRequest{Reason: strings.TrimSpace(reason), RowVersion: o.RowVersion}
	updated, err := s.gateway.Reject(ctx, o.ID, req)
	return s.record(o, "reject", updated, err)
}

// ChangeStatus moves o to next when the lifecycle allows it.
func (s *Service) ChangeStatus(ctx context.Context, o order.Order, next order.Status) (order.Order, error) {
	if !order.CanTransition(o.Status, next) {
		return order.Order{}, s.refuse(o, "change status", next)
	}
	req := gateway.ChangeStatusRequest{NewStatus: next, RowVersion: o.RowVersion}
	updated, err := s.gateway.ChangeStatus(ctx, o.ID, req)
	return s.record(o, "move to "+next.String(), updated, err)
}

// Advance moves o one step forward along the happy path.
func (s *Service) Advance(ctx context.Context, o order.Order) (order.Order, error) {
	next, ok := order.NextForward(o.Status)
	if !ok {
		return order.Order{}, s.refuse(o, "advance", o.Status)
	}
	if next == order.Confirmed {
		return s.Confirm(ctx, o)
	}
	return s.ChangeStatus(ctx, o, next)
}

// Cancel cancels o while the kitchen can still stop it.
func (s *Service) Cancel(ctx context.Context, o order.Order) (order.Order, error) {
	if !order.CanCancel(o.Status) {
		return order.Order{}, s.refuse(o, "cancel", order.Cancelled)
	}
	return s.ChangeStatus(ctx, o, order.Cancelled)
}

// TrackResult is a tracked order with the estimate resolved.
type TrackResult struct {
	Order           order.Order
	EstimateMinutes int
}

// Track looks an order up by tag. The estimate comes from the response, then
// the order type, then the configured default.
func (s *Service) Track(ctx context.Context, tag string) (TrackResult, error) {
	tracking, err := s.gateway.Track(ctx, tag)
	if err != nil {
		return TrackResult{}, fmt.Errorf("track %s: %w", strings.TrimSpace(tag), err)
	}
	result := TrackResult{Order: tracking.Order, EstimateMinutes: s.defaultEstimate}
	switch {
	case tracking.HasEstimate:
		result.EstimateMinutes = tracking.EstimatedMinutes
	case s.types != nil:
		if entry, ok := s.types.Get(ctx, tracking.Order.OrderTypeID); ok && entry.EstimatedMinutes > 0 {
			result.EstimateMinutes = entry.EstimatedMinutes
		}
	}
	return result, nil
}

// Pricing splits the order's item total into base and service charge.
func (s *Service) Pricing(ctx context.Context, o order.Order) ordertype.Breakdown {
	if s.types == nil {
		return price(o, ordertype.Entry{}, false)
	}
	return s.types.CalculateOrderTotal(ctx, o.OrderTypeID, baseTotal(o))
}

// PriceAll prices a whole list against one catalog snapshot, keyed by order id.
func (s *Service) PriceAll(ctx context.Context, orders []order.Order) map[int64]ordertype.Breakdown {
	out := make(map[int64]ordertype.Breakdown, len(orders))
	var entries map[int64]ordertype.Entry
	if s.types != nil && len(orders) > 0 {
		entries = s.types.Snapshot(ctx)
	}
	for _, o := range orders {
		entry, ok := entries[o.OrderTypeID]
		out[o.ID] = price(o, entry, ok)
	}
	return out
}

// price degrades to a zero charge when the order type is unknown.
func price(o order.Order, entry ordertype.Entry, ok bool) ordertype.Breakdown {
	base := baseTotal(o)
	if !ok {
		return ordertype.Breakdown{Base: base, ServiceCharge: decimal.Zero, Total: base}
	}
	return entry.Apply(base)
}

func baseTotal(o order.Order) decimal.Decimal {
	if len(o.Items) == 0 {
		return o.TotalPrice
	}
	return o.ComputedTotal()
}

// OrderTypes lists active order types for filters and legends.
func (s *Service) OrderTypes(ctx context.Context) []ordertype.Entry {
	if s.types == nil {
		return nil
	}
	return s.types.ListActive(ctx)
}

func (s *Service) refuse(o order.Order, action string, to order.Status) error {
	s.journal.Error(o.Tag, "%s refused: %s -> %s not allowed", action, o.Status, to)
	return fmt.Errorf("%s order %s (%s): %w", action, label(o), o.Status, ErrTransitionNotAllowed)
}

func (s *Service) record(before order.Order, action string, updated order.Order, err error) (order.Order, error) {
	if err != nil {
		// A conflict means another terminal moved the order first.
		if errors.Is(err, gateway.ErrConflict) {
			s.journal.Warn(before.Tag, "%s failed: %s", action, Describe(err))
		} else {
			s.journal.Error(before.Tag, "%s failed: %s", action, Describe(err))
		}
		s.logger.Errorf("desk: %s order %d failed: %v", action, before.ID, err)
		return order.Order{}, fmt.Errorf("%s order %s: %w", action, label(before), err)
	}
	s.journal.Info(before.Tag, "%s: %s -> %s", action, before.Status, updated.Status)
	return updated, nil
}

func label(o order.Order) string {
	if o.Tag != "" {
		return o.Tag
	}
	return fmt.Sprintf("#%d", o.ID)
}

type nopJournal struct{}

func (nopJournal) Info(string, string, ...any)  {}
func (nopJournal) Warn(string, string, ...any)  {}
func (nopJournal) Error(string, string, ...any) {}

type nopLogger struct{}

func (nopLogger) Errorf(string, ...any) {}
