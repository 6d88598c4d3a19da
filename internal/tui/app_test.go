package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/kingrea/orderdesk/internal/config"
	"github.com/kingrea/orderdesk/internal/desk"
	"github.com/kingrea/orderdesk/internal/gateway"
	"github.com/kingrea/orderdesk/internal/logbook"
	"github.com/kingrea/orderdesk/internal/order"
	"github.com/kingrea/orderdesk/internal/orderlist"
	"github.com/kingrea/orderdesk/internal/ordertype"
)

var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func TestPaginationAndSearch(t *testing.T) {
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: pendingOrders(12)}}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	page := app.currentPage()
	if len(page) != 10 || page[0].Tag != "P-01" {
		t.Fatalf("unexpected first page: %d orders, first %q", len(page), page[0].Tag)
	}
	press(app, "]")
	if app.page.Page != 2 || len(app.currentPage()) != 2 {
		t.Fatalf("expected 2 orders on page 2, got page %d with %d", app.page.Page, len(app.currentPage()))
	}

	press(app, "/", "1", "2")
	if app.state != stateSearch {
		t.Fatalf("expected search state, got %v", app.state)
	}
	if app.filter.Search != "12" || len(app.visible) != 1 || app.visible[0].Tag != "P-12" {
		t.Fatalf("search did not narrow the list: %q -> %d orders", app.filter.Search, len(app.visible))
	}
	if app.page.Page != 1 {
		t.Fatalf("filter change must reset to page 1, got %d", app.page.Page)
	}
	press(app, "enter")
	if app.state != stateDashboard || app.filter.Search != "12" {
		t.Fatalf("enter should keep the search and leave the box")
	}
	press(app, "/", "esc")
	if app.filter.Search != "" || len(app.visible) != 12 {
		t.Fatalf("esc should clear the search, got %q with %d orders", app.filter.Search, len(app.visible))
	}
}

func TestStatusFilterOnlyInBranchViewAndViewIsPersisted(t *testing.T) {
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{
		orderlist.ViewPending: pendingOrders(2),
		orderlist.ViewBranch: {
			{ID: 10, Tag: "B-1", Status: order.Pending, RowVersion: "a"},
			{ID: 11, Tag: "B-2", Status: order.Ready, RowVersion: "b"},
			{ID: 12, Tag: "B-3", Status: order.Ready, RowVersion: "c"},
		},
	}}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	press(app, "s")
	if app.filter.Status != nil || !strings.Contains(app.statusMsg, "branch view") {
		t.Fatalf("status filter should be refused outside the branch view, msg %q", app.statusMsg)
	}

	cmd := press(app, "v")
	if app.mode != orderlist.ViewBranch || cmd == nil {
		t.Fatalf("expected switch to branch view with a load command")
	}
	app.Update(cmd())
	if len(app.visible) != 3 {
		t.Fatalf("expected 3 branch orders, got %d", len(app.visible))
	}

	press(app, "s")
	if app.filter.Status == nil || *app.filter.Status != order.Pending || len(app.visible) != 1 {
		t.Fatalf("expected pending filter with one order, got %d", len(app.visible))
	}
	press(app, "s", "s", "s")
	if *app.filter.Status != order.Ready || len(app.visible) != 2 {
		t.Fatalf("expected ready filter with two orders, got %d", len(app.visible))
	}

	reloaded, err := config.NewConfig(app.config.ProjectDir)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if reloaded.DefaultView() != "branch" {
		t.Fatalf("default view not persisted, got %q", reloaded.DefaultView())
	}
}

func TestConfirmWaitsForServer(t *testing.T) {
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: pendingOrders(1)}}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	cmd := press(app, "c")
	if cmd == nil {
		t.Fatalf("confirm should issue a command")
	}
	if app.orders[0].Status != order.Pending {
		t.Fatalf("list must stay untouched until the server answers")
	}
	if again := press(app, "c"); again != nil || !strings.Contains(app.statusMsg, "previous action") {
		t.Fatalf("second confirm while busy should be refused")
	}

	_, next := app.Update(cmd())
	if next == nil {
		t.Fatalf("expected a reload after a successful mutation")
	}
	got := app.orders[0]
	if got.Status != order.Confirmed || got.RowVersion != "rv1+1" {
		t.Fatalf("expected server result to replace the order, got %s %q", got.Status, got.RowVersion)
	}
	if !svc.called("Confirm 1 rv1") {
		t.Fatalf("confirm not sent with the row version: %v", svc.calls)
	}
	if !strings.Contains(app.statusMsg, "now Confirmed") {
		t.Fatalf("unexpected status message %q", app.statusMsg)
	}
}

func TestConflictLeavesListAndRefreshesOrder(t *testing.T) {
	conflict := &gateway.Error{Kind: gateway.KindConflict, Status: 409, Message: "row version mismatch"}
	svc := &stubDesk{
		lists:     map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: pendingOrders(1)},
		mutateErr: conflict,
		refreshed: order.Order{ID: 1, Tag: "P-01", Status: order.Confirmed, RowVersion: "rv9"},
	}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	cmd := press(app, "a")
	_, next := app.Update(cmd())
	if app.statusMsg != desk.Describe(conflict) {
		t.Fatalf("unexpected message %q", app.statusMsg)
	}
	if app.orders[0].Status != order.Pending || app.orders[0].RowVersion != "rv1" {
		t.Fatalf("failed mutation must not touch the list")
	}
	if next == nil {
		t.Fatalf("expected a refresh after a conflict")
	}
	app.Update(next())
	if app.orders[0].RowVersion != "rv9" || app.orders[0].Status != order.Confirmed {
		t.Fatalf("refresh did not replace the order: %+v", app.orders[0])
	}
}

func TestRefineFilterPrompt(t *testing.T) {
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: pendingOrders(12)}}
	app := newTestApp(t, svc)
	loadOrders(t, app)
	if !strings.Contains(app.renderFilterLine(), "no filters") {
		t.Fatalf("expected an unfiltered list, got %q", app.renderFilterLine())
	}

	press(app, "F", "min:x")
	if app.state != stateRefine {
		t.Fatalf("expected filter prompt, got state %v", app.state)
	}
	press(app, "enter")
	if app.state != stateRefine || !strings.Contains(app.statusMsg, "Filter not applied") || len(app.visible) != 12 {
		t.Fatalf("bad filter must keep the prompt and the list, msg %q, %d orders", app.statusMsg, len(app.visible))
	}

	app.refine.SetValue("min:15 max:17")
	press(app, "enter")
	if app.state != stateDashboard || len(app.visible) != 3 {
		t.Fatalf("expected 3 orders between 15 and 17, got %d", len(app.visible))
	}
	if line := app.renderFilterLine(); !strings.Contains(line, "min:15 max:17") || strings.Contains(line, "no filters") {
		t.Fatalf("filter line does not show the range: %q", line)
	}

	press(app, "F")
	if app.refine.Value() != "min:15 max:17" {
		t.Fatalf("prompt should start from the active filters, got %q", app.refine.Value())
	}
	app.refine.SetValue("")
	press(app, "enter")
	if len(app.visible) != 12 || !strings.Contains(app.renderFilterLine(), "no filters") {
		t.Fatalf("blank filter should clear the range, got %d orders", len(app.visible))
	}
}

func TestRejectPromptsForReason(t *testing.T) {
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: pendingOrders(1)}}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	press(app, "x")
	if app.state != stateReject {
		t.Fatalf("expected reject prompt, got state %v", app.state)
	}
	if cmd := press(app, "enter"); cmd != nil || !strings.Contains(app.statusMsg, "reason is required") {
		t.Fatalf("empty reason should be refused, msg %q", app.statusMsg)
	}
	press(app, "out of stock")
	cmd := press(app, "enter")
	if cmd == nil || app.state != stateDashboard {
		t.Fatalf("expected reject command and return to dashboard")
	}
	app.Update(cmd())
	if len(svc.reasons) != 1 || svc.reasons[0] != "out of stock" {
		t.Fatalf("unexpected reasons %v", svc.reasons)
	}
	if app.orders[0].Status != order.Rejected {
		t.Fatalf("expected rejected order, got %s", app.orders[0].Status)
	}
}

func TestRejectRefusedWithoutPrompt(t *testing.T) {
	ready := order.Order{ID: 4, Tag: "R-4", Status: order.Ready, RowVersion: "rv"}
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: {ready}}}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	if cmd := press(app, "x"); cmd != nil {
		t.Fatalf("no command expected for an illegal reject")
	}
	if app.state != stateDashboard || app.statusMsg != desk.Describe(desk.ErrTransitionNotAllowed) {
		t.Fatalf("unexpected state %v msg %q", app.state, app.statusMsg)
	}
	if len(svc.calls) != 2 || !svc.called("PriceAll 1") {
		t.Fatalf("only the load and its pricing should reach the desk: %v", svc.calls)
	}
}

func TestTrackingStopsAtTerminalStatusAndIgnoresStaleGenerations(t *testing.T) {
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: pendingOrders(1)}}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	press(app, "t")
	if app.state != stateTracking || app.tracking == nil || app.tracking.tag != "P-01" {
		t.Fatalf("expected tracking view for P-01")
	}
	gen := app.trackGen
	preparing := desk.TrackResult{
		Order:           order.Order{Tag: "P-01", Status: order.Preparing, CreatedAt: testNow.Add(-5 * time.Minute)},
		EstimateMinutes: 20,
	}
	if _, cmd := app.Update(trackLoadedMsg{gen: gen, result: preparing}); cmd == nil {
		t.Fatalf("active order should schedule another poll")
	}
	if !strings.Contains(app.View(), "Ready in 15:00") {
		t.Fatalf("countdown missing from view:\n%s", app.View())
	}

	completed := preparing
	completed.Order.Status = order.Completed
	if _, cmd := app.Update(trackLoadedMsg{gen: gen - 1, result: completed}); cmd != nil {
		t.Fatalf("stale generation must be ignored")
	}
	if app.tracking.result.Order.Status != order.Preparing {
		t.Fatalf("stale result was applied")
	}

	if _, cmd := app.Update(trackLoadedMsg{gen: gen, result: completed}); cmd != nil {
		t.Fatalf("completed order must stop polling")
	}
	if !app.tracking.finished {
		t.Fatalf("tracking should be finished")
	}
	if _, cmd := app.Update(countdownTickMsg{gen: gen}); cmd != nil {
		t.Fatalf("finished view must not tick")
	}
	if _, cmd := app.Update(trackPollRequest{gen: gen}); cmd != nil {
		t.Fatalf("finished view must not poll")
	}

	press(app, "esc")
	if app.state != stateDashboard || app.tracking != nil || app.trackGen == gen {
		t.Fatalf("esc should close tracking and bump the generation")
	}
}

func TestTrackingKeepsPollingAfterErrors(t *testing.T) {
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: pendingOrders(1)}}
	app := newTestApp(t, svc, WithTracking("P-01"))
	app.Init()
	if app.state != stateTracking {
		t.Fatalf("WithTracking should open the tracking view on start")
	}
	unreachable := &gateway.Error{Kind: gateway.KindNetworkUnavailable, Message: "server unreachable"}
	if _, cmd := app.Update(trackLoadedMsg{gen: app.trackGen, err: unreachable}); cmd == nil {
		t.Fatalf("a failed poll should schedule the next one")
	}
	if app.statusMsg != desk.Describe(unreachable) {
		t.Fatalf("unexpected message %q", app.statusMsg)
	}
}

func TestDashboardRefreshIgnoresStaleGeneration(t *testing.T) {
	app := newTestApp(t, &stubDesk{})
	app.Init()
	if _, cmd := app.Update(dashboardRefreshRequest{gen: app.pollGen + 1}); cmd != nil {
		t.Fatalf("stale refresh should not reschedule")
	}
	if _, cmd := app.Update(dashboardRefreshRequest{gen: app.pollGen}); cmd == nil {
		t.Fatalf("current refresh should load and reschedule")
	}
}

func TestOrderTypeFilterCycles(t *testing.T) {
	orders := pendingOrders(3)
	orders[0].OrderTypeName = "Dine in"
	orders[1].OrderTypeName = "Takeaway"
	orders[2].OrderTypeName = "Takeaway"
	svc := &stubDesk{
		lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: orders},
		types: []ordertype.Entry{{ID: 1, Name: "Dine in", IsActive: true}, {ID: 2, Name: "Takeaway", IsActive: true}},
	}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	press(app, "f")
	if app.filter.OrderType != "Dine in" || len(app.visible) != 1 {
		t.Fatalf("expected dine-in filter with 1 order, got %q with %d", app.filter.OrderType, len(app.visible))
	}
	press(app, "f")
	if app.filter.OrderType != "Takeaway" || len(app.visible) != 2 {
		t.Fatalf("expected takeaway filter with 2 orders, got %q with %d", app.filter.OrderType, len(app.visible))
	}
	press(app, "f")
	if app.filter.OrderType != "" || len(app.visible) != 3 {
		t.Fatalf("expected all types again, got %q with %d", app.filter.OrderType, len(app.visible))
	}
}

func TestPageSizeKeysClampPage(t *testing.T) {
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: pendingOrders(25)}}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	press(app, "]", "]", "]")
	if app.page.Page != 3 {
		t.Fatalf("expected last page 3, got %d", app.page.Page)
	}
	press(app, "+")
	if app.page.PerPage != 15 || app.page.Page != 2 {
		t.Fatalf("expected 15 per page on page 2, got %d on %d", app.page.PerPage, app.page.Page)
	}
	press(app, "-", "-", "-")
	if app.page.PerPage != 1 || app.page.Page != 2 {
		t.Fatalf("expected 1 per page on page 2, got %d on %d", app.page.PerPage, app.page.Page)
	}
	press(app, "[", "[")
	if app.page.Page != 1 {
		t.Fatalf("prev should stop at page 1, got %d", app.page.Page)
	}
}

func TestDetailPaneShowsItemsAndPricing(t *testing.T) {
	burger := order.Order{
		ID:           7,
		Tag:          "D-7",
		CustomerName: "Ayşe",
		Status:       order.Pending,
		TotalPrice:   decimal.RequireFromString("30"),
		Items: []order.Item{{
			ProductName: "Burger",
			UnitPrice:   decimal.NewFromInt(10),
			Count:       2,
			Extras:      []order.Extra{{Name: "Cheese", TotalPrice: decimal.RequireFromString("1.50")}},
			Addons:      []order.Item{{ProductName: "Fries", UnitPrice: decimal.NewFromInt(3), Count: 1}},
		}},
	}
	svc := &stubDesk{lists: map[orderlist.ViewMode][]order.Order{orderlist.ViewPending: {burger}}}
	app := newTestApp(t, svc)
	loadOrders(t, app)

	view := app.View()
	for _, want := range []string{"Burger", "Fries", "Cheese", "Subtotal 24.50", "Total    26.95", "Items add up to 24.50; server total is 30.00", "c confirm"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestStatusPresentation(t *testing.T) {
	if got := statusLabel(order.Ready); got != "Ready" {
		t.Fatalf("label = %q", got)
	}
	if got := statusLabel(order.Status(42)); got != "Unknown" {
		t.Fatalf("label for out-of-range = %q", got)
	}
	if hints := actionHints(order.Pending); !strings.Contains(hints, "c confirm") || !strings.Contains(hints, "x reject") {
		t.Fatalf("pending hints = %q", hints)
	}
	if hints := actionHints(order.Ready); strings.Contains(hints, "X cancel") || strings.Contains(hints, "c confirm") {
		t.Fatalf("ready hints = %q", hints)
	}
	if got := formatAge(testNow.Add(-90*time.Minute), testNow); got != "1h" {
		t.Fatalf("age = %q", got)
	}
}

func newTestApp(t *testing.T, svc *stubDesk, opts ...AppOption) *App {
	t.Helper()
	for _, key := range []string{"ORDERDESK_API_URL", "ORDERDESK_API_TOKEN", "ORDERDESK_API_TIMEOUT", "ORDERDESK_VIEW", "ORDERDESK_PAGE_SIZE"} {
		t.Setenv(key, "")
	}
	projectDir := t.TempDir()
	if err := config.InitDeskDir(projectDir); err != nil {
		t.Fatalf("init desk dir: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	book, err := logbook.New(cfg.ActivityLogPath())
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	base := []AppOption{
		WithClock(func() time.Time { return testNow }),
		WithLogbook(book),
	}
	return NewApp(cfg, svc, append(base, opts...)...)
}

func loadOrders(t *testing.T, app *App) {
	t.Helper()
	msg := app.loadOrders()()
	if loaded, ok := msg.(ordersLoadedMsg); !ok || loaded.err != nil {
		t.Fatalf("load failed: %#v", msg)
	}
	app.Update(msg)
}

func press(app *App, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = app.Update(keyMsg(k))
	}
	return cmd
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func pendingOrders(n int) []order.Order {
	out := make([]order.Order, n)
	for i := range out {
		out[i] = order.Order{
			ID:           int64(i + 1),
			Tag:          fmt.Sprintf("P-%02d", i+1),
			CustomerName: fmt.Sprintf("Guest %02d", i+1),
			TotalPrice:   decimal.NewFromInt(int64(10 + i)),
			CreatedAt:    testNow.Add(-time.Duration(i) * time.Minute),
			Status:       order.Pending,
			RowVersion:   fmt.Sprintf("rv%d", i+1),
		}
	}
	return out
}

type stubDesk struct {
	lists     map[orderlist.ViewMode][]order.Order
	mutateErr error
	refreshed order.Order
	types     []ordertype.Entry
	calls     []string
	reasons   []string
}

func (s *stubDesk) called(call string) bool {
	for _, c := range s.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (s *stubDesk) Load(_ context.Context, mode orderlist.ViewMode) ([]order.Order, error) {
	s.calls = append(s.calls, "Load "+string(mode))
	return append([]order.Order(nil), s.lists[mode]...), nil
}

func (s *stubDesk) Refresh(_ context.Context, o order.Order) (order.Order, error) {
	s.calls = append(s.calls, fmt.Sprintf("Refresh %d", o.ID))
	return s.refreshed, nil
}

func (s *stubDesk) mutate(action string, o order.Order, to order.Status) (order.Order, error) {
	s.calls = append(s.calls, fmt.Sprintf("%s %d %s", action, o.ID, o.RowVersion))
	if s.mutateErr != nil {
		return order.Order{}, s.mutateErr
	}
	o.Status = to
	o.RowVersion += "+1"
	return o, nil
}

func (s *stubDesk) Confirm(_ context.Context, o order.Order) (order.Order, error) {
	return s.mutate("Confirm", o, order.Confirmed)
}

func (s *stubDesk) Reject(_ context.Context, o order.Order, reason string) (order.Order, error) {
	s.reasons = append(s.reasons, reason)
	return s.mutate("Reject", o, order.Rejected)
}

func (s *stubDesk) Advance(_ context.Context, o order.Order) (order.Order, error) {
	next, _ := order.NextForward(o.Status)
	return s.mutate("Advance", o, next)
}

func (s *stubDesk) Cancel(_ context.Context, o order.Order) (order.Order, error) {
	return s.mutate("Cancel", o, order.Cancelled)
}

func (s *stubDesk) Track(_ context.Context, tag string) (desk.TrackResult, error) {
	s.calls = append(s.calls, "Track "+tag)
	return desk.TrackResult{Order: order.Order{Tag: tag, Status: order.Preparing}, EstimateMinutes: 30}, nil
}

func (s *stubDesk) OrderTypes(context.Context) []ordertype.Entry {
	return s.types
}

func (s *stubDesk) PriceAll(ctx context.Context, orders []order.Order) map[int64]ordertype.Breakdown {
	s.calls = append(s.calls, fmt.Sprintf("PriceAll %d", len(orders)))
	out := make(map[int64]ordertype.Breakdown, len(orders))
	for _, o := range orders {
		out[o.ID] = s.Pricing(ctx, o)
	}
	return out
}

// Pricing charges a flat 10% on the items, or on the total when there are none.
func (s *stubDesk) Pricing(_ context.Context, o order.Order) ordertype.Breakdown {
	base := o.ComputedTotal()
	if len(o.Items) == 0 {
		base = o.TotalPrice
	}
	charge := base.Mul(decimal.NewFromInt(10)).Div(decimal.NewFromInt(100)).Round(2)
	return ordertype.Breakdown{Base: base, ServiceCharge: charge, Total: base.Add(charge)}
}
