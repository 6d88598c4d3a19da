// internal/tui/app.go
//
// The staff dashboard. It follows the bubbletea loop:
//
// 1. Model: the App struct below
// 2. Update: gateway results and key presses arrive as messages
// 3. View: renders the current state to a string
//
// Every gateway call runs inside a tea.Cmd; nothing in Update blocks on I/O.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/orderdesk/internal/config"
	"github.com/kingrea/orderdesk/internal/desk"
	"github.com/kingrea/orderdesk/internal/gateway"
	"github.com/kingrea/orderdesk/internal/logbook"
	"github.com/kingrea/orderdesk/internal/order"
	"github.com/kingrea/orderdesk/internal/orderlist"
	"github.com/kingrea/orderdesk/internal/ordertype"
)

// appState represents which screen has the keyboard.
type appState int

const (
	stateDashboard appState = iota // order table with detail pane
	stateSearch                    // editing the search box
	stateReject                    // prompting for a reject reason
	stateRefine                    // editing customer, table, price and date filters
	stateTracking                  // countdown for one order
)

const (
	logPanelLines = 6
	pageSizeStep  = 5
	maxPageSize   = 100
)

// Desk is the order service the dashboard drives.
type Desk interface {
	Load(ctx context.Context, mode orderlist.ViewMode) ([]order.Order, error)
	Refresh(ctx context.Context, o order.Order) (order.Order, error)
	Confirm(ctx context.Context, o order.Order) (order.Order, error)
	Reject(ctx context.Context, o order.Order, reason string) (order.Order, error)
	Advance(ctx context.Context, o order.Order) (order.Order, error)
	Cancel(ctx context.Context, o order.Order) (order.Order, error)
	Track(ctx context.Context, tag string) (desk.TrackResult, error)
	Pricing(ctx context.Context, o order.Order) ordertype.Breakdown
	PriceAll(ctx context.Context, orders []order.Order) map[int64]ordertype.Breakdown
	OrderTypes(ctx context.Context) []ordertype.Entry
}

// AppOption customizes App construction for tests and alternate entry points.
type AppOption func(*App)

// WithLogbook shows and appends to the staff activity journal.
func WithLogbook(book *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = book
	}
}

// WithClock overrides time.Now for ages and countdowns.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithTracking opens the tracking view for tag as soon as the program starts.
func WithTracking(tag string) AppOption {
	return func(a *App) {
		a.initialTrack = strings.TrimSpace(tag)
	}
}

type ordersLoadedMsg struct {
	mode    orderlist.ViewMode
	orders  []order.Order
	pricing map[int64]ordertype.Breakdown
	types   []ordertype.Entry
	err     error
}

type dashboardRefreshRequest struct {
	gen int
}

type mutationFinishedMsg struct {
	action  string
	before  order.Order
	updated order.Order
	pricing ordertype.Breakdown
	err     error
}

type orderRefreshedMsg struct {
	order   order.Order
	pricing ordertype.Breakdown
	err     error
}

type mutation func(ctx context.Context, o order.Order) (order.Order, error)

// App is the dashboard model. In bubbletea, this holds ALL the UI state.
type App struct {
	state   appState
	config  *config.Config
	desk    Desk
	logbook *logbook.Logbook
	clock   func() time.Time

	mode    orderlist.ViewMode
	orders  []order.Order // last list the server returned
	visible []order.Order // orders after filter and sort
	pricing map[int64]ordertype.Breakdown
	types   []ordertype.Entry
	filter  orderlist.FilterSpec
	sortBy  orderlist.SortSpec
	page    orderlist.Pagination

	table     table.Model
	search    textinput.Model
	refine    textinput.Model
	reason    textinput.Model
	rejecting order.Order

	loading    bool
	busy       bool
	lastLoaded time.Time
	statusMsg  string
	err        error
	pollGen    int

	tracking     *trackingView
	trackGen     int
	initialTrack string

	width  int
	height int
}

// NewApp creates the dashboard on the configured default view.
func NewApp(cfg *config.Config, svc Desk, opts ...AppOption) *App {
	mode, ok := orderlist.ParseViewMode(cfg.DefaultView())
	if !ok {
		mode = orderlist.ViewPending
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "customer, tag, table or notes"
	search.CharLimit = 64

	refine := textinput.New()
	refine.Prompt = "Filter: "
	refine.Placeholder = "customer:ana table:5 min:10 max:40 from:2024-01-01 to:2024-01-31"
	refine.CharLimit = 200

	reason := textinput.New()
	reason.Prompt = "Reason: "
	reason.Placeholder = "why is this order rejected?"
	reason.CharLimit = 500

	a := &App{
		state:   stateDashboard,
		config:  cfg,
		desk:    svc,
		clock:   time.Now,
		mode:    mode,
		pricing: map[int64]ordertype.Breakdown{},
		sortBy:  orderlist.SortSpec{Field: orderlist.SortCreatedAt, Desc: true},
		page:    orderlist.NewPagination(cfg.PageSize()),
		table:   newOrderTable(),
		search:  search,
		refine:  refine,
		reason:  reason,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func newOrderTable() table.Model {
	columns := []table.Column{
		{Title: "Tag", Width: 8},
		{Title: "Customer", Width: 18},
		{Title: "Table", Width: 7},
		{Title: "Type", Width: 10},
		{Title: "Status", Width: 10},
		{Title: "Total", Width: 9},
		{Title: "Age", Width: 5},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5B8DEF")).
		Bold(false)
	t.SetStyles(styles)
	return t
}

func (a *App) logInfo(tag, format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(tag, format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	a.pollGen++
	cmds := []tea.Cmd{a.loadOrders(), a.scheduleRefresh()}
	if a.initialTrack != "" {
		cmds = append(cmds, a.openTracking(a.initialTrack))
	}
	return tea.Batch(cmds...)
}

// Update handles every message and returns the next command to run.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.resize()
		return a, nil
	case ordersLoadedMsg:
		a.handleOrdersLoaded(m)
		return a, nil
	case dashboardRefreshRequest:
		if m.gen != a.pollGen {
			return a, nil
		}
		return a, tea.Batch(a.loadOrders(), a.scheduleRefresh())
	case mutationFinishedMsg:
		return a, a.handleMutationFinished(m)
	case orderRefreshedMsg:
		a.handleOrderRefreshed(m)
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	}
	if a.tracking != nil {
		return a, a.tracking.Update(msg)
	}
	return a, nil
}

func (a *App) resize() {
	if a.height > 0 {
		a.table.SetHeight(max(5, a.height-20))
	}
	if a.tracking != nil && a.width > 0 {
		a.tracking.bar.Width = max(20, min(60, a.width-10))
	}
}

// loadOrders fetches the current view's list and prices every order while
// still off the UI loop.
func (a *App) loadOrders() tea.Cmd {
	mode := a.mode
	svc := a.desk
	a.loading = true
	return func() tea.Msg {
		ctx := context.Background()
		orders, err := svc.Load(ctx, mode)
		if err != nil {
			return ordersLoadedMsg{mode: mode, err: err}
		}
		return ordersLoadedMsg{mode: mode, orders: orders, pricing: svc.PriceAll(ctx, orders), types: svc.OrderTypes(ctx)}
	}
}

func (a *App) scheduleRefresh() tea.Cmd {
	gen := a.pollGen
	return tea.Tick(a.config.DashboardPollInterval(), func(time.Time) tea.Msg {
		return dashboardRefreshRequest{gen: gen}
	})
}

func (a *App) handleOrdersLoaded(m ordersLoadedMsg) {
	if m.mode != a.mode {
		return
	}
	a.loading = false
	if m.err != nil {
		a.err = m.err
		a.statusMsg = desk.Describe(m.err)
		return
	}
	a.err = nil
	a.orders = m.orders
	a.pricing = m.pricing
	if a.pricing == nil {
		a.pricing = map[int64]ordertype.Breakdown{}
	}
	a.types = m.types
	a.lastLoaded = a.clock()
	a.applyFilters(false)
}

// applyFilters recomputes the visible list. reset returns to page 1, which
// every filter change requires.
func (a *App) applyFilters(reset bool) {
	a.visible = orderlist.Apply(a.orders, a.mode, a.filter, a.sortBy)
	if reset {
		a.page = a.page.Reset()
	}
	a.page = a.page.WithTotal(len(a.visible))
	a.syncTable()
}

func (a *App) currentPage() []order.Order {
	return orderlist.Paginate(a.visible, a.page)
}

func (a *App) syncTable() {
	now := a.clock()
	page := a.currentPage()
	rows := make([]table.Row, 0, len(page))
	for _, o := range page {
		rows = append(rows, orderRow(o, now))
	}
	a.table.SetRows(rows)
	if a.table.Cursor() >= len(rows) {
		a.table.SetCursor(max(0, len(rows)-1))
	}
}

func (a *App) selected() (order.Order, bool) {
	page := a.currentPage()
	idx := a.table.Cursor()
	if idx < 0 || idx >= len(page) {
		return order.Order{}, false
	}
	return page[idx], true
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	switch a.state {
	case stateSearch:
		return a, a.handleSearchKey(msg)
	case stateReject:
		return a, a.handleRejectKey(msg)
	case stateRefine:
		return a, a.handleRefineKey(msg)
	case stateTracking:
		switch msg.String() {
		case "esc", "q":
			a.closeTracking()
		}
		return a, nil
	}
	return a.handleDashboardKey(msg)
}

func (a *App) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "/":
		a.state = stateSearch
		a.search.SetValue(a.filter.Search)
		a.search.CursorEnd()
		return a, a.search.Focus()
	case "F":
		a.state = stateRefine
		a.refine.SetValue(a.filter.RefineText())
		a.refine.CursorEnd()
		return a, a.refine.Focus()
	case "s":
		a.cycleStatusFilter()
	case "f":
		a.cycleTypeFilter()
	case "o":
		a.sortBy = a.sortBy.NextField()
		a.applyFilters(false)
	case "O":
		a.sortBy.Desc = !a.sortBy.Desc
		a.applyFilters(false)
	case "[":
		a.page = a.page.Prev()
		a.syncTable()
	case "]":
		a.page = a.page.Next()
		a.syncTable()
	case "+", "=":
		a.setPageSize(a.page.PerPage + pageSizeStep)
	case "-":
		a.setPageSize(a.page.PerPage - pageSizeStep)
	case "v":
		return a, a.switchView(a.mode.Next())
	case "c":
		return a, a.mutateSelected("Confirm", a.desk.Confirm)
	case "a":
		return a, a.mutateSelected("Advance", a.desk.Advance)
	case "X":
		return a, a.mutateSelected("Cancel", a.desk.Cancel)
	case "x":
		return a, a.promptReject()
	case "r":
		a.statusMsg = "Refreshing " + a.mode.Label() + " orders"
		return a, a.loadOrders()
	case "t":
		o, ok := a.selected()
		if !ok {
			a.statusMsg = "No order selected"
			return a, nil
		}
		return a, a.openTracking(o.Tag)
	default:
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		a.search.Blur()
		a.search.SetValue("")
		a.state = stateDashboard
		if a.filter.Search != "" {
			a.filter.Search = ""
			a.applyFilters(true)
		}
		return nil
	case tea.KeyEnter:
		a.search.Blur()
		a.state = stateDashboard
		return nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if value := a.search.Value(); value != a.filter.Search {
		a.filter.Search = value
		a.applyFilters(true)
	}
	return cmd
}

// handleRefineKey applies the filter text on enter. A parse error keeps the
// prompt open with the previous filters still in force.
func (a *App) handleRefineKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		a.refine.Blur()
		a.state = stateDashboard
		return nil
	case tea.KeyEnter:
		spec, err := a.filter.Refine(a.refine.Value(), a.clock().Location())
		if err != nil {
			a.statusMsg = "Filter not applied: " + err.Error()
			return nil
		}
		a.refine.Blur()
		a.state = stateDashboard
		a.filter = spec
		a.statusMsg = ""
		a.applyFilters(true)
		return nil
	}
	var cmd tea.Cmd
	a.refine, cmd = a.refine.Update(msg)
	return cmd
}

func (a *App) handleRejectKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		a.reason.Blur()
		a.state = stateDashboard
		a.statusMsg = "Reject cancelled"
		return nil
	case tea.KeyEnter:
		reason := strings.TrimSpace(a.reason.Value())
		if reason == "" {
			a.statusMsg = "A reason is required to reject an order"
			return nil
		}
		a.reason.Blur()
		a.state = stateDashboard
		svc := a.desk
		return a.mutate("Reject", a.rejecting, func(ctx context.Context, o order.Order) (order.Order, error) {
			return svc.Reject(ctx, o, reason)
		})
	}
	var cmd tea.Cmd
	a.reason, cmd = a.reason.Update(msg)
	return cmd
}

// nextStatusFilter cycles all -> each status in order -> all.
func nextStatusFilter(current *order.Status) *order.Status {
	if current == nil {
		first := order.Statuses[0]
		return &first
	}
	for i, s := range order.Statuses {
		if s == *current && i+1 < len(order.Statuses) {
			next := order.Statuses[i+1]
			return &next
		}
	}
	return nil
}

func (a *App) cycleStatusFilter() {
	if !a.mode.FiltersByStatus() {
		a.statusMsg = "The status filter applies to the branch view only"
		return
	}
	a.filter.Status = nextStatusFilter(a.filter.Status)
	a.applyFilters(true)
}

// cycleTypeFilter steps through the active order types by display order,
// then back to all types.
func (a *App) cycleTypeFilter() {
	if len(a.types) == 0 {
		a.statusMsg = "No order types available"
		return
	}
	next := a.types[0].Name
	for i, entry := range a.types {
		if strings.EqualFold(entry.Name, a.filter.OrderType) {
			next = ""
			if i+1 < len(a.types) {
				next = a.types[i+1].Name
			}
			break
		}
	}
	a.filter.OrderType = next
	a.applyFilters(true)
}

func (a *App) setPageSize(size int) {
	size = max(1, min(maxPageSize, size))
	a.page = a.page.WithPerPage(size)
	a.syncTable()
}

func (a *App) switchView(mode orderlist.ViewMode) tea.Cmd {
	a.mode = mode
	a.orders = nil
	a.pricing = map[int64]ordertype.Breakdown{}
	a.applyFilters(true)
	a.statusMsg = "Loading " + mode.Label() + " orders"
	if err := a.config.SetDefaultView(string(mode)); err != nil {
		a.statusMsg = fmt.Sprintf("Could not save default view: %v", err)
	}
	a.logInfo("", "view switched to %s", mode)
	return a.loadOrders()
}

func (a *App) promptReject() tea.Cmd {
	o, ok := a.selected()
	if !ok {
		a.statusMsg = "No order selected"
		return nil
	}
	if !order.CanTransition(o.Status, order.Rejected) {
		a.statusMsg = desk.Describe(desk.ErrTransitionNotAllowed)
		return nil
	}
	a.rejecting = o
	a.state = stateReject
	a.reason.SetValue("")
	return a.reason.Focus()
}

func (a *App) mutateSelected(action string, fn mutation) tea.Cmd {
	o, ok := a.selected()
	if !ok {
		a.statusMsg = "No order selected"
		return nil
	}
	return a.mutate(action, o, fn)
}

// mutate runs fn against the server. The local list is only changed once
// the server answers with the updated order.
func (a *App) mutate(action string, o order.Order, fn mutation) tea.Cmd {
	if a.busy {
		a.statusMsg = "Waiting for the previous action to finish"
		return nil
	}
	a.busy = true
	a.statusMsg = fmt.Sprintf("%s %s…", action, orderLabel(o))
	svc := a.desk
	return func() tea.Msg {
		ctx := context.Background()
		updated, err := fn(ctx, o)
		msg := mutationFinishedMsg{action: action, before: o, updated: updated, err: err}
		if err == nil {
			msg.pricing = svc.Pricing(ctx, updated)
		}
		return msg
	}
}

func (a *App) handleMutationFinished(m mutationFinishedMsg) tea.Cmd {
	a.busy = false
	if m.err != nil {
		a.err = m.err
		a.statusMsg = desk.Describe(m.err)
		switch gateway.KindOf(m.err) {
		case gateway.KindConflict:
			return a.refreshOrder(m.before)
		case gateway.KindNotFound:
			return a.loadOrders()
		}
		return nil
	}
	a.err = nil
	a.replaceOrder(m.updated, m.pricing)
	a.statusMsg = fmt.Sprintf("%s %s: now %s", m.action, orderLabel(m.before), statusLabel(m.updated.Status))
	return a.loadOrders()
}

func (a *App) refreshOrder(o order.Order) tea.Cmd {
	svc := a.desk
	return func() tea.Msg {
		ctx := context.Background()
		fresh, err := svc.Refresh(ctx, o)
		if err != nil {
			return orderRefreshedMsg{err: err}
		}
		return orderRefreshedMsg{order: fresh, pricing: svc.Pricing(ctx, fresh)}
	}
}

func (a *App) handleOrderRefreshed(m orderRefreshedMsg) {
	if m.err != nil {
		a.err = m.err
		a.statusMsg = desk.Describe(m.err)
		return
	}
	a.replaceOrder(m.order, m.pricing)
}

func (a *App) replaceOrder(updated order.Order, pricing ordertype.Breakdown) {
	for i := range a.orders {
		if a.orders[i].ID == updated.ID {
			a.orders[i] = updated
			a.pricing[updated.ID] = pricing
			a.applyFilters(false)
			return
		}
	}
}

func (a *App) openTracking(tag string) tea.Cmd {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		a.statusMsg = "This order has no tag to track"
		return nil
	}
	a.trackGen++
	a.tracking = newTrackingView(a, tag, a.trackGen)
	a.state = stateTracking
	a.resize()
	return a.tracking.Init()
}

// closeTracking bumps the generation so the old view's tick chains die out.
func (a *App) closeTracking() {
	a.trackGen++
	a.tracking = nil
	a.state = stateDashboard
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 110
	}
	header := headerStyle.Render("◉ ORDERDESK")
	var body string
	if a.state == stateTracking && a.tracking != nil {
		body = a.tracking.View()
	} else {
		body = a.renderDashboard(width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, a.renderStatusLine())
}

func (a *App) renderDashboard(width int) string {
	tableBlock := lipgloss.JoinVertical(lipgloss.Left,
		a.renderTabs(),
		a.renderSummary(),
		a.renderFilterLine(),
		a.table.View(),
		a.renderPageFooter(),
	)
	detailWidth := width - lipgloss.Width(tableBlock) - 4
	var top string
	if detailWidth >= 30 {
		top = lipgloss.JoinHorizontal(lipgloss.Top, tableBlock, "  ", a.renderDetail(detailWidth))
	} else {
		top = lipgloss.JoinVertical(lipgloss.Left, tableBlock, a.renderDetail(width-4))
	}
	parts := []string{top}
	if logs := a.renderLogPanel(); logs != "" {
		parts = append(parts, logs)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderTabs() string {
	tabs := make([]string, 0, len(orderlist.ViewModes))
	for _, mode := range orderlist.ViewModes {
		style := tabInactiveStyle
		if mode == a.mode {
			style = tabActiveStyle
		}
		tabs = append(tabs, style.Render(mode.Label()))
	}
	return strings.Join(tabs, "   ")
}

func (a *App) renderSummary() string {
	s := orderlist.Summarize(a.visible)
	line := fmt.Sprintf("%d orders · %d items · revenue %s", s.Orders, s.Items, s.Revenue.StringFixed(2))
	var counts []string
	for _, st := range order.Statuses {
		if n := s.ByStatus[st]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s %d", renderStatus(st), n))
		}
	}
	if len(counts) > 0 {
		line += "  " + strings.Join(counts, " ")
	}
	return line
}

func (a *App) renderFilterLine() string {
	switch a.state {
	case stateSearch:
		return a.search.View()
	case stateReject:
		return fmt.Sprintf("Reject %s  %s", orderLabel(a.rejecting), a.reason.View())
	case stateRefine:
		return a.refine.View()
	}
	var parts []string
	if a.filter.IsZero() {
		parts = append(parts, "no filters")
	}
	if a.filter.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", a.filter.Search))
	}
	if a.mode.FiltersByStatus() && a.filter.Status != nil {
		parts = append(parts, "status "+statusLabel(*a.filter.Status))
	}
	if a.filter.OrderType != "" {
		parts = append(parts, "type "+a.filter.OrderType)
	}
	if refined := a.filter.RefineText(); refined != "" {
		parts = append(parts, refined)
	}
	direction := "asc"
	if a.sortBy.Desc {
		direction = "desc"
	}
	parts = append(parts, fmt.Sprintf("sort %s %s", a.sortBy.Field, direction))
	return mutedStyle.Render(strings.Join(parts, " · "))
}

func (a *App) renderPageFooter() string {
	pages := max(1, a.page.TotalPages())
	line := fmt.Sprintf("Page %d/%d · %d per page · %d of %d orders",
		a.page.Page, pages, a.page.PerPage, len(a.visible), len(a.orders))
	if a.loading {
		line += " · loading"
	} else if !a.lastLoaded.IsZero() {
		line += " · updated " + a.lastLoaded.Format("15:04:05")
	}
	return mutedStyle.Render(line)
}

func (a *App) renderDetail(width int) string {
	o, ok := a.selected()
	if !ok {
		return panelStyle.Width(width).Render(mutedStyle.Render("No order selected"))
	}
	lines := []string{
		fmt.Sprintf("%s  %s", lipgloss.NewStyle().Bold(true).Render(orderLabel(o)), renderStatus(o.Status)),
		detailTextStyle.Render("Customer: " + dash(o.CustomerName)),
		detailTextStyle.Render("Table: " + dash(o.TableName) + " · Type: " + dash(orderTypeName(o))),
	}
	if !o.CreatedAt.IsZero() {
		lines = append(lines, detailTextStyle.Render("Placed: "+o.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	if o.Notes != "" {
		lines = append(lines, detailTextStyle.Render("Notes: "+o.Notes))
	}
	lines = append(lines, "")
	for _, line := range order.Flatten(o.Items) {
		indent := strings.Repeat("  ", line.Depth)
		lines = append(lines, fmt.Sprintf("%s%dx %s  %s", indent, line.Item.Count, line.Item.ProductName, line.Total.StringFixed(2)))
		for _, ex := range line.Item.Extras {
			mark := "+"
			if ex.Removal {
				mark = "-"
			}
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("%s   %s %s", indent, mark, ex.Name)))
		}
	}
	if p, ok := a.pricing[o.ID]; ok {
		lines = append(lines,
			"",
			fmt.Sprintf("Subtotal %s", p.Base.StringFixed(2)),
			fmt.Sprintf("Service  %s", p.ServiceCharge.StringFixed(2)),
			fmt.Sprintf("Total    %s", p.Total.StringFixed(2)),
		)
	} else {
		lines = append(lines, "", fmt.Sprintf("Total    %s", o.TotalPrice.StringFixed(2)))
	}
	if o.TotalMismatch() {
		lines = append(lines, errorTextStyle.Render(fmt.Sprintf("Items add up to %s; server total is %s",
			o.ComputedTotal().StringFixed(2), o.TotalPrice.StringFixed(2))))
	}
	lines = append(lines, "", mutedStyle.Render(actionHints(o.Status)))
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// actionHints lists the keys that make sense for s, read off the lifecycle.
func actionHints(s order.Status) string {
	var hints []string
	if order.CanModify(s) && order.CanTransition(s, order.Confirmed) {
		hints = append(hints, "c confirm")
	}
	if order.CanTransition(s, order.Rejected) {
		hints = append(hints, "x reject")
	}
	if next, ok := order.NextForward(s); ok {
		hints = append(hints, "a → "+statusLabel(next))
	}
	if order.CanCancel(s) {
		hints = append(hints, "X cancel")
	}
	hints = append(hints, "t track")
	return strings.Join(hints, " · ")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("ACTIVITY · %s · %d entries", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return panelStyle.Render(head + "\n" + body)
}

func (a *App) renderStatusLine() string {
	help := mutedStyle.Render("/ search · F filter · s status · f type · o/O sort · [ ] page · +/- size · v view · c x a X act · r refresh · t track · q quit")
	if a.state == stateTracking {
		help = mutedStyle.Render("esc back")
	}
	if a.statusMsg == "" {
		return help
	}
	msg := detailTextStyle.Render(a.statusMsg)
	if a.err != nil {
		msg = errorTextStyle.Render(a.statusMsg)
	}
	return msg + "\n" + help
}

func orderRow(o order.Order, now time.Time) table.Row {
	return table.Row{
		orderLabel(o),
		o.CustomerName,
		dash(o.TableName),
		dash(orderTypeName(o)),
		statusLabel(o.Status),
		o.TotalPrice.StringFixed(2),
		formatAge(o.CreatedAt, now),
	}
}

func orderLabel(o order.Order) string {
	if o.Tag != "" {
		return o.Tag
	}
	return fmt.Sprintf("#%d", o.ID)
}

func orderTypeName(o order.Order) string {
	if o.OrderTypeName != "" {
		return o.OrderTypeName
	}
	return o.OrderTypeCode
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatAge(created, now time.Time) string {
	if created.IsZero() {
		return "-"
	}
	d := now.Sub(created)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
