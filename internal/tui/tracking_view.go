package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/orderdesk/internal/desk"
	"github.com/kingrea/orderdesk/internal/order"
	"github.com/kingrea/orderdesk/internal/tracker"
)

const countdownInterval = time.Second

// trackingView shows one order's countdown. Its tick and poll chains carry
// gen; once the app moves to a newer generation they stop rescheduling.
type trackingView struct {
	app      *App
	tag      string
	gen      int
	result   desk.TrackResult
	loaded   bool
	err      error
	now      time.Time
	polls    int
	finished bool
	bar      progress.Model
}

type trackLoadedMsg struct {
	gen    int
	result desk.TrackResult
	err    error
}

type countdownTickMsg struct {
	gen int
}

type trackPollRequest struct {
	gen int
}

func newTrackingView(app *App, tag string, gen int) *trackingView {
	return &trackingView{
		app: app,
		tag: tag,
		gen: gen,
		now: app.clock(),
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (v *trackingView) Init() tea.Cmd {
	return tea.Batch(v.fetch(), v.scheduleTick())
}

func (v *trackingView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case trackLoadedMsg:
		if m.gen != v.gen {
			return nil
		}
		return v.handleLoaded(m)
	case countdownTickMsg:
		if m.gen != v.gen || v.finished {
			return nil
		}
		v.now = v.app.clock()
		return v.scheduleTick()
	case trackPollRequest:
		if m.gen != v.gen || v.finished {
			return nil
		}
		return v.fetch()
	}
	return nil
}

func (v *trackingView) handleLoaded(m trackLoadedMsg) tea.Cmd {
	v.polls++
	v.now = v.app.clock()
	if m.err != nil {
		v.err = m.err
		v.app.statusMsg = desk.Describe(m.err)
		return v.schedulePoll()
	}
	v.err = nil
	if v.loaded && v.result.Order.Status != m.result.Order.Status {
		v.app.logInfo(v.tag, "tracked status %s -> %s", v.result.Order.Status, m.result.Order.Status)
	}
	v.result = m.result
	v.loaded = true
	if order.StopsPolling(m.result.Order.Status) {
		v.finished = true
		v.app.statusMsg = fmt.Sprintf("Order %s is %s; tracking stopped", v.tag, statusLabel(m.result.Order.Status))
		return nil
	}
	return v.schedulePoll()
}

func (v *trackingView) fetch() tea.Cmd {
	svc, tag, gen := v.app.desk, v.tag, v.gen
	return func() tea.Msg {
		result, err := svc.Track(context.Background(), tag)
		return trackLoadedMsg{gen: gen, result: result, err: err}
	}
}

func (v *trackingView) scheduleTick() tea.Cmd {
	gen := v.gen
	return tea.Tick(countdownInterval, func(time.Time) tea.Msg {
		return countdownTickMsg{gen: gen}
	})
}

func (v *trackingView) schedulePoll() tea.Cmd {
	gen := v.gen
	return tea.Tick(v.app.config.TrackingPollInterval(), func(time.Time) tea.Msg {
		return trackPollRequest{gen: gen}
	})
}

func (v *trackingView) View() string {
	title := lipgloss.NewStyle().Bold(true).Render("Tracking " + v.tag)
	if !v.loaded {
		if v.err != nil {
			return panelStyle.Render(title + "\n" + errorTextStyle.Render(desk.Describe(v.err)))
		}
		return panelStyle.Render(title + "\n" + mutedStyle.Render("Looking up order…"))
	}
	o := v.result.Order
	countdown := tracker.Remaining(o, v.result.EstimateMinutes, v.now)
	lines := []string{
		title,
		detailTextStyle.Render("Customer: " + dash(o.CustomerName)),
		"Status: " + renderStatus(o.Status),
		detailTextStyle.Render(fmt.Sprintf("Estimate: %d min", v.result.EstimateMinutes)),
		"",
	}
	switch {
	case countdown.Hidden:
		lines = append(lines, mutedStyle.Render("No countdown for this status"))
	case countdown.Overdue:
		lines = append(lines, overdueStyle.Render("OVERDUE"), v.bar.ViewAs(1))
	default:
		lines = append(lines, "Ready in "+countdown.Label(), v.bar.ViewAs(countdown.Progress/100))
	}
	if v.err != nil {
		lines = append(lines, errorTextStyle.Render(desk.Describe(v.err)))
	}
	if v.finished {
		lines = append(lines, "", mutedStyle.Render("Tracking stopped"))
	} else {
		lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("Refreshing every %s", v.app.config.TrackingPollInterval())))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}
