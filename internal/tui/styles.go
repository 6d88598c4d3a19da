package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/orderdesk/internal/order"
)

var (
	statusStylePending   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	statusStyleConfirmed = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	statusStylePreparing = lipgloss.NewStyle().Foreground(lipgloss.Color("#B388FF")).Bold(true)
	statusStyleReady     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	statusStyleDone      = lipgloss.NewStyle().Foreground(lipgloss.Color("#26A69A"))
	statusStyleStopped   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	statusStyleUnknown   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#FFFFFF"))
	tabInactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	detailTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#777777"))
	errorTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	overdueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true).Blink(true)
	panelStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#444444")).
				Padding(0, 1)
)

// statusLabel is the title-cased display name of s.
func statusLabel(s order.Status) string {
	if !s.Valid() {
		return "Unknown"
	}
	name := s.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// statusStyle maps s to its colour. It never looks at the lifecycle table.
func statusStyle(s order.Status) lipgloss.Style {
	switch s {
	case order.Pending:
		return statusStylePending
	case order.Confirmed:
		return statusStyleConfirmed
	case order.Preparing:
		return statusStylePreparing
	case order.Ready:
		return statusStyleReady
	case order.Completed, order.Delivered:
		return statusStyleDone
	case order.Cancelled, order.Rejected:
		return statusStyleStopped
	default:
		return statusStyleUnknown
	}
}

func renderStatus(s order.Status) string {
	return statusStyle(s).Render(statusLabel(s))
}
