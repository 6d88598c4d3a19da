// Package orderlist turns a raw order collection into the page a staff
// member sees. Everything here is pure and safe for concurrent use.
package orderlist

import "strings"

// ViewMode selects which order list the dashboard shows.
type ViewMode string

const (
	ViewPending ViewMode = "pending"
	ViewBranch  ViewMode = "branch"
	ViewDeleted ViewMode = "deleted"
)

// ViewModes lists the modes in tab order.
var ViewModes = []ViewMode{ViewPending, ViewBranch, ViewDeleted}

// ParseViewMode accepts the mode names case-insensitively. "deletedOrders" is
// accepted as an alias of deleted.
func ParseViewMode(value string) (ViewMode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "pending":
		return ViewPending, true
	case "branch":
		return ViewBranch, true
	case "deleted", "deletedorders":
		return ViewDeleted, true
	default:
		return "", false
	}
}

// Next returns the following tab, wrapping around.
func (m ViewMode) Next() ViewMode {
	for i, mode := range ViewModes {
		if mode == m {
			return ViewModes[(i+1)%len(ViewModes)]
		}
	}
	return ViewPending
}

// FiltersByStatus reports whether the status predicate is meaningful in this
// view. Pending orders share one implicit status.
func (m ViewMode) FiltersByStatus() bool {
	return m == ViewBranch
}

// Label is the tab caption.
func (m ViewMode) Label() string {
	switch m {
	case ViewPending:
		return "Pending"
	case ViewBranch:
		return "Branch"
	case ViewDeleted:
		return "Deleted"
	default:
		return string(m)
	}
}
