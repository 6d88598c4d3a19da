package orderlist

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kingrea/orderdesk/internal/order"
)

// FilterSpec is the set of predicates applied to a list. Zero values and nil
// pointers impose no constraint.
type FilterSpec struct {
	Search       string
	Status       *order.Status
	Start        time.Time
	End          time.Time
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	CustomerName string
	TableName    string
	OrderType    string
}

// IsZero reports whether no predicate is active.
func (f FilterSpec) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" &&
		f.Status == nil &&
		f.Start.IsZero() && f.End.IsZero() &&
		f.MinPrice == nil && f.MaxPrice == nil &&
		strings.TrimSpace(f.CustomerName) == "" &&
		strings.TrimSpace(f.TableName) == "" &&
		strings.TrimSpace(f.OrderType) == ""
}

// StartOfDay is 00:00:00.000 of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is the last millisecond of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// SortField names a sortable column.
type SortField string

const (
	SortCustomerName SortField = "customerName"
	SortTotalPrice   SortField = "totalPrice"
	SortCreatedAt    SortField = "createdAt"
)

// SortFields lists the recognized fields in cycle order.
var SortFields = []SortField{SortCreatedAt, SortCustomerName, SortTotalPrice}

// SortSpec orders the filtered list. An unrecognized Field keeps input order.
type SortSpec struct {
	Field SortField
	Desc  bool
}

// NextField cycles through SortFields.
func (s SortSpec) NextField() SortSpec {
	for i, field := range SortFields {
		if field == s.Field {
			s.Field = SortFields[(i+1)%len(SortFields)]
			return s
		}
	}
	s.Field = SortFields[0]
	return s
}

// Apply filters orders with spec (status only in the branch view) and then
// stable-sorts the result. The input slice is not modified.
func Apply(orders []order.Order, mode ViewMode, spec FilterSpec, sortBy SortSpec) []order.Order {
	match := compile(spec, mode)
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if match(o) {
			out = append(out, o)
		}
	}
	cmp := comparator(sortBy.Field)
	if cmp == nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if sortBy.Desc {
			c = -c
		}
		return c < 0
	})
	return out
}

type predicate func(order.Order) bool

// compile builds the conjunction of the active predicates once per call.
func compile(spec FilterSpec, mode ViewMode) predicate {
	var preds []predicate
	if q := fold(spec.Search); q != "" {
		preds = append(preds, func(o order.Order) bool {
			return contains(o.CustomerName, q) || contains(o.Tag, q) ||
				contains(o.TableName, q) || contains(o.Notes, q)
		})
	}
	if spec.Status != nil && mode.FiltersByStatus() {
		want := *spec.Status
		preds = append(preds, func(o order.Order) bool { return o.Status == want })
	}
	if !spec.Start.IsZero() {
		start := StartOfDay(spec.Start)
		preds = append(preds, func(o order.Order) bool { return !o.CreatedAt.Before(start) })
	}
	if !spec.End.IsZero() {
		end := EndOfDay(spec.End)
		preds = append(preds, func(o order.Order) bool { return !o.CreatedAt.After(end) })
	}
	if spec.MinPrice != nil {
		lo := *spec.MinPrice
		preds = append(preds, func(o order.Order) bool { return o.TotalPrice.GreaterThanOrEqual(lo) })
	}
	if spec.MaxPrice != nil {
		hi := *spec.MaxPrice
		preds = append(preds, func(o order.Order) bool { return o.TotalPrice.LessThanOrEqual(hi) })
	}
	if q := fold(spec.CustomerName); q != "" {
		preds = append(preds, func(o order.Order) bool { return contains(o.CustomerName, q) })
	}
	if q := fold(spec.TableName); q != "" {
		preds = append(preds, func(o order.Order) bool { return contains(o.TableName, q) })
	}
	if q := fold(spec.OrderType); q != "" {
		preds = append(preds, func(o order.Order) bool {
			return contains(o.OrderTypeName, q) || contains(o.OrderTypeCode, q)
		})
	}
	return func(o order.Order) bool {
		for _, p := range preds {
			if !p(o) {
				return false
			}
		}
		return true
	}
}

func comparator(field SortField) func(a, b order.Order) int {
	switch field {
	case SortCustomerName:
		return func(a, b order.Order) int {
			return strings.Compare(strings.ToLower(a.CustomerName), strings.ToLower(b.CustomerName))
		}
	case SortTotalPrice:
		return func(a, b order.Order) int { return a.TotalPrice.Cmp(b.TotalPrice) }
	case SortCreatedAt:
		return func(a, b order.Order) int { return a.CreatedAt.Compare(b.CreatedAt) }
	default:
		return nil
	}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(field, foldedQuery string) bool {
	return strings.Contains(strings.ToLower(field), foldedQuery)
}
