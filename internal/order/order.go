package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the canonical order shape used everywhere past the gateway.
type Order struct {
	ID            int64
	Tag           string
	CustomerName  string
	TotalPrice    decimal.Decimal
	CreatedAt     time.Time
	Status        Status
	TableName     string
	OrderTypeID   int64
	OrderTypeName string
	OrderTypeCode string
	Notes         string
	// RowVersion is the concurrency token last observed for this order. Every
	// mutation must echo it back.
	RowVersion string
	Items      []Item
}

// Item is one line of an order. Add-ons nest recursively.
type Item struct {
	ProductName string
	UnitPrice   decimal.Decimal
	Count       int
	Addons      []Item
	Extras      []Extra
}

// Extra is an add-on or removal attached to an item line.
type Extra struct {
	Name       string
	TotalPrice decimal.Decimal
	Removal    bool
}

// Price returns the extra's contribution to its item total. Removals never
// add to the price, whatever the server sent.
func (e Extra) Price() decimal.Decimal {
	if e.Removal {
		return decimal.Zero
	}
	return e.TotalPrice
}

// Line is one visited node of an item tree.
type Line struct {
	Depth int
	Item  Item
	Total decimal.Decimal
}

// tally is the accumulator shared by every consumer of the item tree.
type tally struct {
	count int
	lines []Line
}

// walk is the single recursive descent over items. It returns the total of
// the visited subtree and records each node in t.
func walk(items []Item, depth int, t *tally, collect bool) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		count := it.Count
		if count < 0 {
			count = 0
		}
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(count)))
		for _, ex := range it.Extras {
			lineTotal = lineTotal.Add(ex.Price())
		}
		var idx int
		if collect {
			idx = len(t.lines)
			t.lines = append(t.lines, Line{Depth: depth, Item: it})
		}
		t.count += count
		lineTotal = lineTotal.Add(walk(it.Addons, depth+1, t, collect))
		if collect {
			t.lines[idx].Total = lineTotal
		}
		sum = sum.Add(lineTotal)
	}
	return sum
}

// Total returns unitPrice x count plus extras plus every nested add-on total.
func (it Item) Total() decimal.Decimal {
	var t tally
	return walk([]Item{it}, 0, &t, false)
}

// ItemsTotal sums the totals of items, add-ons included.
func ItemsTotal(items []Item) decimal.Decimal {
	var t tally
	return walk(items, 0, &t, false)
}

// ItemCount counts units across items and all nested add-ons.
func ItemCount(items []Item) int {
	var t tally
	walk(items, 0, &t, false)
	return t.count
}

// Flatten returns the item tree in display order with depth and line totals.
func Flatten(items []Item) []Line {
	var t tally
	walk(items, 0, &t, true)
	return t.lines
}

// ComputedTotal is the client-side total derived from the item tree.
func (o Order) ComputedTotal() decimal.Decimal {
	return ItemsTotal(o.Items)
}

// TotalMismatch reports whether the item tree disagrees with the server's
// totalPrice. The server value remains authoritative.
func (o Order) TotalMismatch() bool {
	if len(o.Items) == 0 {
		return false
	}
	return !o.ComputedTotal().Round(2).Equal(o.TotalPrice.Round(2))
}

// ItemCount counts units on the order, add-ons included.
func (o Order) ItemCount() int {
	return ItemCount(o.Items)
}
