package order

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleItems() []Item {
	return []Item{
		{
			ProductName: "Burger",
			UnitPrice:   dec("10.00"),
			Count:       2,
			Extras: []Extra{
				{Name: "Cheese", TotalPrice: dec("1.50")},
				{Name: "No onion", TotalPrice: dec("0.75"), Removal: true},
			},
			Addons: []Item{
				{
					ProductName: "Fries",
					UnitPrice:   dec("3.00"),
					Count:       1,
					Addons: []Item{
						{ProductName: "Dip", UnitPrice: dec("0.50"), Count: 2},
					},
				},
			},
		},
		{ProductName: "Cola", UnitPrice: dec("2.25"), Count: 1},
	}
}

func TestItemTotalIncludesNestedAddonsAndExtras(t *testing.T) {
	items := sampleItems()
	// 20 + 1.50 + (3 + 1) = 25.50
	if got := items[0].Total(); !got.Equal(dec("25.50")) {
		t.Fatalf("expected 25.50, got %s", got)
	}
	if got := ItemsTotal(items); !got.Equal(dec("27.75")) {
		t.Fatalf("expected 27.75, got %s", got)
	}
}

func TestItemCountWalksTree(t *testing.T) {
	if got := ItemCount(sampleItems()); got != 6 {
		t.Fatalf("expected 6 units, got %d", got)
	}
}

func TestFlattenKeepsDisplayOrderAndDepth(t *testing.T) {
	lines := Flatten(sampleItems())
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	names := []string{"Burger", "Fries", "Dip", "Cola"}
	depths := []int{0, 1, 2, 0}
	for i, line := range lines {
		if line.Item.ProductName != names[i] || line.Depth != depths[i] {
			t.Fatalf("line %d = %s@%d, want %s@%d", i, line.Item.ProductName, line.Depth, names[i], depths[i])
		}
	}
	if !lines[1].Total.Equal(dec("4.00")) {
		t.Fatalf("expected fries subtree 4.00, got %s", lines[1].Total)
	}
}

func TestTotalMismatch(t *testing.T) {
	o := Order{Items: sampleItems(), TotalPrice: dec("27.75")}
	if o.TotalMismatch() {
		t.Fatalf("expected totals to agree")
	}
	o.TotalPrice = dec("30")
	if !o.TotalMismatch() {
		t.Fatalf("expected mismatch to be reported")
	}
	if (Order{TotalPrice: dec("5")}).TotalMismatch() {
		t.Fatalf("orders without items cannot disagree")
	}
}

func TestNegativeCountContributesNothing(t *testing.T) {
	items := []Item{{ProductName: "Bad", UnitPrice: dec("4"), Count: -3}}
	if got := ItemsTotal(items); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}
