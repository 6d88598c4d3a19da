package ordertype

import (
	"context"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the service-charge split of an order total.
type Breakdown struct {
	Base          decimal.Decimal
	ServiceCharge decimal.Decimal
	Total         decimal.Decimal
}

// CalculateOrderTotal applies the order type's service-charge percentage to
// base. An unknown order type degrades to a zero charge instead of failing.
func (c *Cache) CalculateOrderTotal(ctx context.Context, orderTypeID int64, base decimal.Decimal) Breakdown {
	entry, ok := c.Get(ctx, orderTypeID)
	if !ok {
		return Breakdown{Base: base, ServiceCharge: decimal.Zero, Total: base}
	}
	return entry.Apply(base)
}

// Apply computes the breakdown for base using this entry's percentage.
func (e Entry) Apply(base decimal.Decimal) Breakdown {
	charge := base.Mul(e.ServiceCharge).Div(hundred).Round(2)
	return Breakdown{
		Base:          base,
		ServiceCharge: charge,
		Total:         base.Add(charge),
	}
}
