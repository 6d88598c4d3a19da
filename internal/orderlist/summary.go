package orderlist

import (
	"github.com/shopspring/decimal"

	"github.com/kingrea/orderdesk/internal/order"
)

// Summary is the dashboard header over a list.
type Summary struct {
	Orders   int
	ByStatus map[order.Status]int
	// Revenue excludes cancelled and rejected orders.
	Revenue decimal.Decimal
	Items   int
}

// Summarize counts orders per status, revenue and item units.
func Summarize(orders []order.Order) Summary {
	s := Summary{
		Orders:   len(orders),
		ByStatus: make(map[order.Status]int),
		Revenue:  decimal.Zero,
	}
	for _, o := range orders {
		s.ByStatus[o.Status]++
		s.Items += o.ItemCount()
		if o.Status == order.Cancelled || o.Status == order.Rejected {
			continue
		}
		s.Revenue = s.Revenue.Add(o.TotalPrice)
	}
	return s
}
