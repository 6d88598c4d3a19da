package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kingrea/orderdesk/internal/order"
	"github.com/kingrea/orderdesk/internal/ordertype"
)

// wireStatus accepts a status sent either as its name or as its code.
// Anything unrecognized decodes to Pending.
type wireStatus order.Status

func (w *wireStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*w = wireStatus(order.Pending)
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		if code, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			*w = wireStatus(order.StatusFromCode(code))
			return nil
		}
		*w = wireStatus(order.ParseStatus(text))
		return nil
	}
	var code float64
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	*w = wireStatus(order.StatusFromCode(int(code)))
	return nil
}

type extraDTO struct {
	Name       string          `json:"name"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	IsRemoval  bool            `json:"isRemoval"`
}

func (e extraDTO) normalize() order.Extra {
	return order.Extra{Name: e.Name, TotalPrice: e.TotalPrice, Removal: e.IsRemoval}
}

func normalizeExtras(in []extraDTO) []order.Extra {
	if len(in) == 0 {
		return nil
	}
	out := make([]order.Extra, 0, len(in))
	for _, e := range in {
		out = append(out, e.normalize())
	}
	return out
}

// pendingItemDTO is the item shape of the pending queue.
type pendingItemDTO struct {
	ProductName string           `json:"productName"`
	UnitPrice   decimal.Decimal  `json:"unitPrice"`
	Quantity    int              `json:"quantity"`
	Addons      []pendingItemDTO `json:"addonItems"`
	Extras      []extraDTO       `json:"extras"`
}

func (d pendingItemDTO) normalize() order.Item {
	item := order.Item{
		ProductName: d.ProductName,
		UnitPrice:   d.UnitPrice,
		Count:       d.Quantity,
		Extras:      normalizeExtras(d.Extras),
	}
	for _, addon := range d.Addons {
		item.Addons = append(item.Addons, addon.normalize())
	}
	return item
}

// pendingOrderDTO carries no status: everything in the pending queue is Pending.
type pendingOrderDTO struct {
	ID            int64            `json:"id"`
	OrderTag      string           `json:"orderTag"`
	CustomerName  string           `json:"customerName"`
	TotalPrice    decimal.Decimal  `json:"totalPrice"`
	CreatedAt     time.Time        `json:"createdAt"`
	TableName     *string          `json:"tableName"`
	OrderTypeID   int64            `json:"orderTypeId"`
	OrderTypeName string           `json:"orderTypeName"`
	OrderTypeCode string           `json:"orderTypeCode"`
	Note          string           `json:"note"`
	RowVersion    string           `json:"rowVersion"`
	Items         []pendingItemDTO `json:"items"`
}

func (d pendingOrderDTO) normalize() order.Order {
	o := order.Order{
		ID:            d.ID,
		Tag:           d.OrderTag,
		CustomerName:  d.CustomerName,
		TotalPrice:    d.TotalPrice,
		CreatedAt:     d.CreatedAt,
		Status:        order.Pending,
		TableName:     deref(d.TableName),
		OrderTypeID:   d.OrderTypeID,
		OrderTypeName: d.OrderTypeName,
		OrderTypeCode: d.OrderTypeCode,
		Notes:         d.Note,
		RowVersion:    d.RowVersion,
	}
	for _, item := range d.Items {
		o.Items = append(o.Items, item.normalize())
	}
	return o
}

// branchItemDTO is the item shape of branch, detail and tracking responses.
type branchItemDTO struct {
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Count       int             `json:"count"`
	Addons      []branchItemDTO `json:"addonItems"`
	Extras      []extraDTO      `json:"extras"`
}

func (d branchItemDTO) normalize() order.Item {
	item := order.Item{
		ProductName: d.ProductName,
		UnitPrice:   d.UnitPrice,
		Count:       d.Count,
		Extras:      normalizeExtras(d.Extras),
	}
	for _, addon := range d.Addons {
		item.Addons = append(item.Addons, addon.normalize())
	}
	return item
}

type branchOrderDTO struct {
	ID            int64           `json:"id"`
	OrderTag      string          `json:"orderTag"`
	CustomerName  string          `json:"customerName"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	CreatedAt     time.Time       `json:"createdAt"`
	Status        wireStatus      `json:"status"`
	TableName     *string         `json:"tableName"`
	OrderTypeID   int64           `json:"orderTypeId"`
	OrderTypeName string          `json:"orderTypeName"`
	OrderTypeCode string          `json:"orderTypeCode"`
	Notes         string          `json:"notes"`
	RowVersion    string          `json:"rowVersion"`
	Items         []branchItemDTO `json:"items"`
}

func (d branchOrderDTO) normalize() order.Order {
	o := order.Order{
		ID:            d.ID,
		Tag:           d.OrderTag,
		CustomerName:  d.CustomerName,
		TotalPrice:    d.TotalPrice,
		CreatedAt:     d.CreatedAt,
		Status:        order.Status(d.Status),
		TableName:     deref(d.TableName),
		OrderTypeID:   d.OrderTypeID,
		OrderTypeName: d.OrderTypeName,
		OrderTypeCode: d.OrderTypeCode,
		Notes:         d.Notes,
		RowVersion:    d.RowVersion,
	}
	for _, item := range d.Items {
		o.Items = append(o.Items, item.normalize())
	}
	return o
}

// trackingDTO is the customer-facing tracking response: a branch order plus
// the estimate the kitchen committed to.
type trackingDTO struct {
	branchOrderDTO
	EstimatedMinutes *int `json:"estimatedMinutes"`
}

type orderTypeDTO struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Code             string          `json:"code"`
	ServiceCharge    decimal.Decimal `json:"serviceCharge"`
	EstimatedMinutes int             `json:"estimatedMinutes"`
	DisplayOrder     int             `json:"displayOrder"`
	IsActive         bool            `json:"isActive"`
}

func (d orderTypeDTO) normalize() ordertype.Entry {
	return ordertype.Entry{
		ID:               d.ID,
		Name:             d.Name,
		Code:             d.Code,
		ServiceCharge:    d.ServiceCharge,
		EstimatedMinutes: d.EstimatedMinutes,
		DisplayOrder:     d.DisplayOrder,
		IsActive:         d.IsActive,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
