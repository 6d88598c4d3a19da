// Package gateway is the order API client: one round trip per operation,
// typed failures, and a single normalization step from wire shapes to
// order.Order.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kingrea/orderdesk/internal/order"
	"github.com/kingrea/orderdesk/internal/ordertype"
)

// ConfirmRequest confirms a pending order.
type ConfirmRequest struct {
	RowVersion string `json:"rowVersion" validate:"required"`
}

// RejectRequest rejects a pending order with a reason shown to the customer.
type RejectRequest struct {
	Reason     string `json:"reason" validate:"required,max=500"`
	RowVersion string `json:"rowVersion" validate:"required"`
}

// ChangeStatusRequest moves an order to NewStatus.
type ChangeStatusRequest struct {
	NewStatus  order.Status `json:"newStatus" validate:"min=0,max=7"`
	RowVersion string       `json:"rowVersion" validate:"required"`
}

// Tracking is a tracked order plus the kitchen estimate, when the server sent one.
type Tracking struct {
	Order            order.Order
	EstimatedMinutes int
	HasEstimate      bool
}

// Client performs order operations against the remote API. Each method is
// one round trip and nothing is retried. The exception is a mutation whose
// reply carries no order, which is followed by a read of that order.
type Client struct {
	transport Transport
	validate  *validator.Validate
}

// NewClient wraps a transport.
func NewClient(transport Transport) *Client {
	return &Client{transport: transport, validate: validator.New()}
}

// ListPending returns the cross-branch pending queue.
func (c *Client) ListPending(ctx context.Context) ([]order.Order, error) {
	var payload []pendingOrderDTO
	if err := c.transport.Get(ctx, "/orders/pending", &payload); err != nil {
		return nil, translate("list pending", err)
	}
	out := make([]order.Order, 0, len(payload))
	for _, dto := range payload {
		out = append(out, dto.normalize())
	}
	return out, nil
}

// ListBranchOrders returns the active branch's orders in every status.
func (c *Client) ListBranchOrders(ctx context.Context) ([]order.Order, error) {
	return c.listBranchShape(ctx, "list branch orders", "/orders/branch")
}

// ListDeleted returns soft-deleted orders.
func (c *Client) ListDeleted(ctx context.Context) ([]order.Order, error) {
	return c.listBranchShape(ctx, "list deleted orders", "/orders/deleted")
}

func (c *Client) listBranchShape(ctx context.Context, op, path string) ([]order.Order, error) {
	var payload []branchOrderDTO
	if err := c.transport.Get(ctx, path, &payload); err != nil {
		return nil, translate(op, err)
	}
	out := make([]order.Order, 0, len(payload))
	for _, dto := range payload {
		out = append(out, dto.normalize())
	}
	return out, nil
}

// GetOrder fetches one order with its current row version.
func (c *Client) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	var payload branchOrderDTO
	if err := c.transport.Get(ctx, orderPath(id, ""), &payload); err != nil {
		return order.Order{}, translate("get order", err)
	}
	return payload.normalize(), nil
}

// Confirm confirms order id. A stale row version surfaces as ErrConflict.
func (c *Client) Confirm(ctx context.Context, id int64, req ConfirmRequest) (order.Order, error) {
	return c.mutate(ctx, "confirm", id, req, func(out *branchOrderDTO) error {
		return c.transport.Post(ctx, orderPath(id, "confirm"), req, out)
	})
}

// Reject rejects order id with req.Reason.
func (c *Client) Reject(ctx context.Context, id int64, req RejectRequest) (order.Order, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	return c.mutate(ctx, "reject", id, req, func(out *branchOrderDTO) error {
		return c.transport.Post(ctx, orderPath(id, "reject"), req, out)
	})
}

// ChangeStatus moves order id to req.NewStatus. The server's own state
// machine has the final word and answers ErrInvalidState when it disagrees.
func (c *Client) ChangeStatus(ctx context.Context, id int64, req ChangeStatusRequest) (order.Order, error) {
	return c.mutate(ctx, "change status", id, req, func(out *branchOrderDTO) error {
		return c.transport.Put(ctx, orderPath(id, "status"), req, out)
	})
}

// Track looks an order up by its public tag.
func (c *Client) Track(ctx context.Context, tag string) (Tracking, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Tracking{}, &Error{Kind: KindBadRequest, Operation: "track", Message: "order tag is required"}
	}
	var payload trackingDTO
	if err := c.transport.Get(ctx, "/orders/track/"+url.PathEscape(tag), &payload); err != nil {
		return Tracking{}, translate("track", err)
	}
	tracking := Tracking{Order: payload.branchOrderDTO.normalize()}
	if payload.EstimatedMinutes != nil {
		tracking.EstimatedMinutes = *payload.EstimatedMinutes
		tracking.HasEstimate = true
	}
	return tracking, nil
}

// ListOrderTypes fetches the order-type catalog. It satisfies ordertype.Catalog.
func (c *Client) ListOrderTypes(ctx context.Context) ([]ordertype.Entry, error) {
	var payload []orderTypeDTO
	if err := c.transport.Get(ctx, "/order-types", &payload); err != nil {
		return nil, translate("list order types", err)
	}
	out := make([]ordertype.Entry, 0, len(payload))
	for _, dto := range payload {
		out = append(out, dto.normalize())
	}
	return out, nil
}

func (c *Client) mutate(ctx context.Context, op string, id int64, req any, call func(*branchOrderDTO) error) (order.Order, error) {
	if err := c.check(op, req); err != nil {
		return order.Order{}, err
	}
	var payload branchOrderDTO
	if err := call(&payload); err != nil {
		return order.Order{}, translate(op, err)
	}
	// 204s, empty bodies and {"data":null} all leave the row version blank.
	if payload.RowVersion == "" {
		return c.GetOrder(ctx, id)
	}
	if payload.ID == 0 {
		payload.ID = id
	}
	return payload.normalize(), nil
}

// check validates req before any I/O and reports failures as BadRequest with
// per-field detail keyed by the JSON field name.
func (c *Client) check(op string, req any) error {
	err := c.validate.Struct(req)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return &Error{Kind: KindBadRequest, Operation: op, Message: err.Error(), cause: err}
	}
	fields := make(map[string][]string, len(invalid))
	for _, fe := range invalid {
		name := jsonName(fe.Field())
		fields[name] = append(fields[name], describeRule(fe))
	}
	return &Error{
		Kind:      KindBadRequest,
		Operation: op,
		Message:   "invalid request",
		Fields:    fields,
		cause:     err,
	}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func orderPath(id int64, action string) string {
	path := fmt.Sprintf("/orders/%d", id)
	if action != "" {
		path += "/" + action
	}
	return path
}
