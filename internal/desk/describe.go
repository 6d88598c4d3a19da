package desk

import (
	"context"
	"errors"

	"github.com/kingrea/orderdesk/internal/gateway"
)

// Describe renders err as a message staff can act on.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrTransitionNotAllowed) {
		return "That action is not available for the order's current status."
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "The request was cancelled or timed out. Try again."
	}
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		return err.Error()
	}
	switch gwErr.Kind {
	case gateway.KindBadRequest:
		if detail := gwErr.FieldSummary(); detail != "" {
			return "The request was rejected: " + detail + "."
		}
		return "The request was rejected: " + gwErr.Message + "."
	case gateway.KindUnauthorized:
		return "Your session has expired. Sign in again and retry."
	case gateway.KindForbidden:
		return "You do not have permission to change this order."
	case gateway.KindNotFound:
		return "The order no longer exists. Refresh the list."
	case gateway.KindConflict:
		return "Someone else changed this order. Refresh and try again."
	case gateway.KindInvalidState:
		return "The server refused this status change: " + gwErr.Message + ". Refresh to see the current status."
	case gateway.KindNetworkUnavailable:
		return "The order service is unreachable. Check the connection and retry."
	default:
		return "Unexpected error: " + gwErr.Message
	}
}
