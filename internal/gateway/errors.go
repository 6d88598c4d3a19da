package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies gateway failures by the HTTP status they came from.
type Kind string

const (
	KindBadRequest         Kind = "bad-request"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not-found"
	KindConflict           Kind = "conflict"
	KindInvalidState       Kind = "invalid-state"
	KindNetworkUnavailable Kind = "network-unavailable"
	KindUnexpected         Kind = "unexpected"
)

// Sentinels for errors.Is checks against a *Error of the matching kind.
var (
	ErrBadRequest         = &Error{Kind: KindBadRequest}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrInvalidState       = &Error{Kind: KindInvalidState}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrUnexpected         = &Error{Kind: KindUnexpected}
)

// Error is the typed failure every Client operation returns.
type Error struct {
	Kind      Kind
	Status    int
	Operation string
	Message   string
	// Fields carries field-level validation detail, usually on BadRequest.
	Fields map[string][]string
	cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("gateway")
	if e.Operation != "" {
		b.WriteString(": ")
		b.WriteString(e.Operation)
	}
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if e.Status > 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		b.WriteString(" [")
		b.WriteString(e.FieldSummary())
		b.WriteString("]")
	}
	return b.String()
}

// Is matches any *Error with the same Kind, so callers can compare against
// the package sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func (e *Error) Unwrap() error { return e.cause }

// FieldSummary renders Fields as "field: msg; field: msg" in field order.
func (e *Error) FieldSummary() string {
	if len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], ", ")))
	}
	return strings.Join(parts, "; ")
}

// KindOf returns the Kind of err, or KindUnexpected when err is not a gateway error.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnexpected
}

// kindForStatus maps transport status codes to the taxonomy.
func kindForStatus(code int) Kind {
	switch code {
	case 0:
		return KindNetworkUnavailable
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity:
		return KindInvalidState
	default:
		return KindUnexpected
	}
}

// problemBody is the error payload shape the API returns. Both the problem+json
// "detail"/"title" pair and a bare "message"/"error" are understood.
type problemBody struct {
	Title   string              `json:"title"`
	Detail  string              `json:"detail"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func (p problemBody) text() string {
	for _, candidate := range []string{p.Detail, p.Message, p.Error, p.Title} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

// translate converts a transport failure into a *Error for op.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		if gwErr.Operation == "" {
			gwErr.Operation = op
		}
		return gwErr
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return &Error{Kind: KindUnexpected, Operation: op, Message: err.Error(), cause: err}
	}
	out := &Error{
		Kind:      kindForStatus(statusErr.Code),
		Status:    statusErr.Code,
		Operation: op,
		cause:     err,
	}
	if problem, ok := statusErr.problem(); ok {
		out.Message = problem.text()
		out.Fields = problem.Errors
	}
	if out.Message == "" {
		if statusErr.Code == 0 {
			out.Message = "server unreachable"
		} else {
			out.Message = http.StatusText(statusErr.Code)
		}
	}
	return out
}
