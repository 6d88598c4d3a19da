package order

import "strings"

// Status enumerates the lifecycle states of a restaurant order. The integer
// codes match the API's numeric representation.
type Status int

const (
	Pending Status = iota
	Confirmed
	Preparing
	Ready
	Delivered
	Completed
	Cancelled
	Rejected
)

// Statuses lists every status in declaration order.
var Statuses = []Status{
	Pending,
	Confirmed,
	Preparing,
	Ready,
	Delivered,
	Completed,
	Cancelled,
	Rejected,
}

// rule is one row of the lifecycle table. next is the ordered set of legal
// successors; modify and cancel are the row-action predicates offered by the
// dashboard and are not derived from next.
type rule struct {
	name   string
	next   []Status
	modify bool
	cancel bool
}

// lifecycle is the only place transition legality is defined.
var lifecycle = map[Status]rule{
	Pending:   {name: "pending", next: []Status{Confirmed, Cancelled, Rejected}, modify: true, cancel: true},
	Confirmed: {name: "confirmed", next: []Status{Preparing, Cancelled}, modify: true, cancel: true},
	Preparing: {name: "preparing", next: []Status{Ready, Cancelled}, cancel: true},
	Ready:     {name: "ready", next: []Status{Completed, Cancelled}},
	// Completed keeps a single edge; it is not in the terminal set.
	Completed: {name: "completed", next: []Status{Delivered}},
	Delivered: {name: "delivered"},
	Cancelled: {name: "cancelled"},
	Rejected:  {name: "rejected"},
}

// String returns the lowercase wire name, or "unknown" for out-of-range codes.
func (s Status) String() string {
	if r, ok := lifecycle[s]; ok {
		return r.name
	}
	return "unknown"
}

// Valid reports whether s is one of the eight declared statuses.
func (s Status) Valid() bool {
	_, ok := lifecycle[s]
	return ok
}

// ValidTransitions returns the ordered successors of s. Terminal and
// out-of-range statuses yield an empty slice. The slice is a copy.
func ValidTransitions(s Status) []Status {
	r := lifecycle[s]
	out := make([]Status, len(r.next))
	copy(out, r.next)
	return out
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, next := range lifecycle[from].next {
		if next == to {
			return true
		}
	}
	return false
}

// CanModify reports whether the confirm/edit action is offered for s.
func CanModify(s Status) bool {
	return lifecycle[s].modify
}

// CanCancel reports whether the staff cancel action is offered for s.
func CanCancel(s Status) bool {
	return lifecycle[s].cancel
}

// IsTerminal reports whether s has no outgoing transitions. Out-of-range
// codes are treated as terminal since nothing can follow them.
func IsTerminal(s Status) bool {
	return len(lifecycle[s].next) == 0
}

// IsActive is the complement of IsTerminal for declared statuses.
func IsActive(s Status) bool {
	return s.Valid() && !IsTerminal(s)
}

// NextForward returns the first successor that moves the order along its
// happy path, skipping Cancelled and Rejected.
func NextForward(s Status) (Status, bool) {
	for _, next := range lifecycle[s].next {
		if next == Cancelled || next == Rejected {
			continue
		}
		return next, true
	}
	return s, false
}

// StopsPolling reports whether re-fetching an order in status s is wasted
// work. Completed stops polling despite its Delivered edge.
func StopsPolling(s Status) bool {
	switch s {
	case Completed, Cancelled, Rejected:
		return true
	}
	return IsTerminal(s)
}

// ParseStatus maps a wire name to a Status. Matching is case-insensitive and
// unrecognized names fall back to Pending.
func ParseStatus(value string) Status {
	name := strings.ToLower(strings.TrimSpace(value))
	for _, s := range Statuses {
		if lifecycle[s].name == name {
			return s
		}
	}
	return Pending
}

// StatusFromCode maps a numeric API code, falling back to Pending when the
// code is outside the enumeration.
func StatusFromCode(code int) Status {
	s := Status(code)
	if !s.Valid() {
		return Pending
	}
	return s
}
