package order

import (
	"reflect"
	"testing"
)

func TestValidTransitionsMatchesLifecycleTable(t *testing.T) {
	want := map[Status][]Status{
		Pending:   {Confirmed, Cancelled, Rejected},
		Confirmed: {Preparing, Cancelled},
		Preparing: {Ready, Cancelled},
		Ready:     {Completed, Cancelled},
		Completed: {Delivered},
		Delivered: {},
		Cancelled: {},
		Rejected:  {},
	}
	for _, s := range Statuses {
		got := ValidTransitions(s)
		if !reflect.DeepEqual(got, want[s]) {
			t.Fatalf("ValidTransitions(%s) = %v, want %v", s, got, want[s])
		}
	}
}

func TestValidTransitionsOutOfRangeIsEmpty(t *testing.T) {
	for _, s := range []Status{-1, 8, 42} {
		if got := ValidTransitions(s); len(got) != 0 {
			t.Fatalf("expected no transitions for %d, got %v", s, got)
		}
		if CanModify(s) || CanCancel(s) {
			t.Fatalf("out-of-range status %d must not offer actions", s)
		}
		if !IsTerminal(s) || IsActive(s) {
			t.Fatalf("out-of-range status %d should count as terminal", s)
		}
	}
}

func TestValidTransitionsReturnsCopy(t *testing.T) {
	got := ValidTransitions(Pending)
	got[0] = Rejected
	if again := ValidTransitions(Pending); again[0] != Confirmed {
		t.Fatalf("lifecycle table mutated through returned slice: %v", again)
	}
}

func TestCompletedHasSingleDeliveredEdge(t *testing.T) {
	if got := ValidTransitions(Completed); !reflect.DeepEqual(got, []Status{Delivered}) {
		t.Fatalf("expected [delivered], got %v", got)
	}
	if IsTerminal(Completed) {
		t.Fatalf("completed must not be terminal")
	}
	if got := ValidTransitions(Delivered); len(got) != 0 {
		t.Fatalf("expected delivered to be terminal, got %v", got)
	}
}

func TestCanModifyAndCanCancel(t *testing.T) {
	modify := map[Status]bool{Pending: true, Confirmed: true}
	cancel := map[Status]bool{Pending: true, Confirmed: true, Preparing: true}
	for _, s := range Statuses {
		if CanModify(s) != modify[s] {
			t.Fatalf("CanModify(%s) = %v", s, CanModify(s))
		}
		if CanCancel(s) != cancel[s] {
			t.Fatalf("CanCancel(%s) = %v", s, CanCancel(s))
		}
	}
}

func TestActionPredicatesAgreeWithTransitions(t *testing.T) {
	for _, s := range Statuses {
		if CanCancel(s) && !CanTransition(s, Cancelled) {
			t.Fatalf("%s offers cancel without a cancelled edge", s)
		}
		if CanModify(s) && IsTerminal(s) {
			t.Fatalf("%s offers modify while terminal", s)
		}
	}
}

func TestTerminalPartition(t *testing.T) {
	terminal := map[Status]bool{Delivered: true, Cancelled: true, Rejected: true}
	for _, s := range Statuses {
		if IsTerminal(s) != terminal[s] {
			t.Fatalf("IsTerminal(%s) = %v", s, IsTerminal(s))
		}
		if IsActive(s) == IsTerminal(s) {
			t.Fatalf("%s must be exactly one of active/terminal", s)
		}
	}
}

func TestNextForwardSkipsCancelAndReject(t *testing.T) {
	cases := map[Status]Status{
		Pending:   Confirmed,
		Confirmed: Preparing,
		Preparing: Ready,
		Ready:     Completed,
		Completed: Delivered,
	}
	for from, want := range cases {
		got, ok := NextForward(from)
		if !ok || got != want {
			t.Fatalf("NextForward(%s) = %s,%v want %s", from, got, ok, want)
		}
	}
	if _, ok := NextForward(Rejected); ok {
		t.Fatalf("rejected has no forward step")
	}
}

func TestStopsPolling(t *testing.T) {
	stop := map[Status]bool{Completed: true, Cancelled: true, Rejected: true, Delivered: true}
	for _, s := range Statuses {
		if StopsPolling(s) != stop[s] {
			t.Fatalf("StopsPolling(%s) = %v", s, StopsPolling(s))
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"pending":     Pending,
		"CONFIRMED":   Confirmed,
		" Preparing ": Preparing,
		"ready":       Ready,
		"Completed":   Completed,
		"cancelled":   Cancelled,
		"REJECTED":    Rejected,
		"delivered":   Delivered,
		"canceled":    Pending,
		"":            Pending,
		"on-the-way":  Pending,
	}
	for in, want := range cases {
		if got := ParseStatus(in); got != want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestStatusFromCode(t *testing.T) {
	if got := StatusFromCode(5); got != Completed {
		t.Fatalf("expected completed, got %s", got)
	}
	if got := StatusFromCode(99); got != Pending {
		t.Fatalf("expected out-of-range code to fall back to pending, got %s", got)
	}
	if Status(99).String() != "unknown" {
		t.Fatalf("expected unknown name for out-of-range code")
	}
}
