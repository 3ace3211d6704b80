package communication

import (
	"testing"

	"github.com/cmsd2/woot/woot"
)

func TestStateVectorObserve(t *testing.T) {
	sv := NewStateVector()
	sv.Observe(woot.ID{Site: 1, Clock: 0})
	sv.Observe(woot.ID{Site: 1, Clock: 2})
	sv.Observe(woot.ID{Site: 1, Clock: 1}) // out of order, no regression
	sv.Observe(woot.BeginID)               // sentinels ignored

	if got := sv[1]; got != 3 {
		t.Fatalf("sv[1] = %d, want 3", got)
	}
	if _, ok := sv[0]; ok {
		t.Fatal("sentinel site must not be tracked")
	}
}

func TestStateVectorMergeDominates(t *testing.T) {
	a := StateVector{1: 3, 2: 1}
	b := StateVector{2: 4}

	if a.Dominates(b) {
		t.Fatal("a should not dominate b")
	}
	a.Merge(b)
	if a[1] != 3 || a[2] != 4 {
		t.Fatalf("after merge: %v", a)
	}
	if !a.Dominates(b) || !a.Dominates(StateVector{}) {
		t.Fatal("merged vector should dominate both inputs")
	}
	if !a.Equals(StateVector{1: 3, 2: 4}) {
		t.Fatalf("Equals mismatch: %v", a)
	}

	cp := a.Copy()
	cp[1] = 9
	if a[1] != 3 {
		t.Fatal("Copy must be independent")
	}
}
