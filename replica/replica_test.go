package replica

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/cmsd2/woot/communication"
	"github.com/cmsd2/woot/woot"
)

func newReplica(t *testing.T, site uint64) *Replica {
	t.Helper()
	r, err := New(site)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func mustInsert(t *testing.T, r *Replica, pos int, value rune) communication.Operation {
	t.Helper()
	op, err := r.GenerateInsert(pos, value)
	if err != nil {
		t.Fatalf("GenerateInsert(%d, %c): %v", pos, value, err)
	}
	return op
}

func mustDelete(t *testing.T, r *Replica, pos int) communication.Operation {
	t.Helper()
	op, err := r.GenerateDelete(pos)
	if err != nil {
		t.Fatalf("GenerateDelete(%d): %v", pos, err)
	}
	return op
}

func checkValue(t *testing.T, r *Replica, want string) {
	t.Helper()
	if got := r.Value(); got != want {
		t.Fatalf("site %d: Value() = %q, want %q", r.Site(), got, want)
	}
	if err := r.Sequence().CheckInvariants(); err != nil {
		t.Fatalf("site %d: %v", r.Site(), err)
	}
}

func checkConverged(t *testing.T, replicas ...*Replica) {
	t.Helper()
	base := replicas[0].Sequence().Snapshot()
	for _, r := range replicas[1:] {
		if !reflect.DeepEqual(base, r.Sequence().Snapshot()) {
			t.Fatalf("site %d diverged from site %d:\n%q\n%q",
				r.Site(), replicas[0].Site(), replicas[0].Value(), r.Value())
		}
	}
}

func TestNewRejectsSentinelSite(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("New(0) should fail")
	}
}

// Scenario: local inserts append in program order.
func TestLocalInserts(t *testing.T) {
	a := newReplica(t, 1)
	op1 := mustInsert(t, a, 0, 'a')
	checkValue(t, a, "a")
	op2 := mustInsert(t, a, 1, 'b')
	checkValue(t, a, "ab")

	if op1.Char.ID != (woot.ID{Site: 1, Clock: 0}) || op2.Char.ID != (woot.ID{Site: 1, Clock: 1}) {
		t.Fatalf("clock not monotone: %v, %v", op1.Char.ID, op2.Char.ID)
	}
	if op2.Char.PrevID != op1.Char.ID || op2.Char.NextID != woot.EndID {
		t.Fatalf("op2 anchors: %v..%v", op2.Char.PrevID, op2.Char.NextID)
	}
}

func TestPositionErrors(t *testing.T) {
	a := newReplica(t, 1)
	if _, err := a.GenerateInsert(1, 'a'); !errors.Is(err, woot.ErrPositionOutOfRange) {
		t.Fatalf("insert past end: %v", err)
	}
	if _, err := a.GenerateInsert(-1, 'a'); !errors.Is(err, woot.ErrPositionOutOfRange) {
		t.Fatalf("negative insert: %v", err)
	}
	if _, err := a.GenerateDelete(0); !errors.Is(err, woot.ErrPositionOutOfRange) {
		t.Fatalf("delete on empty text: %v", err)
	}

	mustInsert(t, a, 0, 'a')
	if _, err := a.GenerateDelete(1); !errors.Is(err, woot.ErrPositionOutOfRange) {
		t.Fatalf("delete past end: %v", err)
	}

	// A failed generate must not advance the clock.
	op := mustInsert(t, a, 0, 'b')
	if op.Char.ID.Clock != 1 {
		t.Fatalf("clock advanced by failed generates: %v", op.Char.ID)
	}
}

func TestDeleteConvention(t *testing.T) {
	a := newReplica(t, 1)
	mustInsert(t, a, 0, 'a')
	mustInsert(t, a, 1, 'b')
	mustDelete(t, a, 0) // offset 0 is the first user character
	checkValue(t, a, "b")
}

// Scenario: concurrent inserts at the same position converge, ordered by
// site identifier.
func TestConcurrentInsertsSamePosition(t *testing.T) {
	a := newReplica(t, 1)
	b := newReplica(t, 2)

	opA := mustInsert(t, a, 0, 'a')
	opB := mustInsert(t, b, 0, 'b')

	b.Receive(opA)
	b.Drain()
	a.Receive(opB)
	a.Drain()

	checkValue(t, a, "ab")
	checkValue(t, b, "ab")
	checkConverged(t, a, b)
}

// Scenario: delivery in reverse generation order parks the dependent
// insert in the pool until its anchor arrives.
func TestOutOfOrderDelivery(t *testing.T) {
	a := newReplica(t, 1)
	b := newReplica(t, 2)

	opA1 := mustInsert(t, a, 0, 'a')
	opA2 := mustInsert(t, a, 1, 'b')

	b.Receive(opA2)
	if b.Drain() {
		t.Fatal("drain should make no progress without the anchor")
	}
	if b.PendingOps() != 1 {
		t.Fatalf("PendingOps() = %d, want 1", b.PendingOps())
	}
	checkValue(t, b, "")

	b.Receive(opA1)
	if !b.Drain() {
		t.Fatal("drain should progress once the anchor arrived")
	}
	checkValue(t, b, "ab")
	if b.PendingOps() != 0 {
		t.Fatalf("PendingOps() = %d, want 0", b.PendingOps())
	}
	checkConverged(t, a, b)
}

// Scenario: delete at one site, concurrent insert anchored on the deleted
// character at the other. The tombstone keeps the anchor alive.
func TestDeleteVersusConcurrentInsert(t *testing.T) {
	a := newReplica(t, 1)
	b := newReplica(t, 2)

	opA := mustInsert(t, a, 0, 'a')
	b.Receive(opA)
	b.Drain()

	opDel := mustDelete(t, a, 0)
	opX := mustInsert(t, b, 1, 'X')

	b.Receive(opDel)
	b.Drain()
	a.Receive(opX)
	a.Drain()

	checkValue(t, a, "X")
	checkValue(t, b, "X")
	checkConverged(t, a, b)

	// The tombstone is still there, anchoring.
	if !a.Sequence().Contains(opA.Char.ID) {
		t.Fatal("tombstone removed from sequence")
	}
}

// Scenario: three sites insert concurrently between the sentinels; every
// delivery order at every receiver converges to site order.
func TestThreeWayConcurrentInserts(t *testing.T) {
	ops := make([]communication.Operation, 3)
	for i := uint64(1); i <= 3; i++ {
		r := newReplica(t, i)
		ops[i-1] = mustInsert(t, r, 0, rune('a'+i-1))
	}

	perms := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, perm := range perms {
		r := newReplica(t, 9)
		for _, i := range perm {
			r.Receive(ops[i])
		}
		r.Drain()
		checkValue(t, r, "abc")
	}
}

// Scenario: duplicate delivery leaves exactly one copy.
func TestDuplicateDelivery(t *testing.T) {
	a := newReplica(t, 1)
	b := newReplica(t, 2)

	op := mustInsert(t, a, 0, 'a')
	b.Receive(op)
	b.Receive(op) // duplicate before drain
	b.Drain()
	b.Receive(op) // duplicate after integration
	b.Drain()

	checkValue(t, b, "a")
	if b.Sequence().Len() != 3 {
		t.Fatalf("sequence length %d, want 3", b.Sequence().Len())
	}
	if b.PendingOps() != 0 {
		t.Fatalf("PendingOps() = %d, want 0", b.PendingOps())
	}

	// Duplicate deletes are absorbed too.
	del := mustDelete(t, a, 0)
	b.Receive(del)
	b.Drain()
	b.Receive(del)
	if b.Drain() {
		t.Fatal("re-delivered delete should not progress")
	}
	checkValue(t, b, "")
}

func TestDrainFixedPoint(t *testing.T) {
	a := newReplica(t, 1)
	b := newReplica(t, 2)
	b.Receive(mustInsert(t, a, 0, 'a'))

	if !b.Drain() {
		t.Fatal("first drain should progress")
	}
	if b.Drain() {
		t.Fatal("drain after fixed point should report no progress")
	}
}

func TestStateVectorTracksInserts(t *testing.T) {
	a := newReplica(t, 1)
	b := newReplica(t, 2)

	mustInsert(t, a, 0, 'a')
	op := mustInsert(t, a, 1, 'b')
	b.Receive(op) // waits for its anchor; not observed yet
	b.Drain()

	if got := b.StateVector(); len(got) != 0 {
		t.Fatalf("unintegrated ops must not be observed: %v", got)
	}
	if got := a.StateVector(); !got.Equals(communication.StateVector{1: 2}) {
		t.Fatalf("a.StateVector() = %v, want {1:2}", got)
	}
}

// Randomised convergence: a fleet of replicas edits independently, then
// all operations are delivered everywhere in per-receiver shuffled order.
func TestRandomConvergence(t *testing.T) {
	const (
		numReplicas = 4
		numEdits    = 60
	)
	rng := rand.New(rand.NewSource(1))

	replicas := make([]*Replica, numReplicas)
	var allOps []communication.Operation
	for i := range replicas {
		replicas[i] = newReplica(t, uint64(i+1))
	}

	for e := 0; e < numEdits; e++ {
		r := replicas[rng.Intn(numReplicas)]
		textLen := len([]rune(r.Value()))
		if textLen > 0 && rng.Intn(4) == 0 {
			allOps = append(allOps, mustDelete(t, r, rng.Intn(textLen)))
		} else {
			value := rune('a' + rng.Intn(26))
			allOps = append(allOps, mustInsert(t, r, rng.Intn(textLen+1), value))
		}
	}

	for _, r := range replicas {
		shuffled := make([]communication.Operation, len(allOps))
		copy(shuffled, allOps)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		for _, op := range shuffled {
			r.Receive(op)
		}
		r.Drain()
		if r.PendingOps() != 0 {
			t.Fatalf("site %d: %d operations stuck in the pool", r.Site(), r.PendingOps())
		}
		if err := r.Sequence().CheckInvariants(); err != nil {
			t.Fatalf("site %d: %v", r.Site(), err)
		}
	}
	checkConverged(t, replicas...)
}
