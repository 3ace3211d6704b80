package replica

import (
	"fmt"

	"github.com/cmsd2/woot/communication"
	"github.com/cmsd2/woot/woot"
)

// Replica is the replicated-string façade for one site. It owns the
// sequence, the pending pool, the site identifier, the clock and the
// state vector, and is the single entry point hosts use to edit and
// synchronise the text.
//
// The replica is synchronous and single-threaded: every call returns only
// when complete, and hosts must serialise entry. Running several replicas
// in one process is fine; each owns all of its state.
//
// Both generate operations take zero-based text offsets: an insert at
// offset p places the character between the current p-th and (p+1)-th
// visible characters, so 0 prepends and len(text) appends; a delete at
// offset p removes the p-th character of the text.
type Replica struct {
	site    uint64
	clock   uint64
	seq     *woot.Sequence
	pending *pool
	version communication.StateVector
}

// New creates a replica for the given site. Site 0 is reserved for the
// sentinels.
func New(site uint64) (*Replica, error) {
	if site == 0 {
		return nil, fmt.Errorf("site 0 is reserved for sentinels")
	}
	return &Replica{
		site:    site,
		seq:     woot.NewSequence(),
		pending: newPool(),
		version: communication.NewStateVector(),
	}, nil
}

// Site returns the site identifier this replica mints characters under.
func (r *Replica) Site() uint64 {
	return r.site
}

// Value returns the current visible text.
func (r *Replica) Value() string {
	return r.seq.VisibleValue()
}

// Sequence exposes the underlying sequence for inspection. Callers must
// not mutate it.
func (r *Replica) Sequence() *woot.Sequence {
	return r.seq
}

// StateVector returns a copy of the observed state vector.
func (r *Replica) StateVector() communication.StateVector {
	return r.version.Copy()
}

// PendingOps reports how many received operations are still waiting for
// their preconditions.
func (r *Replica) PendingOps() int {
	return r.pending.len()
}

// GenerateInsert mints a character for value at text offset pos,
// integrates it locally and returns the Insert operation to ship. On
// error no character is minted and the clock does not advance.
func (r *Replica) GenerateInsert(pos int, value rune) (communication.Operation, error) {
	if pos < 0 || pos > r.seq.VisibleCount()-2 {
		return communication.Operation{}, fmt.Errorf("insert at %d: %w", pos, woot.ErrPositionOutOfRange)
	}
	cp := r.seq.IthVisible(pos)
	cn := r.seq.IthVisible(pos + 1)

	c := &woot.WChar{
		ID:      woot.ID{Site: r.site, Clock: r.clock},
		Value:   value,
		Visible: true,
		PrevID:  cp.ID,
		NextID:  cn.ID,
	}
	if err := r.seq.IntegrateInsert(c, cp, cn); err != nil {
		return communication.Operation{}, err
	}
	r.clock++
	r.version.Observe(c.ID)
	return communication.NewInsert(*c), nil
}

// GenerateDelete tombstones the character at text offset pos and returns
// the Delete operation to ship.
func (r *Replica) GenerateDelete(pos int) (communication.Operation, error) {
	if pos < 0 || pos > r.seq.VisibleCount()-3 {
		return communication.Operation{}, fmt.Errorf("delete at %d: %w", pos, woot.ErrPositionOutOfRange)
	}
	c := r.seq.IthVisible(pos + 1)
	r.seq.IntegrateDelete(c)
	return communication.NewDelete(*c, r.site), nil
}

// Receive enqueues a remote operation. Operations already reflected in
// the sequence are dropped eagerly: an Insert whose character is present,
// a Delete whose target is already invisible. Either way Drain re-checks
// before executing, so a duplicate slipping through is still harmless.
func (r *Replica) Receive(op communication.Operation) {
	switch op.Kind {
	case communication.Insert:
		if r.seq.Contains(op.Char.ID) {
			return
		}
	case communication.Delete:
		if c := r.seq.Find(op.Char.ID); c != nil && !c.Visible {
			return
		}
	}
	r.pending.add(op)
}

// Drain executes every executable pooled operation, repeating passes
// until one makes no progress, and reports whether anything executed.
// Convergence does not depend on pass order: integration is deterministic
// once anchors are present.
func (r *Replica) Drain() bool {
	progressed := false
	for {
		executed := false
		remaining := r.pending.ops[:0]
		for _, op := range r.pending.ops {
			if !r.executable(op) {
				remaining = append(remaining, op)
				continue
			}
			if err := r.execute(op); err != nil {
				// Executability was just checked; a failure here means
				// an invariant is broken and must surface to the host.
				panic(err)
			}
			r.pending.keys.Remove(op.Key())
			executed = true
		}
		r.pending.ops = remaining
		if !executed {
			return progressed
		}
		progressed = true
	}
}

// executable reports whether op's preconditions hold: both anchors present
// for an Insert (tombstones qualify), the target present for a Delete.
func (r *Replica) executable(op communication.Operation) bool {
	switch op.Kind {
	case communication.Insert:
		return r.seq.Contains(op.Char.PrevID) && r.seq.Contains(op.Char.NextID)
	case communication.Delete:
		return r.seq.Contains(op.Char.ID)
	}
	return false
}

func (r *Replica) execute(op communication.Operation) error {
	switch op.Kind {
	case communication.Insert:
		if r.seq.Contains(op.Char.ID) {
			// Duplicate that arrived before the first copy integrated;
			// re-integration is not permitted.
			return nil
		}
		c := op.Char
		cp, cn := r.seq.Find(c.PrevID), r.seq.Find(c.NextID)
		if cp == nil || cn == nil {
			return fmt.Errorf("insert %v: %w", c.ID, woot.ErrAnchorMissing)
		}
		if err := r.seq.IntegrateInsert(&c, cp, cn); err != nil {
			return err
		}
		r.version.Observe(c.ID)
	case communication.Delete:
		c := r.seq.Find(op.Char.ID)
		if c == nil {
			return fmt.Errorf("delete %v: %w", op.Char.ID, woot.ErrAnchorMissing)
		}
		r.seq.IntegrateDelete(c)
	}
	return nil
}
