package replica

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cmsd2/woot/communication"
)

// pool holds received operations whose preconditions may not be satisfied
// yet. It is unordered from the protocol's point of view; iteration runs
// in arrival order, which drain passes use but never depend on. The key
// set gives O(1) duplicate discard on receive.
//
// The pool is a per-replica field. Sharing one pool between replicas in a
// process would leak operations across documents.
type pool struct {
	ops  []communication.Operation
	keys mapset.Set[communication.Key]
}

func newPool() *pool {
	return &pool{keys: mapset.NewThreadUnsafeSet[communication.Key]()}
}

// add enqueues op unless an identical operation is already pooled.
// Reports whether the operation was accepted.
func (p *pool) add(op communication.Operation) bool {
	if !p.keys.Add(op.Key()) {
		return false
	}
	p.ops = append(p.ops, op)
	return true
}

func (p *pool) len() int {
	return len(p.ops)
}
