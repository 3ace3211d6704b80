package communication

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cmsd2/woot/woot"
)

// StateVector records, per site, one past the highest clock value observed
// from it: an entry of n means clock n-1 has been seen. Lower clocks of the
// same site are not tracked individually and may still be missing. Replicas keep
// one up to date as inserts integrate so a transport can run anti-entropy
// ("send me everything past this vector"). It plays no part in integration
// itself; WOOT needs no causal delivery.
type StateVector map[uint64]uint64

func NewStateVector() StateVector {
	return StateVector{}
}

// Observe folds one character identifier into the vector. Sentinel ids are
// ignored; they are never shipped.
func (sv StateVector) Observe(id woot.ID) {
	if id.Site == 0 {
		return
	}
	if sv[id.Site] < id.Clock+1 {
		sv[id.Site] = id.Clock + 1
	}
}

// Copy returns an independent copy of the vector.
func (sv StateVector) Copy() StateVector {
	cp := make(StateVector, len(sv))
	for site, n := range sv {
		cp[site] = n
	}
	return cp
}

// Merge takes the per-site maximum of both vectors into the callee.
func (sv StateVector) Merge(other StateVector) {
	for site, n := range other {
		if sv[site] < n {
			sv[site] = n
		}
	}
}

// Equals reports whether both vectors record the same observations.
// Absent entries count as zero.
func (sv StateVector) Equals(other StateVector) bool {
	return sv.Dominates(other) && other.Dominates(sv)
}

// Dominates reports whether the callee has observed at least everything
// other has.
func (sv StateVector) Dominates(other StateVector) bool {
	for site, n := range other {
		if sv[site] < n {
			return false
		}
	}
	return true
}

func (sv StateVector) String() string {
	sites := make([]uint64, 0, len(sv))
	for site := range sv {
		sites = append(sites, site)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })

	var b strings.Builder
	b.WriteString("{")
	for i, site := range sites {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d:%d", site, sv[site])
	}
	b.WriteString("}")
	return b.String()
}
