package woot

import "fmt"

// ID identifies a character globally: the site that minted it paired with
// that site's clock value at mint time. Uniqueness follows from per-site
// clock monotonicity. Site 0 is reserved for the sentinels.
type ID struct {
	Site  uint64 `json:"site"`
	Clock uint64 `json:"clock"`
}

// Sentinel identifiers bracketing every sequence.
var (
	BeginID = ID{Site: 0, Clock: 0}
	EndID   = ID{Site: 0, Clock: 1}
)

// Less is the lexicographic order over (site, clock). It is the tie-breaker
// that makes concurrent insert integration deterministic across sites.
func (a ID) Less(b ID) bool {
	if a.Site != b.Site {
		return a.Site < b.Site
	}
	return a.Clock < b.Clock
}

func (a ID) String() string {
	return fmt.Sprintf("%d#%d", a.Site, a.Clock)
}
