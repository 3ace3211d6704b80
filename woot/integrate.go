package woot

import "fmt"

// IntegrateInsert places c between cp and cn, both already present in the
// sequence with cp strictly before cn. Competing concurrent inserts into
// the same gap are resolved by narrowing: keep the characters whose own
// anchors bracket the gap, walk them in sequence order past those whose
// identifier is below c's, and recurse into the sub-range where c belongs. Every site walks the same
// sequence with the same anchors and the same total order over
// identifiers, so every site makes the same placement.
func (s *Sequence) IntegrateInsert(c, cp, cn *WChar) error {
	sub, err := s.Subseq(cp, cn)
	if err != nil {
		return err
	}
	if len(sub) == 0 {
		s.InsertAt(c, s.Pos(cn.ID))
		return nil
	}

	// The linearisation: characters in the gap whose original predecessor
	// sits at or before cp and whose original successor sits at or after
	// cn, bracketed by cp and cn themselves.
	posP, posN := s.Pos(cp.ID), s.Pos(cn.ID)
	l := make([]*WChar, 0, len(sub)+2)
	l = append(l, cp)
	for _, d := range sub {
		dp, dn := s.Pos(d.PrevID), s.Pos(d.NextID)
		if dp < 0 || dn < 0 {
			return fmt.Errorf("anchors of %v: %w", d.ID, ErrAnchorMissing)
		}
		if dp <= posP && posN <= dn {
			l = append(l, d)
		}
	}
	l = append(l, cn)

	i := 1
	for i < len(l)-1 && l[i].ID.Less(c.ID) {
		i++
	}
	return s.IntegrateInsert(c, l[i-1], l[i])
}

// IntegrateDelete tombstones c. The character remains in the sequence; its
// identifier keeps anchoring concurrent inserts. Deleting an already
// invisible character changes nothing.
func (s *Sequence) IntegrateDelete(c *WChar) {
	c.Visible = false
}
