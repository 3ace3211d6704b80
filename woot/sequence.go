package woot

import (
	"fmt"
	"strings"
)

// Sequence is the ordered materialisation of the replicated string at one
// site: every character ever integrated here, tombstones included, between
// the begin and end sentinels.
type Sequence struct {
	chars []*WChar
}

// NewSequence returns a sequence holding only the two sentinels.
func NewSequence() *Sequence {
	return &Sequence{chars: []*WChar{newBegin(), newEnd()}}
}

// Len counts every character, tombstones and sentinels included.
func (s *Sequence) Len() int {
	return len(s.chars)
}

// At returns the character at sequence index i.
func (s *Sequence) At(i int) *WChar {
	return s.chars[i]
}

// Find returns the character carrying id, or nil if none does.
func (s *Sequence) Find(id ID) *WChar {
	for _, c := range s.chars {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Pos returns the sequence index of the character carrying id, or -1.
func (s *Sequence) Pos(id ID) int {
	for i, c := range s.chars {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether a character with id is in the sequence.
func (s *Sequence) Contains(id ID) bool {
	return s.Pos(id) >= 0
}

// InsertAt splices c into sequence index i, shifting the suffix right.
func (s *Sequence) InsertAt(c *WChar, i int) {
	s.chars = append(s.chars, nil)
	copy(s.chars[i+1:], s.chars[i:])
	s.chars[i] = c
}

// Subseq returns the characters strictly between c and d in sequence
// order. Both must be present, with d after c.
func (s *Sequence) Subseq(c, d *WChar) ([]*WChar, error) {
	from, to := s.Pos(c.ID), s.Pos(d.ID)
	if from < 0 || to < 0 || to <= from {
		return nil, fmt.Errorf("subsequence %v..%v: %w", c.ID, d.ID, ErrBadRange)
	}
	return s.chars[from+1 : to], nil
}

// VisibleValue concatenates the values of the visible characters in
// sequence order, sentinels excluded.
func (s *Sequence) VisibleValue() string {
	var b strings.Builder
	for _, c := range s.chars {
		if c.Visible && !c.IsSentinel() {
			b.WriteRune(c.Value)
		}
	}
	return b.String()
}

// VisibleCount counts the visible characters, sentinels included.
func (s *Sequence) VisibleCount() int {
	n := 0
	for _, c := range s.chars {
		if c.Visible {
			n++
		}
	}
	return n
}

// IthVisible returns the i-th visible character counting sentinels, so
// IthVisible(0) is the begin sentinel. Returns nil if i is out of range.
func (s *Sequence) IthVisible(i int) *WChar {
	if i < 0 {
		return nil
	}
	seen := 0
	for _, c := range s.chars {
		if !c.Visible {
			continue
		}
		if seen == i {
			return c
		}
		seen++
	}
	return nil
}

// Snapshot copies the sequence contents, for comparison between replicas.
func (s *Sequence) Snapshot() []WChar {
	out := make([]WChar, len(s.chars))
	for i, c := range s.chars {
		out[i] = *c
	}
	return out
}

// CheckInvariants verifies the structural invariants: sentinels in place,
// identifiers pairwise distinct, and every non-sentinel character's anchors
// present and bracketing it.
func (s *Sequence) CheckInvariants() error {
	if len(s.chars) < 2 || s.chars[0].ID != BeginID || s.chars[len(s.chars)-1].ID != EndID {
		return fmt.Errorf("sentinels out of place")
	}
	seen := make(map[ID]struct{}, len(s.chars))
	for _, c := range s.chars {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("duplicate id %v", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	for i, c := range s.chars {
		if c.IsSentinel() {
			continue
		}
		prev, next := s.Pos(c.PrevID), s.Pos(c.NextID)
		if prev < 0 || next < 0 {
			return fmt.Errorf("character %v: %w", c.ID, ErrAnchorMissing)
		}
		if prev >= i || next <= i {
			return fmt.Errorf("character %v not bracketed by its anchors", c.ID)
		}
	}
	return nil
}
