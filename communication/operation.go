package communication

import (
	"fmt"

	"github.com/cmsd2/woot/woot"
)

// OpKind tags the two operation variants exchanged between sites.
type OpKind int

const (
	Insert OpKind = iota
	Delete
)

func (k OpKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Operation is the unit shipped between sites: a kind plus the full
// character record. For a Delete only the character's id is semantically
// required; the rest of the record travels as sender-side context.
type Operation struct {
	Kind OpKind     `json:"kind"`
	Char woot.WChar `json:"char"`

	// Origin is the site that generated the operation. For an Insert it
	// always equals Char.ID.Site; for a Delete it names the deleting
	// site, which need not be the character's creator.
	Origin uint64 `json:"origin"`
}

// NewInsert wraps a freshly minted character as an Insert operation.
func NewInsert(c woot.WChar) Operation {
	return Operation{Kind: Insert, Char: c, Origin: c.ID.Site}
}

// NewDelete wraps a tombstoned character as a Delete operation generated
// at origin.
func NewDelete(c woot.WChar, origin uint64) Operation {
	return Operation{Kind: Delete, Char: c, Origin: origin}
}

// Key identifies an operation for duplicate tracking: the kind plus the
// target character's id. Two operations with the same key are the same
// edit, however many times the transport delivers it.
type Key struct {
	Kind OpKind
	ID   woot.ID
}

func (o Operation) Key() Key {
	return Key{Kind: o.Kind, ID: o.Char.ID}
}

// Equals reports whether two operations denote the same edit.
func (o Operation) Equals(other Operation) bool {
	return o.Key() == other.Key()
}

func (o Operation) String() string {
	return fmt.Sprintf("%s %v from %d", o.Kind, o.Char.ID, o.Origin)
}
