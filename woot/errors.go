package woot

import "errors"

// Errors reported by the sequence and the integration procedures. All of
// them indicate caller misuse or a broken invariant; there is no retry at
// this layer.
var (
	// ErrBadRange reports a subsequence request whose upper bound does not
	// occur after its lower bound.
	ErrBadRange = errors.New("bad range")

	// ErrPositionOutOfRange reports a visible position outside the current
	// text.
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrAnchorMissing reports an integration whose anchors are absent
	// from the sequence. Executability is checked before execution, so
	// hitting this means an invariant no longer holds.
	ErrAnchorMissing = errors.New("anchor missing")
)
