package woot

import (
	"strings"
	"testing"
)

func TestCharacterGraph(t *testing.T) {
	s := NewSequence()
	a := insert(t, s, ID{1, 0}, 'a', BeginID, EndID)
	insert(t, s, ID{2, 0}, 'b', a.ID, EndID)

	g, err := s.CharacterGraph()
	if err != nil {
		t.Fatal(err)
	}
	order, err := g.Order()
	if err != nil {
		t.Fatal(err)
	}
	if order != 4 {
		t.Fatalf("graph order = %d, want 4", order)
	}
	size, err := g.Size()
	if err != nil {
		t.Fatal(err)
	}
	// Two edges per non-sentinel character.
	if size != 4 {
		t.Fatalf("graph size = %d, want 4", size)
	}
}

func TestWriteDOT(t *testing.T) {
	s := NewSequence()
	insert(t, s, ID{1, 0}, 'a', BeginID, EndID)

	var b strings.Builder
	if err := s.WriteDOT(&b); err != nil {
		t.Fatal(err)
	}
	dot := b.String()
	for _, want := range []string{"digraph", "1#0", "0#0", "0#1"} {
		if !strings.Contains(dot, want) {
			t.Fatalf("DOT output missing %q:\n%s", want, dot)
		}
	}
}
