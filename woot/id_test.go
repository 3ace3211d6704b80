package woot

import "testing"

func TestIDLess(t *testing.T) {
	cases := []struct {
		a, b ID
		want bool
	}{
		{ID{1, 0}, ID{2, 0}, true},
		{ID{2, 0}, ID{1, 0}, false},
		{ID{1, 0}, ID{1, 1}, true},
		{ID{1, 1}, ID{1, 0}, false},
		{ID{1, 5}, ID{2, 0}, true},
		{ID{1, 0}, ID{1, 0}, false},
		{BeginID, EndID, true},
	}
	for _, c := range cases {
		if got := c.a.Less(c.b); got != c.want {
			t.Errorf("(%v).Less(%v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestIDString(t *testing.T) {
	if got := (ID{3, 7}).String(); got != "3#7" {
		t.Errorf("String() = %q, want %q", got, "3#7")
	}
}
