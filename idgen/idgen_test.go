package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7_Format(t *testing.T) {
	id := UUIDv7()()
	parts := strings.Split(id, "-")
	if len(parts) != 5 || len(id) != 36 {
		t.Fatalf("UUIDv7: malformed %q", id)
	}
	if id[14] != '7' {
		t.Fatalf("UUIDv7: version nibble %q in %q", id[14], id)
	}
}

func TestUUIDv7_Sortable(t *testing.T) {
	// WHAT: successive ids sort in creation order.
	// WHY: LastRun orders runs by start time and ties fall back on the id.
	gen := UUIDv7()
	prev := gen()
	for i := 0; i < 100; i++ {
		id := gen()
		if id <= prev {
			t.Fatalf("UUIDv7: %q not after %q", id, prev)
		}
		prev = id
	}
}

func TestSequence(t *testing.T) {
	gen := Sequence("run")
	if a, b := gen(), gen(); a != "run-1" || b != "run-2" {
		t.Fatalf("Sequence: got %q, %q", a, b)
	}
}
