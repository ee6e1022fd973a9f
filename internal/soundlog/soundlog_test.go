package soundlog

import (
	"testing"

	"github.com/pedohorse/tankgrid-battle-sim/internal/world"
)

func TestHearablePrunesExpiredEntries(t *testing.T) {
	l := New(50)
	origin := world.Position{Col: 1, Row: 1}

	l.Push(origin, 0, "shot")
	l.Push(origin, 40, "footstep")

	entries := l.Hearable(45)
	if len(entries) != 2 {
		t.Fatalf("Hearable(45) returned %d entries, want 2: %+v", len(entries), entries)
	}

	entries = l.Hearable(60)
	if len(entries) != 1 || entries[0].Label != "footstep" {
		t.Fatalf("Hearable(60) = %+v, want only the footstep entry", entries)
	}
}

func TestHearableOrdersByEmittedAt(t *testing.T) {
	l := New(100)
	origin := world.Position{Col: 0, Row: 0}
	l.Push(origin, 10, "second")
	l.Push(origin, 5, "first")

	entries := l.Hearable(10)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Label != "first" || entries[1].Label != "second" {
		t.Errorf("entries = %+v, want first then second", entries)
	}
}
