package world

import "testing"

func TestGridOutOfBoundsReadsAsWall(t *testing.T) {
	g := NewGrid(3, 3)
	if tile := g.At(Position{Col: -1, Row: 0}); tile != Wall {
		t.Errorf("out-of-bounds At() = %v, want Wall", tile)
	}
	if tile := g.At(Position{Col: 3, Row: 0}); tile != Wall {
		t.Errorf("out-of-bounds At() = %v, want Wall", tile)
	}
}

func TestGridSetAndAt(t *testing.T) {
	g := NewGrid(2, 2)
	g.Set(Position{Col: 1, Row: 1}, Wall)
	if tile := g.At(Position{Col: 1, Row: 1}); tile != Wall {
		t.Errorf("At() = %v, want Wall", tile)
	}
	if tile := g.At(Position{Col: 0, Row: 0}); tile != Floor {
		t.Errorf("At() = %v, want Floor", tile)
	}
}

func TestProberCastStopsAtWall(t *testing.T) {
	g := NewGrid(5, 1)
	g.Set(Position{Col: 3, Row: 0}, Wall)
	p := NewProber(g)

	visited := p.Cast(Position{Col: 0, Row: 0}, East, nil)
	want := []Position{{Col: 1, Row: 0}, {Col: 2, Row: 0}, {Col: 3, Row: 0}}
	if len(visited) != len(want) {
		t.Fatalf("Cast visited %d tiles, want %d: %+v", len(visited), len(want), visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %+v, want %+v", i, visited[i], want[i])
		}
	}
}

func TestProberCastStopsAtOccupant(t *testing.T) {
	g := NewGrid(5, 1)
	p := NewProber(g)
	occupied := Position{Col: 2, Row: 0}

	visited := p.Cast(Position{Col: 0, Row: 0}, East, func(pos Position) bool {
		return pos == occupied
	})
	if len(visited) != 2 {
		t.Fatalf("Cast visited %d tiles, want 2: %+v", len(visited), visited)
	}
	if visited[len(visited)-1] != occupied {
		t.Errorf("last visited = %+v, want %+v", visited[len(visited)-1], occupied)
	}
}

func TestProberStep(t *testing.T) {
	g := NewGrid(3, 3)
	g.Set(Position{Col: 2, Row: 1}, Wall)
	p := NewProber(g)

	next, ok := p.Step(Position{Col: 1, Row: 1}, East)
	if next != (Position{Col: 2, Row: 1}) || ok {
		t.Errorf("Step into wall = %+v, %v; want wall position, false", next, ok)
	}

	next, ok = p.Step(Position{Col: 1, Row: 1}, North)
	if next != (Position{Col: 1, Row: 0}) || !ok {
		t.Errorf("Step onto floor = %+v, %v; want floor position, true", next, ok)
	}
}
