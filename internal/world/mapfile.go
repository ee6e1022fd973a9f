package world

import (
	"encoding/json"
	"fmt"
	"os"
)

// SpawnPoint names a fixed starting tile and facing for one player slot in a
// map file, matched to CLI player programs by index.
type SpawnPoint struct {
	Col, Row    int64
	Orientation Orientation
}

// mapFile is the on-disk JSON shape of a map. Tiles are row-major strings
// ("." floor, "#" wall, "~" water); spawns are listed in player-index order.
type mapFile struct {
	Width  int64    `json:"width"`
	Height int64    `json:"height"`
	Tiles  []string `json:"tiles"`
	Spawns []struct {
		Col         int64  `json:"col"`
		Row         int64  `json:"row"`
		Orientation string `json:"orientation"`
	} `json:"spawns"`
}

// LoadMap reads a JSON map file and returns the grid plus its spawn points,
// one per prospective player, in file order.
func LoadMap(path string) (*Grid, []SpawnPoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading map file: %w", err)
	}

	var mf mapFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, nil, fmt.Errorf("parsing map file %s: %w", path, err)
	}
	if int64(len(mf.Tiles)) != mf.Height {
		return nil, nil, fmt.Errorf("map file %s: declared height %d but %d tile rows", path, mf.Height, len(mf.Tiles))
	}

	grid := NewGrid(mf.Width, mf.Height)
	for row, line := range mf.Tiles {
		runes := []rune(line)
		if int64(len(runes)) != mf.Width {
			return nil, nil, fmt.Errorf("map file %s: row %d has width %d, want %d", path, row, len(runes), mf.Width)
		}
		for col, ch := range runes {
			pos := Position{Col: int64(col), Row: int64(row)}
			switch ch {
			case '#':
				grid.Set(pos, Wall)
			case '~':
				grid.Set(pos, Water)
			default:
				grid.Set(pos, Floor)
			}
		}
	}

	spawns := make([]SpawnPoint, 0, len(mf.Spawns))
	for i, s := range mf.Spawns {
		o, ok := ParseOrientation(s.Orientation)
		if !ok {
			return nil, nil, fmt.Errorf("map file %s: spawn %d has unknown orientation %q", path, i, s.Orientation)
		}
		spawns = append(spawns, SpawnPoint{Col: s.Col, Row: s.Row, Orientation: o})
	}

	return grid, spawns, nil
}
