package risk

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadSnapshot reads a static risk snapshot: a JSON array of tile records.
// Records with inverted boxes are rejected; risk values are clamped to [0,1].
func LoadSnapshot(r io.Reader) (*Grid, error) {
	var tiles []Tile
	if err := json.NewDecoder(r).Decode(&tiles); err != nil {
		return nil, fmt.Errorf("failed to decode risk snapshot: %w", err)
	}

	for i, tile := range tiles {
		if tile.LatMin >= tile.LatMax || tile.LngMin >= tile.LngMax {
			return nil, fmt.Errorf("risk snapshot tile %d has an inverted box", i)
		}
		if tile.Risk < 0 {
			tiles[i].Risk = 0
		} else if tile.Risk > 1 {
			tiles[i].Risk = 1
		}
	}

	return NewGrid(tiles), nil
}

// LoadSnapshotFile loads a snapshot from disk. A missing file is not an
// error: the session starts with an empty grid and the placeholder
// synthesizer covers the active area on first use.
func LoadSnapshotFile(path string) (*Grid, error) {
	if path == "" {
		return NewGrid(nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewGrid(nil), nil
		}
		return nil, fmt.Errorf("failed to open risk snapshot: %w", err)
	}
	defer f.Close()

	return LoadSnapshot(f)
}
