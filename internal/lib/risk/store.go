package risk

import (
	"sync/atomic"
)

// Store publishes the session's risk grid to concurrent readers. Replacement
// swaps the grid pointer in one step, so a reader always sees a fully-built
// grid of exactly one generation, never a mixture.
type Store struct {
	grid atomic.Pointer[Grid]
}

// NewStore creates a store holding the given grid
func NewStore(grid *Grid) *Store {
	s := &Store{}
	if grid == nil {
		grid = NewGrid(nil)
	}
	s.grid.Store(grid)
	return s
}

// Grid returns the current grid snapshot
func (s *Store) Grid() *Grid {
	return s.grid.Load()
}

// Replace atomically publishes a new grid
func (s *Store) Replace(grid *Grid) {
	if grid == nil {
		grid = NewGrid(nil)
	}
	s.grid.Store(grid)
}
