package game

import "math/bits"

// MaxTiles is the largest floor a TileSet can describe.
const MaxTiles = 64

// TileSet is a bitmask over tile indices.
type TileSet uint64

// Add returns s with tile i set. Indices outside [0, MaxTiles) are ignored.
func (s TileSet) Add(i int) TileSet {
	if i < 0 || i >= MaxTiles {
		return s
	}
	return s | 1<<uint(i)
}

// Has reports whether tile i is in s.
func (s TileSet) Has(i int) bool {
	if i < 0 || i >= MaxTiles {
		return false
	}
	return s&(1<<uint(i)) != 0
}

// Contains reports whether every tile of o is in s.
func (s TileSet) Contains(o TileSet) bool {
	return s&o == o
}

// Count returns the number of tiles in s.
func (s TileSet) Count() int {
	return bits.OnesCount64(uint64(s))
}

// Indices returns the tile indices in ascending order.
func (s TileSet) Indices() []int {
	out := make([]int, 0, s.Count())
	for v := uint64(s); v != 0; v &= v - 1 {
		out = append(out, bits.TrailingZeros64(v))
	}
	return out
}

// Labels returns the 1-based tile labels in ascending order.
func (s TileSet) Labels() []int {
	out := s.Indices()
	for i := range out {
		out[i]++
	}
	return out
}
