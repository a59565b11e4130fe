package led

import "fmt"

// NoPixel is returned for grid coordinates outside the matrix.
const NoPixel = -1

// Mapper colors whole tiles. It never reasons about game state.
type Mapper interface {
	// Tiles returns the number of mapped tiles.
	Tiles() int

	// SetTileColor colors every pixel of tile. Unknown tiles are a no-op
	// and report false.
	SetTileColor(tile int, c Color) bool

	// ClearAll turns every pixel off.
	ClearAll()

	// Fill sets every pixel to c.
	Fill(c Color)

	// Show pushes the staged frame.
	Show() error
}

// Range is a half-open [Start, End) span of LED indices.
type Range struct {
	Start int
	End   int
}

// SegmentMapper maps each tile to a contiguous span of a daisy-chained strip.
type SegmentMapper struct {
	strip  Strip
	ranges []Range
}

// NewSegmentMapper validates ranges against the strip.
func NewSegmentMapper(strip Strip, ranges []Range) (*SegmentMapper, error) {
	for i, r := range ranges {
		if r.Start < 0 || r.End <= r.Start || r.End > strip.Len() {
			return nil, fmt.Errorf("tile %d: range [%d,%d) invalid for %d pixels", i, r.Start, r.End, strip.Len())
		}
	}
	return &SegmentMapper{strip: strip, ranges: ranges}, nil
}

// UniformSegments returns ranges of perTile pixels laid out back to back.
func UniformSegments(tiles, perTile int) []Range {
	out := make([]Range, tiles)
	for i := range out {
		out[i] = Range{Start: i * perTile, End: (i + 1) * perTile}
	}
	return out
}

// Tiles returns the number of mapped tiles.
func (m *SegmentMapper) Tiles() int { return len(m.ranges) }

// Range returns the pixel span of tile.
func (m *SegmentMapper) Range(tile int) (Range, bool) {
	if tile < 0 || tile >= len(m.ranges) {
		return Range{}, false
	}
	return m.ranges[tile], true
}

// SetTileColor fills the tile's span.
func (m *SegmentMapper) SetTileColor(tile int, c Color) bool {
	r, ok := m.Range(tile)
	if !ok {
		return false
	}
	for i := r.Start; i < r.End; i++ {
		m.strip.SetPixel(i, c)
	}
	return true
}

// ClearAll turns every pixel off.
func (m *SegmentMapper) ClearAll() { m.strip.Clear() }

// Fill sets every pixel of the strip.
func (m *SegmentMapper) Fill(c Color) { fill(m.strip, c) }

// Show pushes the staged frame.
func (m *SegmentMapper) Show() error { return m.strip.Show() }

// GridMapper addresses a single serpentine-wired matrix, one pixel per tile.
// Tile t sits at row t/width, column t%width.
type GridMapper struct {
	strip  Strip
	width  int
	height int
}

// NewGridMapper validates the matrix fits the strip.
func NewGridMapper(strip Strip, width, height int) (*GridMapper, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("grid %dx%d invalid", width, height)
	}
	if width*height > strip.Len() {
		return nil, fmt.Errorf("grid %dx%d needs %d pixels, strip has %d", width, height, width*height, strip.Len())
	}
	return &GridMapper{strip: strip, width: width, height: height}, nil
}

// Index returns the LED index of (row, col) or NoPixel.
// Even rows run left to right, odd rows right to left.
func (m *GridMapper) Index(row, col int) int {
	if row < 0 || row >= m.height || col < 0 || col >= m.width {
		return NoPixel
	}
	if row%2 == 0 {
		return row*m.width + col
	}
	return row*m.width + (m.width - 1 - col)
}

// Tiles returns width*height.
func (m *GridMapper) Tiles() int { return m.width * m.height }

// SetTileColor colors the tile's pixel.
func (m *GridMapper) SetTileColor(tile int, c Color) bool {
	if tile < 0 || tile >= m.Tiles() {
		return false
	}
	idx := m.Index(tile/m.width, tile%m.width)
	if idx == NoPixel {
		return false
	}
	m.strip.SetPixel(idx, c)
	return true
}

// ClearAll turns every pixel off.
func (m *GridMapper) ClearAll() { m.strip.Clear() }

// Fill sets every pixel of the strip.
func (m *GridMapper) Fill(c Color) { fill(m.strip, c) }

// Show pushes the staged frame.
func (m *GridMapper) Show() error { return m.strip.Show() }

func fill(s Strip, c Color) {
	for i := 0; i < s.Len(); i++ {
		s.SetPixel(i, c)
	}
}
