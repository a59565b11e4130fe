package led

import "errors"

// FakeStrip records staged and shown frames for test assertions.
type FakeStrip struct {
	// Pixels is the staged frame.
	Pixels []Color

	// Frames contains a copy of every shown frame.
	Frames [][]Color

	// ShowError, if set, will be returned by Show.
	ShowError error

	// Closed tracks if Close was called
	Closed bool

	// KeepFrames, if > 0, bounds Frames to the most recent n.
	KeepFrames int
}

// NewFakeStrip creates a FakeStrip with n pixels.
func NewFakeStrip(n int) *FakeStrip {
	return &FakeStrip{Pixels: make([]Color, n)}
}

// Len returns the number of pixels.
func (f *FakeStrip) Len() int { return len(f.Pixels) }

// SetPixel stages a color.
func (f *FakeStrip) SetPixel(i int, c Color) {
	if i < 0 || i >= len(f.Pixels) {
		return
	}
	f.Pixels[i] = c
}

// Clear stages every pixel off.
func (f *FakeStrip) Clear() {
	for i := range f.Pixels {
		f.Pixels[i] = Off
	}
}

// Show records the staged frame.
func (f *FakeStrip) Show() error {
	if f.ShowError != nil {
		return f.ShowError
	}
	frame := make([]Color, len(f.Pixels))
	copy(frame, f.Pixels)
	f.Frames = append(f.Frames, frame)
	if f.KeepFrames > 0 && len(f.Frames) > f.KeepFrames {
		f.Frames = append(f.Frames[:0], f.Frames[len(f.Frames)-f.KeepFrames:]...)
	}
	return nil
}

// LastFrame returns the most recently shown frame.
func (f *FakeStrip) LastFrame() ([]Color, error) {
	if len(f.Frames) == 0 {
		return nil, errors.New("no frames shown")
	}
	return f.Frames[len(f.Frames)-1], nil
}

// Close marks the strip as closed and blanks it.
func (f *FakeStrip) Close() error {
	f.Clear()
	f.Closed = true
	return nil
}
