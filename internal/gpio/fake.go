package gpio

// FakeLines is a test double that records address selections.
type FakeLines struct {
	// Pins is the number of address lines.
	Pins int

	// Values holds the current line levels, least significant first.
	Values []int

	// History records every id passed to Set.
	History []int

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeLines creates FakeLines with the given number of pins, all low.
func NewFakeLines(pins int) *FakeLines {
	return &FakeLines{Pins: pins, Values: make([]int, pins)}
}

// Set records id and updates Values.
func (f *FakeLines) Set(id int) error {
	if f.SetError != nil {
		return f.SetError
	}
	values, err := Encode(id, f.Pins)
	if err != nil {
		return err
	}
	f.Values = values
	f.History = append(f.History, id)
	return nil
}

// Channels returns 2^Pins.
func (f *FakeLines) Channels() int {
	return 1 << f.Pins
}

// Close marks the lines as closed.
func (f *FakeLines) Close() error {
	f.Closed = true
	return nil
}
