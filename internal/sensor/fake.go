package sensor

import "fmt"

// FakeDriver is a test double that returns per-channel levels.
type FakeDriver struct {
	// Levels holds the value each channel reads. Tests mutate it between cycles.
	Levels []int

	// Scripts, if set for a channel, are consumed one value per read and
	// take precedence over Levels. The last value repeats once exhausted.
	Scripts map[int][]int

	// Selects records every SelectChannel call in order.
	Selects []int

	// Reads counts ReadChannel calls per channel.
	Reads map[int]int

	// ReadError, if set, will be returned by ReadChannel.
	ReadError error

	// Closed tracks if Close was called
	Closed bool

	selected int
	scriptAt map[int]int
}

// NewFakeDriver creates a FakeDriver with the given initial levels.
func NewFakeDriver(levels ...int) *FakeDriver {
	return &FakeDriver{
		Levels:   levels,
		Reads:    make(map[int]int),
		selected: -1,
		scriptAt: make(map[int]int),
	}
}

// SelectChannel records the selection.
func (f *FakeDriver) SelectChannel(id int) error {
	if id < 0 || id >= len(f.Levels) {
		return fmt.Errorf("fake: channel %d out of range", id)
	}
	f.selected = id
	f.Selects = append(f.Selects, id)
	return nil
}

// ReadChannel returns the scripted or current level for id.
func (f *FakeDriver) ReadChannel(id int) (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if id != f.selected || len(f.Selects) == 0 {
		return 0, ErrNotSelected
	}
	if f.Reads == nil {
		f.Reads = make(map[int]int)
	}
	if f.scriptAt == nil {
		f.scriptAt = make(map[int]int)
	}
	f.Reads[id]++

	if script := f.Scripts[id]; len(script) > 0 {
		i := f.scriptAt[id]
		if i < len(script)-1 {
			f.scriptAt[id] = i + 1
		}
		return script[i], nil
	}
	return f.Levels[id], nil
}

// SetLevel changes the level read from channel id.
func (f *FakeDriver) SetLevel(id, v int) {
	f.Levels[id] = v
}

// SetAll sets every channel to v.
func (f *FakeDriver) SetAll(v int) {
	for i := range f.Levels {
		f.Levels[i] = v
	}
}

// Close marks the driver as closed.
func (f *FakeDriver) Close() error {
	f.Closed = true
	return nil
}
