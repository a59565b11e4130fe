package sensor

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// SimDriver stands in for the hardware when running without a floor. Every
// channel idles at a level with a little noise; SetLevel simulates a step.
type SimDriver struct {
	mu       sync.Mutex
	levels   []int
	noise    int
	selected int
	rng      *rand.Rand
}

// NewSimDriver creates n channels idling at level with +/- noise.
func NewSimDriver(n, level, noise int) *SimDriver {
	levels := make([]int, n)
	for i := range levels {
		levels[i] = level
	}
	return &SimDriver{
		levels:   levels,
		noise:    noise,
		selected: -1,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (s *SimDriver) SelectChannel(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.levels) {
		return fmt.Errorf("sim: channel %d out of range", id)
	}
	s.selected = id
	return nil
}

func (s *SimDriver) ReadChannel(id int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.selected {
		return 0, ErrNotSelected
	}
	v := s.levels[id]
	if s.noise > 0 {
		v += s.rng.IntN(2*s.noise+1) - s.noise
	}
	return min(max(v, MinSample), MaxSample), nil
}

// SetLevel changes the idle level of channel id.
func (s *SimDriver) SetLevel(id, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= 0 && id < len(s.levels) {
		s.levels[id] = v
	}
}

func (s *SimDriver) Close() error { return nil }
