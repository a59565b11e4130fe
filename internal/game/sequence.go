package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/zyedidia/generic/mapset"
)

// ErrInvalidSequence is returned for target sets that cannot be played.
var ErrInvalidSequence = errors.New("invalid sequence")

// Source produces target sets as 1-based tile labels. Every set is
// non-empty and free of duplicates.
type Source interface {
	NextSet() []int
}

// Rewinder is implemented by sources with a defined first set.
type Rewinder interface {
	Rewind()
}

// FixedRotation plays an ordered list of sets, wrapping at the end.
type FixedRotation struct {
	sets [][]int
	next int
}

// NewFixedRotation validates sets against a floor of the given size.
func NewFixedRotation(sets [][]int, tiles int) (*FixedRotation, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no sets", ErrInvalidSequence)
	}
	own := make([][]int, len(sets))
	for i, set := range sets {
		if err := validateSet(set, tiles); err != nil {
			return nil, fmt.Errorf("set %d: %w", i, err)
		}
		own[i] = append([]int(nil), set...)
	}
	return &FixedRotation{sets: own}, nil
}

func validateSet(set []int, tiles int) error {
	if len(set) == 0 {
		return fmt.Errorf("%w: empty set", ErrInvalidSequence)
	}
	seen := mapset.New[int]()
	for _, label := range set {
		if label < 1 || label > tiles {
			return fmt.Errorf("%w: tile %d outside 1..%d", ErrInvalidSequence, label, tiles)
		}
		if seen.Has(label) {
			return fmt.Errorf("%w: tile %d repeated", ErrInvalidSequence, label)
		}
		seen.Put(label)
	}
	return nil
}

// NextSet returns the current set and advances.
func (f *FixedRotation) NextSet() []int {
	set := f.sets[f.next]
	f.next = (f.next + 1) % len(f.sets)
	return append([]int(nil), set...)
}

// Rewind restarts the rotation at the first set.
func (f *FixedRotation) Rewind() {
	f.next = 0
}

// Len returns the number of sets in the rotation.
func (f *FixedRotation) Len() int {
	return len(f.sets)
}

// RandomSet draws a size in [minSize, maxSize] then that many distinct tiles.
type RandomSet struct {
	minSize int
	maxSize int
	rng     *rand.Rand
	pool    []int
}

// NewRandomSet creates a randomized source. A nil rng uses a random seed.
func NewRandomSet(tiles, minSize, maxSize int, rng *rand.Rand) (*RandomSet, error) {
	if tiles < 1 || tiles > MaxTiles {
		return nil, fmt.Errorf("%w: %d tiles", ErrInvalidSequence, tiles)
	}
	if minSize < 1 || maxSize < minSize || maxSize > tiles {
		return nil, fmt.Errorf("%w: need 1 <= min (%d) <= max (%d) <= tiles (%d)", ErrInvalidSequence, minSize, maxSize, tiles)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	pool := make([]int, tiles)
	for i := range pool {
		pool[i] = i + 1
	}
	return &RandomSet{minSize: minSize, maxSize: maxSize, rng: rng, pool: pool}, nil
}

// NextSet samples without replacement using a partial Fisher-Yates shuffle.
func (r *RandomSet) NextSet() []int {
	n := r.minSize + r.rng.IntN(r.maxSize-r.minSize+1)
	for i := 0; i < n; i++ {
		j := i + r.rng.IntN(len(r.pool)-i)
		r.pool[i], r.pool[j] = r.pool[j], r.pool[i]
	}
	return append([]int(nil), r.pool[:n]...)
}
