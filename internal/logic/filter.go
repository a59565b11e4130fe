package logic

import "fmt"

// Smoother is an exponential moving average:
// filtered += alpha * (raw - filtered).
type Smoother struct {
	Alpha float64
}

// Validate checks alpha is in (0, 1].
func (s Smoother) Validate() error {
	if !(s.Alpha > 0 && s.Alpha <= 1) {
		return fmt.Errorf("alpha must be in (0, 1], got %v", s.Alpha)
	}
	return nil
}

// Apply returns the next filtered value.
func (s Smoother) Apply(filtered float64, raw int) float64 {
	return filtered + s.Alpha*(float64(raw)-filtered)
}
