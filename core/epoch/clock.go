// Package epoch provides the read-only clock capability consumed by the lending
// core. Epochs are discrete, monotonically non-decreasing counters supplied by
// the host environment; nothing in this repository ever advances them on behalf
// of a caller.
package epoch

import (
	"fmt"
	"time"
)

// Clock reports the current epoch.
type Clock interface {
	CurrentEpoch() uint64
}

// Manual is a clock driven explicitly by the caller. It is intended for tests
// and tooling that need deterministic epochs.
type Manual struct {
	epoch uint64
}

// NewManual returns a manual clock positioned at the given epoch.
func NewManual(epoch uint64) *Manual {
	return &Manual{epoch: epoch}
}

// CurrentEpoch returns the epoch the clock was last set to.
func (m *Manual) CurrentEpoch() uint64 { return m.epoch }

// Set moves the clock to epoch. Moving backwards is rejected silently by
// keeping the later value, preserving monotonicity.
func (m *Manual) Set(epoch uint64) {
	if epoch > m.epoch {
		m.epoch = epoch
	}
}

// Advance moves the clock forward by delta epochs.
func (m *Manual) Advance(delta uint64) { m.epoch += delta }

// System derives epochs from wall-clock time: epoch N covers the half-open
// interval [genesis+N*length, genesis+(N+1)*length).
type System struct {
	genesis time.Time
	length  time.Duration
}

// NewSystem constructs a wall-clock epoch source.
func NewSystem(genesis time.Time, length time.Duration) (*System, error) {
	if length <= 0 {
		return nil, fmt.Errorf("epoch length must be greater than zero")
	}
	return &System{genesis: genesis, length: length}, nil
}

// CurrentEpoch returns the epoch containing the current wall-clock instant.
// Instants before genesis map to epoch zero.
func (s *System) CurrentEpoch() uint64 {
	elapsed := time.Since(s.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / s.length)
}
