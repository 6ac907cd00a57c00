// Package experiment provides training loops that run agents against
// environments, tracking rewards and stopping once the task is solved
package experiment

import "fmt"

// Schedule is a linearly decaying exploration value. The value starts
// at some initial probability, decreases by a fixed decrement on each
// Decay call, and snaps to exactly 0 once it falls below the floor.
// A zeroed value never decays further, so the schedule is
// non-increasing and never negative.
type Schedule struct {
	value float64
	decay float64
	floor float64
}

// NewSchedule creates and returns a new exploration Schedule
func NewSchedule(initial, decay, floor float64) (*Schedule, error) {
	if initial < 0.0 || initial > 1.0 {
		return nil, fmt.Errorf("newschedule: initial exploration must be "+
			"in [0, 1], got %v", initial)
	}
	if decay < 0.0 {
		return nil, fmt.Errorf("newschedule: decay must be non-negative, "+
			"got %v", decay)
	}
	if floor < 0.0 || floor > initial {
		return nil, fmt.Errorf("newschedule: floor must be in [0, %v], "+
			"got %v", initial, floor)
	}

	return &Schedule{value: initial, decay: decay, floor: floor}, nil
}

// Value returns the current exploration probability
func (s *Schedule) Value() float64 {
	return s.value
}

// Decay decreases the exploration value by the fixed decrement,
// snapping it to 0 once it falls below the floor
func (s *Schedule) Decay() {
	if s.value <= 0.0 {
		return
	}

	s.value -= s.decay
	if s.value < s.floor || s.value < 0.0 {
		s.value = 0.0
	}
}
