// Package tracker provides utilities for tracking and saving the
// rewards generated during an experiment
package tracker

import "fmt"

// Trace is a fixed-capacity window over the most recent episodic
// returns. Once the window is full, adding a new return evicts the
// oldest one. The running mean over the window is maintained
// incrementally, so Add and Mean are constant time.
type Trace struct {
	returns []float64
	next    int
	count   int
	sum     float64
}

// NewTrace creates and returns a new Trace holding at most capacity
// episodic returns
func NewTrace(capacity int) (*Trace, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("newtrace: capacity must be positive, "+
			"got %v", capacity)
	}
	return &Trace{returns: make([]float64, capacity)}, nil
}

// Add records an episodic return, evicting the oldest recorded return
// if the window is full
func (t *Trace) Add(episodeReturn float64) {
	if t.count == len(t.returns) {
		t.sum -= t.returns[t.next]
	} else {
		t.count++
	}
	t.returns[t.next] = episodeReturn
	t.sum += episodeReturn
	t.next = (t.next + 1) % len(t.returns)
}

// Mean returns the mean of the recorded returns. The mean of an empty
// Trace is 0.
func (t *Trace) Mean() float64 {
	if t.count == 0 {
		return 0.0
	}
	return t.sum / float64(t.count)
}

// Len returns the number of returns currently recorded
func (t *Trace) Len() int {
	return t.count
}

// Full returns whether the window holds capacity returns
func (t *Trace) Full() bool {
	return t.count == len(t.returns)
}
