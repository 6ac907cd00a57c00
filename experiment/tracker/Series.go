package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Series accumulates the reward progression of an experiment, one
// point per statistics interval, and saves it to disk.
type Series struct {
	points   []float64
	filename string
}

// NewSeries creates and returns a new Series that saves its points to
// filename
func NewSeries(filename string) *Series {
	return &Series{filename: filename}
}

// Track appends a point to the progression
func (s *Series) Track(point float64) {
	s.points = append(s.points, point)
}

// Points returns the tracked progression
func (s *Series) Points() []float64 {
	return s.points
}

// Save saves the progression tracked by the Series to disk
func (s *Series) Save() error {
	file, err := os.Create(s.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(s.points); err != nil {
		return fmt.Errorf("save: could not encode reward progression: %v",
			err)
	}
	return nil
}

// LoadSeries loads a reward progression previously saved by a Series
func LoadSeries(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadseries: could not open file: %v", err)
	}
	defer file.Close()

	var points []float64
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&points); err != nil {
		return nil, fmt.Errorf("loadseries: could not decode reward "+
			"progression: %v", err)
	}
	return points, nil
}
