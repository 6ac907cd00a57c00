package main

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"qpilot/experiment/tracker"
)

func TestSaveProgressionRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "rewards.bin")
	progression := []float64{-180.5, -152.0, -120.25, -98.0}

	if err := saveProgression(progression, filename); err != nil {
		t.Fatalf("could not save progression: %v", err)
	}

	loaded, err := tracker.LoadSeries(filename)
	if err != nil {
		t.Fatalf("could not reload progression: %v", err)
	}
	if diff := cmp.Diff(progression, loaded); diff != "" {
		t.Errorf("progression changed on disk (-want +got):\n%s", diff)
	}
}

func TestSaveProgressionBadPath(t *testing.T) {
	err := saveProgression([]float64{1.0}, filepath.Join(t.TempDir(),
		"missing", "rewards.bin"))
	if err == nil {
		t.Error("expected error for unwritable path but got none")
	}
}
