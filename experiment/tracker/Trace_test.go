package tracker

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewTraceCapacity(t *testing.T) {
	if _, err := NewTrace(0); err == nil {
		t.Error("expected error for zero capacity but got none")
	}
	if _, err := NewTrace(-3); err == nil {
		t.Error("expected error for negative capacity but got none")
	}
}

func TestTraceMeanBeforeFull(t *testing.T) {
	trace, err := NewTrace(4)
	if err != nil {
		t.Fatalf("could not create trace: %v", err)
	}

	if trace.Mean() != 0.0 {
		t.Errorf("empty trace has nonzero mean: %v", trace.Mean())
	}

	trace.Add(2.0)
	trace.Add(4.0)
	if trace.Full() {
		t.Error("trace full after two of four returns")
	}
	if trace.Mean() != 3.0 {
		t.Errorf("wrong partial mean\n\twant(%v)\n\thave(%v)", 3.0,
			trace.Mean())
	}
}

func TestTraceEvictsOldest(t *testing.T) {
	trace, err := NewTrace(3)
	if err != nil {
		t.Fatalf("could not create trace: %v", err)
	}

	for _, r := range []float64{1.0, 2.0, 3.0, 10.0} {
		trace.Add(r)
	}

	// The window now holds 2, 3, 10
	if !trace.Full() {
		t.Error("trace not full after four returns")
	}
	want := 5.0
	if math.Abs(trace.Mean()-want) > 1e-12 {
		t.Errorf("wrong mean after eviction\n\twant(%v)\n\thave(%v)",
			want, trace.Mean())
	}
	if trace.Len() != 3 {
		t.Errorf("wrong length\n\twant(%v)\n\thave(%v)", 3, trace.Len())
	}
}

func TestSeriesSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "rewards.bin")

	series := NewSeries(filename)
	for _, point := range []float64{-200.0, -150.5, -120.0} {
		series.Track(point)
	}
	if err := series.Save(); err != nil {
		t.Fatalf("could not save series: %v", err)
	}

	loaded, err := LoadSeries(filename)
	if err != nil {
		t.Fatalf("could not load series: %v", err)
	}
	if !cmp.Equal(series.Points(), loaded) {
		t.Errorf("loaded progression differs\n\twant(%v)\n\thave(%v)",
			series.Points(), loaded)
	}
}

func TestLoadSeriesMissingFile(t *testing.T) {
	if _, err := LoadSeries(filepath.Join(os.TempDir(),
		"does-not-exist.bin")); err == nil {
		t.Error("expected error for missing file but got none")
	}
}
