package discretize

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

func TestNewExtents(t *testing.T) {
	// Mountain Car bounds with the usual bin widths
	low := mat.NewVecDense(2, []float64{-1.2, -0.07})
	high := mat.NewVecDense(2, []float64{0.6, 0.07})

	d, err := New(low, high, []float64{0.1, 0.01})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := []int{19, 15}
	if diff := cmp.Diff(want, d.Extents()); diff != "" {
		t.Errorf("unexpected extents (-want +got):\n%s", diff)
	}
}

func TestNewErrors(t *testing.T) {
	low := mat.NewVecDense(2, []float64{0, 0})
	high := mat.NewVecDense(2, []float64{1, 1})

	tests := []struct {
		name   string
		low    mat.Vector
		high   mat.Vector
		widths []float64
	}{
		{"zero width", low, high, []float64{0.1, 0}},
		{"negative width", low, high, []float64{-0.1, 0.1}},
		{"width count mismatch", low, high, []float64{0.1}},
		{"bounds length mismatch", low,
			mat.NewVecDense(3, []float64{1, 1, 1}), []float64{0.1, 0.1}},
		{"inverted bounds", high, mat.NewVecDense(2, []float64{-9, -9}),
			[]float64{0.1, 0.1}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := New(test.low, test.high, test.widths); err == nil {
				t.Error("expected configuration error, got nil")
			}
		})
	}
}

func TestEncodeIdempotent(t *testing.T) {
	low := mat.NewVecDense(2, []float64{-1.2, -0.07})
	high := mat.NewVecDense(2, []float64{0.6, 0.07})

	d, err := New(low, high, []float64{0.1, 0.01})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		obs := mat.NewVecDense(2, []float64{
			low.AtVec(0) + rng.Float64()*(high.AtVec(0)-low.AtVec(0)),
			low.AtVec(1) + rng.Float64()*(high.AtVec(1)-low.AtVec(1)),
		})

		indices, err := d.Encode(obs)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}

		// Reconstruct the bin centre and encode again: the indices
		// must not move.
		centre := mat.NewVecDense(2, []float64{
			d.Decode(0, indices[0]),
			d.Decode(1, indices[1]),
		})
		again, err := d.Encode(centre)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}

		if diff := cmp.Diff(indices, again); diff != "" {
			t.Fatalf("encoding not idempotent for %v (-first +second):\n%s",
				mat.Formatted(obs.T()), diff)
		}
	}
}

func TestEncodeAlwaysInRange(t *testing.T) {
	low := mat.NewVecDense(2, []float64{-1.2, -0.07})
	high := mat.NewVecDense(2, []float64{0.6, 0.07})

	d, err := New(low, high, []float64{0.1, 0.01})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	extents := d.Extents()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		// Sample states within the declared bounds and slightly
		// outside them
		span0 := high.AtVec(0) - low.AtVec(0)
		span1 := high.AtVec(1) - low.AtVec(1)
		obs := mat.NewVecDense(2, []float64{
			low.AtVec(0) - 0.25*span0 + 1.5*span0*rng.Float64(),
			low.AtVec(1) - 0.25*span1 + 1.5*span1*rng.Float64(),
		})

		indices, err := d.Encode(obs)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		for dim, index := range indices {
			if index < 0 || index >= extents[dim] {
				t.Fatalf("index %v out of range [0, %v) for dimension %v "+
					"of %v", index, extents[dim], dim,
					mat.Formatted(obs.T()))
			}
		}
	}
}

func TestEncodeMidpointsRoundToEven(t *testing.T) {
	low := mat.NewVecDense(1, []float64{0.0})
	high := mat.NewVecDense(1, []float64{10.0})

	d, err := New(low, high, []float64{1.0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		obs  float64
		want int
	}{
		{0.5, 0},
		{1.5, 2},
		{2.5, 2},
		{3.5, 4},
		{4.5, 4},
	}

	for _, test := range tests {
		indices, err := d.Encode(mat.NewVecDense(1, []float64{test.obs}))
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if indices[0] != test.want {
			t.Errorf("wrong bin for midpoint %v\n\twant(%v)\n\thave(%v)",
				test.obs, test.want, indices[0])
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	low := mat.NewVecDense(2, []float64{-1.2, -0.07})
	high := mat.NewVecDense(2, []float64{0.6, 0.07})

	d, err := New(low, high, []float64{0.1, 0.01})
	if err != nil {
		b.Fatalf("New: %v", err)
	}

	obs := mat.NewVecDense(2, []float64{-0.5, 0.0})

	for i := 0; i < b.N; i++ {
		d.Encode(obs)
	}
}

func TestEncodeLengthMismatch(t *testing.T) {
	low := mat.NewVecDense(2, []float64{0, 0})
	high := mat.NewVecDense(2, []float64{1, 1})

	d, err := New(low, high, []float64{0.1, 0.1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := d.Encode(mat.NewVecDense(3, nil)); err == nil {
		t.Error("expected error for wrong observation length, got nil")
	}
}
