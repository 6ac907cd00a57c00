// Package discretize maps continuous observation vectors onto integer
// bin indices for tabular value functions.
package discretize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Discretizer bins each dimension of a continuous observation into a
// fixed-width bucket. The number of buckets per dimension is computed
// once from the environment's declared observation bounds, and every
// encoded index is clamped into that extent, so indices returned by
// Encode are always safe to use for table lookups even when an
// observation falls outside the declared bounds.
type Discretizer struct {
	low     []float64
	widths  []float64
	extents []int
}

// New returns a Discretizer for observations bounded by [low, high]
// with the given per-dimension bin widths. The extent of dimension i is
// round((high[i]-low[i]) / widths[i]) + 1. Malformed widths or bounds
// that produce a non-positive extent are configuration errors.
func New(low, high mat.Vector, widths []float64) (*Discretizer, error) {
	if low.Len() != high.Len() {
		return nil, fmt.Errorf("discretize: bounds length mismatch: "+
			"%v != %v", low.Len(), high.Len())
	}
	if low.Len() != len(widths) {
		return nil, fmt.Errorf("discretize: need one bin width per "+
			"dimension\n\twant(%v)\n\thave(%v)", low.Len(), len(widths))
	}
	if low.Len() == 0 {
		return nil, fmt.Errorf("discretize: cannot discretize empty " +
			"observations")
	}

	lowVals := make([]float64, low.Len())
	extents := make([]int, low.Len())
	for i := range extents {
		if widths[i] <= 0 {
			return nil, fmt.Errorf("discretize: non-positive bin width %v "+
				"for dimension %v", widths[i], i)
		}

		lowVals[i] = low.AtVec(i)
		extent := int(math.Round((high.AtVec(i)-low.AtVec(i))/widths[i])) + 1
		if extent < 1 {
			return nil, fmt.Errorf("discretize: bounds [%v, %v] with width "+
				"%v give non-positive extent for dimension %v",
				low.AtVec(i), high.AtVec(i), widths[i], i)
		}
		extents[i] = extent
	}

	w := make([]float64, len(widths))
	copy(w, widths)

	return &Discretizer{low: lowVals, widths: w, extents: extents}, nil
}

// Encode returns the bin index of each dimension of obs. Indices of
// observations outside the declared bounds are clamped into
// [0, extent) rather than indexing out of range.
func (d *Discretizer) Encode(obs mat.Vector) ([]int, error) {
	if obs.Len() != len(d.extents) {
		return nil, fmt.Errorf("encode: invalid observation length"+
			"\n\twant(%v)\n\thave(%v)", len(d.extents), obs.Len())
	}

	indices := make([]int, obs.Len())
	for i := range indices {
		// Observations exactly halfway between two bin centres round
		// to the even bin
		index := int(math.RoundToEven((obs.AtVec(i) - d.low[i]) /
			d.widths[i]))
		if index < 0 {
			index = 0
		} else if index >= d.extents[i] {
			index = d.extents[i] - 1
		}
		indices[i] = index
	}
	return indices, nil
}

// Decode returns the continuous value at the centre of the bin with
// the given index along dimension dim
func (d *Discretizer) Decode(dim, index int) float64 {
	return d.low[dim] + float64(index)*d.widths[dim]
}

// Extents returns the number of bins along each dimension
func (d *Discretizer) Extents() []int {
	extents := make([]int, len(d.extents))
	copy(extents, d.extents)
	return extents
}

// Dims returns the number of observation dimensions
func (d *Discretizer) Dims() int {
	return len(d.extents)
}
