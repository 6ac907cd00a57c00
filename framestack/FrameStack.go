// Package framestack preprocesses raw pixel observations into the
// fixed-shape frame stacks consumed by the deep value function.
//
// Each raw grayscale observation is cropped to the playfield, rescaled
// to a square resolution with smooth interpolation, and pushed into a
// fixed-capacity ring of recent frames. The ring always holds exactly
// StackSize frames: on reset it is seeded with all-zero frames so a
// valid input tensor exists before the first real frame arrives.
package framestack

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// StackSize is the number of recent frames fed to the network as one
// input
const StackSize = 2

// Processor crops, rescales, and stacks raw grayscale frames
type Processor struct {
	rawRows, rawCols    int
	cropTop, cropBottom int
	size                int

	// frames[0] is the oldest frame; each frame is a row-major
	// size*size grayscale image scaled to [0, 1]
	frames [StackSize][]float64
}

// New returns a Processor for rawRows x rawCols grayscale
// observations. Each frame is cropped by cropTop rows at the top and
// cropBottom rows at the bottom, then rescaled to size x size. The
// stack starts seeded with zero frames.
func New(rawRows, rawCols, cropTop, cropBottom, size int) (*Processor,
	error) {
	if rawRows < 1 || rawCols < 1 {
		return nil, fmt.Errorf("framestack: invalid raw frame shape "+
			"(%v, %v)", rawRows, rawCols)
	}
	if cropTop < 0 || cropBottom < 0 || cropTop+cropBottom >= rawRows {
		return nil, fmt.Errorf("framestack: crop margins (%v, %v) leave no "+
			"rows of %v", cropTop, cropBottom, rawRows)
	}
	if size < 1 {
		return nil, fmt.Errorf("framestack: non-positive frame size %v",
			size)
	}

	p := &Processor{
		rawRows:    rawRows,
		rawCols:    rawCols,
		cropTop:    cropTop,
		cropBottom: cropBottom,
		size:       size,
	}
	p.Reset()
	return p, nil
}

// Reset clears the stack and seeds it with all-zero frames
func (p *Processor) Reset() {
	for i := range p.frames {
		p.frames[i] = make([]float64, p.size*p.size)
	}
}

// AddFrame crops and rescales a raw grayscale observation, then
// appends it to the stack, evicting the oldest frame. The observation
// is a flattened row-major rawRows x rawCols image with pixel values
// in [0, 255].
func (p *Processor) AddFrame(obs mat.Vector) error {
	if obs.Len() != p.rawRows*p.rawCols {
		return fmt.Errorf("addframe: invalid observation length"+
			"\n\twant(%v)\n\thave(%v)", p.rawRows*p.rawCols, obs.Len())
	}

	croppedRows := p.rawRows - p.cropTop - p.cropBottom
	src := image.NewGray(image.Rect(0, 0, p.rawCols, croppedRows))
	for r := 0; r < croppedRows; r++ {
		for c := 0; c < p.rawCols; c++ {
			value := obs.AtVec((r+p.cropTop)*p.rawCols + c)
			if value < 0 {
				value = 0
			} else if value > 255 {
				value = 255
			}
			src.Pix[r*src.Stride+c] = uint8(value)
		}
	}

	dst := image.NewGray(image.Rect(0, 0, p.size, p.size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	frame := make([]float64, p.size*p.size)
	for r := 0; r < p.size; r++ {
		for c := 0; c < p.size; c++ {
			frame[r*p.size+c] = float64(dst.Pix[r*dst.Stride+c]) / 255
		}
	}

	// Evict the oldest frame
	copy(p.frames[:], p.frames[1:])
	p.frames[StackSize-1] = frame
	return nil
}

// Encode returns the stack as a rank-4 tensor of shape
// (1, StackSize, size, size), oldest frame first, matching the
// network's input contract
func (p *Processor) Encode() tensor.Tensor {
	backing := make([]float64, 0, StackSize*p.size*p.size)
	for i := range p.frames {
		backing = append(backing, p.frames[i]...)
	}

	return tensor.New(
		tensor.WithShape(1, StackSize, p.size, p.size),
		tensor.WithBacking(backing),
	)
}

// Size returns the side length of each processed frame
func (p *Processor) Size() int {
	return p.size
}
