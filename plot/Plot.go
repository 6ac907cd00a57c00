// Package plot renders the reward progression of a training run to a
// PNG image
package plot

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
)

const (
	width  = 800
	height = 600
	margin = 60.0
)

var (
	background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	axisShade  = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	lineShade  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// RewardProgression renders the recorded running means as a line
// chart and saves it to filename as a PNG. The horizontal axis is the
// recording index and the vertical axis spans the recorded range.
func RewardProgression(points []float64, title, filename string) error {
	if len(points) < 2 {
		return fmt.Errorf("rewardprogression: need at least 2 points to "+
			"plot, got %v", len(points))
	}

	low, high := points[0], points[0]
	for _, p := range points {
		if p < low {
			low = p
		}
		if p > high {
			high = p
		}
	}
	if high == low {
		// Flat progressions still get a visible span
		high++
		low--
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(background)
	dc.Clear()

	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin
	toPixel := func(i int, value float64) (float64, float64) {
		x := margin + plotW*float64(i)/float64(len(points)-1)
		y := margin + plotH*(1-(value-low)/(high-low))
		return x, y
	}

	// Axes
	dc.SetColor(axisShade)
	dc.SetLineWidth(2.0)
	dc.DrawLine(margin, margin, margin, float64(height)-margin)
	dc.DrawLine(margin, float64(height)-margin, float64(width)-margin,
		float64(height)-margin)
	dc.Stroke()

	// Progression
	dc.ClearPath()
	dc.SetColor(lineShade)
	dc.SetLineWidth(2.0)
	for i, p := range points {
		x, y := toPixel(i, p)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	// Labels
	dc.SetColor(axisShade)
	dc.DrawStringAnchored(title, float64(width)/2, margin/2, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.2f", high), margin-5, margin,
		1.0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.2f", low), margin-5,
		float64(height)-margin, 1.0, 0.5)
	dc.DrawStringAnchored("0", margin, float64(height)-margin/2, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%v", len(points)-1),
		float64(width)-margin, float64(height)-margin/2, 0.5, 0.5)

	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("rewardprogression: could not save plot: %v", err)
	}
	return nil
}
