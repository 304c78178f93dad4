package kernel

import (
	"image"
	"slices"
)

// ROIFunc maps a destination rectangle to the region of input image index
// that must be available to render it.
type ROIFunc func(index int, dest image.Rectangle) image.Rectangle

// FullRect is the region-of-interest policy that never crops: every input
// must cover the whole destination rectangle.
func FullRect(_ int, dest image.Rectangle) image.Rectangle { return dest }

// Output is the lazily evaluated result of Apply. It describes one kernel
// invocation; drawing it is the renderer's job.
type Output struct {
	Program   *Program
	Type      Type
	Extent    image.Rectangle
	ROI       ROIFunc
	Arguments []any
	Inputs    []image.Image
}

// Bounds returns the output extent.
func (o *Output) Bounds() image.Rectangle { return o.Extent }

func newOutput(b base, t Type, extent image.Rectangle, roi ROIFunc, inputs []image.Image, values []any) *Output {
	return &Output{
		Program:   b.program,
		Type:      t,
		Extent:    extent,
		ROI:       roi,
		Arguments: values,
		Inputs:    slices.Clone(inputs),
	}
}
