package kernel

import (
	"image"

	"github.com/gogpu/filterplay/argument"
)

// WarpKernel is a geometry warp kernel. For every destination pixel it
// returns the coordinate of the input image to sample. The first input image
// is required and defines the output extent.
type WarpKernel struct {
	base
}

var _ Kernel = (*WarpKernel)(nil)

func (*WarpKernel) Type() Type                { return TypeWarp }
func (*WarpKernel) Language() Language        { return LanguageCoreImage }
func (*WarpKernel) ReturnType() argument.Type { return argument.Vec2 }
func (*WarpKernel) RequiredInputImages() int  { return 1 }

func (*WarpKernel) RequiredArguments() argument.List { return nil }

func (*WarpKernel) SupportedArguments() []argument.Type {
	return []argument.Type{argument.Float, argument.Vec2, argument.Vec3, argument.Vec4}
}

func (*WarpKernel) Declaration(a argument.Argument) string { return a.Declaration() }

func (*WarpKernel) InitialBody() []string {
	return []string{"return destCoord;"}
}

func (k *WarpKernel) Compile(source string) (Kernel, Transcript, error) {
	prog, transcript, err := k.build(TypeWarp, source)
	if err != nil {
		return nil, transcript, err
	}
	return &WarpKernel{base: base{opts: k.opts, program: prog}}, transcript, nil
}

// Apply samples inputs[0]. The region of interest is always the full
// destination rectangle.
func (k *WarpKernel) Apply(inputs []image.Image, values []argument.Value) (*Output, bool) {
	if k.program == nil {
		return nil, false
	}
	in, ok := firstInput(inputs)
	if !ok {
		return nil, false
	}
	extent := in.Bounds()
	if !k.opts.outputSize.Empty() {
		extent = k.opts.outputSize
	}
	return newOutput(k.base, TypeWarp, extent, FullRect, inputs, nativeValues(values)), true
}
