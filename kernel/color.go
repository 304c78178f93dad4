package kernel

import (
	"image"

	"github.com/gogpu/filterplay/argument"
)

// ColorKernel is a per-pixel color kernel. It returns a vec4 for every
// destination pixel and samples the first input image implicitly.
type ColorKernel struct {
	base
}

var _ Kernel = (*ColorKernel)(nil)

func (*ColorKernel) Type() Type                { return TypeColor }
func (*ColorKernel) Language() Language        { return LanguageCoreImage }
func (*ColorKernel) ReturnType() argument.Type { return argument.Vec4 }
func (*ColorKernel) RequiredInputImages() int  { return 0 }

func (*ColorKernel) RequiredArguments() argument.List { return nil }

func (*ColorKernel) SupportedArguments() []argument.Type {
	return []argument.Type{argument.Float, argument.Vec2, argument.Vec3, argument.Vec4, argument.Sample, argument.Color}
}

func (*ColorKernel) Declaration(a argument.Argument) string { return a.Declaration() }

func (*ColorKernel) InitialBody() []string {
	return []string{"return vec4<f32>(1.0, 1.0, 1.0, 1.0);"}
}

// Extent is the output extent: the configured output size, or InheritExtent.
func (k *ColorKernel) Extent() image.Rectangle {
	if k.opts.outputSize.Empty() {
		return InheritExtent
	}
	return k.opts.outputSize
}

func (k *ColorKernel) Compile(source string) (Kernel, Transcript, error) {
	prog, transcript, err := k.build(TypeColor, source)
	if err != nil {
		return nil, transcript, err
	}
	return &ColorKernel{base: base{opts: k.opts, program: prog}}, transcript, nil
}

func (k *ColorKernel) Apply(inputs []image.Image, values []argument.Value) (*Output, bool) {
	if k.program == nil {
		return nil, false
	}
	return newOutput(k.base, TypeColor, k.Extent(), FullRect, inputs, nativeValues(values)), true
}
