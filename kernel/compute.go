package kernel

import (
	"fmt"
	"image"

	"github.com/gogpu/filterplay/argument"
)

// ComputeKernel is a Metal compute kernel. It reads inTexture and writes
// outTexture at thread position gid; further arguments are bound as
// constant buffers.
type ComputeKernel struct {
	base
}

var _ Kernel = (*ComputeKernel)(nil)

func (*ComputeKernel) Type() Type                { return TypeCompute }
func (*ComputeKernel) Language() Language        { return LanguageMetal }
func (*ComputeKernel) ReturnType() argument.Type { return argument.Void }
func (*ComputeKernel) RequiredInputImages() int  { return 1 }

func (*ComputeKernel) RequiredArguments() argument.List {
	l := argument.List{
		argument.Required("inTexture", argument.Texture2D, argument.AccessRead),
		argument.Required("outTexture", argument.Texture2D, argument.AccessWrite),
		argument.Required("gid", argument.UInt2, argument.AccessRead),
	}
	for i := range l {
		l[i].Index = i
	}
	return l
}

func (*ComputeKernel) SupportedArguments() []argument.Type {
	return []argument.Type{argument.Float, argument.Vec2, argument.Vec3, argument.Vec4, argument.Texture2D}
}

// Declaration renders Metal parameter syntax with attribute bindings.
// Textures bind in argument order, buffers after the required arguments.
func (*ComputeKernel) Declaration(a argument.Argument) string {
	switch a.Type {
	case argument.Texture2D:
		return fmt.Sprintf("metal::texture2d<float, metal::access::%s> %s [[texture(%d)]]", a.Access, a.Name, a.Index)
	case argument.UInt2:
		return "uint2 " + a.Name + " [[thread_position_in_grid]]"
	case argument.Vec2, argument.Vec3, argument.Vec4:
		return fmt.Sprintf("constant float%c &%s [[buffer(%d)]]", a.Type[3], a.Name, a.Index)
	default:
		return fmt.Sprintf("constant %s &%s [[buffer(%d)]]", a.Type.Spelling(), a.Name, a.Index)
	}
}

func (*ComputeKernel) InitialBody() []string {
	return []string{
		"float4 color = inTexture.read(gid);",
		"outTexture.write(color, gid);",
	}
}

func (k *ComputeKernel) Compile(source string) (Kernel, Transcript, error) {
	prog, transcript, err := k.build(TypeCompute, source)
	if err != nil {
		return nil, transcript, err
	}
	return &ComputeKernel{base: base{opts: k.opts, program: prog}}, transcript, nil
}

func (k *ComputeKernel) Apply(inputs []image.Image, values []argument.Value) (*Output, bool) {
	if k.program == nil {
		return nil, false
	}
	in, ok := firstInput(inputs)
	if !ok {
		return nil, false
	}
	return newOutput(k.base, TypeCompute, in.Bounds(), FullRect, inputs, nativeValues(values)), true
}
