// Package argument models typed kernel arguments: their kinds, concrete
// values, native invocation representation and persistence format.
package argument

import (
	"fmt"
	"image"
	"slices"

	fpimage "github.com/gogpu/filterplay/internal/image"
)

// Type is the kind of a kernel parameter. The string value is the canonical
// spelling used in kernel signatures.
type Type string

// Kernel argument types.
const (
	Float     Type = "float"
	Vec2      Type = "vec2"
	Vec3      Type = "vec3"
	Vec4      Type = "vec4"
	Sample    Type = "__sample"
	Color     Type = "__color"
	Void      Type = "void"
	UInt2     Type = "uint2"
	Texture2D Type = "texture2d"
)

var allTypes = []Type{Float, Vec2, Vec3, Vec4, Sample, Color, Void, UInt2, Texture2D}

// All returns every argument type in declaration order.
func All() []Type { return slices.Clone(allTypes) }

// IsValid reports whether t is a known type.
func (t Type) IsValid() bool { return slices.Contains(allTypes, t) }

// Spelling returns the source-language spelling of t.
func (t Type) Spelling() string { return string(t) }

// IsImage reports whether values of t carry an image.
func (t Type) IsImage() bool { return t == Sample || t == Texture2D }

// defaultImage is shared so that default sample values compare equal.
var defaultImage image.Image = fpimage.Solid(fpimage.DefaultSize, fpimage.DefaultSize, fpimage.Black)

// DefaultImage returns the image used for unset sample arguments.
func DefaultImage() image.Image { return defaultImage }

// DefaultValue returns the zero value of t.
//
// Void has no value; asking for one is a programming error and panics.
func (t Type) DefaultValue() Value {
	switch t {
	case Float:
		return FloatValue(0)
	case Vec2:
		return Vec2Value(0, 0)
	case Vec3:
		return Vec3Value(0, 0, 0)
	case Vec4:
		return Vec4Value(0, 0, 0, 0)
	case Color:
		return ColorValue(0, 0, 0, 0)
	case UInt2:
		return UInt2Value(0, 0)
	case Sample, Texture2D:
		return SampleValue(defaultImage)
	case Void:
		panic("argument: void has no default value")
	default:
		panic(fmt.Sprintf("argument: unknown type %q", string(t)))
	}
}

// AvailableDataBindings returns the live sources that may drive values of t.
func (t Type) AvailableDataBindings() []DataBinding {
	switch t {
	case Float:
		return []DataBinding{BindingTime}
	case Vec2:
		return []DataBinding{BindingTouch}
	case Sample, Texture2D:
		return []DataBinding{BindingCamera}
	default:
		return nil
	}
}

// SupportsDataBinding reports whether any data binding can drive t.
func (t Type) SupportsDataBinding() bool { return len(t.AvailableDataBindings()) > 0 }

// DataBinding is a live value source for an argument.
type DataBinding string

// Data bindings.
const (
	BindingNone   DataBinding = ""
	BindingTime   DataBinding = "time"
	BindingTouch  DataBinding = "touch"
	BindingCamera DataBinding = "camera"
)

// String returns the binding name, "none" for BindingNone.
func (b DataBinding) String() string {
	if b == BindingNone {
		return "none"
	}
	return string(b)
}
