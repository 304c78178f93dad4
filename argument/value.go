package argument

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/chewxy/math32"
)

// Value is a concrete argument value. The zero Value is invalid; build values
// with the constructors below.
type Value struct {
	typ   Type
	f     [4]float32
	u     [2]uint32
	image image.Image
}

// FloatValue returns a scalar value.
func FloatValue(v float32) Value { return Value{typ: Float, f: [4]float32{v}} }

// Vec2Value returns a 2-component vector.
func Vec2Value(x, y float32) Value { return Value{typ: Vec2, f: [4]float32{x, y}} }

// Vec3Value returns a 3-component vector.
func Vec3Value(x, y, z float32) Value { return Value{typ: Vec3, f: [4]float32{x, y, z}} }

// Vec4Value returns a 4-component vector.
func Vec4Value(x, y, z, w float32) Value { return Value{typ: Vec4, f: [4]float32{x, y, z, w}} }

// ColorValue returns an RGBA color with float components.
func ColorValue(r, g, b, a float32) Value { return Value{typ: Color, f: [4]float32{r, g, b, a}} }

// UInt2Value returns an unsigned 2-component vector.
func UInt2Value(x, y uint32) Value { return Value{typ: UInt2, u: [2]uint32{x, y}} }

// SampleValue returns an image sample. A nil image yields a sample
// placeholder, which is what decoding a persisted sample produces.
func SampleValue(img image.Image) Value { return Value{typ: Sample, image: img} }

// Type returns the value's type. Texture arguments hold Sample values.
func (v Value) Type() Type { return v.typ }

// IsValid reports whether v was built by a constructor.
func (v Value) IsValid() bool { return v.typ != "" }

// Compatible reports whether v may be stored in an argument of type t.
func (v Value) Compatible(t Type) bool {
	if t == Texture2D {
		return v.typ == Sample
	}
	return v.typ == t
}

// Components returns the float components of a float, vector or color value.
func (v Value) Components() []float32 {
	switch v.typ {
	case Float:
		return []float32{v.f[0]}
	case Vec2:
		return []float32{v.f[0], v.f[1]}
	case Vec3:
		return []float32{v.f[0], v.f[1], v.f[2]}
	case Vec4, Color:
		return []float32{v.f[0], v.f[1], v.f[2], v.f[3]}
	default:
		return nil
	}
}

// Float returns the scalar of a float value.
func (v Value) Float() float32 { return v.f[0] }

// UInt2 returns the components of a uint2 value.
func (v Value) UInt2() (uint32, uint32) { return v.u[0], v.u[1] }

// Image returns the image of a sample value, nil for other types and for
// unresolved placeholders.
func (v Value) Image() image.Image { return v.image }

// WithImage returns a sample value with img attached. It returns v
// unchanged when v is not a sample.
func (v Value) WithImage(img image.Image) Value {
	if v.typ != Sample {
		return v
	}
	v.image = img
	return v
}

// Equal reports structural equality. Images compare by handle.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case Sample:
		return sameImage(v.image, o.image)
	case UInt2:
		return v.u == o.u
	default:
		return v.f == o.f
	}
}

// sameImage compares image handles without panicking on image types that
// are not comparable.
func sameImage(a, b image.Image) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// String formats the value for logs and CLI output.
func (v Value) String() string {
	switch v.typ {
	case Sample:
		if v.image == nil {
			return "sample(<unresolved>)"
		}
		b := v.image.Bounds()
		return fmt.Sprintf("sample(%dx%d)", b.Dx(), b.Dy())
	case UInt2:
		return fmt.Sprintf("uint2(%d, %d)", v.u[0], v.u[1])
	case "":
		return "invalid"
	}
	parts := make([]string, 0, 4)
	for _, c := range v.Components() {
		parts = append(parts, fmt.Sprint(c))
	}
	name := string(v.typ)
	if v.typ == Color {
		name = "color"
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

// Vector is the native form of float vectors.
type Vector struct {
	X, Y, Z, W float64
	Count      int
}

// UVector is the native form of unsigned vectors.
type UVector struct {
	X, Y uint32
}

// RGBA is the native form of colors. Components are in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Sampler is the native form of image samples.
type Sampler struct {
	Image image.Image
}

// KernelValue converts v into the representation the kernel invocation
// expects: float32, Vector, UVector, RGBA or Sampler.
func (v Value) KernelValue() any {
	switch v.typ {
	case Float:
		return v.f[0]
	case Vec2, Vec3, Vec4:
		n := len(v.Components())
		return Vector{
			X: float64(v.f[0]), Y: float64(v.f[1]),
			Z: float64(v.f[2]), W: float64(v.f[3]),
			Count: n,
		}
	case Color:
		return RGBA{
			R: float64(clampUnit(v.f[0])),
			G: float64(clampUnit(v.f[1])),
			B: float64(clampUnit(v.f[2])),
			A: float64(clampUnit(v.f[3])),
		}
	case UInt2:
		return UVector{X: v.u[0], Y: v.u[1]}
	case Sample:
		return Sampler{Image: v.image}
	default:
		return nil
	}
}

func clampUnit(f float32) float32 {
	if math32.IsNaN(f) {
		return 0
	}
	return math32.Max(0, math32.Min(1, f))
}

// Bytes returns the little-endian buffer layout of v for raw uniform upload.
// vec3 occupies 16 bytes, matching float3 alignment. Colors and samples have
// no buffer layout and report false.
func (v Value) Bytes() ([]byte, bool) {
	switch v.typ {
	case Float:
		return putFloats(4, v.f[:1]), true
	case Vec2:
		return putFloats(8, v.f[:2]), true
	case Vec3:
		return putFloats(16, v.f[:3]), true
	case Vec4:
		return putFloats(16, v.f[:4]), true
	case UInt2:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint32(buf[0:], v.u[0])
		binary.LittleEndian.PutUint32(buf[4:], v.u[1])
		return buf, true
	default:
		return nil, false
	}
}

func putFloats(size int, fs []float32) []byte {
	buf := make([]byte, size)
	for i, f := range fs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// ErrUnknownValue is returned when a persisted value matches no known shape.
var ErrUnknownValue = errors.New("argument: unknown value")

// jsonValue is the compact keyed persistence format. Exactly one key is set.
// Sample images are never written; a sample encodes as an empty object.
type jsonValue struct {
	Float *float32  `json:"float,omitempty"`
	Vec2  []float32 `json:"vec2,omitempty"`
	Vec3  []float32 `json:"vec3,omitempty"`
	Vec4  []float32 `json:"vec4,omitempty"`
	Color []float32 `json:"color,omitempty"`
	UInt2 []uint32  `json:"uint2,omitempty"`
}

func (v Value) toJSON() jsonValue {
	var j jsonValue
	switch v.typ {
	case Float:
		f := v.f[0]
		j.Float = &f
	case Vec2:
		j.Vec2 = slices.Clone(v.f[:2])
	case Vec3:
		j.Vec3 = slices.Clone(v.f[:3])
	case Vec4:
		j.Vec4 = slices.Clone(v.f[:4])
	case Color:
		j.Color = slices.Clone(v.f[:4])
	case UInt2:
		j.UInt2 = []uint32{v.u[0], v.u[1]}
	}
	return j
}

func (j jsonValue) toValue() (Value, error) {
	switch {
	case j.Float != nil:
		return FloatValue(*j.Float), nil
	case j.Vec2 != nil:
		return floatsValue(Vec2, j.Vec2, 2)
	case j.Vec3 != nil:
		return floatsValue(Vec3, j.Vec3, 3)
	case j.Vec4 != nil:
		return floatsValue(Vec4, j.Vec4, 4)
	case j.Color != nil:
		return floatsValue(Color, j.Color, 4)
	case j.UInt2 != nil:
		if len(j.UInt2) != 2 {
			return Value{}, fmt.Errorf("%w: uint2 with %d components", ErrUnknownValue, len(j.UInt2))
		}
		return UInt2Value(j.UInt2[0], j.UInt2[1]), nil
	default:
		return Value{}, ErrUnknownValue
	}
}

func floatsValue(t Type, fs []float32, n int) (Value, error) {
	if len(fs) != n {
		return Value{}, fmt.Errorf("%w: %s with %d components", ErrUnknownValue, t, len(fs))
	}
	v := Value{typ: t}
	copy(v.f[:], fs)
	return v, nil
}
