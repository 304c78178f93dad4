// Package kernel defines the capability contract shared by every kernel
// backend and the backends themselves.
//
// A Kernel is immutable. Compile never changes the receiver: it returns a new
// compiled Kernel, which lets a renderer keep drawing with the previous kernel
// while a new one is being built.
package kernel

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"

	"github.com/gogpu/filterplay/argument"
	"github.com/gogpu/filterplay/internal/cache"
)

// Type tags a kernel family. The string is persisted in project metadata.
type Type string

// Kernel types.
const (
	// TypeColor is a per-pixel color kernel.
	TypeColor Type = "coreimage"

	// TypeWarp is a geometry warp kernel.
	TypeWarp Type = "coreimagewarp"

	// TypeCompute is a Metal compute kernel built by an external compiler.
	TypeCompute Type = "metal"
)

var allTypes = []Type{TypeColor, TypeWarp, TypeCompute}

// Types returns every kernel type.
func Types() []Type { return slices.Clone(allTypes) }

// IsValid reports whether t is a known kernel type.
func (t Type) IsValid() bool { return slices.Contains(allTypes, t) }

// Language describes a shading language.
type Language struct {
	Name          string
	FileExtension string
}

// Shading languages.
var (
	// LanguageCoreImage is the Core Image style kernel dialect: a kernel
	// header over a WGSL body.
	LanguageCoreImage = Language{Name: "cikernel", FileExtension: "cikernel"}

	// LanguageMetal is the Metal shading language.
	LanguageMetal = Language{Name: "metal", FileExtension: "metal"}
)

// Transcript is raw diagnostic text emitted by a toolchain.
type Transcript string

// ErrCompile marks a source rejected by the toolchain.
var ErrCompile = errors.New("kernel: compile failed")

// CompileError carries the transcript of a failed compile. Err wraps
// ErrCompile when the source was rejected and the underlying cause when the
// toolchain itself could not run.
type CompileError struct {
	Type       Type
	Transcript Transcript
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("kernel: compile %s: %v", e.Type, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Kernel is the capability set every backend provides.
type Kernel interface {
	Type() Type
	Language() Language

	// ReturnType is the return type written into the kernel signature.
	ReturnType() argument.Type

	// RequiredArguments are the arguments a new project of this type starts with.
	RequiredArguments() argument.List

	// SupportedArguments are the types a user may add.
	SupportedArguments() []argument.Type

	// RequiredInputImages is the number of input images Apply needs.
	RequiredInputImages() int

	// Declaration renders an argument as a signature parameter.
	Declaration(a argument.Argument) string

	// InitialBody is the body of a freshly scaffolded kernel, without indent.
	InitialBody() []string

	// Program returns the compiled program, nil before a successful compile.
	Program() *Program

	// Compile builds a new kernel from source. The transcript holds warnings
	// on success. On failure the error is a *CompileError.
	Compile(source string) (Kernel, Transcript, error)

	// Apply invokes the compiled kernel. It reports false when nothing has
	// been compiled or a required input image is missing.
	Apply(inputs []image.Image, values []argument.Value) (*Output, bool)
}

// Program is a compiled kernel artifact.
type Program struct {
	Language   Language
	Name       string
	EntryPoint string
	Parameters []string

	// Binary is the toolchain artifact: SPIR-V for the kernel dialect, a
	// Metal library for compute kernels.
	Binary []byte

	// Translations holds optional cross-compiled sources keyed by language.
	Translations map[string]string
}

// Toolchain builds programs for one kernel family.
type Toolchain interface {
	Build(t Type, source string) (*Program, Transcript, error)
}

// InheritExtent is the output extent of color kernels without an explicit
// output size.
var InheritExtent = image.Rect(0, 0, 1000, 1000)

// Option configures a kernel built by New.
type Option func(*options)

type options struct {
	toolchain  Toolchain
	outputSize image.Rectangle
	logger     *slog.Logger
	cache      int
}

// WithToolchain overrides the default toolchain of the kernel type.
func WithToolchain(tc Toolchain) Option {
	return func(o *options) { o.toolchain = tc }
}

// WithOutputSize sets a custom output extent. An empty rectangle inherits
// the default extent.
func WithOutputSize(r image.Rectangle) Option {
	return func(o *options) { o.outputSize = r }
}

// WithLogger sets the logger used for toolchain diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ErrUnknownType is returned by New for an unknown type tag.
var ErrUnknownType = errors.New("kernel: unknown kernel type")

// New returns an uncompiled kernel of type t.
func New(t Type, opts ...Option) (Kernel, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	switch t {
	case TypeColor:
		if o.toolchain == nil {
			o.toolchain = WGSLToolchain{Logger: o.logger}
		}
		o.wrapCache()
		return &ColorKernel{base: base{opts: o}}, nil
	case TypeWarp:
		if o.toolchain == nil {
			o.toolchain = WGSLToolchain{Logger: o.logger}
		}
		o.wrapCache()
		return &WarpKernel{base: base{opts: o}}, nil
	case TypeCompute:
		if o.toolchain == nil {
			o.toolchain = NewExternalToolchain("", o.logger)
		}
		o.wrapCache()
		return &ComputeKernel{base: base{opts: o}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
}

func (o *options) wrapCache() {
	if o.cache > 0 {
		o.toolchain = &cachedToolchain{
			next:   o.toolchain,
			builds: cache.New[buildKey, buildResult](o.cache),
			logger: o.logger,
		}
	}
}

// base holds what every backend shares. It is copied, never mutated, when
// a compile succeeds.
type base struct {
	opts    options
	program *Program
}

func (b base) Program() *Program { return b.program }

func (b base) build(t Type, source string) (*Program, Transcript, error) {
	prog, transcript, err := b.opts.toolchain.Build(t, source)
	if err != nil {
		var ce *CompileError
		if errors.As(err, &ce) {
			return nil, transcript, err
		}
		return nil, transcript, &CompileError{Type: t, Transcript: transcript, Err: err}
	}
	return prog, transcript, nil
}

// nativeValues converts argument values for invocation. Values with no
// native form are skipped.
func nativeValues(values []argument.Value) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		if nv := v.KernelValue(); nv != nil {
			out = append(out, nv)
		}
	}
	return out
}

func firstInput(inputs []image.Image) (image.Image, bool) {
	if len(inputs) == 0 || inputs[0] == nil {
		return nil, false
	}
	return inputs[0], true
}
