package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/filterplay/internal/exttool"
	"github.com/gogpu/filterplay/internal/wgsl"
)

// WGSLToolchain compiles the Core Image kernel dialect with naga.
type WGSLToolchain struct {
	Logger *slog.Logger
}

// Build implements Toolchain.
func (tc WGSLToolchain) Build(t Type, source string) (*Program, Transcript, error) {
	stage := wgsl.StageColor
	switch t {
	case TypeColor:
	case TypeWarp:
		stage = wgsl.StageWarp
	default:
		return nil, "", fmt.Errorf("%w: %s kernels are not WGSL", ErrUnknownType, t)
	}

	out, transcript, err := wgsl.Compile(source, stage, tc.Logger)
	if err != nil {
		if errors.Is(err, wgsl.ErrCompile) {
			err = ErrCompile
		}
		return nil, Transcript(transcript), &CompileError{Type: t, Transcript: Transcript(transcript), Err: err}
	}

	params := make([]string, len(out.Signature.Parameters))
	for i, p := range out.Signature.Parameters {
		params[i] = p.Name
	}
	prog := &Program{
		Language:     LanguageCoreImage,
		Name:         out.Signature.Name,
		EntryPoint:   wgsl.EntryPoint,
		Parameters:   params,
		Binary:       out.SPIRV,
		Translations: map[string]string{"wgsl": out.WGSL},
	}
	if out.GLSL != "" {
		prog.Translations["glsl"] = out.GLSL
	}
	return prog, Transcript(transcript), nil
}

// ExternalToolchain compiles Metal kernels with an external compiler process.
type ExternalToolchain struct {
	Tool exttool.Tool
}

// NewExternalToolchain returns a toolchain running command, or
// exttool.DefaultMetalCommand when command is empty.
func NewExternalToolchain(command string, logger *slog.Logger) ExternalToolchain {
	if command == "" {
		command = exttool.DefaultMetalCommand
	}
	return ExternalToolchain{Tool: exttool.Tool{
		Command:   command,
		Extension: LanguageMetal.FileExtension,
		Logger:    logger,
	}}
}

// WithTimeout returns a copy of tc bounded by d per compile.
func (tc ExternalToolchain) WithTimeout(d time.Duration) ExternalToolchain {
	tc.Tool.Timeout = d
	return tc
}

// Build implements Toolchain.
func (tc ExternalToolchain) Build(t Type, source string) (*Program, Transcript, error) {
	artifact, transcript, err := tc.Tool.Run(context.Background(), source)
	if err != nil {
		if errors.Is(err, exttool.ErrCompile) {
			err = ErrCompile
		}
		return nil, Transcript(transcript), &CompileError{Type: t, Transcript: Transcript(transcript), Err: err}
	}
	return &Program{
		Language: LanguageMetal,
		Binary:   artifact,
	}, Transcript(transcript), nil
}
