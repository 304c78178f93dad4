package wgsl

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/spirv"
	nagawgsl "github.com/gogpu/naga/wgsl"

	"github.com/gogpu/filterplay/diag"
)

// ErrCompile is returned when naga rejects a source. The accompanying
// transcript describes why.
var ErrCompile = errors.New("wgsl: compile failed")

// Output is a successfully compiled kernel.
type Output struct {
	Signature Signature

	// WGSL is the translated module handed to naga.
	WGSL string

	// SPIRV is the little-endian SPIR-V binary.
	SPIRV []byte

	// GLSL is a GLSL 3.30 translation of the entry point. It is empty when
	// naga's GLSL backend cannot express the module.
	GLSL string
}

// Compile translates and compiles a kernel-dialect source. It returns the
// diagnostic transcript in both outcomes: warnings on success, errors on
// failure.
func Compile(source string, stage Stage, logger *slog.Logger) (*Output, string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	module, sig, errs := Translate(source, stage)
	if len(errs) > 0 {
		return nil, transcript(errs), ErrCompile
	}
	userLines := strings.Count(source, "\n") + 1

	ast, err := naga.Parse(module)
	if err != nil {
		return nil, errorTranscript(err, userLines), ErrCompile
	}
	lowered, err := nagawgsl.LowerWithWarnings(ast, module)
	if err != nil {
		return nil, errorTranscript(err, userLines), ErrCompile
	}

	spv, err := spirv.NewBackend(spirv.DefaultOptions()).Compile(lowered.Module)
	if err != nil {
		return nil, errorTranscript(err, userLines), ErrCompile
	}

	out := &Output{Signature: sig, WGSL: module, SPIRV: spv}
	glslSource, _, err := glsl.Compile(lowered.Module, glsl.Options{
		LangVersion: glsl.Version330,
		EntryPoint:  EntryPoint,
	})
	if err != nil {
		logger.Debug("wgsl: glsl translation skipped", "kernel", sig.Name, "err", err)
	} else {
		out.GLSL = glslSource
	}

	var warnings []diag.KernelError
	for _, w := range lowered.Warnings {
		line, col := int(w.Span.Start.Line), int(w.Span.Start.Column)
		if line > userLines {
			line, col = -1, -1
		}
		warnings = append(warnings, diag.Compile(line, col, diag.SeverityWarning, sanitize(w.Message)))
	}

	logger.Debug("wgsl: compiled",
		"kernel", sig.Name, "stage", stage, "spirv_bytes", len(spv), "warnings", len(warnings))
	return out, transcript(warnings), nil
}

func transcript(errs []diag.KernelError) string {
	var b strings.Builder
	for _, e := range errs {
		b.WriteString(diag.Format(e))
	}
	return b.String()
}

var (
	locationRE = regexp.MustCompile(`(\d+):(\d+)`)
	severityRE = regexp.MustCompile(`^(?i)(error|warning)(\[\w+\])?\s*:?\s*`)
	gutterRE   = regexp.MustCompile(`^\d+\s*\|`)
)

// errorTranscript converts a naga error into transcript lines. Every line of
// the error text that carries a line:column location becomes a diagnostic;
// message-only lines label the next located line. Locations inside the
// generated entry point are reported as -1:-1.
func errorTranscript(err error, userLines int) string {
	var (
		errs    []diag.KernelError
		pending string
		first   string
	)
	for _, raw := range strings.Split(err.Error(), "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || isSnippet(text) {
			continue
		}
		if first == "" {
			first = text
		}

		loc := locationRE.FindStringSubmatchIndex(text)
		if loc == nil {
			pending = severityRE.ReplaceAllString(text, "")
			continue
		}

		line, _ := strconv.Atoi(text[loc[2]:loc[3]])
		col, _ := strconv.Atoi(text[loc[4]:loc[5]])
		if line > userLines {
			line, col = -1, -1
		}

		msg := strings.TrimSpace(strings.TrimLeft(text[loc[1]:], ": "))
		msg = severityRE.ReplaceAllString(msg, "")
		if msg == "" {
			msg = pending
		}
		if msg == "" {
			msg = strings.Trim(severityRE.ReplaceAllString(text[:loc[0]], ""), "-> :")
		}
		if msg == "" {
			continue
		}
		errs = append(errs, diag.Compile(line, col, diag.SeverityError, sanitize(msg)))
		pending = ""
	}

	if len(errs) == 0 && first != "" {
		errs = append(errs, diag.Compile(-1, -1, diag.SeverityError, sanitize(severityRE.ReplaceAllString(first, ""))))
	}
	return transcript(errs)
}

// isSnippet reports whether text is a source excerpt or caret marker that
// compilers print under a diagnostic.
func isSnippet(text string) bool {
	return strings.HasPrefix(text, "|") ||
		strings.Trim(text, "^~-| ") == "" ||
		gutterRE.MatchString(text)
}

// sanitize keeps a message on one transcript line with no field separators.
func sanitize(msg string) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.ReplaceAll(msg, ": ", " - ")
	return strings.ReplaceAll(msg, ":", " ")
}
