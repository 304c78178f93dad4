package wgsl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/filterplay/diag"
)

func TestErrorTranscript(t *testing.T) {
	tests := []struct {
		name string
		err  string
		want []diag.KernelError
	}{
		{
			name: "line col prefix",
			err:  "3:14: expected ';', found '}'",
			want: []diag.KernelError{diag.Compile(3, 14, diag.SeverityError, "expected ';', found '}'")},
		},
		{
			name: "message then location",
			err:  "error: unknown identifier 'foo'\n  --> 2:5\n   |\n 2 |     foo\n   |     ^^^",
			want: []diag.KernelError{diag.Compile(2, 5, diag.SeverityError, "unknown identifier 'foo'")},
		},
		{
			name: "generated code maps to unknown location",
			err:  "40:1: type mismatch: expected f32",
			want: []diag.KernelError{diag.Compile(-1, -1, diag.SeverityError, "type mismatch - expected f32")},
		},
		{
			name: "no location",
			err:  "error: module has no entry point",
			want: []diag.KernelError{diag.Compile(-1, -1, diag.SeverityError, "module has no entry point")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diag.Parse(errorTranscript(errors.New(tt.err), 10))
			assert.True(t, diag.EqualErrors(tt.want, got), "got %v", got)
		})
	}
}

func TestCompile_HeaderErrorsAreTranscribed(t *testing.T) {
	out, transcript, err := Compile("kernel vec2 untitled() {\n}", StageColor, nil)

	require.ErrorIs(t, err, ErrCompile)
	assert.Nil(t, out)
	errs := diag.Parse(transcript)
	require.Len(t, errs, 1)
	assert.Equal(t, "color kernel must have vec4 return type", errs[0].Message)
}

func TestCompile_InvalidBody(t *testing.T) {
	src := "kernel vec4 untitled() {\n    return undefinedThing(;\n}"

	_, transcript, err := Compile(src, StageColor, nil)

	require.ErrorIs(t, err, ErrCompile)
	assert.NotEmpty(t, strings.TrimSpace(transcript))
	assert.NotEmpty(t, diag.Parse(transcript))
}

func TestCompile_InitialColorKernel(t *testing.T) {
	src := "kernel vec4 untitled() {\n    return vec4<f32>(1.0, 1.0, 1.0, 1.0);\n}"

	out, transcript, err := Compile(src, StageColor, nil)
	if err != nil {
		// naga does not cover every WGSL feature the generated entry point
		// uses on all versions.
		t.Skipf("Skipping: naga limitation: %v\n%s", err, transcript)
	}

	assert.Equal(t, "untitled", out.Signature.Name)
	assert.NotEmpty(t, out.SPIRV)
	assert.Zero(t, len(out.SPIRV)%4, "SPIR-V is a stream of 32-bit words")
	assert.Empty(t, diag.Parse(transcript))
}

func TestCompile_WarningsCarryUserLocation(t *testing.T) {
	src := "kernel vec4 untitled() {\n" +
		"    var unused: f32 = 1.0;\n" +
		"    return vec4<f32>(1.0, 1.0, 1.0, 1.0);\n" +
		"}"

	out, transcript, err := Compile(src, StageColor, nil)
	if err != nil {
		t.Skipf("Skipping: naga limitation: %v\n%s", err, transcript)
	}
	require.NotNil(t, out)

	var found *diag.KernelError
	for _, w := range diag.Parse(transcript) {
		if strings.Contains(w.Message, "unused variable 'unused'") {
			found = &w
			break
		}
	}
	require.NotNil(t, found, "transcript: %q", transcript)
	assert.True(t, found.IsWarning())
	assert.Equal(t, 2, found.LineNumber)
	// The span starts at the declaration: the var keyword or the name.
	assert.GreaterOrEqual(t, found.CharacterIndex, 5)
	assert.LessOrEqual(t, found.CharacterIndex, 9)
}
