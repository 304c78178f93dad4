package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleLine(t *testing.T) {
	errs := Parse("5: 12: error: unknown type name 'vec2'")

	require.Len(t, errs, 1)
	want := Compile(5, 12, SeverityError, "unknown type name 'vec2'")
	assert.True(t, want.Equal(errs[0]), "got %v", errs[0])
	assert.Nil(t, errs[0].Note)
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("\n\n"))
	assert.Empty(t, Parse(ChunkDelimiter))
}

func TestParse_ChunksKeepOrder(t *testing.T) {
	transcript := "[CIKernelPool] 1:8: ERROR: unknown type name 'vec2'\n" +
		"[CIKernelPool] 1:13: ERROR: kernel must have void return type\n"

	errs := Parse(transcript)

	require.Len(t, errs, 2)
	assert.Equal(t, 8, errs[0].CharacterIndex)
	assert.Equal(t, Severity("ERROR"), errs[0].Type)
	assert.Equal(t, "kernel must have void return type", errs[1].Message)
	assert.Equal(t, 13, errs[1].CharacterIndex)
}

func TestParse_OnlyFirstLineOfChunk(t *testing.T) {
	transcript := "3: 4: error: first\n5: 6: error: second"

	errs := Parse(transcript)

	require.Len(t, errs, 1)
	assert.Equal(t, "first", errs[0].Message)
}

func TestParse_MalformedLinesSkipped(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "1: 2: error"},
		{"too many fields", "1: 2: error: expected: ';'"},
		{"non-integer line", "a: 2: error: msg"},
		{"non-integer column", "1: b: error: msg"},
		{"plain text", "compilation failed"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcript := ChunkDelimiter + " 1: 1: warning: before\n" +
				ChunkDelimiter + " " + tt.line + "\n" +
				ChunkDelimiter + " 9: 9: error: after\n"

			errs := Parse(transcript)

			require.Len(t, errs, 2)
			assert.Equal(t, "before", errs[0].Message)
			assert.Equal(t, "after", errs[1].Message)
		})
	}
}

func TestParse_TolerantWhitespace(t *testing.T) {
	errs := Parse("  7 :3\t:  warning  :   unused variable 'a'   \r")

	require.Len(t, errs, 1)
	assert.Equal(t, 7, errs[0].LineNumber)
	assert.Equal(t, 3, errs[0].CharacterIndex)
	assert.Equal(t, SeverityWarning, errs[0].Type)
	assert.Equal(t, "unused variable 'a'", errs[0].Message)
	assert.True(t, errs[0].IsWarning())
}

func TestFormat_ParsesBack(t *testing.T) {
	in := []KernelError{
		Compile(2, 5, SeverityWarning, "unused variable 'x'"),
		Compile(-1, -1, SeverityError, "no entry point"),
		Runtime("out of memory"),
	}

	var transcript string
	for _, e := range in {
		transcript += Format(e)
	}
	out := Parse(transcript)

	require.Len(t, out, 3)
	assert.True(t, in[0].Equal(out[0]))
	assert.True(t, in[1].Equal(out[1]))
	assert.Equal(t, -1, out[2].LineNumber)
	assert.Equal(t, "out of memory", out[2].Message)
}
