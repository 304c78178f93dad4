package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKernelError_Equal(t *testing.T) {
	base := Compile(1, 2, SeverityError, "boom")

	assert.True(t, base.Equal(Compile(1, 2, SeverityError, "boom")))
	assert.False(t, base.Equal(Compile(1, 3, SeverityError, "boom")))
	assert.False(t, base.Equal(Compile(1, 2, SeverityWarning, "boom")))
	assert.False(t, base.Equal(Runtime("boom")))
	assert.True(t, Runtime("x").Equal(Runtime("x")))
	assert.False(t, Runtime("x").Equal(Runtime("y")))
}

func TestKernelError_EqualNotes(t *testing.T) {
	withNote := Compile(1, 2, SeverityError, "boom")
	withNote.Note = &Note{LineNumber: 4, CharacterIndex: 1, Message: "declared here"}

	zeroNote := Compile(1, 2, SeverityError, "boom")
	zeroNote.Note = &Note{}

	plain := Compile(1, 2, SeverityError, "boom")

	assert.False(t, withNote.Equal(plain))
	assert.True(t, zeroNote.Equal(plain), "absent note must equal a zero note")

	same := Compile(1, 2, SeverityError, "boom")
	same.Note = &Note{LineNumber: 4, CharacterIndex: 1, Message: "declared here"}
	assert.True(t, withNote.Equal(same))
}

func TestEqualErrors(t *testing.T) {
	a := []KernelError{Compile(1, 1, SeverityError, "a"), Compile(2, 1, SeverityError, "b")}
	b := []KernelError{Compile(1, 1, SeverityError, "a"), Compile(2, 1, SeverityError, "b")}
	reversed := []KernelError{b[1], b[0]}

	assert.True(t, EqualErrors(a, b))
	assert.False(t, EqualErrors(a, reversed))
	assert.False(t, EqualErrors(a, a[:1]))
	assert.True(t, EqualErrors(nil, []KernelError{}))
}

func TestUnknownError(t *testing.T) {
	e := UnknownError()
	assert.Equal(t, -1, e.LineNumber)
	assert.Equal(t, -1, e.CharacterIndex)
	assert.Equal(t, SeverityError, e.Type)
	assert.False(t, e.HasLocation())
	assert.Equal(t, "-1:-1: error: Unknown error. Please check your code.", e.Error())
}

func TestResult(t *testing.T) {
	ok := Success(nil)
	assert.True(t, ok.Succeeded())
	assert.Empty(t, ok.Warnings())
	assert.Equal(t, "success", ok.String())

	errs := []KernelError{Compile(1, 1, SeverityError, "a")}
	failed := Failed(errs)
	assert.False(t, failed.Succeeded())
	assert.Len(t, failed.Diagnostics(), 1)

	errs[0].Message = "mutated"
	assert.Equal(t, "a", failed.Errors()[0].Message, "result must not alias the caller's slice")

	assert.True(t, failed.Equal(Failed([]KernelError{Compile(1, 1, SeverityError, "a")})))
	assert.False(t, failed.Equal(ok))
}
