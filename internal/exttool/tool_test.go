package exttool

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/filterplay/diag"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("Skipping: no POSIX shell available")
	}
}

func TestNormalize(t *testing.T) {
	stderr := "/tmp/x/kernel.metal:10:19: warning: unused variable 'a'\n" +
		"    float a;\n" +
		"          ^\n" +
		"1 warning generated.\n"

	errs := diag.Parse(Normalize(stderr, "/tmp/x/kernel.metal"))

	require.Len(t, errs, 1)
	assert.True(t, diag.Compile(10, 19, "warning", "unused variable 'a'").Equal(errs[0]), "got %v", errs[0])
}

func TestRun_Failure(t *testing.T) {
	requireShell(t)
	tool := Tool{
		Command:   `sh -c 'echo "{src}:1:8: error: unknown type name" 1>&2; exit 1'`,
		Extension: "metal",
	}

	_, transcript, err := tool.Run(context.Background(), "kernel vec2 untitled() {}")

	require.ErrorIs(t, err, ErrCompile)
	errs := diag.Parse(transcript)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].LineNumber)
	assert.Equal(t, 8, errs[0].CharacterIndex)
}

func TestRun_SuccessWithArtifact(t *testing.T) {
	requireShell(t)
	tool := Tool{Command: `sh -c 'cp {src} {out}'`, Extension: ".metal"}

	artifact, transcript, err := tool.Run(context.Background(), "kernel void k() {}")

	require.NoError(t, err)
	assert.Equal(t, "kernel void k() {}", string(artifact))
	assert.Empty(t, diag.Parse(transcript))
}

func TestRun_NoCommand(t *testing.T) {
	_, _, err := Tool{}.Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestRun_MissingBinary(t *testing.T) {
	_, _, err := Tool{Command: "definitely-not-a-real-compiler-binary {src}"}.Run(context.Background(), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCompile)
}

func TestRun_TimeoutIsNotACompileFailure(t *testing.T) {
	requireShell(t)
	tool := Tool{Command: `sh -c 'sleep 5'`, Timeout: 100 * time.Millisecond}

	start := time.Now()
	_, _, err := tool.Run(context.Background(), "kernel void k() {}")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrCompile)
	assert.Less(t, time.Since(start), 4*time.Second)
}
