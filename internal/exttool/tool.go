// Package exttool runs an external shader compiler process and turns its
// stderr into a diagnostic transcript.
package exttool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/gogpu/filterplay/diag"
)

// Placeholders substituted in the command line.
const (
	SourcePlaceholder = "{src}"
	OutputPlaceholder = "{out}"
)

// DefaultMetalCommand compiles a Metal kernel with the Xcode toolchain.
const DefaultMetalCommand = "xcrun -sdk macosx metal -include metal_stdlib -c {src} -o {out}"

// DefaultTimeout bounds a single compiler run.
const DefaultTimeout = 30 * time.Second

const waitDelay = time.Second

var (
	// ErrCompile is returned when the compiler exits with a non-zero status.
	ErrCompile = errors.New("exttool: compile failed")

	// ErrNoCommand is returned when no command line is configured.
	ErrNoCommand = errors.New("exttool: no compiler command configured")
)

// Tool describes an external compiler invocation.
type Tool struct {
	// Command is a shell-style command line. {src} is replaced by the path of
	// a temporary file holding the source; {out} by the path the compiler
	// should write its artifact to.
	Command string

	// Extension is the file extension of the temporary source file.
	Extension string

	// Timeout bounds one run; zero means DefaultTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// Run compiles source. On success it returns the artifact written to {out}
// (nil when the command has no {out}) and the warning transcript. On failure
// it returns ErrCompile and the error transcript; other errors mean the
// compiler could not be run at all or was stopped by the timeout or ctx.
func (t Tool) Run(ctx context.Context, source string) ([]byte, string, error) {
	logger := t.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	args, err := shellwords.Parse(t.Command)
	if err != nil {
		return nil, "", fmt.Errorf("exttool: parse command: %w", err)
	}
	if len(args) == 0 {
		return nil, "", ErrNoCommand
	}

	dir, err := os.MkdirTemp("", "filterplay-*")
	if err != nil {
		return nil, "", fmt.Errorf("exttool: temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	ext := strings.TrimPrefix(t.Extension, ".")
	if ext == "" {
		ext = "src"
	}
	srcPath := filepath.Join(dir, "kernel."+ext)
	outPath := filepath.Join(dir, "kernel.out")
	if err := os.WriteFile(srcPath, []byte(source), 0o600); err != nil {
		return nil, "", fmt.Errorf("exttool: write source: %w", err)
	}

	wantsOutput := false
	for i, a := range args {
		if strings.Contains(a, OutputPlaceholder) {
			wantsOutput = true
		}
		a = strings.ReplaceAll(a, SourcePlaceholder, srcPath)
		args[i] = strings.ReplaceAll(a, OutputPlaceholder, outPath)
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = &stderr
	cmd.Dir = dir
	// Children of a killed compiler driver can keep stderr open.
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	transcript := Normalize(stderr.String(), srcPath)
	logger.Debug("exttool: compiler finished",
		"command", args[0], "elapsed", time.Since(start), "err", runErr)

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, transcript, fmt.Errorf("exttool: run %s: %w", args[0], ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, transcript, fmt.Errorf("%w: exit status %d", ErrCompile, exitErr.ExitCode())
		}
		return nil, transcript, fmt.Errorf("exttool: run %s: %w", args[0], runErr)
	}

	if !wantsOutput {
		return nil, transcript, nil
	}
	artifact, err := os.ReadFile(outPath)
	if err != nil {
		return nil, transcript, fmt.Errorf("exttool: read artifact: %w", err)
	}
	return artifact, transcript, nil
}

// Normalize rewrites clang-style compiler output
// ("<file>:<line>:<col>: <type>: <message>") into transcript chunks by
// dropping the file prefix. Lines that are not diagnostics (source excerpts,
// carets, summaries) are kept as their own chunk so the parser skips them.
func Normalize(stderr, srcPath string) string {
	var b strings.Builder
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, srcPath+":"); ok {
			line = rest
		} else if base := filepath.Base(srcPath); strings.HasPrefix(line, base+":") {
			line = strings.TrimPrefix(line, base+":")
		}
		b.WriteString(diag.ChunkDelimiter)
		b.WriteString(" ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
