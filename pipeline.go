package filterplay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/filterplay/diag"
	"github.com/gogpu/filterplay/kernel"
)

// State is the compile state of a Pipeline.
type State uint8

// Pipeline states.
const (
	StateIdle State = iota
	StateCompiling
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCompiling:
		return "compiling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// CompileObserver is notified after every compile attempt.
type CompileObserver interface {
	ObserveCompile(t kernel.Type, elapsed time.Duration, r diag.Result)
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	onResult func(diag.Result)
	observer CompileObserver
	logger   *slog.Logger
}

// WithResultHandler sets a callback invoked with each result whose
// diagnostics differ from the previous result's. It runs on the compiling
// goroutine.
func WithResultHandler(fn func(diag.Result)) PipelineOption {
	return func(o *pipelineOptions) { o.onResult = fn }
}

// WithObserver attaches a compile observer, typically metrics.
func WithObserver(obs CompileObserver) PipelineOption {
	return func(o *pipelineOptions) { o.observer = obs }
}

// WithPipelineLogger overrides the package logger for one pipeline.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(o *pipelineOptions) { o.logger = l }
}

// Pipeline turns kernel source into a compiled kernel or diagnostics.
// It holds exactly one result; every Compile supersedes the previous one.
// Pipeline is safe for concurrent use; compiles are serialized.
type Pipeline struct {
	opts pipelineOptions

	// compiling serializes Compile; mu guards the fields below it and is
	// not held while the toolchain runs.
	compiling sync.Mutex

	mu       sync.Mutex
	template kernel.Kernel
	compiled kernel.Kernel
	state    State
	result   diag.Result
	reported bool
}

// NewPipeline returns an idle pipeline compiling kernels like k.
func NewPipeline(k kernel.Kernel, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{template: k}
	for _, opt := range opts {
		opt(&p.opts)
	}
	return p
}

func (p *Pipeline) logger() *slog.Logger {
	if p.opts.logger != nil {
		return p.opts.logger
	}
	return Logger()
}

// Compile compiles source and returns the new result. It never panics on
// toolchain failure: problems that are not diagnostics are logged and
// reported as diag.UnknownError.
func (p *Pipeline) Compile(source string) diag.Result {
	p.compiling.Lock()
	defer p.compiling.Unlock()

	p.mu.Lock()
	p.state = StateCompiling
	p.mu.Unlock()

	start := time.Now()
	next, result := p.compile(source)
	elapsed := time.Since(start)

	p.mu.Lock()
	if result.Succeeded() {
		p.state = StateSucceeded
		p.compiled = next
	} else {
		p.state = StateFailed
	}
	changed := !p.reported || !diag.EqualErrors(p.result.Diagnostics(), result.Diagnostics())
	p.result = result
	p.reported = true
	p.mu.Unlock()

	log := p.logger()
	log.Info("filterplay: compiled",
		"type", p.template.Type(),
		"result", result,
		"diagnostics", len(result.Diagnostics()),
		"elapsed", elapsed)

	if p.opts.observer != nil {
		p.opts.observer.ObserveCompile(p.template.Type(), elapsed, result)
	}
	if changed && p.opts.onResult != nil {
		p.opts.onResult(result)
	}
	return result
}

func (p *Pipeline) compile(source string) (k kernel.Kernel, r diag.Result) {
	defer func() {
		if v := recover(); v != nil {
			p.logger().Warn("filterplay: toolchain panic", "panic", v)
			k, r = nil, diag.Failed([]diag.KernelError{diag.UnknownError()})
		}
	}()

	next, transcript, err := p.template.Compile(source)
	if err == nil {
		return next, diag.Success(diag.Parse(string(transcript)))
	}

	if !errors.Is(err, kernel.ErrCompile) {
		p.logger().Warn("filterplay: toolchain failure", "err", err)
		return nil, diag.Failed([]diag.KernelError{diag.UnknownError()})
	}
	errs := diag.Parse(string(transcript))
	if len(errs) == 0 {
		errs = []diag.KernelError{diag.UnknownError()}
	}
	return nil, diag.Failed(errs)
}

// State returns the current state. It is StateCompiling while a Compile
// call is running the toolchain.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Result returns the latest result and whether any compile has run.
func (p *Pipeline) Result() (diag.Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result, p.reported
}

// Kernel returns the last successfully compiled kernel, or nil.
// A failed compile does not clear it.
func (p *Pipeline) Kernel() kernel.Kernel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.compiled
}

// Template returns the uncompiled kernel the pipeline compiles with.
func (p *Pipeline) Template() kernel.Kernel { return p.template }
