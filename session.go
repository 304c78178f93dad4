package filterplay

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gogpu/filterplay/argument"
	"github.com/gogpu/filterplay/binding"
	"github.com/gogpu/filterplay/diag"
	"github.com/gogpu/filterplay/kernel"
)

// ErrClosed is returned by Session methods after Close.
var ErrClosed = errors.New("filterplay: session closed")

// ErrInputIndex is returned for an input image slot the kernel does not have.
var ErrInputIndex = errors.New("filterplay: input image index out of range")

// Snapshot is an immutable view of what the renderer should draw.
type Snapshot struct {
	// Kernel is the last successfully compiled kernel, or the uncompiled
	// kernel before the first success.
	Kernel     kernel.Kernel
	Arguments  argument.List
	Inputs     []image.Image
	Generation uint64
}

// Render applies the snapshot's kernel. It reports false when nothing is
// compiled yet or an input image is missing.
func (s *Snapshot) Render() (*kernel.Output, bool) {
	return s.Kernel.Apply(s.Inputs, s.Arguments.Values())
}

// Session serializes every edit of a kernel document on one writer
// goroutine and publishes immutable snapshots for rendering. Readers never
// block writers and always see a consistent kernel, argument list and input
// set.
type Session struct {
	pipeline *Pipeline
	bindings *binding.Context

	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
	done   chan struct{}

	snap atomic.Pointer[Snapshot]
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithBindings routes data-binding values into the session.
func WithBindings(c *binding.Context) SessionOption {
	return func(s *Session) { s.bindings = c }
}

// NewSession starts a session over p with the given arguments. The input
// image slots are sized to the kernel's required input images.
func NewSession(p *Pipeline, args argument.List, opts ...SessionOption) *Session {
	s := &Session{
		pipeline: p,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	k := p.Kernel()
	if k == nil {
		k = p.Template()
	}
	s.snap.Store(&Snapshot{
		Kernel:    k,
		Arguments: slices.Clone(args),
		Inputs:    make([]image.Image, p.Template().RequiredInputImages()),
	})

	go s.loop()

	for _, a := range args {
		if a.Binding != argument.BindingNone {
			s.observe(a)
		}
	}
	return s
}

func (s *Session) loop() {
	for {
		select {
		case <-s.wake:
		case <-s.done:
			return
		}
		for {
			s.mu.Lock()
			ops := s.queue
			s.queue = nil
			s.mu.Unlock()
			if len(ops) == 0 {
				break
			}
			for _, op := range ops {
				select {
				case <-s.done:
					return
				default:
				}
				op()
			}
		}
	}
}

// enqueue appends fn to the writer queue. Edits run in enqueue order.
func (s *Session) enqueue(fn func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Post runs fn on the writer goroutine without waiting for it. Posted
// edits run in the order they were posted, interleaved in order with the
// session's other edits.
func (s *Session) Post(fn func()) error {
	return s.enqueue(fn)
}

// do runs fn on the writer goroutine and waits for it.
func (s *Session) do(fn func() error) error {
	errc := make(chan error, 1)
	if err := s.enqueue(func() { errc <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-s.done:
		select {
		case err := <-errc:
			return err
		default:
			return ErrClosed
		}
	}
}

// publish swaps in a new snapshot. It must run on the writer goroutine.
func (s *Session) publish(edit func(next *Snapshot)) {
	prev := s.snap.Load()
	next := *prev
	edit(&next)
	next.Generation = prev.Generation + 1
	s.snap.Store(&next)
	Logger().Debug("filterplay: snapshot", "generation", next.Generation)
}

// Snapshot returns the current snapshot. It never blocks.
func (s *Session) Snapshot() *Snapshot { return s.snap.Load() }

// Render applies the current snapshot.
func (s *Session) Render() (*kernel.Output, bool) { return s.Snapshot().Render() }

// Pipeline returns the session's pipeline.
func (s *Session) Pipeline() *Pipeline { return s.pipeline }

// Compile compiles source on the writer goroutine. A success swaps in the
// new kernel; a failure keeps the last good one.
func (s *Session) Compile(source string) (diag.Result, error) {
	var r diag.Result
	err := s.do(func() error {
		r = s.pipeline.Compile(source)
		if r.Succeeded() {
			k := s.pipeline.Kernel()
			s.publish(func(next *Snapshot) { next.Kernel = k })
		}
		return nil
	})
	return r, err
}

func (s *Session) editArguments(fn func(argument.List) (argument.List, error)) error {
	return s.do(func() error {
		args, err := fn(s.snap.Load().Arguments)
		if err != nil {
			return err
		}
		s.publish(func(next *Snapshot) { next.Arguments = args })
		return nil
	})
}

// SetValue sets the value of the argument called name.
func (s *Session) SetValue(name string, v argument.Value) error {
	return s.editArguments(func(l argument.List) (argument.List, error) {
		return l.SetValue(name, v)
	})
}

// AddArgument appends a.
func (s *Session) AddArgument(a argument.Argument) error {
	err := s.editArguments(func(l argument.List) (argument.List, error) {
		return l.Add(a)
	})
	if err == nil && a.Binding != argument.BindingNone {
		s.observe(a)
	}
	return err
}

// RemoveArgument removes the custom argument called name.
func (s *Session) RemoveArgument(name string) error {
	err := s.editArguments(func(l argument.List) (argument.List, error) {
		return l.Remove(name)
	})
	if err == nil && s.bindings != nil {
		s.bindings.Remove(name)
	}
	return err
}

// Bind drives the argument called name from data binding b. BindingNone
// detaches it.
func (s *Session) Bind(name string, b argument.DataBinding) error {
	var bound argument.Argument
	err := s.editArguments(func(l argument.List) (argument.List, error) {
		out, err := l.SetBinding(name, b)
		if err == nil {
			bound, _ = out.Lookup(name)
		}
		return out, err
	})
	if err != nil {
		return err
	}
	if s.bindings != nil {
		s.bindings.Remove(name)
	}
	if b != argument.BindingNone {
		s.observe(bound)
	}
	return nil
}

func (s *Session) observe(a argument.Argument) {
	if s.bindings == nil {
		return
	}
	name := a.Name
	err := s.bindings.Add(name, binding.ObserverFunc{
		On: a.Binding,
		Fn: func(v argument.Value) {
			_ = s.Post(func() {
				args, err := s.snap.Load().Arguments.SetValue(name, v)
				if err != nil {
					return
				}
				s.publish(func(next *Snapshot) { next.Arguments = args })
			})
		},
	})
	if err != nil {
		Logger().Warn("filterplay: data binding", "argument", name, "err", err)
	}
}

// SetInputImage replaces input image slot i.
func (s *Session) SetInputImage(i int, img image.Image) error {
	return s.do(func() error {
		inputs := s.snap.Load().Inputs
		if i < 0 || i >= len(inputs) {
			return fmt.Errorf("%w: %d", ErrInputIndex, i)
		}
		inputs = slices.Clone(inputs)
		inputs[i] = img
		s.publish(func(next *Snapshot) { next.Inputs = inputs })
		return nil
	})
}

// Close stops the writer goroutine and detaches all data bindings.
// Snapshot keeps returning the last published snapshot.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	if s.bindings != nil {
		for _, a := range s.snap.Load().Arguments {
			s.bindings.Remove(a.Name)
		}
	}
	close(s.done)
	return nil
}
