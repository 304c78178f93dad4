package binding

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/filterplay/argument"
)

// DefaultFrameInterval is the tick interval of a TimeEmitter.
const DefaultFrameInterval = time.Second / 60

// TimeEmitter emits the seconds elapsed since activation as a float.
type TimeEmitter struct {
	// Interval between values; zero means DefaultFrameInterval.
	Interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func (e *TimeEmitter) Activate(emit func(argument.Value)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		return
	}
	interval := e.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	stop := make(chan struct{})
	e.stop = stop

	go func() {
		start := time.Now()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				emit(argument.FloatValue(float32(now.Sub(start).Seconds())))
			}
		}
	}()
}

func (e *TimeEmitter) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

func (e *TimeEmitter) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stop != nil
}

// TouchEmitter forwards touch positions as vec2 values.
type TouchEmitter struct {
	mu   sync.Mutex
	emit func(argument.Value)
}

func (e *TouchEmitter) Activate(emit func(argument.Value)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emit = emit
}

func (e *TouchEmitter) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emit = nil
}

func (e *TouchEmitter) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.emit != nil
}

// Touch emits the position (x, y). It is dropped while inactive.
func (e *TouchEmitter) Touch(x, y float32) {
	e.mu.Lock()
	emit := e.emit
	e.mu.Unlock()
	if emit != nil {
		emit(argument.Vec2Value(x, y))
	}
}

// FrameSource supplies camera frames. Next blocks until a frame is available
// or ctx is done.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, error)
}

// CameraEmitter emits the frames of a FrameSource as sample values.
type CameraEmitter struct {
	Source FrameSource
	Logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (e *CameraEmitter) Activate(emit func(argument.Value)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil || e.Source == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	go func() {
		for {
			frame, err := e.Source.Next(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				if e.Logger != nil {
					e.Logger.Warn("binding: camera frame", "err", err)
				}
				e.Deactivate()
				return
			}
			emit(argument.SampleValue(frame))
		}
	}()
}

func (e *CameraEmitter) Deactivate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *CameraEmitter) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

// Defaults returns a context with time, touch and camera emitters. camera
// may be nil when no frame source exists.
func Defaults(interval time.Duration, camera FrameSource) (*Context, *TouchEmitter) {
	c := NewContext()
	touch := &TouchEmitter{}
	c.Register(argument.BindingTime, &TimeEmitter{Interval: interval})
	c.Register(argument.BindingTouch, touch)
	if camera != nil {
		c.Register(argument.BindingCamera, &CameraEmitter{Source: camera})
	}
	return c, touch
}
