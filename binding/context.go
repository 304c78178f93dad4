// Package binding drives kernel arguments from live data sources: elapsed
// time, touch positions and camera frames.
//
// A Context routes values from one Emitter per data binding to the observers
// registered for it. Emitters only run while somebody listens: the first
// observer of a binding activates its emitter and removing the last one
// deactivates it.
package binding

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/filterplay/argument"
)

// Observer receives the values of one data binding.
type Observer interface {
	Binding() argument.DataBinding
	ValueChanged(v argument.Value)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc struct {
	On argument.DataBinding
	Fn func(argument.Value)
}

func (o ObserverFunc) Binding() argument.DataBinding { return o.On }
func (o ObserverFunc) ValueChanged(v argument.Value) { o.Fn(v) }

// Emitter produces values for one data binding.
type Emitter interface {
	// Activate starts emitting through emit. Activating an active emitter
	// is a no-op.
	Activate(emit func(argument.Value))

	// Deactivate stops the emitter. Values may still arrive from an emit
	// already in flight.
	Deactivate()

	Active() bool
}

// ErrNoBinding is returned when an observer is registered for BindingNone.
var ErrNoBinding = errors.New("binding: observer has no data binding")

type entry struct {
	id  string
	obs Observer
}

// Context connects emitters and observers. The zero value is not usable;
// call NewContext.
type Context struct {
	mu        sync.Mutex
	emitters  map[argument.DataBinding]Emitter
	observers map[argument.DataBinding][]entry
}

// NewContext returns a context with no emitters registered.
func NewContext() *Context {
	return &Context{
		emitters:  make(map[argument.DataBinding]Emitter),
		observers: make(map[argument.DataBinding][]entry),
	}
}

// Register installs e as the emitter for b, replacing and deactivating any
// previous one. If b already has observers e is activated.
func (c *Context) Register(b argument.DataBinding, e Emitter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.emitters[b]; ok && old != e {
		old.Deactivate()
	}
	c.emitters[b] = e
	if len(c.observers[b]) > 0 {
		e.Activate(c.emitFunc(b))
	}
}

// Emitter returns the emitter registered for b.
func (c *Context) Emitter(b argument.DataBinding) (Emitter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.emitters[b]
	return e, ok
}

// Add registers o under id. An existing observer with the same id is
// replaced.
func (c *Context) Add(id string, o Observer) error {
	b := o.Binding()
	if b == argument.BindingNone {
		return fmt.Errorf("%w: %q", ErrNoBinding, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(id)
	c.observers[b] = append(c.observers[b], entry{id: id, obs: o})
	if len(c.observers[b]) == 1 {
		if e, ok := c.emitters[b]; ok {
			e.Activate(c.emitFunc(b))
		}
	}
	return nil
}

// Remove unregisters the observer with id. Unknown ids are ignored.
func (c *Context) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(id)
}

func (c *Context) remove(id string) {
	for b, list := range c.observers {
		for i, en := range list {
			if en.id != id {
				continue
			}
			list = append(list[:i:i], list[i+1:]...)
			if len(list) == 0 {
				delete(c.observers, b)
				if e, ok := c.emitters[b]; ok {
					e.Deactivate()
				}
			} else {
				c.observers[b] = list
			}
			return
		}
	}
}

// Observers returns the number of observers of b.
func (c *Context) Observers(b argument.DataBinding) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers[b])
}

// Emit delivers v to every observer of b. Observers are called without the
// context lock held and may add or remove observers.
func (c *Context) Emit(b argument.DataBinding, v argument.Value) {
	c.mu.Lock()
	list := c.observers[b]
	c.mu.Unlock()
	for _, en := range list {
		en.obs.ValueChanged(v)
	}
}

// Reset removes every observer and deactivates every emitter.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.observers)
	for _, e := range c.emitters {
		e.Deactivate()
	}
}

func (c *Context) emitFunc(b argument.DataBinding) func(argument.Value) {
	return func(v argument.Value) { c.Emit(b, v) }
}
