package store

import (
	"fmt"
	"sync"

	"github.com/AdguardTeam/golibs/errors"
)

// ErrModuleExists is returned when a module name is registered twice.
const ErrModuleExists errors.Error = "module already registered"

// Observer is notified after a mutation has been committed to a module.
type Observer func(module, mutation string, s State)

type observer struct {
	id uint64
	fn Observer
}

// Container is a registry of named state modules with change subscriptions.
type Container struct {
	mu        sync.RWMutex
	modules   map[string]*Module
	observers []observer
	nextID    uint64
}

// NewContainer returns an empty container.
func NewContainer() (c *Container) {
	return &Container{
		modules: map[string]*Module{},
	}
}

// RegisterModule registers m under name.
func (c *Container) RegisterModule(name string, m *Module) (err error) {
	switch {
	case name == "":
		return fmt.Errorf("module name: %w", errors.ErrEmptyValue)
	case m == nil:
		return fmt.Errorf("module %q: %w", name, errors.ErrNoValue)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.modules[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrModuleExists)
	}

	c.modules[name] = m

	return nil
}

// Module returns the module registered under name.
func (c *Container) Module(name string) (m *Module, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok = c.modules[name]

	return m, ok
}

// Subscribe registers fn and returns a function that removes it.
func (c *Container) Subscribe(fn Observer) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observer{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()

			for i, o := range c.observers {
				if o.id == id {
					c.observers = append(c.observers[:i:i], c.observers[i+1:]...)

					return
				}
			}
		})
	}
}

// Notify reports a committed mutation of the named module to all observers.
// It does nothing for unknown modules.
func (c *Container) Notify(module, mutation string) {
	c.mu.RLock()
	m, ok := c.modules[module]
	obs := make([]observer, len(c.observers))
	copy(obs, c.observers)
	c.mu.RUnlock()

	if !ok {
		return
	}

	s := m.Snapshot()
	for _, o := range obs {
		o.fn(module, mutation, s)
	}
}
