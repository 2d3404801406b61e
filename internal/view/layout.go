package view

import "sync"

// Layout is the container the spectrogram is drawn into.
type Layout interface {
	// Width returns the current container width in pixels.
	Width() int
	// OnWidthChanged registers fn for width changes and returns a func that
	// removes the registration.
	OnWidthChanged(fn func(width int)) (cancel func())
}

// Container is an in-process Layout whose width is set by its owner.
type Container struct {
	mu        sync.Mutex
	width     int
	nextID    int
	listeners map[int]func(int)
}

// NewContainer returns a container of the given width.
func NewContainer(width int) *Container {
	return &Container{width: width, listeners: make(map[int]func(int))}
}

func (c *Container) Width() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

// SetWidth changes the width and notifies listeners if it differs.
func (c *Container) SetWidth(width int) {
	c.mu.Lock()
	if width == c.width {
		c.mu.Unlock()
		return
	}
	c.width = width
	fns := make([]func(int), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(width)
	}
}

func (c *Container) OnWidthChanged(fn func(int)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Listeners returns the number of registered width listeners.
func (c *Container) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}
