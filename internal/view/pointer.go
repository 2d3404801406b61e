package view

import "github.com/roman-kulish/spectroscrub/internal/spectrogram"

// PointerKind is the kind of a pointer or touch event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
	TouchStart
	TouchMove
	TouchEnd
)

// PointerEvent is a pointer or touch event at horizontal position X.
type PointerEvent struct {
	Kind PointerKind
	X    float64
}

// HandlePointer drives a drag session: a press starts it and seeks, every
// move while it is active seeks once, and a release or leave ends it.
func (v *SpectrogramView) HandlePointer(ev PointerEvent, rect spectrogram.Rect) {
	switch ev.Kind {
	case PointerDown, TouchStart:
		if !v.setDragging(true) {
			return
		}
		v.OnPointerInteraction(ev.X, rect)

	case PointerMove, TouchMove:
		if v.Dragging() {
			v.OnPointerInteraction(ev.X, rect)
		}

	case PointerUp, PointerLeave, TouchEnd:
		v.setDragging(false)
	}
}

// Dragging reports whether a drag session is active.
func (v *SpectrogramView) Dragging() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dragging
}

// setDragging updates the session flag; a session only starts once loaded.
func (v *SpectrogramView) setDragging(on bool) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if on && v.state != StateLoaded {
		return false
	}
	v.dragging = on
	return true
}
