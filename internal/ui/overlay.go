package ui

import (
	"context"
	"errors"
	"html/template"

	"github.com/apollotyres/console/internal/metrics"
	"github.com/google/uuid"
)

var ErrOverlayClosed = errors.New("overlay closed")

type overlayState int

const (
	overlayPending overlayState = iota
	overlayOpen
	overlayClosed
)

// Overlay is a modal dialog owned by a Document.
//
// Build it with NewOverlay, bind its controls, then Open it. Close releases
// everything it holds: its place on the stack, its bindings, its escape
// listener and any overlay nested inside it. Close is idempotent.
type Overlay struct {
	doc    *Document
	id     string
	kind   string
	title  string
	parent *Overlay

	// guarded by doc.mu
	state    overlayState
	body     template.HTML
	keyID    uint64
	returnTo string
}

// NewOverlay prepares an overlay of the given kind, nested in parent when
// parent is not nil. Nothing is shown until Open.
func (d *Document) NewOverlay(kind, title string, parent *Overlay) *Overlay {
	return &Overlay{
		doc:    d,
		id:     kind + "-" + uuid.NewString(),
		kind:   kind,
		title:  title,
		parent: parent,
	}
}

func (o *Overlay) ID() string    { return o.id }
func (o *Overlay) Kind() string  { return o.kind }
func (o *Overlay) Title() string { return o.title }

// CloseAction is the action id of the overlay's close control
func (o *Overlay) CloseAction() string {
	return o.id + ":close"
}

// Bind registers a control inside the overlay and returns its action id.
// Bindings on a closed overlay are dropped.
func (o *Overlay) Bind(name string, fn Action) string {
	actionID := o.id + ":" + name

	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()

	if o.state != overlayClosed {
		o.doc.actions[actionID] = binding{owner: o.id, fn: fn}
	}
	return actionID
}

// Open shows the overlay with body as its content. An open overlay of the
// same kind is closed first. Opening fails with ErrOverlayClosed when the
// overlay or its parent has already been closed.
func (o *Overlay) Open(body template.HTML) error {
	d := o.doc

	d.mu.Lock()
	defer d.mu.Unlock()

	if o.state == overlayClosed {
		return ErrOverlayClosed
	}
	if o.parent != nil && o.parent.state != overlayOpen {
		d.closeLocked(o)
		return ErrOverlayClosed
	}
	if o.state == overlayOpen {
		o.body = body
		return nil
	}

	for _, other := range append([]*Overlay(nil), d.overlays...) {
		if other.kind == o.kind && other != o {
			d.closeLocked(other)
		}
	}

	o.state = overlayOpen
	o.body = body
	o.returnTo = d.focus
	d.overlays = append(d.overlays, o)
	d.actions[o.CloseAction()] = binding{owner: o.id, fn: closeAction(o)}
	o.keyID = d.addKeyListenerLocked(func(key string) bool {
		if key != "Escape" && key != "Esc" {
			return false
		}
		o.Close()
		return true
	})
	d.focus = o.CloseAction()

	metrics.OverlaysOpenedTotal.WithLabelValues(o.kind).Inc()
	return nil
}

// Close removes the overlay and everything nested in it
func (o *Overlay) Close() {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	o.doc.closeLocked(o)
}

// IsOpen reports whether the overlay is on screen
func (o *Overlay) IsOpen() bool {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	return o.state == overlayOpen
}

// Closed reports whether the overlay has been dismissed
func (o *Overlay) Closed() bool {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	return o.state == overlayClosed
}

func (d *Document) closeLocked(o *Overlay) {
	if o.state == overlayClosed {
		return
	}
	wasOpen := o.state == overlayOpen
	o.state = overlayClosed

	for _, child := range append([]*Overlay(nil), d.overlays...) {
		if child.parent == o {
			d.closeLocked(child)
		}
	}

	d.unbindLocked(o.id)
	if !wasOpen {
		return
	}

	d.removeKeyListenerLocked(o.keyID)
	for i, open := range d.overlays {
		if open == o {
			d.overlays = append(d.overlays[:i], d.overlays[i+1:]...)
			break
		}
	}
	if d.focus == o.CloseAction() {
		d.focus = o.returnTo
	}
}

func closeAction(o *Overlay) Action {
	return func(context.Context) error {
		o.Close()
		return nil
	}
}

// OpenOverlay returns the open overlay of kind, or nil
func (d *Document) OpenOverlay(kind string) *Overlay {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, o := range d.overlays {
		if o.kind == kind {
			return o
		}
	}
	return nil
}

// OverlayCount is the number of open overlays
func (d *Document) OverlayCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.overlays)
}

// ClickBackdrop dismisses the overlay whose background was clicked. It
// reports false when no such overlay is open.
func (d *Document) ClickBackdrop(overlayID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, o := range d.overlays {
		if o.id == overlayID {
			d.closeLocked(o)
			return true
		}
	}
	return false
}
