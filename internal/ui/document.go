// Package ui is the headless document the console's pages are driven through.
//
// A Document holds what a browser page would: text slots, form control
// values, replaceable regions with their action bindings, a stack of modal
// overlays, key listeners, focus, pending alerts and the current location.
// Handlers mutate it; views render its Snapshot.
package ui

import (
	"context"
	"errors"
	"html/template"
	"sort"
	"strings"
	"sync"
	"time"
)

var ErrUnknownAction = errors.New("unknown action")

// Action runs when a bound control is activated
type Action func(ctx context.Context) error

// KeyListener returns true when it consumed the key
type KeyListener func(key string) bool

// Tone colours a text slot
type Tone string

const (
	ToneNone    Tone = ""
	ToneError   Tone = "error"
	ToneSuccess Tone = "success"
)

// Text is the content of a text slot
type Text struct {
	Value string
	Tone  Tone
}

type binding struct {
	owner string
	fn    Action
}

type keyListener struct {
	id uint64
	fn KeyListener
}

// Document is safe for concurrent use. Actions and key listeners run without
// the document lock held, so they may freely call back into the document.
type Document struct {
	mu sync.Mutex

	tz        *time.Location
	texts     map[string]Text
	values    map[string]string
	regions   map[string]template.HTML
	actions   map[string]binding
	changes   map[string]Action
	overlays  []*Overlay
	listeners []keyListener
	nextKey   uint64
	focus     string
	alerts    []string
	location  string
	history   []string
	gen       uint64
	navs      uint64
}

// NewDocument creates an empty document rendering times in tz
func NewDocument(tz *time.Location) *Document {
	if tz == nil {
		tz = time.Local
	}
	d := &Document{tz: tz}
	d.resetLocked()
	return d
}

// TimeZone is the display zone for localized timestamps
func (d *Document) TimeZone() *time.Location {
	return d.tz
}

func (d *Document) resetLocked() {
	d.texts = make(map[string]Text)
	d.values = make(map[string]string)
	d.regions = make(map[string]template.HTML)
	d.actions = make(map[string]binding)
	d.changes = make(map[string]Action)
	d.overlays = nil
	d.listeners = nil
	d.focus = ""
	d.alerts = nil
}

// Reset is a page entry: every overlay is closed and all content, bindings
// and listeners are dropped. The location is kept.
func (d *Document) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.overlays) > 0 {
		d.closeLocked(d.overlays[0])
	}
	d.resetLocked()
	d.gen++
	d.navs++
}

// Generation counts page entries. Work started under one generation must not
// touch the document once it has moved on.
func (d *Document) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

func (d *Document) SetText(id, value string) {
	d.SetTextTone(id, value, ToneNone)
}

func (d *Document) SetTextTone(id, value string, tone Tone) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts[id] = Text{Value: value, Tone: tone}
}

func (d *Document) Text(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.texts[id].Value
}

// SetValue sets a form control's value without firing its change handler
func (d *Document) SetValue(id, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[id] = value
}

func (d *Document) Value(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[id]
}

// OnChange installs the change handler of a control, replacing any previous one
func (d *Document) OnChange(control string, fn Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changes[control] = fn
}

// Change sets a control's value and fires its change handler, if any
func (d *Document) Change(ctx context.Context, control, value string) error {
	d.mu.Lock()
	d.values[control] = value
	fn := d.changes[control]
	d.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// ReplaceRegion swaps a region's markup. Bindings the region owned before are
// dropped, then actions are bound in their place.
func (d *Document) ReplaceRegion(id string, html template.HTML, actions map[string]Action) {
	owner := "region:" + id

	d.mu.Lock()
	defer d.mu.Unlock()

	d.unbindLocked(owner)
	d.regions[id] = html
	for actionID, fn := range actions {
		d.actions[actionID] = binding{owner: owner, fn: fn}
	}
}

func (d *Document) Region(id string) template.HTML {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regions[id]
}

func (d *Document) unbindLocked(owner string) {
	for actionID, b := range d.actions {
		if b.owner == owner {
			delete(d.actions, actionID)
		}
	}
}

// Click activates a bound control
func (d *Document) Click(ctx context.Context, actionID string) error {
	d.mu.Lock()
	b, ok := d.actions[actionID]
	d.mu.Unlock()

	if !ok {
		return ErrUnknownAction
	}
	return b.fn(ctx)
}

// Actions lists the bound action ids with the given prefix, sorted
func (d *Document) Actions(prefix string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ids []string
	for id := range d.actions {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// AddKeyListener registers fn and returns its deregistration func
func (d *Document) AddKeyListener(fn KeyListener) (remove func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.addKeyListenerLocked(fn)
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.removeKeyListenerLocked(id)
	}
}

func (d *Document) addKeyListenerLocked(fn KeyListener) uint64 {
	d.nextKey++
	d.listeners = append(d.listeners, keyListener{id: d.nextKey, fn: fn})
	return d.nextKey
}

func (d *Document) removeKeyListenerLocked(id uint64) {
	for i, l := range d.listeners {
		if l.id == id {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}

// KeyListenerCount is the number of registered key listeners
func (d *Document) KeyListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// PressKey offers key to the listeners, most recently registered first,
// until one consumes it
func (d *Document) PressKey(key string) bool {
	d.mu.Lock()
	listeners := make([]keyListener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.Unlock()

	for i := len(listeners) - 1; i >= 0; i-- {
		if listeners[i].fn(key) {
			return true
		}
	}
	return false
}

func (d *Document) Focus(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.focus = id
}

func (d *Document) Focused() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focus
}

// Alert queues a blocking message for the user
func (d *Document) Alert(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerts = append(d.alerts, msg)
}

// TakeAlerts returns and clears the pending alerts
func (d *Document) TakeAlerts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	alerts := d.alerts
	d.alerts = nil
	return alerts
}

// Replace navigates without adding a history entry
func (d *Document) Replace(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n := len(d.history); n > 0 {
		d.history[n-1] = url
	} else {
		d.history = append(d.history, url)
	}
	d.location = url
	d.navs++
}

// Assign navigates and pushes a history entry
func (d *Document) Assign(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.history = append(d.history, url)
	d.location = url
	d.navs++
}

// Navigations counts navigations and page entries
func (d *Document) Navigations() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.navs
}

// Current is the current location
func (d *Document) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

// History returns the navigation history, oldest first
func (d *Document) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.history...)
}
