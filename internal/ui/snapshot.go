package ui

import (
	"html/template"
	"sort"
)

// OverlayView is an open overlay as rendered, bottom of the stack first
type OverlayView struct {
	ID          string
	Kind        string
	Title       string
	Body        template.HTML
	CloseAction string
	Parent      string
}

// Snapshot is a point-in-time copy of a Document for rendering
type Snapshot struct {
	Location string
	Texts    map[string]Text
	Values   map[string]string
	Regions  map[string]template.HTML
	Overlays []OverlayView
	Focus    string
	Actions  []string
}

func (s Snapshot) Text(id string) Text {
	return s.Texts[id]
}

func (s Snapshot) Value(id string) string {
	return s.Values[id]
}

func (s Snapshot) Region(id string) template.HTML {
	return s.Regions[id]
}

// Snapshot copies the document's visible state
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := Snapshot{
		Location: d.location,
		Texts:    make(map[string]Text, len(d.texts)),
		Values:   make(map[string]string, len(d.values)),
		Regions:  make(map[string]template.HTML, len(d.regions)),
		Focus:    d.focus,
	}
	for k, v := range d.texts {
		snap.Texts[k] = v
	}
	for k, v := range d.values {
		snap.Values[k] = v
	}
	for k, v := range d.regions {
		snap.Regions[k] = v
	}
	for _, o := range d.overlays {
		view := OverlayView{
			ID:          o.id,
			Kind:        o.kind,
			Title:       o.title,
			Body:        o.body,
			CloseAction: o.CloseAction(),
		}
		if o.parent != nil {
			view.Parent = o.parent.id
		}
		snap.Overlays = append(snap.Overlays, view)
	}
	for id := range d.actions {
		snap.Actions = append(snap.Actions, id)
	}
	sort.Strings(snap.Actions)
	return snap
}
