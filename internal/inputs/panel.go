// Package inputs shows a project's structured input values in a panel
// nested over the project list.
package inputs

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"sync/atomic"

	"github.com/apollotyres/console/internal/metrics"
	"github.com/apollotyres/console/internal/ui"
	"github.com/apollotyres/console/internal/upstream"
)

// OverlayKind identifies inputs panels on the overlay stack
const OverlayKind = "inputs"

// User-facing panel messages
const (
	MsgLoadFailed = "Failed to load inputs: "
	MsgNotFound   = "Project not found"
	MsgEmpty      = "No inputs available for this project."
)

var panelTmpl = template.Must(template.New("inputs").Parse(`<div class="inputs-grid">
{{- range .}}
<div class="inputs-row"><div class="inputs-label">{{.Label}}</div><div class="inputs-value">{{.Value}}</div></div>
{{- else}}
<div class="inputs-empty">No inputs available for this project.</div>
{{- end}}
</div>`))

// ProjectAPI fetches a single project
type ProjectAPI interface {
	Project(ctx context.Context, id string) (*upstream.ProjectResponse, error)
}

// Panel opens inputs panels in one document
type Panel struct {
	doc    *ui.Document
	api    ProjectAPI
	logger *slog.Logger

	seq atomic.Uint64
}

func NewPanel(doc *ui.Document, api ProjectAPI, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{doc: doc, api: api, logger: logger}
}

// Show fetches project id and opens its inputs over parent. A failed fetch
// alerts and opens nothing. A response superseded by a later Show, or
// arriving after parent was closed or the page was re-entered, is dropped.
func (p *Panel) Show(ctx context.Context, parent *ui.Overlay, id string) (*ui.Overlay, error) {
	seq := p.seq.Add(1)
	gen := p.doc.Generation()

	resp, err := p.api.Project(ctx, id)

	if p.seq.Load() != seq || p.doc.Generation() != gen {
		metrics.StaleResponsesTotal.WithLabelValues(OverlayKind).Inc()
		return nil, nil
	}

	var msg string
	switch {
	case err != nil:
		msg = MsgNotFound
		if se, ok := upstream.AsStatusError(err); ok && se.Message != "" {
			msg = se.Message
		}
		p.logger.Warn("failed to load project inputs",
			slog.String("project_id", id),
			slog.Any("error", err))
	case !resp.Success || resp.Project == nil:
		msg = resp.Message
		if msg == "" {
			msg = MsgNotFound
		}
	}

	if parent != nil && parent.Closed() {
		metrics.StaleResponsesTotal.WithLabelValues(OverlayKind).Inc()
		return nil, nil
	}
	if msg != "" {
		p.doc.Alert(MsgLoadFailed + msg)
		return nil, nil
	}

	name := resp.Project.ProjectName
	if name == "" {
		name = id
	}

	var buf bytes.Buffer
	if err := panelTmpl.Execute(&buf, Parse(resp.Project.Inputs)); err != nil {
		return nil, err
	}

	overlay := p.doc.NewOverlay(OverlayKind, "Inputs · "+name, parent)
	if err := overlay.Open(template.HTML(buf.String())); err != nil {
		// parent closed between the check and the open
		metrics.StaleResponsesTotal.WithLabelValues(OverlayKind).Inc()
		return nil, nil
	}
	return overlay, nil
}
