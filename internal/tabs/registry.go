// Package tabs keeps the live document of every browser client.
//
// A tab is created the first time a client id is seen. When a tab is evicted
// for idleness its session survives in the session backend, so the next
// request rebuilds the tab exactly as a browser reload would.
package tabs

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/apollotyres/console/internal/dashboard"
	"github.com/apollotyres/console/internal/metrics"
	"github.com/apollotyres/console/internal/session"
	"github.com/apollotyres/console/internal/ui"
	"github.com/apollotyres/console/pkg/logger"
)

// Tab is one browser client
type Tab struct {
	ID        string
	Doc       *ui.Document
	Store     *session.Store
	Dashboard *dashboard.Dashboard

	lastSeen atomic.Int64
}

func (t *Tab) touch(now time.Time) {
	t.lastSeen.Store(now.UnixNano())
}

// LastSeen is when the client last sent a request
func (t *Tab) LastSeen() time.Time {
	return time.Unix(0, t.lastSeen.Load())
}

// Registry maps client ids to tabs
type Registry struct {
	backend session.Backend
	api     dashboard.API
	tz      *time.Location
	logger  *slog.Logger
	audit   *logger.AuditLogger
	now     func() time.Time

	mu   sync.Mutex
	tabs map[string]*Tab
}

// NewRegistry creates an empty registry. Tabs render times in tz.
func NewRegistry(backend session.Backend, api dashboard.API, tz *time.Location, log *slog.Logger, audit *logger.AuditLogger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		backend: backend,
		api:     api,
		tz:      tz,
		logger:  log,
		audit:   audit,
		now:     time.Now,
		tabs:    make(map[string]*Tab),
	}
}

// Acquire returns the tab of clientID, creating it when needed. An empty or
// malformed id gets a fresh one; callers hand the returned tab's ID back to
// the client.
func (r *Registry) Acquire(clientID string) (tab *Tab, created bool) {
	if _, err := uuid.Parse(clientID); err != nil {
		clientID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tab, ok := r.tabs[clientID]
	if !ok {
		tab = r.newTab(clientID)
		r.tabs[clientID] = tab
		metrics.ActiveTabs.Set(float64(len(r.tabs)))
		r.logger.Debug("tab created", slog.String("client_id", clientID))
	}
	tab.touch(r.now())
	return tab, !ok
}

func (r *Registry) newTab(id string) *Tab {
	doc := ui.NewDocument(r.tz)
	store := session.NewStore(r.backend, id)
	return &Tab{
		ID:        id,
		Doc:       doc,
		Store:     store,
		Dashboard: dashboard.New(doc, store, r.api, r.logger, r.audit),
	}
}

// Len is the number of live tabs
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// Sweep evicts tabs idle for longer than ttl and reports how many went.
// Evicted tabs have their overlays closed and listeners dropped.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var evicted []*Tab
	for id, tab := range r.tabs {
		if tab.LastSeen().Before(cutoff) {
			evicted = append(evicted, tab)
			delete(r.tabs, id)
		}
	}
	metrics.ActiveTabs.Set(float64(len(r.tabs)))
	r.mu.Unlock()

	for _, tab := range evicted {
		tab.Doc.Reset()
	}
	return len(evicted)
}
