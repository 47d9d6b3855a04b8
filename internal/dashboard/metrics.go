package dashboard

import (
	"time"

	"github.com/apollotyres/console/internal/models"
)

// Metrics are the KPI tiles over the roster
type Metrics struct {
	TotalEngineers  int
	TotalProjects   int
	ActiveEngineers int
}

// ComputeMetrics summarizes records as of now. A missing or non-numeric
// project count adds nothing to the total.
func ComputeMetrics(records []models.EngineerRecord, now time.Time) Metrics {
	m := Metrics{TotalEngineers: len(records)}
	for _, r := range records {
		if r.ProjectCount.Present {
			m.TotalProjects += r.ProjectCount.Value
		}
		if r.ActiveAt(now) {
			m.ActiveEngineers++
		}
	}
	return m
}
