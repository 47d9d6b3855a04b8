package dashboard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apollotyres/console/internal/models"
)

func TestComputeMetrics(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	var records []models.EngineerRecord
	require.NoError(t, json.Unmarshal([]byte(`[
		{"email":"a@x.com","project_count":3,"last_login":"2026-10-08T12:00:00Z"},
		{"email":"b@x.com","project_count":"2","last_login":"2026-10-06T12:00:00Z"},
		{"email":"c@x.com","project_count":"many"},
		{"email":"d@x.com","projectCount":1,"lastLogin":"2026-10-07T12:00:00Z"},
		{"email":"e@x.com"}
	]`), &records))

	m := ComputeMetrics(records, now)

	assert.Equal(t, Metrics{TotalEngineers: 5, TotalProjects: 6, ActiveEngineers: 1}, m)
}

func TestComputeMetrics_Empty(t *testing.T) {
	assert.Equal(t, Metrics{}, ComputeMetrics(nil, time.Now()))
}
