package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ProjectStatus is the classified status of a project
type ProjectStatus int

const (
	StatusUnknown ProjectStatus = iota
	StatusCompleted
	StatusInProgress
	StatusNotStarted
)

// ClassifyStatus matches raw against "completed", "progress" and "not", in
// that order, case-insensitively. The first substring hit wins.
func ClassifyStatus(raw string) ProjectStatus {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "completed"):
		return StatusCompleted
	case strings.Contains(s, "progress"):
		return StatusInProgress
	case strings.Contains(s, "not"):
		return StatusNotStarted
	default:
		return StatusUnknown
	}
}

// PillClass is the CSS modifier for the status pill; empty for unknown
func (s ProjectStatus) PillClass() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusInProgress:
		return "inprogress"
	case StatusNotStarted:
		return "notstarted"
	default:
		return ""
	}
}

func (s ProjectStatus) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusInProgress:
		return "in-progress"
	case StatusNotStarted:
		return "not-started"
	default:
		return "unknown"
	}
}

// ProjectSummary is one entry of a user's project list
type ProjectSummary struct {
	ID          string          `json:"id"`
	ProjectName string          `json:"projectName"`
	Protocol    string          `json:"protocol"`
	CreatedAt   Timestamp       `json:"createdAt"`
	Status      string          `json:"status"`
	Inputs      json.RawMessage `json:"inputs,omitempty"`
}

// UnmarshalJSON accepts both snake_case and camelCase field names. Numeric
// ids are kept in their literal form.
func (p *ProjectSummary) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID               json.RawMessage `json:"id"`
		ProjectName      string          `json:"projectName"`
		ProjectNameSnake string          `json:"project_name"`
		Protocol         string          `json:"protocol"`
		CreatedAt        Timestamp       `json:"createdAt"`
		CreatedAtSnake   Timestamp       `json:"created_at"`
		Status           string          `json:"status"`
		Inputs           json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = ProjectSummary{
		ID:          scalarString(wire.ID),
		ProjectName: firstNonEmpty(wire.ProjectNameSnake, wire.ProjectName),
		Protocol:    wire.Protocol,
		CreatedAt:   firstTimestamp(wire.CreatedAtSnake, wire.CreatedAt),
		Status:      wire.Status,
		Inputs:      wire.Inputs,
	}
	return nil
}

// DisplayName falls back from the project name to the id, then "Untitled"
func (p ProjectSummary) DisplayName() string {
	return firstNonEmpty(p.ProjectName, p.ID, "Untitled")
}

// Classified returns the tagged status
func (p ProjectSummary) Classified() ProjectStatus {
	return ClassifyStatus(p.Status)
}

// Openable is true only for a status of exactly "completed", ignoring case
func (p ProjectSummary) Openable() bool {
	return strings.EqualFold(p.Status, "completed")
}

// HasInputs is true for an object with at least one key, a non-empty array,
// or a non-blank string
func (p ProjectSummary) HasInputs() bool {
	return InputsPresent(p.Inputs)
}

// InputsPresent reports whether a raw inputs value carries anything to show
func InputsPresent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	case string:
		return strings.TrimSpace(x) != ""
	default:
		return false
	}
}

// ProjectDetail is the single-project payload used by the inputs panel
type ProjectDetail struct {
	ID          string          `json:"id"`
	ProjectName string          `json:"projectName"`
	Inputs      json.RawMessage `json:"inputs,omitempty"`
}

// UnmarshalJSON accepts both snake_case and camelCase field names
func (p *ProjectDetail) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID               json.RawMessage `json:"id"`
		ProjectName      string          `json:"projectName"`
		ProjectNameSnake string          `json:"project_name"`
		Inputs           json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = ProjectDetail{
		ID:          scalarString(wire.ID),
		ProjectName: firstNonEmpty(wire.ProjectNameSnake, wire.ProjectName),
		Inputs:      wire.Inputs,
	}
	return nil
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
