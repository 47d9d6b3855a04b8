package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ActivityWindow is the recency threshold for counting an engineer as active
const ActivityWindow = 7 * 24 * time.Hour

// ProjectCount is a lenient non-negative counter. Missing and non-numeric
// values count as zero; Present tracks whether the API sent anything usable.
type ProjectCount struct {
	Value   int
	Present bool
}

// UnmarshalJSON accepts numbers and numeric strings. Strings are read up to
// the first non-digit, so "12 projects" counts as 12.
func (c *ProjectCount) UnmarshalJSON(data []byte) error {
	*c = ProjectCount{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		*c = ProjectCount{Value: int(x), Present: true}
	case string:
		*c = ProjectCount{Value: leadingInt(x), Present: true}
	case bool:
		c.Present = true
	}
	if c.Value < 0 {
		c.Value = 0
	}
	return nil
}

// MarshalJSON writes the count as a number
func (c ProjectCount) MarshalJSON() ([]byte, error) {
	if !c.Present {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(c.Value)), nil
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || (end == 0 && (s[0] == '-' || s[0] == '+'))) {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// EngineerRecord is one roster entry as listed by the manager API
type EngineerRecord struct {
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	CreatedAt    Timestamp    `json:"createdAt"`
	LastLogin    Timestamp    `json:"lastLogin"`
	ProjectCount ProjectCount `json:"projectCount"`
}

// UnmarshalJSON accepts both snake_case and camelCase field names
func (r *EngineerRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		Email             string       `json:"email"`
		Role              string       `json:"role"`
		CreatedAt         Timestamp    `json:"createdAt"`
		CreatedAtSnake    Timestamp    `json:"created_at"`
		LastLogin         Timestamp    `json:"lastLogin"`
		LastLoginSnake    Timestamp    `json:"last_login"`
		ProjectCount      ProjectCount `json:"projectCount"`
		ProjectCountSnake ProjectCount `json:"project_count"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = EngineerRecord{
		Email:        wire.Email,
		Role:         wire.Role,
		CreatedAt:    firstTimestamp(wire.CreatedAtSnake, wire.CreatedAt),
		LastLogin:    firstTimestamp(wire.LastLoginSnake, wire.LastLogin),
		ProjectCount: wire.ProjectCountSnake,
	}
	if !r.ProjectCount.Present {
		r.ProjectCount = wire.ProjectCount
	}
	return nil
}

// ActiveAt reports whether the engineer logged in within ActivityWindow of now
func (r EngineerRecord) ActiveAt(now time.Time) bool {
	return r.LastLogin.Valid && now.Sub(r.LastLogin.At(now.Location())) < ActivityWindow
}

func firstTimestamp(candidates ...Timestamp) Timestamp {
	for _, ts := range candidates {
		if ts.Valid {
			return ts
		}
	}
	return Timestamp{}
}
