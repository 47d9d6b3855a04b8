package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthCheck reports whether the session backend is reachable
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session"`
}

// Health answers liveness probes. A nil check always reports healthy.
func Health(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "healthy", Session: "up"}
		status := http.StatusOK
		if check != nil {
			if err := check(ctx); err != nil {
				resp = healthResponse{Status: "unhealthy", Session: "down"}
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
