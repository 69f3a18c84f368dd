package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck is one named readiness check. Check returns nil when the
// subsystem is ready.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// HealthHandler serves liveness: always 200 {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeHealth(rw, http.StatusOK, healthResponse{Status: healthStatusOK})
	})
}

// ReadyHandler runs every check. Any failure answers 503 with the names of
// the failed checks; otherwise 200.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		var failed []string

		for _, check := range checks {
			if err := check.Check(hr.Context()); err != nil {
				failed = append(failed, check.Name)
			}
		}

		if len(failed) > 0 {
			writeHealth(rw, http.StatusServiceUnavailable, healthResponse{Status: healthStatusUnavailable, Failed: failed})

			return
		}

		writeHealth(rw, http.StatusOK, healthResponse{Status: healthStatusOK})
	})
}

func writeHealth(rw http.ResponseWriter, code int, body healthResponse) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	// The status line is already out; a failed body write has no recovery.
	_ = json.NewEncoder(rw).Encode(body)
}
