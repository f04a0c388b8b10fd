package brace

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// ReadinessHandler returns an [http.Handler] reporting the readiness of all
// instances registered with reg: 200 OK while every breaker is closed or
// probing, 503 Service Unavailable once any is open. The body is always a
// JSON-encoded [ReadinessStatus], suitable for a Kubernetes readiness
// probe endpoint.
func ReadinessHandler(reg *Registry) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		status := reg.CheckReadiness()

		writer.Header().Set("Content-Type", "application/json")

		if status.Ready {
			writer.WriteHeader(http.StatusOK)
		} else {
			writer.WriteHeader(http.StatusServiceUnavailable)
		}

		//nolint:errcheck // best-effort JSON encoding to HTTP response
		_ = json.NewEncoder(writer).Encode(status)
	})
}
