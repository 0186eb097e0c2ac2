package api

import (
	"context"
	"net/http"

	"github.com/stacklok/toolhive-bundle-sync/internal/api/common"
	"github.com/stacklok/toolhive-bundle-sync/internal/versions"
)

// statusResponse is the body of the liveness and readiness probes
type statusResponse struct {
	Status string `json:"status"`
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, statusResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports ready once check passes; a nil check is always ready
func readinessHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				common.WriteErrorResponse(w, "Service not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		common.WriteJSONResponse(w, statusResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
