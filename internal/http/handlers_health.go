package httpx

import (
	"net/http"

	"github.com/target/repo-gateway/internal/domain/apiversion"
)

type healthStatus struct {
	Status         string `json:"status"`
	CurrentVersion string `json:"current_version"`
}

// healthHandler reports liveness and the recommended api-version. It is never version-gated.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	WriteJSON(w, http.StatusOK, healthStatus{Status: "ok", CurrentVersion: apiversion.Current()})
}
