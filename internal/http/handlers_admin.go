package httpx

import (
	"net/http"

	"github.com/target/repo-gateway/internal/domain/repo"
	"github.com/target/repo-gateway/internal/ports"
)

// AdminHandlers serves administrative routes.
type AdminHandlers struct {
	Directory ports.OrganizationDirectory
}

// ListOrganizations returns every organization known to the directory.
func (h *AdminHandlers) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Directory.List(r.Context())
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	if orgs == nil {
		orgs = []repo.Organization{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}
