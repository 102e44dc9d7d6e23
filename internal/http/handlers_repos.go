// Package httpx provides the HTTP middleware, handlers and router of the repository gateway.
package httpx

import (
	"context"
	"net/http"

	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/ports"
	"github.com/target/repo-gateway/internal/service"
)

// RepoCreator runs the repository creation workflow.
type RepoCreator interface {
	Create(ctx context.Context, req service.CreateRequest) (repo.Result, error)
}

// RepoHandlers serves repository routes.
type RepoHandlers struct {
	Svc           RepoCreator
	Collaborators ports.CollaboratorLister // Optional
}

// Create returns a handler that creates a repository in the resolved organization,
// tagging the call with entrypoint.
func (h *RepoHandlers) Create(entrypoint repo.Entrypoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org, ok := OrganizationFromContext(r.Context())
		if !ok {
			WriteAppError(w, r, apperrors.Internal("organization was not resolved"))
			return
		}
		body, err := DecodeJSONObject(r)
		if err != nil {
			WriteAppError(w, r, err)
			return
		}

		result, err := h.Svc.Create(r.Context(), service.CreateRequest{
			Request:       r,
			Organization:  org,
			Headers:       headerSnapshot(r.Header),
			Body:          body,
			Entrypoint:    entrypoint,
			CorrelationID: CorrelationIDFromContext(r.Context()),
		})
		if err != nil {
			WriteAppError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusCreated, result)
	}
}

// CollaboratorView is the JSON projection of a collaborator.
type CollaboratorView struct {
	ID         int64           `json:"id"`
	Login      string          `json:"login"`
	AvatarURL  string          `json:"avatar_url,omitempty"`
	Permission repo.Permission `json:"permission"`
}

// ListCollaborators lists a repository's collaborators ordered by login.
func (h *RepoHandlers) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	if h.Collaborators == nil {
		WriteAppError(w, r, apperrors.NotFound("collaborator listing is not configured"))
		return
	}
	org, ok := OrganizationFromContext(r.Context())
	if !ok {
		WriteAppError(w, r, apperrors.Internal("organization was not resolved"))
		return
	}

	raw, err := h.Collaborators.ListCollaborators(r.Context(), org, r.PathValue("repo"))
	if err != nil {
		WriteAppError(w, r, err)
		return
	}
	cs := make([]repo.Collaborator, 0, len(raw))
	for _, rc := range raw {
		cs = append(cs, repo.NewCollaborator(rc))
	}
	repo.SortCollaborators(cs)

	out := make([]CollaboratorView, 0, len(cs))
	for _, c := range cs {
		out = append(out, CollaboratorView{
			ID:         c.ID(),
			Login:      c.Login(),
			AvatarURL:  c.AvatarURL(),
			Permission: c.Permission(),
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"collaborators": out})
}
