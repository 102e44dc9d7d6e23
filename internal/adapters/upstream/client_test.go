package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/ports"
)

type defaults map[string]any

func (d defaults) PayloadDefaults() map[string]any { return d }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(context.Background(), ClientConfig{BaseURL: srv.URL + "/api/v3/", Credentials: Credentials{Token: "svc-token"}})
	require.NoError(t, err)
	return c
}

func TestClient_Create(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v3/orgs/acme/repos", r.URL.Path)
		assert.Equal(t, "Bearer svc-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"full_name":"acme/widgets"}`))
	})

	res, err := c.Create(context.Background(), ports.CreateInput{
		Organization:  repo.Organization{Name: "acme"},
		CustomContext: defaults{"private": true, "name": "ignored", "license_template": "mit"},
		Payload:       repo.Payload{"name": "widgets", "access_token": "leak"},
	})
	require.NoError(t, err)
	assert.Equal(t, repo.Result{"id": float64(7), "full_name": "acme/widgets"}, res)
	assert.Equal(t, map[string]any{"name": "widgets", "private": true, "license_template": "mit"}, got)
}

func TestClient_CreateEmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	res, err := c.Create(context.Background(), ports.CreateInput{Organization: repo.Organization{Name: "acme"}})
	require.NoError(t, err)
	assert.Equal(t, repo.Result{}, res)
}

func TestClient_CreateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    int
		message string
	}{
		{name: "upstream message", status: http.StatusUnprocessableEntity, body: `{"message":"name already exists"}`, want: 422, message: "name already exists"},
		{name: "plain body", status: http.StatusForbidden, body: `nope`, want: 403, message: "Forbidden"},
		{name: "not modified", status: http.StatusNotModified, want: 502, message: "upstream returned status 304"},
		{name: "undecodable success", status: http.StatusCreated, body: `[1,2`, want: 502, message: "decode upstream response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Create(context.Background(), ports.CreateInput{Organization: repo.Organization{Name: "acme"}})
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeDownstream, apperrors.GetCode(err))
			assert.Equal(t, tt.want, apperrors.HTTPStatus(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestClient_CreateRequiresOrganization(t *testing.T) {
	c := newTestClient(t, func(http.ResponseWriter, *http.Request) { t.Fatal("unexpected upstream call") })
	_, err := c.Create(context.Background(), ports.CreateInput{})
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(context.Background(), ClientConfig{BaseURL: url, Credentials: Credentials{Token: "t"}})
	require.NoError(t, err)
	_, err = c.Create(context.Background(), ports.CreateInput{Organization: repo.Organization{Name: "acme"}})
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
}

func TestClient_ListCollaborators(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v3/repos/acme/widgets/collaborators", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"login":"amy","permissions":{"push":true}},{"id":2,"login":"bob"}]`))
	})

	got, err := c.ListCollaborators(context.Background(), repo.Organization{Name: "acme"}, "widgets")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, repo.PermissionPush, repo.NewCollaborator(got[0]).Permission())
	assert.Nil(t, got[1].Permissions)

	_, err = c.ListCollaborators(context.Background(), repo.Organization{Name: "acme"}, " ")
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
}

func TestClient_ClientCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"minted","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /repos/acme/widgets/collaborators", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer minted", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), ClientConfig{
		BaseURL:     srv.URL,
		Credentials: Credentials{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL + "/token"},
	})
	require.NoError(t, err)
	got, err := c.ListCollaborators(context.Background(), repo.Organization{Name: "acme"}, "widgets")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewClient_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ClientConfig
		errMsg string
	}{
		{name: "missing base", config: ClientConfig{Credentials: Credentials{Token: "t"}}, errMsg: "base URL is required"},
		{name: "bad scheme", config: ClientConfig{BaseURL: "ftp://x", Credentials: Credentials{Token: "t"}}, errMsg: "must be http(s)"},
		{name: "no credentials", config: ClientConfig{BaseURL: "https://x"}, errMsg: "credentials are required"},
		{name: "no token url", config: ClientConfig{BaseURL: "https://x", Credentials: Credentials{ClientID: "id"}}, errMsg: "token URL is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
