package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergePayload_BodyWins(t *testing.T) {
	p := MergePayload(
		map[string]string{"name": "from-header", "x-team": "core"},
		map[string]any{"name": "from-body", "private": true},
	)
	assert.Equal(t, "from-body", p["name"])
	assert.Equal(t, "core", p["x-team"])
	assert.Equal(t, true, p["private"])
}

func TestPayload_Sanitize(t *testing.T) {
	p := MergePayload(
		map[string]string{"Authorization": "Bearer x"},
		map[string]any{"access_token": "t", "name": "repo"},
	).Sanitize()

	assert.NotContains(t, p, "Authorization")
	assert.NotContains(t, p, "access_token")
	assert.Equal(t, "repo", p["name"])
}

func TestPayload_SanitizeDropsCredentialHeaders(t *testing.T) {
	p := MergePayload(map[string]string{
		"x-api-key":                 "key-123",
		"Ocp-Apim-Subscription-Key": "sub-456",
		"x-devops-token":            "pat-789",
		"cookie":                    "session=abc",
		"x-team":                    "core",
	}, map[string]any{"name": "repo"}).Sanitize()

	assert.Equal(t, Payload{"x-team": "core", "name": "repo"}, p)
	assert.False(t, IsSensitiveKey("name"))
	assert.True(t, IsSensitiveKey(" X-Api-Key "))
}

func TestPayload_CloneIsShallowCopy(t *testing.T) {
	p := Payload{"name": "repo"}
	c := p.Clone()
	c["name"] = "other"
	assert.Equal(t, "repo", p["name"])
}

func TestCollaborator_Permission(t *testing.T) {
	tests := []struct {
		name string
		raw  *RawPermissions
		want Permission
	}{
		{name: "absent", raw: nil, want: PermissionNone},
		{name: "all false", raw: &RawPermissions{}, want: PermissionNone},
		{name: "pull", raw: &RawPermissions{Pull: true}, want: PermissionPull},
		{name: "triage", raw: &RawPermissions{Pull: true, Triage: true}, want: PermissionTriage},
		{name: "push", raw: &RawPermissions{Pull: true, Push: true}, want: PermissionPush},
		{name: "maintain", raw: &RawPermissions{Push: true, Maintain: true}, want: PermissionMaintain},
		{name: "admin", raw: &RawPermissions{Admin: true, Pull: true}, want: PermissionAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollaborator(RawCollaborator{ID: 1, Login: "octo", Permissions: tt.raw})
			assert.Equal(t, tt.want, c.Permission())
		})
	}
}

func TestCollaborator_ImmutableAfterConstruction(t *testing.T) {
	raw := RawCollaborator{ID: 7, Login: "octo", Permissions: &RawPermissions{Admin: true}}
	c := NewCollaborator(raw)
	raw.Permissions.Admin = false
	assert.Equal(t, PermissionAdmin, c.Permission())
	assert.Equal(t, int64(7), c.ID())
}

func TestSortCollaborators(t *testing.T) {
	cs := []Collaborator{
		NewCollaborator(RawCollaborator{Login: "zed"}),
		NewCollaborator(RawCollaborator{Login: "Bob"}),
		NewCollaborator(RawCollaborator{Login: "alice"}),
		NewCollaborator(RawCollaborator{Login: "Émile"}),
	}
	SortCollaborators(cs)

	logins := make([]string, 0, len(cs))
	for _, c := range cs {
		logins = append(logins, c.Login())
	}
	assert.Equal(t, []string{"alice", "Bob", "Émile", "zed"}, logins)
}
