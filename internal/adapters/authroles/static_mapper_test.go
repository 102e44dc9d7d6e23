package authroles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/repo-gateway/internal/ports"
)

var _ ports.AdminLookup = StaticAdminMapper{}

func TestStaticAdminMapper_Groups(t *testing.T) {
	m := StaticAdminMapper{AdminGroup: "Portal-Admins"}
	assert.True(t, m.IsAdminGroupMember([]string{"users", "portal-admins"}))
	assert.False(t, m.IsAdminGroupMember([]string{"users"}))
	assert.False(t, StaticAdminMapper{}.IsAdminGroupMember([]string{""}))
}

func TestStaticAdminMapper_Principals(t *testing.T) {
	m := StaticAdminMapper{Principals: []string{"alice@example.com", ""}}

	ok, err := m.IsAdmin(context.Background(), "ALICE@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.IsAdmin(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}
