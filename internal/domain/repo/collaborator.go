package repo

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Permission is the highest permission a collaborator holds on a repository.
type Permission string

const (
	PermissionNone     Permission = "none"
	PermissionPull     Permission = "pull"
	PermissionTriage   Permission = "triage"
	PermissionPush     Permission = "push"
	PermissionMaintain Permission = "maintain"
	PermissionAdmin    Permission = "admin"
)

// RawPermissions is the permission object as reported by the upstream provider.
type RawPermissions struct {
	Admin    bool `json:"admin"`
	Maintain bool `json:"maintain"`
	Push     bool `json:"push"`
	Triage   bool `json:"triage"`
	Pull     bool `json:"pull"`
}

// RawCollaborator is the upstream collaborator record.
type RawCollaborator struct {
	ID          int64           `json:"id"`
	Login       string          `json:"login"`
	AvatarURL   string          `json:"avatar_url"`
	Permissions *RawPermissions `json:"permissions,omitempty"`
}

// Collaborator is an immutable projection of a RawCollaborator.
type Collaborator struct {
	id          int64
	login       string
	avatarURL   string
	permissions *RawPermissions
}

// NewCollaborator copies the fields it needs from raw.
func NewCollaborator(raw RawCollaborator) Collaborator {
	c := Collaborator{id: raw.ID, login: raw.Login, avatarURL: raw.AvatarURL}
	if raw.Permissions != nil {
		p := *raw.Permissions
		c.permissions = &p
	}
	return c
}

func (c Collaborator) ID() int64         { return c.id }
func (c Collaborator) Login() string     { return c.login }
func (c Collaborator) AvatarURL() string { return c.avatarURL }

// Permission derives the single highest permission; none when no permission object is present.
func (c Collaborator) Permission() Permission {
	p := c.permissions
	switch {
	case p == nil:
		return PermissionNone
	case p.Admin:
		return PermissionAdmin
	case p.Maintain:
		return PermissionMaintain
	case p.Push:
		return PermissionPush
	case p.Triage:
		return PermissionTriage
	case p.Pull:
		return PermissionPull
	default:
		return PermissionNone
	}
}

// SortCollaborators orders collaborators by login using case-insensitive, locale-aware collation.
func SortCollaborators(cs []Collaborator) {
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(cs, func(i, j int) bool {
		return col.CompareString(cs[i].login, cs[j].login) < 0
	})
}
