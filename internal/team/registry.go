// Package team holds the static role and settings-tab configuration.
//
// The registry is built once at startup and only read afterwards. Other
// components receive it by value injection, never through package globals.
package team

import "errors"

// ErrUnknownRole is returned when a role key is not configured.
var ErrUnknownRole = errors.New("team: unknown role")

// Role is a team membership role key.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// TabScope selects which settings screen a tab list belongs to.
type TabScope string

const (
	ScopePersonal TabScope = "personal"
	ScopeTeam     TabScope = "team"
)

// RoleDef pairs a role key with its display name.
type RoleDef struct {
	Key  Role   `json:"key"`
	Name string `json:"name"`
}

// Registry is the immutable role and tab configuration.
type Registry struct {
	roles       []RoleDef
	byKey       map[Role]string
	defaultRole Role
	tabs        map[TabScope][]string
}

// NewRegistry builds a registry. The default role must be one of the given
// roles; tab lists keep their order.
func NewRegistry(roles []RoleDef, defaultRole Role, tabs map[TabScope][]string) (*Registry, error) {
	r := &Registry{
		roles:       make([]RoleDef, len(roles)),
		byKey:       make(map[Role]string, len(roles)),
		defaultRole: defaultRole,
		tabs:        make(map[TabScope][]string, len(tabs)),
	}
	copy(r.roles, roles)
	for _, def := range roles {
		r.byKey[def.Key] = def.Name
	}
	if _, ok := r.byKey[defaultRole]; !ok {
		return nil, ErrUnknownRole
	}
	for scope, list := range tabs {
		cp := make([]string, len(list))
		copy(cp, list)
		r.tabs[scope] = cp
	}
	return r, nil
}

// DefaultRegistry returns the stock configuration: admin/member roles with
// member as default, and the standard settings screens.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		[]RoleDef{
			{Key: RoleAdmin, Name: "Administrator"},
			{Key: RoleMember, Name: "Member"},
		},
		RoleMember,
		map[TabScope][]string{
			ScopePersonal: {"profile", "teams", "security", "subscription"},
			ScopeTeam:     {"owner", "membership"},
		},
	)
	if err != nil {
		panic("team: invalid default registry: " + err.Error())
	}
	return r
}

// Roles returns the configured roles in order.
func (r *Registry) Roles() []RoleDef {
	out := make([]RoleDef, len(r.roles))
	copy(out, r.roles)
	return out
}

// DisplayName returns the display name for a role key.
func (r *Registry) DisplayName(key Role) (string, error) {
	name, ok := r.byKey[key]
	if !ok {
		return "", ErrUnknownRole
	}
	return name, nil
}

// DefaultRole returns the role assigned to new memberships.
func (r *Registry) DefaultRole() Role {
	return r.defaultRole
}

// Valid reports whether the role key is configured.
func (r *Registry) Valid(key Role) bool {
	_, ok := r.byKey[key]
	return ok
}

// Tabs returns the ordered tab identifiers for a scope. Unknown scopes
// return an empty list.
func (r *Registry) Tabs(scope TabScope) []string {
	list, ok := r.tabs[scope]
	if !ok {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
