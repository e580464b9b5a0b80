// Package access decides whether an acting identity may perform an operation.
//
// Three mechanisms are supported and can be composed with AnyOf: a role-set
// check, a permission check across every role the identity holds, and an
// ownership check against the resource's author. Evaluation is pure; the
// identity graph is loaded once per request by the caller.
package access

import (
	"context"
	"sort"
	"strings"
)

// Canonical role names.
const (
	RoleMember           = "member"
	RolePastor           = "pastor"
	RoleFinanceCommittee = "finance_committee"
	RoleAdministrator    = "administrator"
)

// legacyMemberRole is accepted on input and stored as RoleMember.
const legacyMemberRole = "user"

// NormalizeRole lowercases a role name and folds the legacy "user" alias into
// RoleMember.
func NormalizeRole(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == legacyMemberRole {
		return RoleMember
	}
	return name
}

// IsKnownRole reports whether name is one of the canonical roles.
func IsKnownRole(name string) bool {
	switch NormalizeRole(name) {
	case RoleMember, RolePastor, RoleFinanceCommittee, RoleAdministrator:
		return true
	}
	return false
}

// RoleGrant is a role name together with the permission names linked to it.
type RoleGrant struct {
	Name        string
	Permissions []string
}

// Identity is the acting user with its role/permission graph resolved.
type Identity struct {
	UserID uint
	Email  string

	// role name -> permission set of that role
	roles map[string]map[string]struct{}
}

// NewIdentity builds an Identity from loaded role grants. Duplicate roles and
// permissions collapse into sets.
func NewIdentity(userID uint, email string, grants []RoleGrant) *Identity {
	id := &Identity{
		UserID: userID,
		Email:  email,
		roles:  make(map[string]map[string]struct{}, len(grants)),
	}
	for _, g := range grants {
		name := NormalizeRole(g.Name)
		perms, ok := id.roles[name]
		if !ok {
			perms = make(map[string]struct{}, len(g.Permissions))
			id.roles[name] = perms
		}
		for _, p := range g.Permissions {
			perms[p] = struct{}{}
		}
	}
	return id
}

// HasRole reports whether the identity holds the named role.
func (i *Identity) HasRole(name string) bool {
	if i == nil {
		return false
	}
	_, ok := i.roles[NormalizeRole(name)]
	return ok
}

// HasAnyRole reports whether the identity holds at least one of names.
func (i *Identity) HasAnyRole(names ...string) bool {
	for _, n := range names {
		if i.HasRole(n) {
			return true
		}
	}
	return false
}

// HasPermission reports whether any role of the identity is linked to perm.
func (i *Identity) HasPermission(perm string) bool {
	if i == nil {
		return false
	}
	for _, perms := range i.roles {
		if _, ok := perms[perm]; ok {
			return true
		}
	}
	return false
}

// RoleNames returns the identity's role names in sorted order.
func (i *Identity) RoleNames() []string {
	if i == nil {
		return nil
	}
	names := make([]string, 0, len(i.roles))
	for n := range i.roles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Permissions returns the union of permissions over all roles, sorted.
func (i *Identity) Permissions() []string {
	if i == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, perms := range i.roles {
		for p := range perms {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
