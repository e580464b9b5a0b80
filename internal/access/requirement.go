package access

import apperrors "churchadmin/internal/errors"

// Requirement is a predicate over an identity. A nil identity never satisfies
// a requirement.
type Requirement interface {
	satisfiedBy(id *Identity) bool
}

type requirementFunc func(id *Identity) bool

func (f requirementFunc) satisfiedBy(id *Identity) bool { return f(id) }

// AnyRole is satisfied when the identity holds at least one of names.
func AnyRole(names ...string) Requirement {
	return requirementFunc(func(id *Identity) bool {
		return id.HasAnyRole(names...)
	})
}

// Permission is satisfied when any role of the identity is linked to name.
func Permission(name string) Requirement {
	return requirementFunc(func(id *Identity) bool {
		return id.HasPermission(name)
	})
}

// OwnedBy is satisfied when the identity is the owner. A zero owner id never
// matches.
func OwnedBy(ownerID uint) Requirement {
	return requirementFunc(func(id *Identity) bool {
		return ownerID != 0 && id.UserID == ownerID
	})
}

// OwnedByAny is satisfied when the identity is one of the given owners.
func OwnedByAny(ownerIDs ...uint) Requirement {
	reqs := make([]Requirement, 0, len(ownerIDs))
	for _, o := range ownerIDs {
		reqs = append(reqs, OwnedBy(o))
	}
	return AnyOf(reqs...)
}

// Authenticated is satisfied by any identity.
func Authenticated() Requirement {
	return requirementFunc(func(id *Identity) bool { return true })
}

// AnyOf is satisfied when at least one of reqs is. An empty AnyOf denies.
func AnyOf(reqs ...Requirement) Requirement {
	return requirementFunc(func(id *Identity) bool {
		for _, r := range reqs {
			if r != nil && r.satisfiedBy(id) {
				return true
			}
		}
		return false
	})
}

// Authorize decides whether id satisfies req.
func Authorize(id *Identity, req Requirement) bool {
	if id == nil || req == nil {
		return false
	}
	return req.satisfiedBy(id)
}

// Check is Authorize expressed as an error: ErrUnauthenticated when id is nil,
// ErrForbidden when id is present but denied.
func Check(id *Identity, req Requirement) error {
	if id == nil {
		return apperrors.ErrUnauthenticated
	}
	if !Authorize(id, req) {
		return apperrors.ErrForbidden
	}
	return nil
}
