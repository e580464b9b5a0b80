package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/ledger"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

// notFound turns a missing row into a NotFound error for resource.
func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return err
}

// conflictOnDuplicate turns a unique-index violation into a Conflict.
func conflictOnDuplicate(err error, message string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("%s", message)
	}
	return err
}

// parseOptionalDate parses a YYYY-MM-DD string; empty yields nil.
func parseOptionalDate(verr *apperrors.ValidationError, field, value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	t, err := ledger.ParseDate(value)
	if err != nil {
		verr.Add(field, field+" must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

// isStaff reports whether id holds a pastoral or administrative role.
func isStaff(id *access.Identity) bool {
	return id.HasAnyRole(access.RolePastor, access.RoleAdministrator)
}

func isFinance(id *access.Identity) bool {
	return id.HasAnyRole(access.RoleFinanceCommittee, access.RoleAdministrator)
}
