package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Pagination selects one page of a listing. Page is 1-based.
type Pagination struct {
	Page    int
	PerPage int
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

func (p Pagination) scope(db *gorm.DB) *gorm.DB {
	if p.PerPage <= 0 {
		return db
	}
	return db.Offset(p.Offset()).Limit(p.PerPage)
}

// likePattern builds a lowercase substring pattern for LIKE queries.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
