package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ByID matches a single row by primary key
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// sortable lists the columns listings may be ordered by.
var sortable = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}

// OrderBy sorts by one of the sortable columns. Unknown columns fall back to
// updated_at so a caller supplied field never reaches the SQL text.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	field := s.Field
	if !sortable[field] {
		field = "updated_at"
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: field}, Desc: s.Desc})
}

// Pagination limits a listing to one page
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
