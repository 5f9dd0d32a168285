package scope

import "gorm.io/gorm"

// OrderByCreatedAsc lists rows in insertion order, e.g. the images of a blog.
func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}
