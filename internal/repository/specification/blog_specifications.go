package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByProjectID struct {
	ProjectID uuid.UUID
}

func (s ByProjectID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("project_id = ?", s.ProjectID)
}

type ByBlogID struct {
	BlogID uuid.UUID
}

func (s ByBlogID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("blog_id = ?", s.BlogID)
}

type ByPaths struct {
	Paths []string
}

func (s ByPaths) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("path IN ?", s.Paths)
}

type BlogOwnedByUser struct {
	UserID uuid.UUID
}

func (s BlogOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("blogs.user_id = ?", s.UserID)
}

type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

type ByTitle struct {
	Title string
}

func (s ByTitle) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("title = ?", s.Title)
}
