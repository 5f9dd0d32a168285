package entity

import (
	"time"

	"github.com/google/uuid"
)

type Blog struct {
	Id          uuid.UUID
	ProjectId   uuid.UUID
	UserId      uuid.UUID
	Title       string
	Author      string
	Summary     string
	Category    string
	Content     string
	ContentJSON []byte
	Excerpt     string
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}

// BlogMedia is one uploaded image of a blog, addressed by its upload path.
type BlogMedia struct {
	Id          uuid.UUID
	BlogId      uuid.UUID
	ProjectId   uuid.UUID
	Path        string
	FileName    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
