package dto

import (
	"time"

	"github.com/google/uuid"
)

type ShowBlogResponse struct {
	Id        uuid.UUID  `json:"id"`
	ProjectId uuid.UUID  `json:"project_id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Summary   string     `json:"summary"`
	Category  string     `json:"category"`
	Content   string     `json:"content"`
	Excerpt   string     `json:"excerpt"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type BlogListItem struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Category  string     `json:"category"`
	Excerpt   string     `json:"excerpt"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type BlogListResponse struct {
	Items []BlogListItem `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type BlogMarkdownResponse struct {
	Id       uuid.UUID `json:"id"`
	Markdown string    `json:"markdown"`
}

type BlogMediaResponse struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// MediaCleanupMessage asks the media consumer to remove files of a blog.
type MediaCleanupMessage struct {
	ProjectId uuid.UUID `json:"project_id"`
	BlogId    uuid.UUID `json:"blog_id"`
	Paths     []string  `json:"paths"`
}
