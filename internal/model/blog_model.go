package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Blog struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title       string         `gorm:"type:varchar(255);not null"`
	Author      string         `gorm:"type:varchar(255)"`
	Summary     string         `gorm:"type:text"`
	Category    string         `gorm:"type:varchar(100);index"`
	Content     string         `gorm:"type:text"`
	ContentJSON datatypes.JSON `gorm:"type:jsonb"`
	Excerpt     string         `gorm:"type:text"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Blog) TableName() string {
	return "blogs"
}

type BlogMedia struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BlogId      uuid.UUID      `gorm:"type:uuid;not null;index:idx_blog_media_path,unique,where:deleted_at IS NULL"`
	ProjectId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Path        string         `gorm:"type:varchar(512);not null;index:idx_blog_media_path,unique,where:deleted_at IS NULL"`
	FileName    string         `gorm:"type:varchar(255)"`
	ContentType string         `gorm:"type:varchar(100)"`
	Size        int64          `gorm:"not null;default:0"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (BlogMedia) TableName() string {
	return "blog_media"
}
