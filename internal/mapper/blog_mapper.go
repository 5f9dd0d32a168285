package mapper

import (
	"time"

	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BlogMapper struct{}

func NewBlogMapper() *BlogMapper {
	return &BlogMapper{}
}

func toDeletedAt(deletedAt *time.Time, isDeleted bool) gorm.DeletedAt {
	if deletedAt != nil {
		return gorm.DeletedAt{Time: *deletedAt, Valid: true}
	}
	if isDeleted {
		return gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return gorm.DeletedAt{}
}

func fromDeletedAt(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func (m *BlogMapper) ToEntity(b *model.Blog) *entity.Blog {
	if b == nil {
		return nil
	}

	var updatedAt *time.Time
	if !b.UpdatedAt.IsZero() {
		t := b.UpdatedAt
		updatedAt = &t
	}

	return &entity.Blog{
		Id:          b.Id,
		ProjectId:   b.ProjectId,
		UserId:      b.UserId,
		Title:       b.Title,
		Author:      b.Author,
		Summary:     b.Summary,
		Category:    b.Category,
		Content:     b.Content,
		ContentJSON: []byte(b.ContentJSON),
		Excerpt:     b.Excerpt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   fromDeletedAt(b.DeletedAt),
		IsDeleted:   b.DeletedAt.Valid,
	}
}

func (m *BlogMapper) ToModel(b *entity.Blog) *model.Blog {
	if b == nil {
		return nil
	}

	var updatedAt time.Time
	if b.UpdatedAt != nil {
		updatedAt = *b.UpdatedAt
	}

	return &model.Blog{
		Id:          b.Id,
		ProjectId:   b.ProjectId,
		UserId:      b.UserId,
		Title:       b.Title,
		Author:      b.Author,
		Summary:     b.Summary,
		Category:    b.Category,
		Content:     b.Content,
		ContentJSON: datatypes.JSON(b.ContentJSON),
		Excerpt:     b.Excerpt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   toDeletedAt(b.DeletedAt, b.IsDeleted),
	}
}

func (m *BlogMapper) ToEntities(blogs []*model.Blog) []*entity.Blog {
	entities := make([]*entity.Blog, len(blogs))
	for i, b := range blogs {
		entities[i] = m.ToEntity(b)
	}
	return entities
}

type BlogMediaMapper struct{}

func NewBlogMediaMapper() *BlogMediaMapper {
	return &BlogMediaMapper{}
}

func (m *BlogMediaMapper) ToEntity(b *model.BlogMedia) *entity.BlogMedia {
	if b == nil {
		return nil
	}
	return &entity.BlogMedia{
		Id:          b.Id,
		BlogId:      b.BlogId,
		ProjectId:   b.ProjectId,
		Path:        b.Path,
		FileName:    b.FileName,
		ContentType: b.ContentType,
		Size:        b.Size,
		CreatedAt:   b.CreatedAt,
		DeletedAt:   fromDeletedAt(b.DeletedAt),
		IsDeleted:   b.DeletedAt.Valid,
	}
}

func (m *BlogMediaMapper) ToModel(b *entity.BlogMedia) *model.BlogMedia {
	if b == nil {
		return nil
	}
	return &model.BlogMedia{
		Id:          b.Id,
		BlogId:      b.BlogId,
		ProjectId:   b.ProjectId,
		Path:        b.Path,
		FileName:    b.FileName,
		ContentType: b.ContentType,
		Size:        b.Size,
		CreatedAt:   b.CreatedAt,
		DeletedAt:   toDeletedAt(b.DeletedAt, b.IsDeleted),
	}
}

func (m *BlogMediaMapper) ToEntities(media []*model.BlogMedia) []*entity.BlogMedia {
	entities := make([]*entity.BlogMedia, len(media))
	for i, b := range media {
		entities[i] = m.ToEntity(b)
	}
	return entities
}

func (m *BlogMediaMapper) ToModels(media []*entity.BlogMedia) []*model.BlogMedia {
	models := make([]*model.BlogMedia, len(media))
	for i, b := range media {
		models[i] = m.ToModel(b)
	}
	return models
}
