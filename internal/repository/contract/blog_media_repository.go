package contract

import (
	"context"

	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type BlogMediaRepository interface {
	CreateBulk(ctx context.Context, media []*entity.BlogMedia) error
	// DeleteByPaths soft deletes the rows of a blog for the given paths and
	// returns how many were affected.
	DeleteByPaths(ctx context.Context, blogId uuid.UUID, paths []string) (int64, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BlogMedia, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
