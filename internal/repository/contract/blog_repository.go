package contract

import (
	"context"

	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type BlogRepository interface {
	Create(ctx context.Context, blog *entity.Blog) error
	Update(ctx context.Context, blog *entity.Blog) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Blog, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Blog, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
