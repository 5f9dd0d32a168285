package implementation

import (
	"context"

	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/mapper"
	"blog-editor-be/internal/model"
	"blog-editor-be/internal/repository/contract"
	"blog-editor-be/internal/repository/scope"
	"blog-editor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlogMediaRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BlogMediaMapper
}

func NewBlogMediaRepository(db *gorm.DB) contract.BlogMediaRepository {
	return &BlogMediaRepositoryImpl{
		db:     db,
		mapper: mapper.NewBlogMediaMapper(),
	}
}

func (r *BlogMediaRepositoryImpl) CreateBulk(ctx context.Context, media []*entity.BlogMedia) error {
	if len(media) == 0 {
		return nil
	}
	models := r.mapper.ToModels(media)
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*media[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *BlogMediaRepositoryImpl) DeleteByPaths(ctx context.Context, blogId uuid.UUID, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Scopes(specification.ByBlogID{BlogID: blogId}.Apply, specification.ByPaths{Paths: paths}.Apply).
		Delete(&model.BlogMedia{})
	return res.RowsAffected, res.Error
}

func (r *BlogMediaRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.BlogMedia, error) {
	var models []*model.BlogMedia
	query := applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *BlogMediaRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.BlogMedia{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
