package implementation

import (
	"context"
	"errors"

	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/mapper"
	"blog-editor-be/internal/model"
	"blog-editor-be/internal/repository/contract"
	"blog-editor-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BlogMapper
}

func NewBlogRepository(db *gorm.DB) contract.BlogRepository {
	return &BlogRepositoryImpl{
		db:     db,
		mapper: mapper.NewBlogMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *BlogRepositoryImpl) Create(ctx context.Context, blog *entity.Blog) error {
	m := r.mapper.ToModel(blog)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*blog = *r.mapper.ToEntity(m)
	return nil
}

func (r *BlogRepositoryImpl) Update(ctx context.Context, blog *entity.Blog) error {
	m := r.mapper.ToModel(blog)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*blog = *r.mapper.ToEntity(m)
	return nil
}

func (r *BlogRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Blog{}, id).Error
}

func (r *BlogRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Blog, error) {
	var m model.Blog
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *BlogRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Blog, error) {
	var models []*model.Blog
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *BlogRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Blog{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
