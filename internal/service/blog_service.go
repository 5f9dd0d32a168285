package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blog-editor-be/internal/dto"
	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/internal/repository/cache"
	"blog-editor-be/internal/repository/specification"
	"blog-editor-be/internal/repository/unitofwork"
	"blog-editor-be/pkg/lexical"

	"github.com/google/uuid"
)

type IBlogService interface {
	Show(ctx context.Context, projectId, blogId uuid.UUID) (*dto.ShowBlogResponse, error)
	List(ctx context.Context, projectId uuid.UUID, category string, page, limit int) (*dto.BlogListResponse, error)
	Markdown(ctx context.Context, projectId, blogId uuid.UUID) (*dto.BlogMarkdownResponse, error)
	Media(ctx context.Context, projectId, blogId uuid.UUID) ([]dto.BlogMediaResponse, error)
	Delete(ctx context.Context, userId, projectId, blogId uuid.UUID) error
}

type blogService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      cache.IBlogContentCache
	storage    IMediaStorage
	parser     *lexical.Parser
	logger     logger.ILogger
}

func NewBlogService(
	uowFactory unitofwork.RepositoryFactory,
	cache cache.IBlogContentCache,
	storage IMediaStorage,
	logger logger.ILogger,
) IBlogService {
	return &blogService{
		uowFactory: uowFactory,
		cache:      cache,
		storage:    storage,
		parser:     lexical.NewParser(),
		logger:     logger,
	}
}

func (s *blogService) find(ctx context.Context, projectId, blogId uuid.UUID) (*entity.Blog, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	blog, err := uow.BlogRepository().FindOne(ctx,
		specification.ByID{ID: blogId},
		specification.ByProjectID{ProjectID: projectId},
	)
	if err != nil {
		return nil, err
	}
	if blog == nil {
		return nil, ErrBlogNotFound
	}
	return blog, nil
}

// Show reads through the content cache.
func (s *blogService) Show(ctx context.Context, projectId, blogId uuid.UUID) (*dto.ShowBlogResponse, error) {
	cached, err := s.cache.Get(ctx, blogId.String())
	if err != nil {
		s.logger.Warn("BLOG", "Content cache read failed", map[string]interface{}{"error": err.Error()})
	}
	if cached != nil && cached.ProjectID == projectId.String() {
		var updatedAt *time.Time
		if !cached.UpdatedAt.IsZero() {
			t := cached.UpdatedAt
			updatedAt = &t
		}
		return &dto.ShowBlogResponse{
			Id:        blogId,
			ProjectId: projectId,
			Title:     cached.Title,
			Author:    cached.Author,
			Summary:   cached.Summary,
			Category:  cached.Category,
			Content:   cached.Markup,
			Excerpt:   cached.Excerpt,
			UpdatedAt: updatedAt,
		}, nil
	}

	blog, err := s.find(ctx, projectId, blogId)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, toCachedContent(blog)); err != nil {
		s.logger.Warn("BLOG", "Content cache write failed", map[string]interface{}{"error": err.Error()})
	}

	return &dto.ShowBlogResponse{
		Id:        blog.Id,
		ProjectId: blog.ProjectId,
		Title:     blog.Title,
		Author:    blog.Author,
		Summary:   blog.Summary,
		Category:  blog.Category,
		Content:   blog.Content,
		Excerpt:   blog.Excerpt,
		UpdatedAt: blog.UpdatedAt,
	}, nil
}

func (s *blogService) List(ctx context.Context, projectId uuid.UUID, category string, page, limit int) (*dto.BlogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	specs := []specification.Specification{specification.ByProjectID{ProjectID: projectId}}
	if category != "" {
		specs = append(specs, specification.ByCategory{Category: category})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.BlogRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	blogs, err := uow.BlogRepository().FindAll(ctx, append(specs,
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)...)
	if err != nil {
		return nil, err
	}

	items := make([]dto.BlogListItem, len(blogs))
	for i, b := range blogs {
		items[i] = dto.BlogListItem{
			Id:        b.Id,
			Title:     b.Title,
			Author:    b.Author,
			Category:  b.Category,
			Excerpt:   b.Excerpt,
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		}
	}
	return &dto.BlogListResponse{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Markdown renders the stored tree snapshot.
func (s *blogService) Markdown(ctx context.Context, projectId, blogId uuid.UUID) (*dto.BlogMarkdownResponse, error) {
	blog, err := s.find(ctx, projectId, blogId)
	if err != nil {
		return nil, err
	}

	var root lexical.LexicalRoot
	if len(blog.ContentJSON) > 0 {
		if err := json.Unmarshal(blog.ContentJSON, &root); err != nil {
			return nil, fmt.Errorf("decode stored tree of %s: %w", blogId, err)
		}
	}
	return &dto.BlogMarkdownResponse{Id: blog.Id, Markdown: s.parser.Render(root)}, nil
}

func (s *blogService) Media(ctx context.Context, projectId, blogId uuid.UUID) ([]dto.BlogMediaResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	media, err := uow.BlogMediaRepository().FindAll(ctx,
		specification.ByBlogID{BlogID: blogId},
		specification.ByProjectID{ProjectID: projectId},
	)
	if err != nil {
		return nil, err
	}

	out := make([]dto.BlogMediaResponse, len(media))
	for i, m := range media {
		out[i] = dto.BlogMediaResponse{
			Path:        m.Path,
			URL:         s.storage.URL(projectId.String(), blogId.String(), m.Path),
			FileName:    m.FileName,
			ContentType: m.ContentType,
			Size:        m.Size,
			CreatedAt:   m.CreatedAt,
		}
	}
	return out, nil
}

// Delete soft deletes a blog owned by userId and drops it from the cache.
func (s *blogService) Delete(ctx context.Context, userId, projectId, blogId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	blog, err := uow.BlogRepository().FindOne(ctx,
		specification.ByID{ID: blogId},
		specification.ByProjectID{ProjectID: projectId},
		specification.BlogOwnedByUser{UserID: userId},
	)
	if err != nil {
		return err
	}
	if blog == nil {
		return ErrBlogNotFound
	}
	if err := uow.BlogRepository().Delete(ctx, blog.Id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, blogId.String()); err != nil {
		s.logger.Warn("BLOG", "Content cache delete failed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}
