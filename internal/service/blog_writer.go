package service

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"time"

	"blog-editor-be/internal/dto"
	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/internal/repository/cache"
	"blog-editor-be/internal/repository/specification"
	"blog-editor-be/internal/repository/unitofwork"
	"blog-editor-be/pkg/editor"
	"blog-editor-be/pkg/events"
	"blog-editor-be/pkg/lexical"
	"blog-editor-be/pkg/tracker"

	"github.com/google/uuid"
)

// EventPublisher puts domain events on the bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// blogWriter stores one submit of an editor session.
type blogWriter struct {
	uowFactory unitofwork.RepositoryFactory
	storage    IMediaStorage
	publisher  IPublisherService
	cache      cache.IBlogContentCache
	events     EventPublisher
	logger     logger.ILogger
	now        func() time.Time

	sessionID string
	userID    uuid.UUID
	mode      editor.Mode
	meta      dto.SubmitBlogRequest

	// removed is known before the submit starts; DeleteMedia runs
	// concurrently with SaveDocument and must not write to the writer.
	uploaded int
	removed  int
	saved    *entity.Blog
}

var _ editor.Persistence = (*blogWriter)(nil)

func parseIDs(projectID, blogID string) (uuid.UUID, uuid.UUID, error) {
	p, err := uuid.Parse(projectID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid project id: %w", err)
	}
	b, err := uuid.Parse(blogID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid blog id: %w", err)
	}
	return p, b, nil
}

// UploadMedia writes the files, then records them in one transaction. On
// any failure the files written so far are removed again.
func (w *blogWriter) UploadMedia(ctx context.Context, projectID, blogID string, images []tracker.PendingImage) error {
	pid, bid, err := parseIDs(projectID, blogID)
	if err != nil {
		return err
	}

	var written []string
	rollbackFiles := func() {
		for _, p := range written {
			if err := w.storage.Remove(projectID, blogID, p); err != nil {
				w.logger.Warn("MEDIA", "Failed to remove orphaned upload", map[string]interface{}{
					"path":  p,
					"error": err.Error(),
				})
			}
		}
	}

	media := make([]*entity.BlogMedia, 0, len(images))
	for _, img := range images {
		if err := w.storage.Save(projectID, blogID, img.UploadPath, img.File.Data); err != nil {
			rollbackFiles()
			return fmt.Errorf("store %s: %w", img.UploadPath, err)
		}
		written = append(written, img.UploadPath)

		contentType := img.File.ContentType
		if contentType == "" {
			contentType = mime.TypeByExtension(path.Ext(img.UploadPath))
		}
		media = append(media, &entity.BlogMedia{
			Id:          uuid.New(),
			BlogId:      bid,
			ProjectId:   pid,
			Path:        img.UploadPath,
			FileName:    img.File.Name,
			ContentType: contentType,
			Size:        int64(len(img.File.Data)),
			CreatedAt:   w.now(),
		})
	}

	uow := w.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		rollbackFiles()
		return err
	}
	defer uow.Rollback()

	if err := uow.BlogMediaRepository().CreateBulk(ctx, media); err != nil {
		rollbackFiles()
		return err
	}
	if err := uow.Commit(); err != nil {
		rollbackFiles()
		return err
	}

	w.uploaded = len(images)
	w.logger.Info("MEDIA", "Media uploaded", map[string]interface{}{
		"blog_id": blogID,
		"count":   len(images),
	})
	return nil
}

// DeleteMedia hands the paths to the cleanup consumer.
func (w *blogWriter) DeleteMedia(ctx context.Context, projectID, blogID string, paths []string) error {
	pid, bid, err := parseIDs(projectID, blogID)
	if err != nil {
		return err
	}
	return w.publisher.SendMediaCleanup(ctx, dto.MediaCleanupMessage{
		ProjectId: pid,
		BlogId:    bid,
		Paths:     paths,
	})
}

func (w *blogWriter) SaveDocument(ctx context.Context, projectID, blogID string, doc editor.Document) error {
	pid, bid, err := parseIDs(projectID, blogID)
	if err != nil {
		return err
	}

	contentJSON, err := json.Marshal(doc.JSON)
	if err != nil {
		return err
	}

	uow := w.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	repo := uow.BlogRepository()
	blog, err := repo.FindOne(ctx, specification.ByID{ID: bid}, specification.ByProjectID{ProjectID: pid})
	if err != nil {
		return err
	}

	now := w.now()
	isNew := blog == nil
	if isNew {
		if w.mode == editor.ModeEdit {
			return ErrBlogNotFound
		}
		blog = &entity.Blog{
			Id:        bid,
			ProjectId: pid,
			UserId:    w.userID,
			CreatedAt: now,
		}
	}

	if w.meta.Title != "" {
		blog.Title = w.meta.Title
	}
	if w.meta.Author != "" {
		blog.Author = w.meta.Author
	}
	if w.meta.Summary != "" {
		blog.Summary = w.meta.Summary
	}
	if w.meta.Category != "" {
		blog.Category = w.meta.Category
	}
	blog.Content = doc.Markup
	blog.ContentJSON = contentJSON
	blog.Excerpt = lexical.Excerpt(doc.JSON)
	blog.UpdatedAt = &now

	if isNew {
		err = repo.Create(ctx, blog)
	} else {
		err = repo.Update(ctx, blog)
	}
	if err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}
	w.saved = blog

	w.afterSave(ctx, blog)
	return nil
}

// afterSave refreshes the read cache and announces the save. Both are best
// effort; the blog is already stored.
func (w *blogWriter) afterSave(ctx context.Context, blog *entity.Blog) {
	details := map[string]interface{}{"blog_id": blog.Id.String()}

	if err := w.cache.Set(ctx, toCachedContent(blog)); err != nil {
		details["error"] = err.Error()
		w.logger.Warn("BLOG", "Failed to refresh content cache", details)
	}

	if w.events != nil {
		event := events.NewBlogContentSaved(blog.ProjectId.String(), blog.Id.String(), w.sessionID, w.uploaded, w.removed, w.now())
		if err := w.events.Publish(ctx, event); err != nil {
			details["error"] = err.Error()
			w.logger.Warn("BLOG", "Failed to publish save event", details)
		}
	}
}

func toCachedContent(blog *entity.Blog) *cache.BlogContent {
	c := &cache.BlogContent{
		BlogID:    blog.Id.String(),
		ProjectID: blog.ProjectId.String(),
		Title:     blog.Title,
		Author:    blog.Author,
		Summary:   blog.Summary,
		Category:  blog.Category,
		Markup:    blog.Content,
		Excerpt:   blog.Excerpt,
	}
	if blog.UpdatedAt != nil {
		c.UpdatedAt = *blog.UpdatedAt
	}
	return c
}
