package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/markup"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlogFixture() (IBlogService, *memDB, *memCache) {
	db := newMemDB()
	c := newMemCache()
	return NewBlogService(db, c, newMemStorage(), logger.NewNopLogger()), db, c
}

func putBlog(db *memDB, projectId, userId uuid.UUID, title, category, content string) *entity.Blog {
	now := time.Now()
	b := &entity.Blog{
		Id:        uuid.New(),
		ProjectId: projectId,
		UserId:    userId,
		Title:     title,
		Category:  category,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: &now,
	}
	db.blogs[b.Id] = b
	return b
}

func TestBlogServiceShow(t *testing.T) {
	ctx := context.Background()
	svc, db, c := newBlogFixture()
	project := uuid.New()
	blog := putBlog(db, project, uuid.New(), "Hello", "go", "<p><span>hi</span></p>")

	res, err := svc.Show(ctx, project, blog.Id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", res.Title)
	assert.Equal(t, blog.Content, res.Content)

	cached, _ := c.Get(ctx, blog.Id.String())
	require.NotNil(t, cached)

	t.Run("served from cache", func(t *testing.T) {
		delete(db.blogs, blog.Id)
		res, err := svc.Show(ctx, project, blog.Id)
		require.NoError(t, err)
		assert.Equal(t, "Hello", res.Title)
	})

	t.Run("cache entry of another project is ignored", func(t *testing.T) {
		_, err := svc.Show(ctx, uuid.New(), blog.Id)
		assert.ErrorIs(t, err, ErrBlogNotFound)
	})
}

func TestBlogServiceList(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newBlogFixture()
	project := uuid.New()
	user := uuid.New()
	for i := 0; i < 3; i++ {
		putBlog(db, project, user, "go post", "go", "")
	}
	putBlog(db, project, user, "rust post", "rust", "")
	putBlog(db, uuid.New(), user, "elsewhere", "go", "")

	tests := []struct {
		name      string
		category  string
		page      int
		limit     int
		wantItems int
		wantTotal int64
		wantLimit int
	}{
		{name: "all of the project", wantItems: 4, wantTotal: 4, wantLimit: 20},
		{name: "by category", category: "go", page: 1, limit: 10, wantItems: 3, wantTotal: 3, wantLimit: 10},
		{name: "second page", category: "go", page: 2, limit: 2, wantItems: 1, wantTotal: 3, wantLimit: 2},
		{name: "limit out of range falls back", limit: 1000, wantItems: 4, wantTotal: 4, wantLimit: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.List(ctx, project, tt.category, tt.page, tt.limit)
			require.NoError(t, err)
			assert.Len(t, res.Items, tt.wantItems)
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Equal(t, tt.wantLimit, res.Limit)
		})
	}
}

func TestBlogServiceMarkdown(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newBlogFixture()
	project := uuid.New()

	tree := document.New()
	require.NoError(t, markup.Hydrate(tree, `<h2><span>Title</span></h2><p><b><span>bold</span></b></p>`))
	raw, err := json.Marshal(tree.ToJSON())
	require.NoError(t, err)

	blog := putBlog(db, project, uuid.New(), "md", "", "")
	blog.ContentJSON = raw

	res, err := svc.Markdown(ctx, project, blog.Id)
	require.NoError(t, err)
	assert.Contains(t, res.Markdown, "## Title")
	assert.Contains(t, res.Markdown, "**bold**")

	_, err = svc.Markdown(ctx, project, uuid.New())
	assert.ErrorIs(t, err, ErrBlogNotFound)
}

func TestBlogServiceMedia(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newBlogFixture()
	project := uuid.New()
	blog := putBlog(db, project, uuid.New(), "pics", "", "")
	db.media = append(db.media,
		&entity.BlogMedia{Id: uuid.New(), BlogId: blog.Id, ProjectId: project, Path: "a.png", Size: 10},
		&entity.BlogMedia{Id: uuid.New(), BlogId: blog.Id, ProjectId: project, Path: "b.png", IsDeleted: true},
	)

	res, err := svc.Media(ctx, project, blog.Id)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "a.png", res[0].Path)
	assert.Equal(t, newMemStorage().URL(project.String(), blog.Id.String(), "a.png"), res[0].URL)
}

func TestBlogServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc, db, c := newBlogFixture()
	project := uuid.New()
	owner := uuid.New()
	blog := putBlog(db, project, owner, "mine", "", "")
	require.NoError(t, c.Set(ctx, toCachedContent(blog)))

	t.Run("other users cannot delete", func(t *testing.T) {
		err := svc.Delete(ctx, uuid.New(), project, blog.Id)
		assert.ErrorIs(t, err, ErrBlogNotFound)
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, owner, project, blog.Id))
		assert.True(t, db.blogs[blog.Id].IsDeleted)

		cached, _ := c.Get(ctx, blog.Id.String())
		assert.Nil(t, cached)

		_, err := svc.Show(ctx, project, blog.Id)
		assert.ErrorIs(t, err, ErrBlogNotFound)
	})
}
