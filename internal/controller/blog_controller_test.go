package controller

import (
	"context"
	"testing"

	"blog-editor-be/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlogService struct {
	category    string
	page, limit int
	deletedBy   uuid.UUID
}

func (f *fakeBlogService) Show(_ context.Context, projectId, blogId uuid.UUID) (*dto.ShowBlogResponse, error) {
	return &dto.ShowBlogResponse{Id: blogId, ProjectId: projectId}, nil
}

func (f *fakeBlogService) List(_ context.Context, projectId uuid.UUID, category string, page, limit int) (*dto.BlogListResponse, error) {
	f.category, f.page, f.limit = category, page, limit
	return &dto.BlogListResponse{Items: []dto.BlogListItem{}, Page: page, Limit: limit}, nil
}

func (f *fakeBlogService) Markdown(_ context.Context, projectId, blogId uuid.UUID) (*dto.BlogMarkdownResponse, error) {
	return &dto.BlogMarkdownResponse{Id: blogId, Markdown: "# hi"}, nil
}

func (f *fakeBlogService) Media(_ context.Context, projectId, blogId uuid.UUID) ([]dto.BlogMediaResponse, error) {
	return []dto.BlogMediaResponse{}, nil
}

func (f *fakeBlogService) Delete(_ context.Context, userId, projectId, blogId uuid.UUID) error {
	f.deletedBy = userId
	return nil
}

func TestBlogControllerRoutes(t *testing.T) {
	user := uuid.New()
	token := testToken(t, user)
	base := "/api/blog/v1/projects/" + uuid.NewString() + "/blogs"
	blog := uuid.NewString()

	tests := []struct {
		name     string
		method   string
		url      string
		token    string
		wantCode int
	}{
		{name: "list without token", method: "GET", url: base, wantCode: 401},
		{name: "list", method: "GET", url: base + "?category=go&page=2&limit=5", token: token, wantCode: 200},
		{name: "show", method: "GET", url: base + "/" + blog, token: token, wantCode: 200},
		{name: "show with bad id", method: "GET", url: base + "/not-a-uuid", token: token, wantCode: 400},
		{name: "markdown", method: "GET", url: base + "/" + blog + "/markdown", token: token, wantCode: 200},
		{name: "media", method: "GET", url: base + "/" + blog + "/media", token: token, wantCode: 200},
		{name: "delete", method: "DELETE", url: base + "/" + blog, token: token, wantCode: 200},
		{name: "bad project id", method: "GET", url: "/api/blog/v1/projects/nope/blogs", token: token, wantCode: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(NewBlogController(&fakeBlogService{}).RegisterRoutes)
			resp := doJSON(t, app, tt.method, tt.url, tt.token, nil)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}

	t.Run("query parameters reach the service", func(t *testing.T) {
		svc := &fakeBlogService{}
		app := newTestApp(NewBlogController(svc).RegisterRoutes)
		resp := doJSON(t, app, fiber.MethodGet, base+"?category=go&page=2&limit=5", token, nil)
		require.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "go", svc.category)
		assert.Equal(t, 2, svc.page)
		assert.Equal(t, 5, svc.limit)
	})

	t.Run("delete passes the caller", func(t *testing.T) {
		svc := &fakeBlogService{}
		app := newTestApp(NewBlogController(svc).RegisterRoutes)
		resp := doJSON(t, app, fiber.MethodDelete, base+"/"+blog, token, nil)
		require.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, user, svc.deletedBy)
	})
}
