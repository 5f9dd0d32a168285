package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/model"
	"blog-editor-be/internal/repository/specification"
	"blog-editor-be/internal/repository/unitofwork"
	"blog-editor-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Blog{}, &model.BlogMedia{}))
	return db
}

func TestBlogRepository(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)

	projectId := uuid.New()
	now := time.Now()
	blog := &entity.Blog{
		Id:          uuid.New(),
		ProjectId:   projectId,
		UserId:      uuid.New(),
		Title:       "Integration blog",
		Category:    "integration",
		Content:     "<p><span>hello</span></p>",
		ContentJSON: []byte(`{"root":{"type":"root","children":[]}}`),
		CreatedAt:   now,
		UpdatedAt:   &now,
	}
	t.Cleanup(func() {
		db.Unscoped().Where("blog_id = ?", blog.Id).Delete(&model.BlogMedia{})
		db.Unscoped().Delete(&model.Blog{}, blog.Id)
	})

	t.Run("create inside a transaction", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		defer uow.Rollback()

		require.NoError(t, uow.BlogRepository().Create(ctx, blog))
		require.NoError(t, uow.BlogMediaRepository().CreateBulk(ctx, []*entity.BlogMedia{
			{Id: uuid.New(), BlogId: blog.Id, ProjectId: projectId, Path: "a.png", Size: 3},
			{Id: uuid.New(), BlogId: blog.Id, ProjectId: projectId, Path: "b.png", Size: 4},
		}))
		require.NoError(t, uow.Commit())
	})

	t.Run("find by project", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		found, err := uow.BlogRepository().FindOne(ctx,
			specification.ByID{ID: blog.Id},
			specification.ByProjectID{ProjectID: projectId},
		)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Integration blog", found.Title)
		assert.JSONEq(t, string(blog.ContentJSON), string(found.ContentJSON))

		missing, err := uow.BlogRepository().FindOne(ctx,
			specification.ByID{ID: blog.Id},
			specification.ByProjectID{ProjectID: uuid.New()},
		)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("soft delete media by path", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		n, err := uow.BlogMediaRepository().DeleteByPaths(ctx, blog.Id, []string{"a.png", "zzz.png"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		media, err := uow.BlogMediaRepository().FindAll(ctx, specification.ByBlogID{BlogID: blog.Id})
		require.NoError(t, err)
		require.Len(t, media, 1)
		assert.Equal(t, "b.png", media[0].Path)
	})

	t.Run("rollback discards writes", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.BlogMediaRepository().CreateBulk(ctx, []*entity.BlogMedia{
			{Id: uuid.New(), BlogId: blog.Id, ProjectId: projectId, Path: "c.png"},
		}))
		require.NoError(t, uow.Rollback())

		count, err := uowFactory.NewUnitOfWork(ctx).BlogMediaRepository().Count(ctx, specification.ByBlogID{BlogID: blog.Id})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("soft delete blog", func(t *testing.T) {
		uow := uowFactory.NewUnitOfWork(ctx)
		require.NoError(t, uow.BlogRepository().Delete(ctx, blog.Id))

		count, err := uow.BlogRepository().Count(ctx, specification.ByProjectID{ProjectID: projectId})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
