package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/repository/specification"
	"blog-editor-be/internal/repository/unitofwork"
	"blog-editor-be/pkg/database"
	"blog-editor-be/pkg/document"
	"blog-editor-be/pkg/lexical"
	"blog-editor-be/pkg/markup"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type sampleBlog struct {
	Title    string
	Author   string
	Category string
	Markdown string
}

var samples = []sampleBlog{
	{
		Title:    "Getting started with the editor",
		Author:   "Editorial Team",
		Category: "guides",
		Markdown: "## Welcome\n\nType `## ` at the start of a line for a heading, `> ` for a quote and `- ` for a list.\n\n- **bold** with `**text**`\n- _italic_ with `_text_`\n- `code` with backticks\n",
	},
	{
		Title:    "Release notes",
		Author:   "Editorial Team",
		Category: "news",
		Markdown: "# What changed\n\n1. Images are uploaded when you save\n2. Removed images are cleaned up in the background\n\n> Drafts stay in memory until you submit.\n",
	},
}

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	projectId := idFromEnv("SEED_PROJECT_ID")
	userId := idFromEnv("SEED_USER_ID")

	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Printf("Seeding sample blogs into project %s...", projectId)

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		log.Fatal("Error: Failed to begin transaction:", err)
	}
	defer uow.Rollback()

	repo := uow.BlogRepository()
	for _, s := range samples {
		existing, err := repo.FindAll(ctx,
			specification.ByProjectID{ProjectID: projectId},
			specification.ByTitle{Title: s.Title},
		)
		if err != nil {
			log.Fatalf("Error: Failed to look up '%s': %v", s.Title, err)
		}
		if len(existing) > 0 {
			log.Printf("Blog '%s' already exists, skipping...", s.Title)
			continue
		}

		blog, err := buildBlog(s, projectId, userId)
		if err != nil {
			log.Printf("Error rendering '%s': %v", s.Title, err)
			continue
		}
		if err := repo.Create(ctx, blog); err != nil {
			log.Fatalf("Error creating blog '%s': %v", s.Title, err)
		}
		log.Printf("Created blog: %s (%s)", blog.Title, blog.Id)
	}

	if err := uow.Commit(); err != nil {
		log.Fatal("Error: Failed to commit:", err)
	}
	log.Println("Blog seeding completed!")
}

func idFromEnv(key string) uuid.UUID {
	if v := os.Getenv(key); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			log.Fatalf("Error: %s is not a UUID: %v", key, err)
		}
		return id
	}
	return uuid.New()
}

// buildBlog stores a sample the way a submit would: normalized markup plus
// the JSON tree and its excerpt.
func buildBlog(s sampleBlog, projectId, userId uuid.UUID) (*entity.Blog, error) {
	source, err := markup.MarkdownToMarkup(s.Markdown)
	if err != nil {
		return nil, err
	}
	tree := document.New()
	if err := markup.Hydrate(tree, source); err != nil {
		return nil, err
	}
	root := tree.ToJSON()
	raw, err := json.Marshal(root)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &entity.Blog{
		Id:          uuid.New(),
		ProjectId:   projectId,
		UserId:      userId,
		Title:       s.Title,
		Author:      s.Author,
		Category:    s.Category,
		Content:     markup.Export(tree),
		ContentJSON: raw,
		Excerpt:     lexical.Excerpt(root),
		CreatedAt:   now,
		UpdatedAt:   &now,
	}, nil
}
