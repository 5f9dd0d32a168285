package unitofwork

import (
	"context"

	"blog-editor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	BlogRepository() contract.BlogRepository
	BlogMediaRepository() contract.BlogMediaRepository
}
