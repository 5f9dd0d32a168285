package server

import (
	"errors"

	"blog-editor-be/internal/service"
	"blog-editor-be/pkg/editor"
	"blog-editor-be/pkg/store"

	"github.com/gofiber/fiber/v2"
)

// domainStatus maps editor and blog errors onto HTTP status codes.
func domainStatus(err error) (int, bool) {
	var tooShort *editor.ContentTooShortError
	var upload *editor.UploadFailureError
	var save *editor.SaveFailureError

	switch {
	case errors.As(err, &tooShort):
		return fiber.StatusUnprocessableEntity, true
	case errors.Is(err, service.ErrBlogNotFound):
		// a save failure wrapping a vanished blog is still a 404
		return fiber.StatusNotFound, true
	case errors.As(err, &upload), errors.As(err, &save):
		return fiber.StatusBadGateway, true
	case errors.Is(err, editor.ErrSubmitInProgress),
		errors.Is(err, editor.ErrImageNotInserted):
		return fiber.StatusConflict, true
	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, service.ErrPendingNotFound):
		return fiber.StatusNotFound, true
	case errors.Is(err, editor.ErrSessionClosed):
		return fiber.StatusGone, true
	case errors.Is(err, service.ErrUnknownCommand),
		errors.Is(err, service.ErrInvalidSelection),
		errors.Is(err, service.ErrInvalidImage):
		return fiber.StatusBadRequest, true
	case errors.Is(err, service.ErrImageTooLarge):
		return fiber.StatusRequestEntityTooLarge, true
	}
	return 0, false
}
