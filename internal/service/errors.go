package service

import "errors"

var (
	ErrBlogNotFound     = errors.New("blog not found")
	ErrInvalidImage     = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image is too large")
	ErrPendingNotFound  = errors.New("pending image not found")
	ErrUnknownCommand   = errors.New("unknown editor command")
	ErrInvalidSelection = errors.New("invalid selection point")
)
