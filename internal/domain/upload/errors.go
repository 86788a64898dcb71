package upload

import "errors"

var (
	ErrObjectNotFound  = errors.New("stored image not found")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidMimeType = errors.New("only jpeg, png, gif and webp images are accepted")
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidPrefix   = errors.New("invalid storage prefix")
)
