package upload

import (
	"fmt"
	"io"
	"mime/multipart"
)

// ReadFormFile loads a multipart part into memory, refusing anything over
// MaxFileSize even when the declared size lies.
func ReadFormFile(fh *multipart.FileHeader) ([]byte, error) {
	switch {
	case fh.Size == 0:
		return nil, ErrEmptyFile
	case fh.Size > MaxFileSize:
		return nil, ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open form file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
