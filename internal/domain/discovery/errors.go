package discovery

import "errors"

var (
	ErrNotFound   = errors.New("place not found")
	ErrEmptyQuery = errors.New("query is required")
)
