package profile

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrDisplayName     = errors.New("display name must be 3 to 10 characters")
	ErrJobOccupation   = errors.New("job occupation is too long")
)
