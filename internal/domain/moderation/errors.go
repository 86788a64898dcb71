package moderation

import "errors"

var (
	ErrAccessDenied = errors.New("admin access required")
	ErrNotPending   = errors.New("only pending places can be approved or rejected")
	ErrSelfTarget   = errors.New("you cannot change your own account here")
	ErrInvalidEdit  = errors.New("invalid place edit")
)
