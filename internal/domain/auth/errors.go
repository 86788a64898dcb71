package auth

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrWeakPassword        = errors.New("password must be at least 8 characters and contain a letter and a digit")
	ErrInvalidDisplayName  = errors.New("display name must be 3 to 10 characters")
	ErrIdentityNotFound    = errors.New("identity not found")
	ErrProfileMissing      = errors.New("no profile for this account")
	ErrAccountBanned       = errors.New("account banned")
	ErrEmailNotVerified    = errors.New("email not verified")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenReused  = errors.New("refresh token reused")
	ErrInvalidActionToken  = errors.New("invalid or expired token")
	ErrReauthRequired      = errors.New("current password is required")
	ErrGoogleDisabled      = errors.New("google sign-in is not configured")
	ErrFederatedSignIn     = errors.New("federated sign-in failed")
)
