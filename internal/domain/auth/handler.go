package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"workspots/internal/pkg/response"
	"workspots/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

const (
	refreshCookie     = "refresh_token"
	oauthStateCookie  = "oauth_state"
	oauthNonceCookie  = "oauth_nonce"
	oauthCookieMaxAge = 600

	loginUnauthorized = "/login?reason=unauthorized"
	loginBanned       = "/login?reason=banned"
)

type CookieConfig struct {
	Secure   bool
	SameSite string
	Path     string
}

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
	cookie  CookieConfig
}

func NewHandler(service *Service, cookie CookieConfig) *Handler {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Handler{service: service, cookie: cookie}
}

// Register godoc
// @Summary		Register with email and password
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	RegisterRequest	true	"payload"
// @Success		201	{object}	map[string]interface{}
// @Router		/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	identity, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"identity":          identity,
		"verification_sent": true,
	})
}

// Login godoc
// @Summary		Sign in with email and password
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	LoginRequest	true	"payload"
// @Success		200	{object}	Session
// @Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password, clientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondSession(c, session)
}

// SignInWithGoogle godoc
// @Summary		Sign in with a Google ID token
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	GoogleTokenRequest	true	"payload"
// @Router		/auth/google [post]
func (h *Handler) SignInWithGoogle(c *gin.Context) {
	var req GoogleTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	session, err := h.service.SignInWithGoogle(c.Request.Context(), req.IDToken, clientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondSession(c, session)
}

// GoogleLogin godoc
// @Summary		Start the Google consent flow
// @Tags		Auth
// @Success		302
// @Router		/auth/google/login [get]
func (h *Handler) GoogleLogin(c *gin.Context) {
	state, nonce := randToken(), randToken()
	target, err := h.service.GoogleLoginURL(state, nonce)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthCookieMaxAge, h.cookie.Path, "", h.cookie.Secure, true)
	c.SetCookie(oauthNonceCookie, nonce, oauthCookieMaxAge, h.cookie.Path, "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, target)
}

// GoogleCallback godoc
// @Summary		Finish the Google consent flow
// @Tags		Auth
// @Produce		json
// @Param		code	query	string	true	"authorization code"
// @Param		state	query	string	true	"state"
// @Router		/auth/google/callback [get]
func (h *Handler) GoogleCallback(c *gin.Context) {
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		response.Redirect(c, http.StatusUnauthorized, "OAUTH_STATE_MISMATCH", "Sign-in could not be verified", loginUnauthorized)
		return
	}
	nonce, _ := c.Cookie(oauthNonceCookie)

	c.SetCookie(oauthStateCookie, "", -1, h.cookie.Path, "", h.cookie.Secure, true)
	c.SetCookie(oauthNonceCookie, "", -1, h.cookie.Path, "", h.cookie.Secure, true)

	session, err := h.service.GoogleCallback(c.Request.Context(), c.Query("code"), nonce, clientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondSession(c, session)
}

// Refresh godoc
// @Summary		Rotate the refresh token
// @Description	Reads the refresh token from the cookie or the JSON body.
// @Tags		Auth
// @Produce		json
// @Router		/auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	raw := refreshFromRequest(c)
	if raw == "" {
		response.CustomError(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is missing or invalid")
		return
	}

	session, err := h.service.Refresh(c.Request.Context(), raw, clientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondSession(c, session)
}

// Logout godoc
// @Summary		Sign out
// @Tags		Auth
// @Success		204	"No Content"
// @Router		/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	if raw := refreshFromRequest(c); raw != "" {
		if err := h.service.Logout(c.Request.Context(), raw); err != nil {
			slog.Error("logout failed", "err", err)
		}
	}
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(refreshCookie, "", -1, h.cookie.Path, "", h.cookie.Secure, true)
	c.Status(http.StatusNoContent)
}

// ChangePassword godoc
// @Summary		Change password (requires current password)
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Security	BearerAuth
// @Param		body	body	ChangePasswordRequest	true	"payload"
// @Router		/users/me/password [put]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}

	session, err := h.service.ChangePassword(c.Request.Context(), c.GetString("identity_id"),
		req.CurrentPassword, req.NewPassword, clientInfo(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondSession(c, session)
}

// RequestPasswordReset godoc
// @Summary		Mail a password reset link
// @Tags		Auth
// @Accept		json
// @Param		body	body	PasswordResetRequest	true	"payload"
// @Router		/auth/password/reset [post]
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}
	if err := h.service.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		slog.Error("password reset request failed", "err", err)
	}
	response.Success(c, http.StatusOK, gin.H{"status": "accepted"})
}

// ConfirmPasswordReset godoc
// @Summary		Set a new password with a mailed token
// @Tags		Auth
// @Accept		json
// @Param		body	body	PasswordResetConfirmRequest	true	"payload"
// @Router		/auth/password/reset/confirm [post]
func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "password_reset"})
}

// RequestEmailVerification godoc
// @Summary		Resend the verification link
// @Tags		Auth
// @Security	BearerAuth
// @Router		/auth/verify/request [post]
func (h *Handler) RequestEmailVerification(c *gin.Context) {
	if err := h.service.RequestEmailVerification(c.Request.Context(), c.GetString("identity_id")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "accepted"})
}

// ConfirmEmailVerification godoc
// @Summary		Confirm email with a mailed token
// @Tags		Auth
// @Accept		json
// @Param		body	body	VerifyConfirmRequest	true	"payload"
// @Router		/auth/verify/confirm [post]
func (h *Handler) ConfirmEmailVerification(c *gin.Context) {
	var req VerifyConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.Fields(err))
		return
	}
	if err := h.service.ConfirmEmail(c.Request.Context(), req.Token); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "verified"})
}

func (h *Handler) respondSession(c *gin.Context, s *Session) {
	c.SetSameSite(parseSameSite(h.cookie.SameSite))
	c.SetCookie(refreshCookie, s.RefreshToken, int(h.service.cfg.RefreshTTL.Seconds()), h.cookie.Path, "", h.cookie.Secure, true)
	response.Success(c, http.StatusOK, s)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidDisplayName):
		response.CustomError(c, http.StatusBadRequest, "VALIDATION_ERROR", err)
	case errors.Is(err, ErrEmailAlreadyExists):
		response.CustomError(c, http.StatusConflict, "EMAIL_ALREADY_EXISTS", "An account with this email already exists")
	case errors.Is(err, ErrInvalidCredentials):
		response.CustomError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrReauthRequired):
		response.CustomError(c, http.StatusUnauthorized, "REAUTH_REQUIRED", err)
	case errors.Is(err, ErrProfileMissing):
		response.Redirect(c, http.StatusForbidden, "PROFILE_MISSING", "No profile exists for this account", loginUnauthorized)
	case errors.Is(err, ErrAccountBanned):
		response.Redirect(c, http.StatusForbidden, "ACCOUNT_BANNED", "Account is banned", loginBanned)
	case errors.Is(err, ErrEmailNotVerified):
		response.CustomError(c, http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email before signing in")
	case errors.Is(err, ErrInvalidRefreshToken):
		response.CustomError(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired")
	case errors.Is(err, ErrRefreshTokenReused):
		response.CustomError(c, http.StatusUnauthorized, "REFRESH_TOKEN_REUSED", "Refresh token reuse detected")
	case errors.Is(err, ErrInvalidActionToken):
		response.CustomError(c, http.StatusBadRequest, "INVALID_TOKEN", err)
	case errors.Is(err, ErrIdentityNotFound):
		response.Redirect(c, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", loginUnauthorized)
	case errors.Is(err, ErrGoogleDisabled):
		response.CustomError(c, http.StatusNotFound, "GOOGLE_DISABLED", err)
	case errors.Is(err, ErrFederatedSignIn):
		response.CustomError(c, http.StatusUnauthorized, "FEDERATED_SIGN_IN_FAILED", "Google sign-in failed")
	default:
		slog.Error("auth request failed", "path", c.FullPath(), "err", err)
		response.CustomError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed")
	}
}

func clientInfo(c *gin.Context) ClientInfo {
	return ClientInfo{UserAgent: c.Request.UserAgent(), IP: c.ClientIP()}
}

func refreshFromRequest(c *gin.Context) string {
	if raw, err := c.Cookie(refreshCookie); err == nil && strings.TrimSpace(raw) != "" {
		return raw
	}
	var body RefreshRequest
	if err := c.ShouldBindJSON(&body); err == nil {
		return strings.TrimSpace(body.RefreshToken)
	}
	return ""
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func randToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
