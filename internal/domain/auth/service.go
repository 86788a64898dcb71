package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"workspots/internal/database"
	"workspots/internal/domain/profile"
	"workspots/internal/pkg/sanitize"
	"workspots/internal/pkg/validator"

	"github.com/google/uuid"
)

type TokenIssuer interface {
	GenerateToken(identityID, email string, emailVerified bool, providers []string) (string, error)
	TTL() time.Duration
}

// ProfileStore is the slice of the profile repository auth needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
	Create(ctx context.Context, p *profile.Profile) error
	Delete(ctx context.Context, id string) error
}

// SignInPolicy decides whether a password-authenticated identity may get a
// session. It may repair profile state before deciding.
type SignInPolicy interface {
	CheckSignIn(ctx context.Context, identity *Identity) error
}

type ServiceConfig struct {
	TokenPepper    string
	RefreshTTL     time.Duration
	ActionTokenTTL time.Duration
	PublicBaseURL  string
}

// Service contains all business logic for authentication
type Service struct {
	repo     Repository
	profiles ProfileStore
	tokens   TokenIssuer
	mailer   Mailer
	events   *Events
	policy   SignInPolicy
	google   FederatedProvider
	cfg      ServiceConfig
	now      func() time.Time
}

func NewService(repo Repository, profiles ProfileStore, tokens TokenIssuer, mailer Mailer, events *Events, cfg ServiceConfig) *Service {
	if events == nil {
		events = NewEvents()
	}
	return &Service{
		repo:     repo,
		profiles: profiles,
		tokens:   tokens,
		mailer:   mailer,
		events:   events,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetSignInPolicy installs the password sign-in gate. The policy usually
// depends on this service, so it is wired after construction.
func (s *Service) SetSignInPolicy(p SignInPolicy) { s.policy = p }

// SetGoogle enables Google sign-in.
func (s *Service) SetGoogle(p FederatedProvider) { s.google = p }

func (s *Service) GoogleEnabled() bool { return s.google != nil }

func (s *Service) Events() *Events { return s.events }

// Session is the result of every successful sign-in or refresh.
type Session struct {
	Identity     *Identity `json:"identity"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
}

type ClientInfo struct {
	UserAgent string
	IP        string
}

// Register creates a password identity and its unverified profile, then
// mails a verification link. It does not sign the user in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Identity, error) {
	email := normalizeEmail(req.Email)
	if err := validator.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	name := sanitize.Text(req.DisplayName)
	if n := sanitize.Len(name); n < profile.MinDisplayNameLength || n > profile.MaxDisplayNameLength {
		return nil, ErrInvalidDisplayName
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	identity := &Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		Providers:    Providers{ProviderPassword},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	if err := s.profiles.Create(ctx, profile.New(identity.ID, email, name, "", profile.VerificationNo)); err != nil {
		if delErr := s.repo.DeleteIdentity(ctx, identity.ID); delErr != nil {
			slog.Error("rollback identity after profile failure", "identity_id", identity.ID, "err", delErr)
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if err := s.sendVerification(ctx, identity); err != nil {
		slog.Error("send verification email", "identity_id", identity.ID, "err", err)
	}
	return identity, nil
}

// Login authenticates with email and password and applies the sign-in policy.
func (s *Service) Login(ctx context.Context, email, password string, client ClientInfo) (*Session, error) {
	identity, err := s.repo.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if identity.PasswordHash == "" || CheckPassword(password, identity.PasswordHash) != nil {
		return nil, ErrInvalidCredentials
	}

	if s.policy != nil {
		if err := s.policy.CheckSignIn(ctx, identity); err != nil {
			return nil, err
		}
	}

	return s.startSession(ctx, identity, client, EventSignedIn)
}

// GoogleLoginURL returns the consent URL for the authorization-code flow.
func (s *Service) GoogleLoginURL(state, nonce string) (string, error) {
	if s.google == nil {
		return "", ErrGoogleDisabled
	}
	return s.google.LoginURL(state, nonce), nil
}

// GoogleCallback completes the authorization-code flow. nonce is the value
// sent with GoogleLoginURL.
func (s *Service) GoogleCallback(ctx context.Context, code, nonce string, client ClientInfo) (*Session, error) {
	if s.google == nil {
		return nil, ErrGoogleDisabled
	}
	fu, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if nonce != "" && fu.Nonce != nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", ErrFederatedSignIn)
	}
	return s.federatedSignIn(ctx, fu, client)
}

// SignInWithGoogle accepts an ID token obtained by the client directly.
func (s *Service) SignInWithGoogle(ctx context.Context, rawIDToken string, client ClientInfo) (*Session, error) {
	if s.google == nil {
		return nil, ErrGoogleDisabled
	}
	fu, err := s.google.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	return s.federatedSignIn(ctx, fu, client)
}

func (s *Service) federatedSignIn(ctx context.Context, fu *FederatedUser, client ClientInfo) (*Session, error) {
	if fu.Subject == "" || fu.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", ErrFederatedSignIn)
	}

	identity, err := s.linkFederated(ctx, fu)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByID(ctx, identity.ID)
	switch {
	case errors.Is(err, profile.ErrProfileNotFound):
		avatar := fu.Picture
		if avatar == "" {
			avatar = profile.PlaceholderAvatarURL
		}
		name := sanitize.Truncate(sanitize.Text(fu.Name), profile.MaxDisplayNameLength)
		p = profile.New(identity.ID, identity.Email, name, avatar, profile.VerificationYes)
		if err := s.profiles.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
	case err != nil:
		return nil, err
	}

	if p.IsBanned {
		return nil, ErrAccountBanned
	}
	return s.startSession(ctx, identity, client, EventSignedIn)
}

// linkFederated finds the identity by Google subject, then by email, and
// creates one when neither exists.
func (s *Service) linkFederated(ctx context.Context, fu *FederatedUser) (*Identity, error) {
	identity, err := s.repo.GetIdentityByGoogleSubject(ctx, fu.Subject)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return nil, err
	}

	sub := fu.Subject
	identity, err = s.repo.GetIdentityByEmail(ctx, fu.Email)
	switch {
	case err == nil:
		providers := identity.Providers
		if !identity.HasProvider(ProviderGoogle) {
			providers = append(providers, ProviderGoogle)
		}
		fields := map[string]any{
			"google_subject": sub,
			"providers":      providers,
			"updated_at":     s.now(),
		}
		if fu.EmailVerified {
			fields["email_verified"] = true
		}
		if err := s.repo.UpdateIdentity(ctx, identity.ID, fields); err != nil {
			return nil, err
		}
		return s.repo.GetIdentityByID(ctx, identity.ID)
	case errors.Is(err, ErrIdentityNotFound):
	default:
		return nil, err
	}

	now := s.now()
	identity = &Identity{
		ID:            uuid.NewString(),
		Email:         normalizeEmail(fu.Email),
		DisplayName:   fu.Name,
		PhotoURL:      fu.Picture,
		EmailVerified: fu.EmailVerified,
		Providers:     Providers{ProviderGoogle},
		GoogleSubject: &sub,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateIdentity(ctx, identity); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return identity, nil
}

// Refresh rotates a refresh token. Reusing a rotated token revokes every
// session of the identity.
func (s *Service) Refresh(ctx context.Context, refreshRaw string, client ClientInfo) (*Session, error) {
	now := s.now()
	raw, hash, err := generateOpaqueToken(s.cfg.TokenPepper)
	if err != nil {
		return nil, err
	}
	next := &RefreshToken{
		ID:        uuid.NewString(),
		TokenHash: hash,
		UserAgent: client.UserAgent,
		IP:        client.IP,
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
		CreatedAt: now,
	}

	if err := s.repo.RotateRefreshToken(ctx, hashToken(refreshRaw, s.cfg.TokenPepper), next, now); err != nil {
		if errors.Is(err, ErrRefreshTokenReused) {
			slog.Warn("refresh token reuse detected")
		}
		return nil, err
	}

	identity, err := s.repo.GetIdentityByID(ctx, next.IdentityID)
	if err != nil {
		return nil, err
	}
	if p, err := s.profiles.GetByID(ctx, identity.ID); err == nil && p.IsBanned {
		_ = s.repo.RevokeAllRefreshTokens(ctx, identity.ID, now)
		return nil, ErrAccountBanned
	}

	access, err := s.tokens.GenerateToken(identity.ID, identity.Email, identity.EmailVerified, identity.Providers)
	if err != nil {
		return nil, err
	}
	s.events.Publish(EventTokenRefreshed, identity.ID)

	return &Session{
		Identity:     identity,
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Logout revokes one refresh token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, refreshRaw string) error {
	identityID, err := s.repo.RevokeRefreshToken(ctx, hashToken(refreshRaw, s.cfg.TokenPepper), s.now())
	if err != nil {
		return err
	}
	if identityID != "" {
		s.events.Publish(EventSignedOut, identityID)
	}
	return nil
}

// Reload re-reads the identity so callers see out-of-band changes such as
// a confirmed email.
func (s *Service) Reload(ctx context.Context, identityID string) (*Identity, error) {
	return s.repo.GetIdentityByID(ctx, identityID)
}

// ChangePassword requires the current password. Every other session is
// revoked and a fresh one is returned.
func (s *Service) ChangePassword(ctx context.Context, identityID, current, next string, client ClientInfo) (*Session, error) {
	identity, err := s.repo.GetIdentityByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if identity.PasswordHash == "" || current == "" {
		return nil, ErrReauthRequired
	}
	if CheckPassword(current, identity.PasswordHash) != nil {
		return nil, ErrInvalidCredentials
	}
	if err := ValidatePassword(next); err != nil {
		return nil, err
	}

	if err := s.setPassword(ctx, identity, next); err != nil {
		return nil, err
	}
	return s.startSession(ctx, identity, client, EventTokenRefreshed)
}

// RequestPasswordReset mails a reset link. Unknown addresses are accepted
// silently.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	identity, err := s.repo.GetIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			slog.Info("password reset for unknown email (masked)")
			return nil
		}
		return err
	}

	raw, err := s.issueActionToken(ctx, identity.ID, PurposePasswordReset)
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, identity.Email, s.link("/reset-password", raw))
}

func (s *Service) ResetPassword(ctx context.Context, token, next string) error {
	if err := ValidatePassword(next); err != nil {
		return err
	}
	t, err := s.repo.ConsumeActionToken(ctx, hashToken(token, s.cfg.TokenPepper), PurposePasswordReset, s.now())
	if err != nil {
		return err
	}
	identity, err := s.repo.GetIdentityByID(ctx, t.IdentityID)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, identity, next); err != nil {
		return err
	}
	s.events.Publish(EventSignedOut, identity.ID)
	return nil
}

// RequestEmailVerification mails a new verification link unless the
// identity is already verified.
func (s *Service) RequestEmailVerification(ctx context.Context, identityID string) error {
	identity, err := s.repo.GetIdentityByID(ctx, identityID)
	if err != nil {
		return err
	}
	if identity.EmailVerified {
		return nil
	}
	return s.sendVerification(ctx, identity)
}

// ConfirmEmail marks the identity verified. The profile copy of the flag
// is healed on the next session resolve.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	t, err := s.repo.ConsumeActionToken(ctx, hashToken(token, s.cfg.TokenPepper), PurposeVerifyEmail, s.now())
	if err != nil {
		return err
	}
	if err := s.repo.UpdateIdentity(ctx, t.IdentityID, map[string]any{
		"email_verified": true,
		"updated_at":     s.now(),
	}); err != nil {
		return err
	}
	s.events.Publish(EventTokenRefreshed, t.IdentityID)
	return nil
}

// DeleteIdentity removes the identity and then its profile. The identity
// goes first so a failure in between leaves an account that cannot sign in,
// and a retry finishes the job. Deleting a user that has neither record
// reports profile.ErrProfileNotFound.
func (s *Service) DeleteIdentity(ctx context.Context, identityID string) error {
	identityErr := s.repo.DeleteIdentity(ctx, identityID)
	if identityErr != nil && !errors.Is(identityErr, ErrIdentityNotFound) {
		return identityErr
	}
	if identityErr == nil {
		s.events.Publish(EventSignedOut, identityID)
	}

	err := s.profiles.Delete(ctx, identityID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, profile.ErrProfileNotFound) && identityErr == nil:
		return nil
	case errors.Is(err, profile.ErrProfileNotFound):
		return profile.ErrProfileNotFound
	default:
		return fmt.Errorf("delete profile after identity: %w", err)
	}
}

// RevokeSessions ends every refresh session of the identity.
func (s *Service) RevokeSessions(ctx context.Context, identityID string) error {
	if err := s.repo.RevokeAllRefreshTokens(ctx, identityID, s.now()); err != nil {
		return err
	}
	s.events.Publish(EventSignedOut, identityID)
	return nil
}

// CleanupExpired deletes dead refresh and action tokens.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *Service) startSession(ctx context.Context, identity *Identity, client ClientInfo, ev EventType) (*Session, error) {
	access, err := s.tokens.GenerateToken(identity.ID, identity.Email, identity.EmailVerified, identity.Providers)
	if err != nil {
		return nil, err
	}

	raw, hash, err := generateOpaqueToken(s.cfg.TokenPepper)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.repo.CreateRefreshToken(ctx, &RefreshToken{
		ID:         uuid.NewString(),
		IdentityID: identity.ID,
		TokenHash:  hash,
		UserAgent:  client.UserAgent,
		IP:         client.IP,
		ExpiresAt:  now.Add(s.cfg.RefreshTTL),
		CreatedAt:  now,
	}); err != nil {
		return nil, err
	}

	s.events.Publish(ev, identity.ID)
	return &Session{
		Identity:     identity,
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}

func (s *Service) setPassword(ctx context.Context, identity *Identity, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	providers := identity.Providers
	if !identity.HasProvider(ProviderPassword) {
		providers = append(providers, ProviderPassword)
	}
	if err := s.repo.UpdateIdentity(ctx, identity.ID, map[string]any{
		"password_hash": hash,
		"providers":     providers,
		"updated_at":    s.now(),
	}); err != nil {
		return err
	}
	identity.PasswordHash = hash
	identity.Providers = providers
	return s.repo.RevokeAllRefreshTokens(ctx, identity.ID, s.now())
}

func (s *Service) sendVerification(ctx context.Context, identity *Identity) error {
	raw, err := s.issueActionToken(ctx, identity.ID, PurposeVerifyEmail)
	if err != nil {
		return err
	}
	return s.mailer.SendVerification(ctx, identity.Email, s.link("/verify-email", raw))
}

func (s *Service) issueActionToken(ctx context.Context, identityID string, purpose Purpose) (string, error) {
	raw, hash, err := generateOpaqueToken(s.cfg.TokenPepper)
	if err != nil {
		return "", err
	}
	now := s.now()
	if err := s.repo.CreateActionToken(ctx, &ActionToken{
		ID:         uuid.NewString(),
		IdentityID: identityID,
		Purpose:    purpose,
		TokenHash:  hash,
		ExpiresAt:  now.Add(s.cfg.ActionTokenTTL),
		CreatedAt:  now,
	}); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *Service) link(path, token string) string {
	return s.cfg.PublicBaseURL + path + "?token=" + url.QueryEscape(token)
}
