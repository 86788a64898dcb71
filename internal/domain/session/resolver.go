package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"workspots/internal/domain/auth"
	"workspots/internal/domain/profile"
)

type IdentitySource interface {
	Reload(ctx context.Context, identityID string) (*auth.Identity, error)
}

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*profile.Profile, error)
	Update(ctx context.Context, id string, fields map[string]any) error
}

// Resolver builds a State from an identity ID.
type Resolver struct {
	identities IdentitySource
	profiles   ProfileStore
}

func NewResolver(identities IdentitySource, profiles ProfileStore) *Resolver {
	return &Resolver{identities: identities, profiles: profiles}
}

// Resolve forces a fresh identity read, then reads the profile and heals its
// verification flag. Profile failures leave the user signed in without
// privileges.
func (r *Resolver) Resolve(ctx context.Context, identityID string) State {
	if identityID == "" {
		return State{}
	}

	identity, err := r.identities.Reload(ctx, identityID)
	if err != nil {
		if !errors.Is(err, auth.ErrIdentityNotFound) {
			slog.Error("reload identity", "identity_id", identityID, "err", err)
		}
		return State{}
	}

	p, err := r.loadProfile(ctx, identity)
	if err != nil {
		if !errors.Is(err, profile.ErrProfileNotFound) {
			slog.Error("resolve profile", "identity_id", identityID, "err", err)
		}
		return State{Identity: identity}
	}
	return State{Identity: identity, Profile: p}
}

// CheckSignIn is the password sign-in gate: the profile must exist, must not
// be banned and the email must be verified once the flag is healed.
func (r *Resolver) CheckSignIn(ctx context.Context, identity *auth.Identity) error {
	p, err := r.loadProfile(ctx, identity)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return auth.ErrProfileMissing
		}
		return err
	}
	if p.IsBanned {
		return auth.ErrAccountBanned
	}
	if !identity.EmailVerified && p.Verification != profile.VerificationYes {
		return auth.ErrEmailNotVerified
	}
	return nil
}

func (r *Resolver) loadProfile(ctx context.Context, identity *auth.Identity) (*profile.Profile, error) {
	p, err := r.profiles.GetByID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if p.NeedsVerificationHeal(identity.EmailVerified) {
		if err := r.profiles.Update(ctx, p.ID, map[string]any{"is_verified": profile.VerificationYes}); err != nil {
			return nil, fmt.Errorf("heal verification flag: %w", err)
		}
		p.Verification = profile.VerificationYes
	}
	return p, nil
}
