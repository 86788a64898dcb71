package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CreateIdentity(ctx context.Context, i *Identity) error
	GetIdentityByID(ctx context.Context, id string) (*Identity, error)
	GetIdentityByEmail(ctx context.Context, email string) (*Identity, error)
	GetIdentityByGoogleSubject(ctx context.Context, sub string) (*Identity, error)
	UpdateIdentity(ctx context.Context, id string, fields map[string]any) error
	DeleteIdentity(ctx context.Context, id string) error

	CreateRefreshToken(ctx context.Context, t *RefreshToken) error
	RotateRefreshToken(ctx context.Context, hash string, next *RefreshToken, now time.Time) error
	RevokeRefreshToken(ctx context.Context, hash string, now time.Time) (identityID string, err error)
	RevokeAllRefreshTokens(ctx context.Context, identityID string, now time.Time) error

	CreateActionToken(ctx context.Context, t *ActionToken) error
	ConsumeActionToken(ctx context.Context, hash string, purpose Purpose, now time.Time) (*ActionToken, error)

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateIdentity(ctx context.Context, i *Identity) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *repository) GetIdentityByID(ctx context.Context, id string) (*Identity, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetIdentityByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.first(ctx, "email = ?", normalizeEmail(email))
}

func (r *repository) GetIdentityByGoogleSubject(ctx context.Context, sub string) (*Identity, error) {
	return r.first(ctx, "google_subject = ?", sub)
}

func (r *repository) first(ctx context.Context, query string, arg any) (*Identity, error) {
	var i Identity
	err := r.db.WithContext(ctx).Where(query, arg).First(&i).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *repository) UpdateIdentity(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&Identity{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// DeleteIdentity removes the identity together with its tokens.
func (r *repository) DeleteIdentity(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identity_id = ?", id).Delete(&RefreshToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("identity_id = ?", id).Delete(&ActionToken{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Identity{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrIdentityNotFound
		}
		return nil
	})
}

func (r *repository) CreateRefreshToken(ctx context.Context, t *RefreshToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// RotateRefreshToken revokes the token with the given hash and stores next in
// its place. Presenting an already revoked token revokes every token of
// the identity and returns ErrRefreshTokenReused.
func (r *repository) RotateRefreshToken(ctx context.Context, hash string, next *RefreshToken, now time.Time) error {
	reused := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current RefreshToken
		if err := tx.Where("token_hash = ?", hash).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}

		if current.RevokedAt != nil {
			reused = true
			return revokeAll(tx, current.IdentityID, now)
		}
		if !current.ExpiresAt.After(now) {
			return ErrInvalidRefreshToken
		}

		// compare-and-set so two concurrent rotations cannot both win
		res := tx.Model(&RefreshToken{}).
			Where("id = ? AND revoked_at IS NULL", current.ID).
			Update("revoked_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			reused = true
			return revokeAll(tx, current.IdentityID, now)
		}

		next.IdentityID = current.IdentityID
		return tx.Create(next).Error
	})
	if err != nil {
		return err
	}
	if reused {
		return ErrRefreshTokenReused
	}
	return nil
}

func (r *repository) RevokeRefreshToken(ctx context.Context, hash string, now time.Time) (string, error) {
	var token RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if token.RevokedAt != nil {
		return token.IdentityID, nil
	}
	err = r.db.WithContext(ctx).Model(&RefreshToken{}).Where("id = ?", token.ID).Update("revoked_at", now).Error
	return token.IdentityID, err
}

func (r *repository) RevokeAllRefreshTokens(ctx context.Context, identityID string, now time.Time) error {
	return revokeAll(r.db.WithContext(ctx), identityID, now)
}

func revokeAll(db *gorm.DB, identityID string, now time.Time) error {
	return db.Model(&RefreshToken{}).
		Where("identity_id = ? AND revoked_at IS NULL", identityID).
		Update("revoked_at", now).Error
}

func (r *repository) CreateActionToken(ctx context.Context, t *ActionToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ConsumeActionToken marks a live token as used and returns it.
func (r *repository) ConsumeActionToken(ctx context.Context, hash string, purpose Purpose, now time.Time) (*ActionToken, error) {
	var out *ActionToken
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t ActionToken
		err := tx.Where("token_hash = ? AND purpose = ?", hash, purpose).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidActionToken
		}
		if err != nil {
			return err
		}
		if t.UsedAt != nil || !t.ExpiresAt.After(now) {
			return ErrInvalidActionToken
		}

		res := tx.Model(&ActionToken{}).Where("id = ? AND used_at IS NULL", t.ID).Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidActionToken
		}
		t.UsedAt = &now
		out = &t
		return nil
	})
	return out, err
}

// DeleteExpired purges expired or revoked refresh tokens and spent action
// tokens.
func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at < ? OR revoked_at IS NOT NULL", now).Delete(&RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = tx.Where("expires_at < ? OR used_at IS NOT NULL", now).Delete(&ActionToken{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	return total, err
}
