package auth

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)

// Identity is the authentication record. Its ID is also the ID of the
// user's profile.
type Identity struct {
	ID            string    `gorm:"column:id;primaryKey" json:"id"`
	Email         string    `gorm:"column:email;uniqueIndex" json:"email"`
	PasswordHash  string    `gorm:"column:password_hash" json:"-"`
	DisplayName   string    `gorm:"column:display_name" json:"display_name,omitempty"`
	PhotoURL      string    `gorm:"column:photo_url" json:"photo_url,omitempty"`
	EmailVerified bool      `gorm:"column:email_verified;not null;default:false" json:"email_verified"`
	Providers     Providers `gorm:"column:providers;type:text" json:"providers"`
	GoogleSubject *string   `gorm:"column:google_subject;uniqueIndex" json:"-"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Identity) TableName() string { return "identities" }

func (i *Identity) HasProvider(p string) bool {
	return slices.Contains(i.Providers, p)
}

// Providers is stored as a JSON array.
type Providers []string

func (p Providers) Value() (driver.Value, error) {
	if p == nil {
		p = Providers{}
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *Providers) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("providers: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(p))
}

type RefreshToken struct {
	ID         string     `gorm:"column:id;primaryKey"`
	IdentityID string     `gorm:"column:identity_id;index"`
	TokenHash  string     `gorm:"column:token_hash;uniqueIndex"`
	UserAgent  string     `gorm:"column:user_agent"`
	IP         string     `gorm:"column:ip"`
	ExpiresAt  time.Time  `gorm:"column:expires_at"`
	RevokedAt  *time.Time `gorm:"column:revoked_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify_email"
	PurposePasswordReset Purpose = "password_reset"
)

// ActionToken is a one-time token mailed to the user.
type ActionToken struct {
	ID         string     `gorm:"column:id;primaryKey"`
	IdentityID string     `gorm:"column:identity_id;index"`
	Purpose    Purpose    `gorm:"column:purpose"`
	TokenHash  string     `gorm:"column:token_hash;uniqueIndex"`
	ExpiresAt  time.Time  `gorm:"column:expires_at"`
	UsedAt     *time.Time `gorm:"column:used_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (ActionToken) TableName() string { return "auth_action_tokens" }

// Models lists the tables owned by this package, for migrations.
func Models() []any {
	return []any{&Identity{}, &RefreshToken{}, &ActionToken{}}
}
