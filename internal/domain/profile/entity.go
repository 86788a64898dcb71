package profile

import (
	"strings"
	"time"

	"workspots/internal/pkg/sanitize"
)

const (
	MinDisplayNameLength = 3
	MaxDisplayNameLength = 10
	MaxJobLength         = 60

	PlaceholderAvatarURL = "https://ui-avatars.com/api/?name=User&background=random"
)

// Verification mirrors the profile's own copy of the email-verified flag.
// It is synced from the identity lazily, see session.Resolver.
type Verification string

const (
	VerificationUnset Verification = ""
	VerificationNo    Verification = "no"
	VerificationYes   Verification = "yes"
)

// JobChoices are offered by clients as presets; free text is accepted too.
var JobChoices = []string{
	"Software Developer",
	"Designer",
	"Writer",
	"Marketer",
	"Consultant",
	"Student",
	"Freelancer",
	"Other",
}

// Profile is the application-level user record. ID always equals the
// owning identity's ID.
type Profile struct {
	ID            string       `gorm:"column:id;primaryKey" json:"id"`
	Email         string       `gorm:"column:email;index" json:"email"`
	DisplayName   string       `gorm:"column:display_name" json:"display_name"`
	AvatarURL     string       `gorm:"column:avatar_url" json:"avatar_url"`
	JobOccupation string       `gorm:"column:job_occupation" json:"job_occupation"`
	IsAdmin       bool         `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	IsBanned      bool         `gorm:"column:is_banned;not null;default:false" json:"is_banned"`
	Verification  Verification `gorm:"column:is_verified" json:"is_verified"`
	CreatedAt     time.Time    `gorm:"column:created_at;index" json:"created_at"`
}

func (Profile) TableName() string { return "users" }

// New builds a profile keyed by the identity that owns it.
func New(identityID, email, displayName, avatarURL string, v Verification) *Profile {
	p := &Profile{
		ID:           identityID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  displayName,
		AvatarURL:    avatarURL,
		Verification: v,
		CreatedAt:    time.Now().UTC(),
	}
	p.Validate()
	return p
}

// Validate normalises a record read from storage.
func (p *Profile) Validate() {
	switch p.Verification {
	case VerificationNo, VerificationYes:
	default:
		p.Verification = VerificationUnset
	}
	p.DisplayName = sanitize.Truncate(p.DisplayName, MaxDisplayNameLength)
	p.JobOccupation = sanitize.Truncate(p.JobOccupation, MaxJobLength)
}

func (p *Profile) NeedsVerificationHeal(identityVerified bool) bool {
	return identityVerified && p.Verification == VerificationNo
}
