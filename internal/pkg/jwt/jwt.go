package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

type Service struct {
	secret []byte
	ttl    time.Duration
}

// Claims carry the session identity. Privileges are not part of the token:
// they live on the profile and are resolved per request.
type Claims struct {
	IdentityID    string   `json:"uid"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"email_verified"`
	Providers     []string `json:"providers,omitempty"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *Service) TTL() time.Duration { return s.ttl }

func (s *Service) GenerateToken(identityID, email string, emailVerified bool, providers []string) (string, error) {
	now := time.Now()
	claims := Claims{
		IdentityID:    identityID,
		Email:         email,
		EmailVerified: emailVerified,
		Providers:     providers,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   identityID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.IdentityID == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
