package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/minishop/internal/domain/user"
)

// ErrInvalidToken is returned for tokens that fail parsing, signature
// verification, or expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID string
	Role   user.Role
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == user.RoleAdmin
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// TokenProvider issues and verifies HS256 JWTs carrying the user id and role.
type TokenProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenProvider creates a TokenProvider signing with secret; issued
// tokens expire after ttl.
func NewTokenProvider(secret []byte, ttl time.Duration) *TokenProvider {
	return &TokenProvider{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the user.
func (p *TokenProvider) Issue(u *user.User) (string, error) {
	now := p.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
		Role: string(u.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify parses and validates a token, returning the caller identity.
func (p *TokenProvider) Verify(raw string) (*Identity, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return p.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID: claims.Subject,
		Role:   user.Role(claims.Role),
	}, nil
}
