package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is how long an issued session token stays valid. Logout does
// not revoke tokens server-side, so this bounds the lifetime of a stolen
// cookie as well.
const SessionTTL = 2 * time.Hour

// ErrInvalidToken is the only error Verify returns. Expired, tampered and
// malformed tokens are deliberately indistinguishable to the caller.
var ErrInvalidToken = errors.New("invalid session token")

type SessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// TokenIssuer signs and verifies HS256 session tokens. The embedded role is
// informational only; the auth middleware re-resolves the account on every
// request, so a role change takes effect before the token expires.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

func (t *TokenIssuer) Issue(userID, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role: role,
	})

	return token.SignedString(t.secret)
}

func (t *TokenIssuer) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
