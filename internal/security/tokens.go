package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, signed
	// with the wrong key or algorithm, or missing required claims. Callers
	// must not distinguish these cases to clients.
	ErrInvalidToken = errors.New("invalid token")
)

// TokenIssuer issues and verifies HS256-signed access tokens using a single
// shared secret. The only verifier is the issuer's own process, which is the
// scale limit that makes a symmetric key acceptable here.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	nowF   func() time.Time
}

// NewTokenIssuer returns a TokenIssuer signing with secret. ttl is the fixed
// token lifetime (exp = iat + ttl); 30 minutes when zero or negative.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TokenIssuer{
		secret: secret,
		ttl:    ttl,
		nowF:   func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a signed token for the given user id with claims sub, iat,
// exp, and a fresh random jti. The jti has no verifier-side use yet; it is
// issued so a revocation store can be added without a token format change.
func (p *TokenIssuer) Issue(subject int64) (string, error) {
	now := p.nowF()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(subject, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.secret)
}

// Verify parses and validates the token (signature, exp, structure) and
// returns the subject user id. Only HS256 is accepted; any failure is
// ErrInvalidToken.
func (p *TokenIssuer) Verify(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.nowF))
	if err != nil {
		return 0, ErrInvalidToken
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}
