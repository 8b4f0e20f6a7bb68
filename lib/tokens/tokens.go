// Package tokens issues and validates the signed tokens the app hands out:
// access/refresh tokens for its own sessions, email-activation tokens, and
// time-limited ticket-retrieval tokens that let a bus ticket URL be shared
// without re-presenting the portal session.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
	TypeEmail   Type = "email"
	TypeTicket  Type = "ticket"
)

// Default lifetimes per token type.
const (
	AccessTTL  = time.Hour
	RefreshTTL = 30 * 24 * time.Hour
	TicketTTL  = 7 * 24 * time.Hour
)

var (
	ErrExpired = errors.New("token has expired")
	ErrInvalid = errors.New("token is invalid")
)

// Config maps each token type to its signing secret. Each type gets its own
// secret so a leaked ticket token can never stand in for an access token.
type Config struct {
	Secrets map[Type]string `json:"secrets"`
}

type Issuer struct {
	secrets map[Type][]byte
}

func NewIssuer(config Config) Issuer {
	secrets := make(map[Type][]byte, len(config.Secrets))
	for typ, secret := range config.Secrets {
		secrets[typ] = []byte(secret)
	}
	return Issuer{secrets: secrets}
}

func (i Issuer) secret(typ Type) ([]byte, error) {
	secret, ok := i.secrets[typ]
	if !ok {
		return nil, fmt.Errorf("no secret configured for token type %q", typ)
	}
	return secret, nil
}

// Issue signs the given claims as a token of the given type.
func (i Issuer) Issue(claims map[string]any, typ Type, ttl time.Duration) (string, error) {
	secret, err := i.secret(typ)
	if err != nil {
		return "", err
	}

	all := jwt.MapClaims{
		"typ": string(typ),
		"exp": time.Now().Add(ttl).Unix(),
	}
	for k, v := range claims {
		all[k] = v
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, all).SignedString(secret)
}

// Validate checks the token's signature, expiry and type, returning its
// claims. Failures are always ErrExpired or ErrInvalid.
func (i Issuer) Validate(token string, typ Type) (map[string]any, error) {
	secret, err := i.secret(typ)
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpired
	}
	if err != nil {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != string(typ) {
		return nil, ErrInvalid
	}
	return claims, nil
}
