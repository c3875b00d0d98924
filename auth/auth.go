package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized indicates authentication failed or no valid credentials
// were supplied.
var ErrUnauthorized = errors.New("unauthorized")

// UserInfo represents an authenticated principal.
type UserInfo interface {
	// UserID returns the unique identifier for the user.
	UserID() string
}

// TokenVerifier validates a session token presented out-of-band (environment
// variable or command line) before the stream is handed to the engine. It
// should return ErrUnauthorized for invalid credentials.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tok string) (UserInfo, error)
}

// HMACVerifier validates HS256-signed JWTs against a shared secret. It is the
// right fit for the stdio deployment model, where the operator that spawns
// the server process also mints the token for it.
type HMACVerifier struct {
	secret []byte
}

// NewHMACVerifier builds a verifier for the given shared secret.
func NewHMACVerifier(secret []byte) (*HMACVerifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	return &HMACVerifier{secret: secret}, nil
}

// VerifyToken implements TokenVerifier.
func (v *HMACVerifier) VerifyToken(ctx context.Context, tok string) (UserInfo, error) {
	parsed, err := jwt.Parse(tok, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return nil, ErrUnauthorized
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("%w: token missing subject", ErrUnauthorized)
	}
	return user{id: sub}, nil
}

type user struct {
	id string
}

func (u user) UserID() string { return u.id }
