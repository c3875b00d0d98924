package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestHMACVerifier_ValidToken(t *testing.T) {
	secret := []byte("test-secret")
	v, err := NewHMACVerifier(secret)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	tok := mintToken(t, secret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	info, err := v.VerifyToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if info.UserID() != "user-1" {
		t.Fatalf("user id = %q", info.UserID())
	}
}

func TestHMACVerifier_WrongSecret(t *testing.T) {
	v, err := NewHMACVerifier([]byte("right-secret"))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	tok := mintToken(t, []byte("wrong-secret"), jwt.MapClaims{"sub": "user-1"})
	if _, err := v.VerifyToken(context.Background(), tok); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong secret error = %v, want ErrUnauthorized", err)
	}
}

func TestHMACVerifier_MissingSubject(t *testing.T) {
	secret := []byte("test-secret")
	v, err := NewHMACVerifier(secret)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	tok := mintToken(t, secret, jwt.MapClaims{"aud": "mcp"})
	if _, err := v.VerifyToken(context.Background(), tok); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("missing sub error = %v, want ErrUnauthorized", err)
	}
}

func TestHMACVerifier_ExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	v, err := NewHMACVerifier(secret)
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	tok := mintToken(t, secret, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := v.VerifyToken(context.Background(), tok); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expired token error = %v, want ErrUnauthorized", err)
	}
}

func TestHMACVerifier_GarbageToken(t *testing.T) {
	v, err := NewHMACVerifier([]byte("test-secret"))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if _, err := v.VerifyToken(context.Background(), "not-a-jwt"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("garbage token error = %v, want ErrUnauthorized", err)
	}
}

func TestNewHMACVerifier_EmptySecret(t *testing.T) {
	if _, err := NewHMACVerifier(nil); err == nil {
		t.Fatalf("empty secret accepted")
	}
}
