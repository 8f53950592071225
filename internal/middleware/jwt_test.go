package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestHS256Validator_ValidToken(t *testing.T) {
	v, err := NewHS256Validator("test-secret")
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	token := mintHS256(t, "test-secret", jwt.MapClaims{
		"sub":   "u1",
		"email": "u1@example.com",
		"name":  "User One",
		"role":  "staff",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "u1" {
		t.Errorf("expected subject u1, got %q", claims.Subject)
	}
	if claims.Email == nil || *claims.Email != "u1@example.com" {
		t.Errorf("email claim not extracted: %v", claims.Email)
	}
	if claims.Role == nil || *claims.Role != "staff" {
		t.Errorf("role claim not extracted: %v", claims.Role)
	}
}

func TestHS256Validator_RejectsExpired(t *testing.T) {
	v, _ := NewHS256Validator("test-secret")

	token := mintHS256(t, "test-secret", jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := v.Validate(context.Background(), token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestHS256Validator_RejectsWrongSecret(t *testing.T) {
	v, _ := NewHS256Validator("test-secret")

	token := mintHS256(t, "other-secret", jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := v.Validate(context.Background(), token); err == nil {
		t.Fatal("expected wrong-secret token to be rejected")
	}
}

func TestHS256Validator_RejectsUnsignedAlg(t *testing.T) {
	v, _ := NewHS256Validator("test-secret")

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"})
	unsigned, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := v.Validate(context.Background(), unsigned); err == nil {
		t.Fatal("expected alg=none token to be rejected")
	}
}

func TestNewHS256Validator_RequiresSecret(t *testing.T) {
	if _, err := NewHS256Validator(""); err == nil {
		t.Fatal("expected empty secret to be refused")
	}
}
