package processor

import (
	"atacado-server/internal/config"
	"atacado-server/internal/observability"
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestProcessor(t *testing.T) AuthProcessor {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse-battery"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}
	return New(config.AuthConfig{
		JWTSecret:            "test-secret",
		OperatorEmail:        "operator@atacado.example",
		OperatorPasswordHash: string(hash),
	}, observability.NewLogger())
}

func TestLogin_Success(t *testing.T) {
	p := newTestProcessor(t)

	token, err := p.Login(context.Background(), "operator@atacado.example", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	claims, err := p.ValidateJWTToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateJWTToken() error = %v", err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		t.Fatalf("GetSubject() error = %v", err)
	}
	if sub != "operator@atacado.example" {
		t.Errorf("subject = %q, want operator email", sub)
	}
}

func TestLogin_WrongEmail(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.Login(context.Background(), "someone@else.example", "correct-horse-battery")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.Login(context.Background(), "operator@atacado.example", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateJWTToken_Garbage(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.ValidateJWTToken(context.Background(), "not-a-token")
	if !errors.Is(err, ErrParseJWTToken) {
		t.Errorf("ValidateJWTToken() error = %v, want ErrParseJWTToken", err)
	}
}

func TestValidateJWTToken_WrongSecret(t *testing.T) {
	p := newTestProcessor(t)
	other := New(config.AuthConfig{JWTSecret: "other-secret"}, observability.NewLogger())

	token, err := p.generateJWTToken("operator@atacado.example")
	if err != nil {
		t.Fatalf("generateJWTToken() error = %v", err)
	}

	if _, err := other.ValidateJWTToken(context.Background(), token); err == nil {
		t.Error("expected validation to fail with a different secret")
	}
}
