package auth

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	jwt := NewJWT("test-secret")

	token, err := jwt.Generate(42, "user@example.com")
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	if len(strings.Split(token, ".")) != 3 {
		t.Fatalf("Generate() produced malformed token: %s", token)
	}

	claims, err := jwt.Validate(token)
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("claims.UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("claims.Email = %q, want user@example.com", claims.Email)
	}
	if claims.Exp <= time.Now().Unix() {
		t.Error("claims.Exp is not in the future")
	}
}

func TestValidate_InvalidTokens(t *testing.T) {
	jwt := NewJWT("test-secret")
	valid, _ := jwt.Generate(1, "user@example.com")

	tests := []struct {
		name  string
		token string
	}{
		{"Empty", ""},
		{"Garbage", "not-a-token"},
		{"Two Parts", "abc.def"},
		{"Tampered Signature", valid[:len(valid)-4] + "XXXX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := jwt.Validate(tt.token); err == nil {
				t.Errorf("Validate(%q) succeeded, want error", tt.token)
			}
		})
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	token, _ := NewJWT("secret-a").Generate(1, "user@example.com")

	if _, err := NewJWT("secret-b").Validate(token); err == nil {
		t.Error("Validate() accepted token signed with different secret")
	}
}
