package services

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestTokenRoundTrip(t *testing.T) {
	as := NewAuthService("supersecret")

	token, err := as.GenerateToken("mysession")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if err := as.ValidateToken(token, "mysession"); err != nil {
		t.Errorf("ValidateToken: %v", err)
	}
}

func TestTokenBoundToSession(t *testing.T) {
	as := NewAuthService("supersecret")

	token, err := as.GenerateToken("mysession")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if err := as.ValidateToken(token, "othersession"); err == nil {
		t.Error("token for mysession accepted for othersession")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService("secret-a").GenerateToken("s1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if err := NewAuthService("secret-b").ValidateToken(token, "s1"); err == nil {
		t.Error("token signed with a different secret accepted")
	}
	if err := NewAuthService("secret-a").ValidateToken("not.a.token", "s1"); err == nil {
		t.Error("garbage token accepted")
	}
}

func TestCheckSecret(t *testing.T) {
	as := NewAuthService("supersecret")

	if !as.CheckSecret("supersecret") {
		t.Error("plaintext secret rejected")
	}
	if as.CheckSecret("wrong") {
		t.Error("wrong secret accepted")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if !as.CheckSecret(string(hash)) {
		t.Error("bcrypt hash of the secret rejected")
	}
}
