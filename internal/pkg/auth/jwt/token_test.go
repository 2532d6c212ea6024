package jwt

import (
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	payload := &Payload{
		Username: "alice",
		Room:     "movie-night",
		Avatar:   "https://cdn/a.png",
	}

	tokenString, err := GenerateToken(payload, testSecret, RoomAccessExpiration)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	parsed, err := ParseToken(tokenString, testSecret)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if parsed.Username != "alice" {
		t.Errorf("Username = %q, want alice", parsed.Username)
	}
	if parsed.Room != "movie-night" {
		t.Errorf("Room = %q, want movie-night", parsed.Room)
	}
	if parsed.Avatar != "https://cdn/a.png" {
		t.Errorf("Avatar = %q, want the original value", parsed.Avatar)
	}
	if parsed.Issuer != TokenIssuer {
		t.Errorf("Issuer = %q, want %q", parsed.Issuer, TokenIssuer)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	tokenString, err := GenerateToken(&Payload{Username: "alice", Room: "r"}, testSecret, RoomAccessExpiration)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ParseToken(tokenString, "a-different-secret"); err == nil {
		t.Error("ParseToken accepted a token signed with another secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	tokenString, err := GenerateToken(&Payload{Username: "alice", Room: "r"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ParseToken(tokenString, testSecret); err == nil {
		t.Error("ParseToken accepted an expired token")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", testSecret); err == nil {
		t.Error("ParseToken accepted garbage input")
	}
}
