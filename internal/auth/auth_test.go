package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

const testSecret = "test-secret-key-for-testing-only"

func TestMintToken_RoundTrip(t *testing.T) {
	tok, err := MintToken(42, "ana@example.ao", testSecret, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}
	if tok.ID == "" {
		t.Fatal("MintToken() returned empty jti")
	}

	claims, err := ParseClaims(tok.AccessToken, testSecret)
	if err != nil {
		t.Fatalf("ParseClaims() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("ParseClaims() uid = %d, want 42", claims.UserID)
	}
	if claims.ID != tok.ID {
		t.Errorf("ParseClaims() jti = %q, want %q", claims.ID, tok.ID)
	}
	if rem := claims.Remaining(); rem < 7*24*time.Hour-time.Minute {
		t.Errorf("Remaining() = %v, want about 7 days", rem)
	}
}

func TestParseClaims_Rejects(t *testing.T) {
	expired, _ := MintToken(1, "a@b.ao", testSecret, -time.Minute)
	valid, _ := MintToken(1, "a@b.ao", testSecret, time.Hour)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "expired token", token: expired.AccessToken, secret: testSecret},
		{name: "wrong secret", token: valid.AccessToken, secret: "other-secret"},
		{name: "garbage", token: "not-a-jwt", secret: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseClaims(tt.token, tt.secret); err == nil {
				t.Errorf("ParseClaims() error = nil, want error")
			}
		})
	}
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("Segredo123!", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "Segredo123!") {
		t.Error("CheckPassword() = false for the right password")
	}
	if CheckPassword(hash, "errada") {
		t.Error("CheckPassword() = true for a wrong password")
	}
}

func TestNewResetToken(t *testing.T) {
	token, hash, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken() error = %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}
	if HashResetToken(token) != hash {
		t.Error("HashResetToken() does not match the returned hash")
	}
}

func TestMemoryDenylist(t *testing.T) {
	d := NewMemoryDenylist()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	if err := d.Add(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if ok, _ := d.Contains(ctx, "jti-1"); !ok {
		t.Error("Contains() = false right after Add()")
	}
	if ok, _ := d.Contains(ctx, "jti-2"); ok {
		t.Error("Contains() = true for an unknown id")
	}

	now = now.Add(2 * time.Hour)
	if ok, _ := d.Contains(ctx, "jti-1"); ok {
		t.Error("Contains() = true after the entry expired")
	}
}

func TestRedisDenylist(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	d := NewRedisDenylist(client)
	ctx := context.Background()

	if err := d.Add(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if ok, err := d.Contains(ctx, "jti-1"); err != nil || !ok {
		t.Errorf("Contains() = %v, %v; want true, nil", ok, err)
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := d.Contains(ctx, "jti-1"); ok {
		t.Error("Contains() = true after TTL elapsed")
	}
}
