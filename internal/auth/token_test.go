package auth

import (
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	tok, err := NewAccessToken(secret, 42, 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	uid, err := VerifyAccessToken(secret, tok.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid = %d, want 42", uid)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret-a", 42, 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifyAccessToken("secret-b", tok.Token); err == nil {
		t.Fatal("token signed with another secret verified")
	}
}

func TestAccessTokenGarbage(t *testing.T) {
	for _, raw := range []string{"", "not.a.jwt", "a.b.c"} {
		if _, err := VerifyAccessToken("secret", raw); err == nil {
			t.Errorf("garbage token %q verified", raw)
		}
	}
}

func TestRefreshTokenHashStable(t *testing.T) {
	rt, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d, want 96", len(rt.Raw))
	}
	if HashRefresh(rt.Raw) != HashRefresh(rt.Raw) {
		t.Fatal("hash not deterministic")
	}
	other, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if HashRefresh(rt.Raw) == HashRefresh(other.Raw) {
		t.Fatal("distinct tokens collided")
	}
}
