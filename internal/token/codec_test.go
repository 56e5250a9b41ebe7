package token_test

import (
	"errors"
	"testing"
	"time"

	"github.com/campushub/session-system/internal/token"
)

func newCodec(t *testing.T, secret string) *token.Codec {
	t.Helper()
	c, err := token.NewCodec(token.Config{
		Secret:     secret,
		Issuer:     "campushub-auth",
		AccessTTL:  time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := newCodec(t, "test-secret")

	raw, err := c.Issue("42", "ROLE_USER", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := c.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject() != "42" {
		t.Errorf("subject = %q, want %q", claims.Subject(), "42")
	}
	if claims.Authority != "ROLE_USER" {
		t.Errorf("authority = %q, want %q", claims.Authority, "ROLE_USER")
	}
	if remain := time.Until(claims.ExpiresAt()); remain <= 0 || remain > time.Minute {
		t.Errorf("unexpected remaining validity %v", remain)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	c := newCodec(t, "test-secret")

	raw, err := c.Issue("42", "ROLE_USER", -time.Second)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.Verify(raw); !errors.Is(err, token.ErrExpired) {
		t.Errorf("Verify: err = %v, want ErrExpired", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	issuer := newCodec(t, "key-one")
	verifier := newCodec(t, "key-two")

	raw, err := issuer.Issue("42", "ROLE_ADMIN", time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(raw); !errors.Is(err, token.ErrSignatureInvalid) {
		t.Errorf("Verify: err = %v, want ErrSignatureInvalid", err)
	}
	// Даже истёкший чужой токен не проходит как "signed-then-expired".
	expired, _ := issuer.Issue("42", "ROLE_ADMIN", -time.Second)
	if _, err := verifier.VerifyExpired(expired); !errors.Is(err, token.ErrSignatureInvalid) {
		t.Errorf("VerifyExpired: err = %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	c := newCodec(t, "test-secret")
	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := c.Verify(raw); !errors.Is(err, token.ErrMalformed) {
			t.Errorf("Verify(%q): err = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestVerifyExpired(t *testing.T) {
	c := newCodec(t, "test-secret")

	live, _ := c.Issue("42", "ROLE_USER", time.Minute)
	if _, err := c.VerifyExpired(live); !errors.Is(err, token.ErrNotExpired) {
		t.Errorf("VerifyExpired(live): err = %v, want ErrNotExpired", err)
	}

	expired, _ := c.Issue("42", "ROLE_USER", -time.Second)
	claims, err := c.VerifyExpired(expired)
	if err != nil {
		t.Fatalf("VerifyExpired(expired): %v", err)
	}
	if claims.Subject() != "42" || claims.Authority != "ROLE_USER" {
		t.Errorf("claims = (%q, %q), want (42, ROLE_USER)", claims.Subject(), claims.Authority)
	}
}

func TestVerifyExpiredForeignIssuer(t *testing.T) {
	// Тот же ключ, другой issuer: истёкший токен чужого issuer'а не
	// должен проходить как "подлинный, но истёкший".
	foreign, err := token.NewCodec(token.Config{
		Secret:     "test-secret",
		Issuer:     "other-issuer",
		AccessTTL:  time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	c := newCodec(t, "test-secret")

	expired, err := foreign.Issue("42", "ROLE_USER", -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := c.VerifyExpired(expired); !errors.Is(err, token.ErrMalformed) {
		t.Errorf("VerifyExpired(foreign issuer): err = %v, want ErrMalformed", err)
	}
}

func TestConfigRejectsSubSecondTTL(t *testing.T) {
	// exp хранится с точностью до секунды: TTL короче секунды дал бы
	// токены, истёкшие в момент выпуска.
	cases := []struct {
		name string
		cfg  token.Config
	}{
		{"sub-second access", token.Config{Secret: "s", Issuer: "i", AccessTTL: 50 * time.Millisecond, RefreshTTL: time.Hour}},
		{"sub-second refresh", token.Config{Secret: "s", Issuer: "i", AccessTTL: time.Minute, RefreshTTL: 500 * time.Millisecond}},
		{"zero access", token.Config{Secret: "s", Issuer: "i", AccessTTL: 0, RefreshTTL: time.Hour}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := token.NewCodec(tc.cfg); err == nil {
				t.Error("NewCodec accepted a sub-second TTL")
			}
		})
	}
}

func TestIssueAnonymous(t *testing.T) {
	c := newCodec(t, "test-secret")

	raw, err := c.IssueAnonymous(time.Hour)
	if err != nil {
		t.Fatalf("IssueAnonymous: %v", err)
	}
	claims, err := c.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject() != "" || claims.Authority != "" {
		t.Errorf("anonymous token carries identity: (%q, %q)", claims.Subject(), claims.Authority)
	}
}

func TestDecodeUnverified(t *testing.T) {
	issuer := newCodec(t, "key-one")
	other := newCodec(t, "key-two")

	raw, _ := issuer.Issue("7", "ROLE_USER", time.Minute)
	claims, err := other.DecodeUnverified(raw)
	if err != nil {
		t.Fatalf("DecodeUnverified: %v", err)
	}
	if claims.Subject() != "7" {
		t.Errorf("subject = %q, want 7", claims.Subject())
	}
	if _, err := other.DecodeUnverified("not-a-token"); !errors.Is(err, token.ErrMalformed) {
		t.Errorf("DecodeUnverified(garbage): err = %v, want ErrMalformed", err)
	}
}
