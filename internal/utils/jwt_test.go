package utils

import (
    "errors"
    "testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("secret", 42, "admin", 15)
    if err != nil {
        t.Fatal(err)
    }
    p, err := ParseAccessToken("secret", tok.Token)
    if err != nil {
        t.Fatal(err)
    }
    if p.UserID != 42 || p.Role != "admin" {
        t.Fatalf("principal = %+v", p)
    }
}

func TestParseAccessTokenRejects(t *testing.T) {
    good, err := NewAccessToken("secret", 1, "user", 15)
    if err != nil {
        t.Fatal(err)
    }
    expired, err := NewAccessToken("secret", 1, "user", -5)
    if err != nil {
        t.Fatal(err)
    }
    tests := map[string]struct{ secret, raw string }{
        "wrong secret": {"other", good.Token},
        "expired":      {"secret", expired.Token},
        "garbage":      {"secret", "abc.def.ghi"},
    }
    for name, tt := range tests {
        t.Run(name, func(t *testing.T) {
            if _, err := ParseAccessToken(tt.secret, tt.raw); !errors.Is(err, ErrInvalidToken) {
                t.Fatalf("got %v, want ErrInvalidToken", err)
            }
        })
    }
}

func TestRefreshToken(t *testing.T) {
    a, err := NewRefreshToken(7)
    if err != nil {
        t.Fatal(err)
    }
    b, _ := NewRefreshToken(7)
    if len(a.Raw) != 96 || a.Raw == b.Raw {
        t.Fatalf("unexpected raw tokens %q %q", a.Raw, b.Raw)
    }
    if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) || HashRefreshRaw(a.Raw) == a.Raw {
        t.Fatal("hash not stable or not hashed")
    }
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("correct horse", 4)
    if err != nil {
        t.Fatal(err)
    }
    if !VerifyPassword(hash, "correct horse") || VerifyPassword(hash, "wrong horse") {
        t.Fatal("verify mismatch")
    }
    long := make([]byte, 73)
    for i := range long {
        long[i] = 'a'
    }
    if _, err := HashPassword(string(long), 4); !errors.Is(err, ErrPasswordTooLong) {
        t.Fatalf("got %v, want ErrPasswordTooLong", err)
    }
}
