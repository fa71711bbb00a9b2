package auth

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/base64"
    "testing"
)

func signHS256(t *testing.T, secret, claims string) string {
    t.Helper()
    enc := base64.RawURLEncoding
    header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
    payload := enc.EncodeToString([]byte(claims))
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(header + "." + payload))
    return header + "." + payload + "." + enc.EncodeToString(mac.Sum(nil))
}

func TestVerifyDevToken(t *testing.T) {
    v := NewVerifier("dev", "")
    p, err := v.Verify("Admin:ops-1")
    if err != nil {
        t.Fatalf("verify: %v", err)
    }
    if p.Role != "admin" || p.Subject != "ops-1" {
        t.Fatalf("principal: %+v", p)
    }
    if _, err := v.Verify("garbage"); err == nil {
        t.Fatal("bare token should be rejected")
    }
}

func TestVerifyHMAC(t *testing.T) {
    v := NewVerifier("hmac", "s3cret")
    tok := signHS256(t, "s3cret", `{"role":"Driver","sub":"drv-9"}`)
    p, err := v.Verify(tok)
    if err != nil {
        t.Fatalf("verify: %v", err)
    }
    if p.Role != "driver" || p.Subject != "drv-9" {
        t.Fatalf("principal: %+v", p)
    }

    if _, err := v.Verify(signHS256(t, "wrong", `{"role":"driver"}`)); err == nil {
        t.Fatal("bad signature should be rejected")
    }
    if _, err := v.Verify("a.b"); err == nil {
        t.Fatal("malformed JWT should be rejected")
    }
}

func TestVerifyHMACDefaultsRole(t *testing.T) {
    v := NewVerifier("hmac", "s3cret")
    p, err := v.Verify(signHS256(t, "s3cret", `{"sub":"u-1"}`))
    if err != nil {
        t.Fatalf("verify: %v", err)
    }
    if p.Role != "user" {
        t.Fatalf("role = %q", p.Role)
    }
}
