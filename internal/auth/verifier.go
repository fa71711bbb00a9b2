// Package auth provides bearer token verification.
package auth

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/base64"
    "encoding/json"
    "errors"
    "strings"
)

// Verifier validates bearer tokens and extracts the caller's role.
// Modes: dev (unsigned role:subject tokens) and hmac (HS256 JWTs).
type Verifier struct {
    Mode       string
    HMACSecret []byte
    RoleClaim  string
    SubClaim   string
}

type Principal struct {
    Role    string
    Subject string
}

func NewVerifier(mode, hmacSecret string) *Verifier {
    mode = strings.ToLower(strings.TrimSpace(mode))
    if mode == "" {
        mode = "dev"
    }
    return &Verifier{
        Mode:       mode,
        HMACSecret: []byte(hmacSecret),
        RoleClaim:  "role",
        SubClaim:   "sub",
    }
}

func (v *Verifier) Verify(token string) (Principal, error) {
    if v.Mode == "dev" {
        // token format: role:subject
        parts := strings.SplitN(token, ":", 2)
        if len(parts) == 2 && parts[0] != "" {
            return Principal{Role: strings.ToLower(parts[0]), Subject: parts[1]}, nil
        }
        return Principal{}, errors.New("invalid dev token; expected role:subject")
    }
    if v.Mode != "hmac" {
        return Principal{}, errors.New("unsupported auth mode")
    }
    segs := strings.Split(token, ".")
    if len(segs) != 3 {
        return Principal{}, errors.New("invalid JWT")
    }
    headerJSON, err := b64urlDecode(segs[0])
    if err != nil {
        return Principal{}, err
    }
    payloadJSON, err := b64urlDecode(segs[1])
    if err != nil {
        return Principal{}, err
    }
    sig, err := b64urlDecode(segs[2])
    if err != nil {
        return Principal{}, err
    }
    var hdr map[string]any
    if err := json.Unmarshal(headerJSON, &hdr); err != nil {
        return Principal{}, err
    }
    if alg, _ := hdr["alg"].(string); alg != "HS256" {
        return Principal{}, errors.New("unsupported alg for hmac")
    }
    mac := hmac.New(sha256.New, v.HMACSecret)
    mac.Write([]byte(segs[0] + "." + segs[1]))
    if !hmac.Equal(mac.Sum(nil), sig) {
        return Principal{}, errors.New("bad signature")
    }
    var claims map[string]any
    if err := json.Unmarshal(payloadJSON, &claims); err != nil {
        return Principal{}, err
    }
    role, _ := claims[v.RoleClaim].(string)
    if role == "" {
        role = "user"
    }
    sub, _ := claims[v.SubClaim].(string)
    return Principal{Role: strings.ToLower(role), Subject: sub}, nil
}

func b64urlDecode(s string) ([]byte, error) { return base64.RawURLEncoding.DecodeString(s) }
