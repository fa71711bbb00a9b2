package webhooks

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
)

// SignHMAC returns lowercase hex of HMAC-SHA256 over body, sent to
// subscribers in the X-Signature header.
func SignHMAC(secret string, body []byte) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write(body)
    return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks a subscriber-provided signature against the shared
// secret. Exposed so subscriber implementations can reuse it in tests.
func VerifyHMAC(secret string, body []byte, provided string) bool {
    b, err := hex.DecodeString(provided)
    if err != nil {
        return false
    }
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write(body)
    return hmac.Equal(mac.Sum(nil), b)
}
