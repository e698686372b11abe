package fingerprint

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Engine seals documents with a SHA-256 content hash and, when a server
// secret is configured, an HMAC-SHA256 authentication code over the same
// canonical bytes. Sealing and verifying are pure computations; the engine
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	secret []byte
}

func New(secret string) *Engine {
	e := &Engine{}
	if secret != "" {
		e.secret = []byte(secret)
	}
	return e
}

// Keyed reports whether a server secret is configured.
func (e *Engine) Keyed() bool {
	return len(e.secret) > 0
}

// Canonical returns the canonical byte encoding of doc. Determinism relies on
// doc being a fixed struct type: encoding/json writes struct fields in
// declaration order, so the same logical document always encodes to the same
// bytes.
func (e *Engine) Canonical(doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("canonicalize document: %w", err)
	}
	return raw, nil
}

// Seal computes the content hash and, when keyed, the authentication code for
// doc. The mac is nil when no secret is configured; it is never synthesized.
func (e *Engine) Seal(doc any) (string, *string, error) {
	raw, err := e.Canonical(doc)
	if err != nil {
		return "", nil, err
	}
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	if len(e.secret) == 0 {
		return hash, nil, nil
	}
	mac := hmac.New(sha256.New, e.secret)
	mac.Write(raw)
	code := hex.EncodeToString(mac.Sum(nil))
	return hash, &code, nil
}

// Verify recomputes the fingerprint exactly as Seal would and compares it
// against the expected values. hmacOK is true when both sides agree that no
// mac applies, or when the recomputed mac matches the expected one.
func (e *Engine) Verify(doc any, expectedHash string, expectedMac *string) (hashOK bool, hmacOK bool, err error) {
	hash, mac, err := e.Seal(doc)
	if err != nil {
		return false, false, err
	}
	hashOK = subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1

	switch {
	case mac == nil && expectedMac == nil:
		hmacOK = true
	case mac != nil && expectedMac != nil:
		hmacOK = subtle.ConstantTimeCompare([]byte(*mac), []byte(*expectedMac)) == 1
	default:
		hmacOK = false
	}
	return hashOK, hmacOK, nil
}
