package cachesec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/registrylabs/rdapnorm/internal/canonical"
)

// signatureBase builds the canonical byte string the signature covers:
// key-sorted JSON of {data, registryId, timestamp}. Binding the registry id
// and the mint time into the base means neither can be swapped after the
// fact without invalidating the signature.
func signatureBase(data json.RawMessage, registryID string, timestamp int64) ([]byte, error) {
	normalized, err := canonical.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing payload: %w", err)
	}
	return canonical.Marshal(map[string]any{
		"data":       json.RawMessage(normalized),
		"registryId": registryID,
		"timestamp":  timestamp,
	})
}

// sign computes the base64 HMAC-SHA256 signature for an entry's contents.
func sign(key []byte, data json.RawMessage, registryID string, timestamp int64) (string, error) {
	base, err := signatureBase(data, registryID, timestamp)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(base)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// verifySignature recomputes the signature and compares in constant time.
// hmac.Equal prevents timing side channels on the comparison.
func verifySignature(key []byte, data json.RawMessage, registryID string, timestamp int64, signature string) (bool, error) {
	want, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, nil // not base64, cannot possibly verify
	}
	base, err := signatureBase(data, registryID, timestamp)
	if err != nil {
		return false, err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(base)
	return hmac.Equal(mac.Sum(nil), want), nil
}
