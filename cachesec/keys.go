package cachesec

import (
	"crypto/sha256"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// keySalt versions the derivation; bump it to invalidate every signature at
// once.
var keySalt = []byte("rdapnorm/cache/signing/v1")

const derivedKeySize = 32

// keyRing derives and caches one HMAC key per registry from a master secret
// via HKDF-SHA256. Per-registry keys mean a signature minted for one
// registry's entries can never validate another's, even with an identical
// payload.
type keyRing struct {
	master []byte

	mu   sync.RWMutex
	keys map[string][]byte
}

func newKeyRing(master []byte) (*keyRing, error) {
	if len(master) < 16 {
		return nil, fmt.Errorf("master key too short: %d bytes, want at least 16", len(master))
	}
	return &keyRing{
		master: append([]byte(nil), master...),
		keys:   make(map[string][]byte),
	}, nil
}

func (k *keyRing) keyFor(registryID string) ([]byte, error) {
	k.mu.RLock()
	key, ok := k.keys[registryID]
	k.mu.RUnlock()
	if ok {
		return key, nil
	}

	reader := hkdf.New(sha256.New, k.master, keySalt, []byte(registryID))
	key = make([]byte, derivedKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("deriving key for registry %q: %w", registryID, err)
	}

	k.mu.Lock()
	k.keys[registryID] = key
	k.mu.Unlock()
	return key, nil
}
