package services

import (
	"strings"
	"sync"
)

// KeyRing holds the currently selected API key. It is the process-side
// stand-in for the environment's key-selection dialog.
type KeyRing struct {
	mu      sync.RWMutex
	key     string
	version uint64
}

// NewKeyRing creates a key ring, optionally pre-selecting key.
func NewKeyRing(key string) *KeyRing {
	kr := &KeyRing{}
	if k := strings.TrimSpace(key); k != "" {
		kr.key = k
		kr.version = 1
	}
	return kr
}

// HasSelectedKey reports whether a usable key is selected.
func (k *KeyRing) HasSelectedKey() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key != ""
}

// Key returns the selected key and its version. The version changes every
// time a key is selected or invalidated.
func (k *KeyRing) Key() (string, uint64) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.key, k.version
}

// SelectKey replaces the selected key.
func (k *KeyRing) SelectKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrCredentialRequired
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.key = key
	k.version++
	return nil
}

// Invalidate clears the key if it is still the given version. A key
// selected after the failing call started is left alone.
func (k *KeyRing) Invalidate(version uint64) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.version != version || k.key == "" {
		return false
	}
	k.key = ""
	k.version++
	return true
}
