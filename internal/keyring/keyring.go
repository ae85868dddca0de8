package keyring

import (
	"fmt"
	"sync"
	"time"
)

// APIKey is one credential pair managed by the ring.
type APIKey struct {
	ID       string
	Key      string
	Secret   string
	Disabled bool

	lastUsed   time.Time
	errorCount int
}

// String masks the key material for safe logging.
func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{ID:%s, Key:%s}", k.ID, maskKey(k.Key))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// KeyRing rotates between configured API keys, skipping disabled ones. Keys
// that keep failing are disabled once they pass the error threshold.
type KeyRing struct {
	mu             sync.Mutex
	keys           []*APIKey
	current        int
	errorThreshold int
}

// New creates a KeyRing over copies of the given keys. Keys whose error count
// reaches errorThreshold are disabled; a non-positive threshold disables that
// behavior.
func New(keys []*APIKey, errorThreshold int) *KeyRing {
	copies := make([]*APIKey, len(keys))
	for i, k := range keys {
		copies[i] = &APIKey{
			ID:       k.ID,
			Key:      k.Key,
			Secret:   k.Secret,
			Disabled: k.Disabled,
		}
	}
	return &KeyRing{
		keys:           copies,
		errorThreshold: errorThreshold,
	}
}

// Current returns the active key, or nil when every key is disabled.
func (r *KeyRing) Current() *APIKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.keys {
		idx := (r.current + i) % len(r.keys)
		if !r.keys[idx].Disabled {
			return r.keys[idx]
		}
	}
	return nil
}

// MarkUsed records the active key as used now.
func (r *KeyRing) MarkUsed() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return
	}
	r.keys[r.current].lastUsed = time.Now()
}

// Rotate advances to the next enabled key.
func (r *KeyRing) Rotate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotateLocked()
}

func (r *KeyRing) rotateLocked() {
	if len(r.keys) == 0 {
		return
	}
	start := r.current
	for {
		r.current = (r.current + 1) % len(r.keys)
		if !r.keys[r.current].Disabled || r.current == start {
			return
		}
	}
}

// OnError charges an error against the active key, disabling it once the
// threshold is reached, and rotates to the next enabled key.
func (r *KeyRing) OnError() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return
	}

	key := r.keys[r.current]
	key.errorCount++
	if r.errorThreshold > 0 && key.errorCount >= r.errorThreshold {
		key.Disabled = true
	}
	r.rotateLocked()
}

// Enable re-enables the key with the given ID and clears its error count.
func (r *KeyRing) Enable(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range r.keys {
		if k.ID == id {
			k.Disabled = false
			k.errorCount = 0
			return
		}
	}
}

// Disable takes the key with the given ID out of rotation.
func (r *KeyRing) Disable(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range r.keys {
		if k.ID == id {
			k.Disabled = true
			return
		}
	}
}

// Len returns the number of keys in the ring, disabled ones included.
func (r *KeyRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
