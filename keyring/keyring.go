// Package keyring adds key rotation on top of a jwksauth.KeyStore. A Ring
// holds the current store and lets it be replaced wholesale when the provider
// publishes a fresh JWKS, while validators keep reading through a stable
// reference.
package keyring

import (
	"crypto"
	"sync"

	"github.com/hupe1980/jwksauth"
)

// Ring is a thread-safe holder of the current key store. It implements
// jwksauth.KeySource, so a Validator constructed over a Ring picks up
// replaced stores without being rebuilt.
//
// Stores themselves are never mutated: rotation swaps the whole store, so
// lookups racing a Replace see either the old set or the new set, never a
// mix of both.
type Ring struct {
	store *jwksauth.KeyStore
	mutex sync.RWMutex
}

// New creates a new Ring holding the given store. A nil store is permitted;
// lookups simply miss until Replace installs one.
func New(store *jwksauth.KeyStore) *Ring {
	return &Ring{store: store}
}

// Replace installs a new store, discarding the previous one. Lookups issued
// after Replace returns resolve against the new store.
func (r *Ring) Replace(store *jwksauth.KeyStore) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.store = store
}

// Lookup returns the public key indexed under the given key ID in the current
// store. Returns the key and a boolean indicating whether the key ID was found.
func (r *Ring) Lookup(kid string) (crypto.PublicKey, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.store == nil {
		return nil, false
	}

	return r.store.Lookup(kid)
}
