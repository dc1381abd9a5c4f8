// Package keybackend resolves access keys to secrets for signature
// verification by the development store.
package keybackend

import (
	"fmt"

	"github.com/sagarc03/presignd"
)

// MapSecretStore retrieves keys from an in-memory map.
type MapSecretStore struct {
	keys map[string]string
}

// NewMapSecretStore creates a new map-based secret store with the given access key to secret key mapping.
func NewMapSecretStore(keys map[string]string) *MapSecretStore {
	return &MapSecretStore{keys: keys}
}

// Lookup retrieves the secret key for the given access key from the map.
// Unknown keys fail with both ErrKeyNotFound and presignd.ErrUnauthorized.
func (s *MapSecretStore) Lookup(accessKey string) (string, error) {
	secretKey, found := s.keys[accessKey]
	if !found {
		return "", fmt.Errorf("%w: %w", ErrKeyNotFound, presignd.ErrUnauthorized)
	}
	return secretKey, nil
}

// Len returns the number of known access keys.
func (s *MapSecretStore) Len() int {
	return len(s.keys)
}
