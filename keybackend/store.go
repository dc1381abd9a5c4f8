package keybackend

import (
	"github.com/sagarc03/presignd"
)

// KeysConfig holds configuration for loading access keys.
type KeysConfig struct {
	// Credentials are trusted directly, typically the issuer's own key pair.
	Credentials []presignd.Credential
	// File is a JSON file containing additional key pairs.
	File string
}

// NewSecretStore creates a SecretStore from the given configuration.
// File keys take precedence over credentials with the same access key.
func NewSecretStore(cfg KeysConfig) (*MapSecretStore, error) {
	keys := make(map[string]string)

	for _, c := range cfg.Credentials {
		if c.Validate() == nil {
			keys[c.AccessKeyID] = c.SecretKey
		}
	}

	if cfg.File != "" {
		fileKeys, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileKeys {
			keys[k] = v
		}
	}

	return NewMapSecretStore(keys), nil
}
