package config

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

// LookupSecret returns the password stored in the OS keyring for user.
// An empty user has no secret.
func LookupSecret(user string) (string, error) {
	if user == "" {
		return "", nil
	}
	return keyring.Get(KeyringService, user)
}

// StoreSecret saves the password for user in the OS keyring.
func StoreSecret(user, secret string) error {
	if err := keyring.Set(KeyringService, user, secret); err != nil {
		return fmt.Errorf("%s: %w", ErrSecretStore, err)
	}
	return nil
}
