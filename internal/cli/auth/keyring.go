package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "botadmin-cli"
)

// KeyringStore persists tokens in the OS keychain/credential manager
type KeyringStore struct{}

// NewKeyringStore returns a keyring-backed store
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// getKeyringKey returns a unique key for storing tokens per server
func getKeyringKey(server string) string {
	return fmt.Sprintf("token-%s", server)
}

// SaveToken persists the token securely in the OS keychain
func (s *KeyringStore) SaveToken(server, token string) error {
	if err := keyring.Set(service, getKeyringKey(server), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token from the OS keychain
func (s *KeyringStore) LoadToken(server string) (string, error) {
	token, err := keyring.Get(service, getKeyringKey(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the OS keychain
func (s *KeyringStore) DeleteToken(server string) error {
	if err := keyring.Delete(service, getKeyringKey(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
