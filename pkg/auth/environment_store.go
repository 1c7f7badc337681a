package auth

import (
	"os"
	"time"
)

// EnvironmentStore reads credentials from BLUESKY_HANDLE and BLUESKY_PASSWORD.
// It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credentials. An empty handle matches
// whatever handle the environment holds.
func (e *EnvironmentStore) Retrieve(handle string) (*Account, error) {
	envHandle := NormalizeHandle(os.Getenv("BLUESKY_HANDLE"))
	password := os.Getenv("BLUESKY_PASSWORD")

	if envHandle == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}
	if handle != "" && handle != envHandle {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Handle:       envHandle,
		AppPassword:  password,
		Host:         os.Getenv("BLUESKY_HOST"),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(handle string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist for handle
func (e *EnvironmentStore) Exists(handle string) bool {
	_, err := e.Retrieve(handle)
	return err == nil
}
