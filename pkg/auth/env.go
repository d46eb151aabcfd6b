package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvAuthToken = "XSCRAPER_AUTH_TOKEN"
	EnvCSRFToken = "XSCRAPER_CSRF_TOKEN"
	EnvUserAgent = "XSCRAPER_USER_AGENT"
)

// EnvironmentStore is a read-only CredentialStore over environment variables
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func (e *EnvironmentStore) Store(*Account) error {
	return ErrStoreUnavailable
}

// Retrieve ignores username beyond labelling the result; the environment
// holds at most one account
func (e *EnvironmentStore) Retrieve(username string) (*Account, error) {
	authToken := os.Getenv(EnvAuthToken)
	csrfToken := os.Getenv(EnvCSRFToken)
	if authToken == "" || csrfToken == "" {
		return nil, ErrCredentialsNotFound
	}
	if username == "" {
		username = "env"
	}

	return &Account{
		Username:     username,
		AuthToken:    authToken,
		CSRFToken:    csrfToken,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

func (e *EnvironmentStore) Delete(string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(string) bool {
	return os.Getenv(EnvAuthToken) != "" && os.Getenv(EnvCSRFToken) != ""
}
