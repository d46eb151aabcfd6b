package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"xscraper/pkg/config"
)

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(account *Account) error
	Retrieve(username string) (*Account, error)
	List() ([]*Account, error)
	Delete(username string) error
	Exists(username string) bool
}

// Manager tries its stores in order: system keyring, encrypted file, then
// environment variables
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager with every backend available on
// this machine
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store validates account and saves it in the first store that accepts it
func (m *Manager) Store(account *Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(account)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(username string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(username); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// Default returns environment credentials when set, otherwise the most
// recently modified stored account
func (m *Manager) Default() (*Account, error) {
	for _, store := range m.stores {
		if env, ok := store.(*EnvironmentStore); ok {
			if account, err := env.Retrieve(""); err == nil {
				return account, nil
			}
		}
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}
	return nil, ErrCredentialsNotFound
}

// List returns every stored account, most recently modified first. When
// several stores hold the same username the newest copy wins.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)
	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Username]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Username] = account
			}
		}
	}

	result := make([]*Account, 0, len(byName))
	for _, account := range byName {
		result = append(result, account)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].Username < result[j].Username
		}
		return result[i].LastModified.After(result[j].LastModified)
	})
	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(username string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(username); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w for user: %s", ErrCredentialsNotFound, username)
}

// Resolve picks the credentials for a run. Tokens already present in cfg
// (flags, environment, config file) win; otherwise the named account is
// loaded, or the default one when name is empty. A run without any
// credentials is allowed and returns nil.
func (m *Manager) Resolve(cfg config.XConfig, name string) (*Account, error) {
	if cfg.AuthToken != "" && cfg.CSRFToken != "" {
		return &Account{
			Username:  "config",
			AuthToken: cfg.AuthToken,
			CSRFToken: cfg.CSRFToken,
			UserAgent: cfg.UserAgent,
		}, nil
	}
	if name != "" {
		return m.Retrieve(name)
	}
	account, err := m.Default()
	if errors.Is(err, ErrCredentialsNotFound) {
		return nil, nil
	}
	return account, err
}

// ConfigDir returns the per-user configuration directory for xscraper,
// creating it when missing. XSCRAPER_CONFIG_DIR overrides the platform
// default.
func ConfigDir() (string, error) {
	dir := os.Getenv("XSCRAPER_CONFIG_DIR")
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate config directory: %w", err)
		}
		dir = filepath.Join(base, "xscraper")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
