package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize     = 32
	keySize      = 32
	iterations   = 100000
	vaultVersion = 2
)

// vaultFile is the on-disk layout. Only the salt and ciphertext are stored;
// the account map exists in memory only.
type vaultFile struct {
	Version   int       `json:"version"`
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Modified  time.Time `json:"modified"`
}

// vault seals a JSON payload with AES-GCM under a key derived from a
// passphrase with PBKDF2
type vault struct {
	passphrase string
}

func (v vault) seal(plaintext []byte) (vaultFile, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return vaultFile{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := v.gcm(salt)
	if err != nil {
		return vaultFile{}, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return vaultFile{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return vaultFile{
		Version:   vaultVersion,
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil)),
		Modified:  time.Now(),
	}, nil
}

func (v vault) open(f vaultFile) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(f.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(f.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	gcm, err := v.gcm(salt)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data (wrong passphrase?): %w", err)
	}
	return plaintext, nil
}

func (v vault) gcm(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(v.passphrase), salt, iterations, keySize, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptedFileStore implements CredentialStore on top of one encrypted file
type EncryptedFileStore struct {
	path  string
	vault vault
	mu    sync.RWMutex
}

// NewEncryptedFileStore opens the store at path. The passphrase comes from
// XSCRAPER_PASSPHRASE or a generated key file next to the store.
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	passphrase, err := passphraseFor(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, vault: vault{passphrase: passphrase}}, nil
}

func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.load()
	if err != nil {
		return fmt.Errorf("failed to load existing data: %w", err)
	}
	accounts[account.Username] = *account
	return e.save(accounts)
}

func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	account, ok := accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	accounts, err := e.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	names := make([]string, 0, len(accounts))
	for name := range accounts {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Account, 0, len(names))
	for _, name := range names {
		acc := accounts[name]
		out = append(out, &acc)
	}
	return out, nil
}

// Delete removes username; the file goes away with the last account
func (e *EncryptedFileStore) Delete(username string) error {
	if username == "" {
		return ErrInvalidCredentials
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.load()
	if err != nil {
		return fmt.Errorf("failed to load data: %w", err)
	}
	if _, ok := accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(accounts, username)

	if len(accounts) == 0 {
		return os.Remove(e.path)
	}
	return e.save(accounts)
}

func (e *EncryptedFileStore) Exists(username string) bool {
	account, err := e.Retrieve(username)
	return err == nil && account != nil
}

// load returns an empty map when the file does not exist yet
func (e *EncryptedFileStore) load() (map[string]Account, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Account), nil
		}
		return nil, err
	}

	var f vaultFile
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	plaintext, err := e.vault.open(f)
	if err != nil {
		return nil, err
	}

	accounts := make(map[string]Account)
	if err := json.Unmarshal(plaintext, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

func (e *EncryptedFileStore) save(accounts map[string]Account) error {
	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	f, err := e.vault.seal(plaintext)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	tempFile := e.path + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tempFile, e.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

// passphraseFor reads XSCRAPER_PASSPHRASE, else a key file in dir, creating
// one on first use
func passphraseFor(dir string) (string, error) {
	if pass := os.Getenv("XSCRAPER_PASSPHRASE"); pass != "" {
		return pass, nil
	}

	keyFile := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(keyFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)
	if err := os.WriteFile(keyFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}
