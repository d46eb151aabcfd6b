package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"xscraper/pkg/logger"
)

const currentVersion = 1

// Entry records the latest harvest of one target
type Entry struct {
	Key       string    `json:"key"`
	Label     string    `json:"label"`
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason"`
	Records   int       `json:"records"`
	Passes    int       `json:"passes"`
	Outputs   []string  `json:"outputs,omitempty"`
	Runs      int       `json:"runs"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ledger is the on-disk index of harvested targets
type Ledger struct {
	Version int               `json:"version"`
	Entries map[string]*Entry `json:"entries"`
}

// Manager reads and writes the ledger file. Record and Forget are safe for
// concurrent use.
type Manager struct {
	path   string
	logger logger.Logger
	mu     sync.Mutex
}

// NewManager keeps the ledger in dir. An empty dir uses the platform data
// directory.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		dataDir, err := DataDirectory()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		dir = dataDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	return &Manager{
		path:   filepath.Join(dir, "ledger.json"),
		logger: logger.GetLogger(),
	}, nil
}

// Path returns the ledger file location
func (m *Manager) Path() string {
	return m.path
}

// Load reads the ledger. A missing file yields an empty ledger.
func (m *Manager) Load() (*Ledger, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ledger{Version: currentVersion, Entries: make(map[string]*Entry)}, nil
		}
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer file.Close()

	var l Ledger
	if err := json.NewDecoder(file).Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to decode ledger: %w", err)
	}
	if l.Entries == nil {
		l.Entries = make(map[string]*Entry)
	}
	return &l, nil
}

// Save writes the ledger to disk atomically
func (m *Manager) Save(l *Ledger) error {
	l.Version = currentVersion

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(l); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync ledger file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close ledger file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	m.logger.DebugWithFields("Ledger saved", map[string]interface{}{
		"entries": len(l.Entries),
		"path":    m.path,
	})
	return nil
}

// Lookup returns the entry for key, or nil when the target was never
// harvested
func (m *Manager) Lookup(key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.Load()
	if err != nil {
		return nil, err
	}
	return l.Entries[key], nil
}

// Record stores e as the latest harvest of e.Key
func (m *Manager) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.Load()
	if err != nil {
		return err
	}

	now := time.Now()
	e.UpdatedAt = now
	e.Runs = 1
	if prev, ok := l.Entries[e.Key]; ok {
		e.CreatedAt = prev.CreatedAt
		e.Runs = prev.Runs + 1
	} else {
		e.CreatedAt = now
	}
	l.Entries[e.Key] = &e

	if err := m.Save(l); err != nil {
		return err
	}

	m.logger.InfoWithFields("Ledger updated", map[string]interface{}{
		"key":     e.Key,
		"records": e.Records,
		"reason":  e.Reason,
		"runs":    e.Runs,
	})
	return nil
}

// Forget removes key from the ledger
func (m *Manager) Forget(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.Load()
	if err != nil {
		return err
	}
	if _, ok := l.Entries[key]; !ok {
		return nil
	}
	delete(l.Entries, key)
	return m.Save(l)
}

// List returns all entries, most recently updated first
func (m *Manager) List() ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.Load()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(l.Entries))
	for _, e := range l.Entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].Key < out[j].Key
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Backup copies the ledger next to itself with a .backup suffix
func (m *Manager) Backup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.path); err != nil {
		return nil // Nothing to backup
	}

	src, err := os.Open(m.path)
	if err != nil {
		return fmt.Errorf("failed to open ledger for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(m.path + ".backup")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy ledger to backup: %w", err)
	}

	m.logger.Debug("Ledger backed up")
	return nil
}

// DataDirectory returns the platform data directory for xscraper
func DataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "xscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "xscraper")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "xscraper")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "xscraper")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}
