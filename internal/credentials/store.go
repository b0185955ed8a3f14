package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/deanDev5200/web-aspirasi/internal/auth"
	"github.com/deanDev5200/web-aspirasi/internal/logger"
	"github.com/deanDev5200/web-aspirasi/internal/models"
)

const (
	DefaultUsername = "admin"
	DefaultPassword = "admin123"
)

// Store keeps the admin credentials in a single JSON file. The file is read
// on every call so out-of-band edits are picked up; writes go through a temp
// file and rename.
type Store struct {
	path string
	cost int
	mu   sync.Mutex
}

func NewStore(path string, cost int) *Store {
	return &Store{path: path, cost: cost}
}

func (s *Store) Path() string {
	return s.path
}

// Get returns the current credentials, creating the default record on first
// use and upgrading a clear-text legacy password to a hash.
func (s *Store) Get() (models.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update applies fn to the current credentials and persists the result.
// Nothing is written when fn returns an error.
func (s *Store) Update(fn func(*models.Credentials) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&creds); err != nil {
		return err
	}
	return s.write(creds)
}

// Hash hashes password with the store's bcrypt cost.
func (s *Store) Hash(password string) (string, error) {
	return auth.HashPassword(password, s.cost)
}

// SetPassword hashes password and stores it without checking the old one.
func (s *Store) SetPassword(password string) error {
	hash, err := s.Hash(password)
	if err != nil {
		return err
	}
	return s.Update(func(c *models.Credentials) error {
		c.PasswordHash = hash
		return nil
	})
}

func (s *Store) load() (models.Credentials, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.initialize()
	}
	if err != nil {
		return models.Credentials{}, fmt.Errorf("credentials: read %s: %w", s.path, err)
	}

	var creds models.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return models.Credentials{}, fmt.Errorf("credentials: parse %s: %w", s.path, err)
	}

	if creds.PasswordHash == "" && creds.Password != "" {
		hash := creds.Password
		if !auth.IsHash(hash) {
			if hash, err = auth.HashPassword(creds.Password, s.cost); err != nil {
				return models.Credentials{}, fmt.Errorf("credentials: upgrade: %w", err)
			}
		}
		creds.PasswordHash = hash
		if err := s.write(creds); err != nil {
			return models.Credentials{}, err
		}
		logger.Infof("credentials: upgraded clear-text password in %s", s.path)
	}
	creds.Password = ""
	return creds, nil
}

func (s *Store) initialize() (models.Credentials, error) {
	hash, err := auth.HashPassword(DefaultPassword, s.cost)
	if err != nil {
		return models.Credentials{}, err
	}
	creds := models.Credentials{Username: DefaultUsername, PasswordHash: hash}
	if err := s.write(creds); err != nil {
		return models.Credentials{}, err
	}
	logger.Warnf("credentials: created %s with the default admin password, change it", s.path)
	return creds, nil
}

func (s *Store) write(creds models.Credentials) error {
	creds.Password = ""
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("credentials: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("credentials: write: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credentials: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("credentials: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credentials: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("credentials: write: %w", err)
	}
	return nil
}
