// Package recipients keeps the e-reader delivery addresses encrypted at rest.
package recipients

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrDuplicate    = errors.New("email already registered")
	ErrNotFound     = errors.New("email not registered")
)

// Store persists a list of validated email addresses in a single encrypted
// file. Every mutation rewrites the whole file; loads that fail to decrypt
// are treated as an empty list so a corrupted store never takes the
// application down.
type Store struct {
	path string
	key  [chacha20poly1305.KeySize]byte
	mu   sync.Mutex
}

// NewStore derives the encryption key from the operator secret.
func NewStore(path, secret string) *Store {
	return &Store{
		path: path,
		key:  sha256.Sum256([]byte(secret)),
	}
}

// Add validates the address and appends it to the persisted list.
func (s *Store) Add(email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	emails := s.load()
	if slices.Contains(emails, addr.Address) {
		return fmt.Errorf("%w: %s", ErrDuplicate, addr.Address)
	}

	emails = append(emails, addr.Address)
	return s.save(emails)
}

// Remove deletes an address from the persisted list.
func (s *Store) Remove(email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	emails := s.load()
	idx := slices.Index(emails, strings.TrimSpace(email))
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, email)
	}

	return s.save(slices.Delete(emails, idx, idx+1))
}

// List returns the registered addresses in registration order, never nil.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	emails := s.load()
	if emails == nil {
		return []string{}
	}
	return emails
}

// Count returns the number of registered addresses.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.load())
}

// load reads and decrypts the store. Any failure degrades to an empty list.
func (s *Store) load() []string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read recipient store, treating as empty", "path", s.path, "error", err)
		}
		return nil
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		slog.Warn("Failed to initialize cipher, treating recipient store as empty", "error", err)
		return nil
	}

	if len(data) < aead.NonceSize() {
		slog.Warn("Recipient store too short to decrypt, treating as empty", "path", s.path)
		return nil
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		slog.Warn("Failed to decrypt recipient store, treating as empty", "path", s.path, "error", err)
		return nil
	}

	var emails []string
	if err := json.Unmarshal(plaintext, &emails); err != nil {
		slog.Warn("Failed to parse recipient store, treating as empty", "path", s.path, "error", err)
		return nil
	}

	return emails
}

// save encrypts and rewrites the whole store atomically.
func (s *Store) save(emails []string) error {
	plaintext, err := json.Marshal(emails)
	if err != nil {
		return fmt.Errorf("failed to marshal recipients: %w", err)
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return fmt.Errorf("failed to initialize cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	data := aead.Seal(nonce, nonce, plaintext, nil)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write recipient store: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace recipient store: %w", err)
	}

	return nil
}
