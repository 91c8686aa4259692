// Package file persists the session entries in a single JSON document on
// disk, optionally sealed with a passphrase-derived key.
package file

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/petland/petcare-console/internal/core/ports"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var ErrDecrypt = errors.New("state file: cannot decrypt entry")

// document is the on-disk layout. Values are base64(nonce || box) when the
// store is encrypted and plain strings otherwise.
type document struct {
	Salt    string            `json:"salt,omitempty"`
	Entries map[string]string `json:"entries"`
}

// StateStore reads and rewrites the whole file on every call. The file is
// replaced atomically so a crash never leaves a half-written session.
type StateStore struct {
	path   string
	secret []byte

	mu   sync.Mutex
	key  *[keySize]byte
	salt []byte
}

var _ ports.StateStore = (*StateStore)(nil)

// NewStateStore returns a store at path. An empty secret stores values in
// clear text.
func NewStateStore(path, secret string) *StateStore {
	s := &StateStore{path: path}
	if secret != "" {
		s.secret = []byte(secret)
	}
	return s
}

func (s *StateStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	raw, ok := doc.Entries[key]
	if !ok {
		return "", false, nil
	}
	v, err := s.open(raw)
	if err != nil {
		return "", false, fmt.Errorf("state file get %q: %w", key, err)
	}
	return v, true, nil
}

func (s *StateStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	sealed, err := s.seal(value)
	if err != nil {
		return fmt.Errorf("state file set %q: %w", key, err)
	}
	doc.Entries[key] = sealed
	return s.save(doc)
}

func (s *StateStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := doc.Entries[k]; ok {
			delete(doc.Entries, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(doc)
}

// Ping checks that the directory holding the file is usable.
func (s *StateStore) Ping(context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("state file: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("state file: %s is not a directory", dir)
	}
	return nil
}

func (s *StateStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{Entries: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state file read: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("state file decode: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = map[string]string{}
	}
	if s.secret != nil {
		if err := s.useSalt(doc.Salt); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}

func (s *StateStore) save(doc *document) error {
	if s.secret != nil {
		doc.Salt = base64.StdEncoding.EncodeToString(s.salt)
	} else {
		doc.Salt = ""
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("state file encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("state file mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("state file temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("state file write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("state file chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("state file close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("state file rename: %w", err)
	}
	return nil
}

// useSalt derives the key for the file's salt, generating a salt for a new
// file. The derived key is cached until the salt changes.
func (s *StateStore) useSalt(encoded string) error {
	var salt []byte
	if encoded == "" {
		if s.salt != nil {
			return nil
		}
		salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("state file salt: %w", err)
		}
	} else {
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("state file salt: %w", err)
		}
		if s.key != nil && string(decoded) == string(s.salt) {
			return nil
		}
		salt = decoded
	}

	derived, err := scrypt.Key(s.secret, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return fmt.Errorf("state file derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], derived)
	s.key = &key
	s.salt = salt
	return nil
}

func (s *StateStore) seal(value string) (string, error) {
	if s.secret == nil {
		return value, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (s *StateStore) open(raw string) (string, error) {
	if s.secret == nil {
		return raw, nil
	}
	box, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(box) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, s.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}
