// Package credentials keeps the default portal login on disk with the
// password encrypted.
package credentials

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/classpick/internal/registration"
	"github.com/gorilla/securecookie"
	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/crypto/hkdf"
)

const (
	fileMode    = 0o600
	dirMode     = 0o700
	cookieName  = "classpick-password"
	minKeyBytes = 32
)

var (
	ErrNotFound   = errors.New("no stored credentials")
	ErrShortKey   = fmt.Errorf("secret key must be at least %d bytes", minKeyBytes)
	ErrBadSecret  = errors.New("stored password cannot be decrypted with this key")
	errEmptyField = errors.New("username and password are required")
)

type fileSchema struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Store reads and writes one credentials file.
type Store struct {
	path  string
	codec *securecookie.SecureCookie
	mu    sync.RWMutex
}

var _ registration.CredentialsProvider = (*Store)(nil)

// NewStore derives the signing and encryption keys from secret.
func NewStore(path string, secret []byte) (*Store, error) {
	if len(secret) < minKeyBytes {
		return nil, ErrShortKey
	}
	hashKey, err := deriveKey(secret, "classpick hash key", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(secret, "classpick block key", 32)
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(0)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &Store{path: filepath.Clean(path), codec: codec}, nil
}

func deriveKey(secret []byte, info string, n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s: %w", info, err)
	}
	return key, nil
}

// Path is where the credentials file lives.
func (s *Store) Path() string { return s.path }

func (s *Store) Save(ctx context.Context, c registration.Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return errEmptyField
	}

	encoded, err := s.codec.Encode(cookieName, c.Password)
	if err != nil {
		return fmt.Errorf("encrypt password: %w", err)
	}
	data, err := toml.Marshal(fileSchema{Username: strings.TrimSpace(c.Username), Password: encoded})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	return nil
}

// Read returns the stored credentials with the password decrypted.
func (s *Store) Read(ctx context.Context) (registration.Credentials, error) {
	if err := ctx.Err(); err != nil {
		return registration.Credentials{}, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return registration.Credentials{}, fmt.Errorf("%w at %s", ErrNotFound, s.path)
		}
		return registration.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var f fileSchema
	if err := toml.Unmarshal(data, &f); err != nil {
		return registration.Credentials{}, fmt.Errorf("parse credentials %s: %w", s.path, err)
	}
	if f.Username == "" || f.Password == "" {
		return registration.Credentials{}, fmt.Errorf("%w at %s", ErrNotFound, s.path)
	}

	var password string
	if err := s.codec.Decode(cookieName, f.Password, &password); err != nil {
		return registration.Credentials{}, fmt.Errorf("%w: %w", ErrBadSecret, err)
	}
	return registration.Credentials{Username: f.Username, Password: password}, nil
}

// Username returns the stored username without decrypting the password.
func (s *Store) Username(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w at %s", ErrNotFound, s.path)
		}
		return "", err
	}
	var f fileSchema
	if err := toml.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parse credentials %s: %w", s.path, err)
	}
	return f.Username, nil
}
