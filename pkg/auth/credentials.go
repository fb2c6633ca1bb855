// Package auth keeps service tokens between runs. Tokens are looked up in
// the system keychain first, then in an encrypted file, then in the
// environment.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"vkbackup/pkg/config"
)

// Services with a stored token
const (
	ServiceVK     = "vk"
	ServiceYandex = "yandex"
	ServiceGDrive = "gdrive"
)

// KnownServices lists every service a token can be stored for
var KnownServices = []string{ServiceVK, ServiceYandex, ServiceGDrive}

// Credential is an access token for one service
type Credential struct {
	Service      string    `json:"service"`
	Token        string    `json:"token"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface for storing and retrieving tokens
type TokenStore interface {
	// Store saves the token for cred.Service
	Store(cred *Credential) error

	// Retrieve gets the token for a service
	Retrieve(service string) (*Credential, error)

	// List returns all stored tokens
	List() ([]*Credential, error)

	// Delete removes the token for a service
	Delete(service string) error

	// Exists checks if a token is stored for a service
	Exists(service string) bool
}

// Manager handles token storage with fallback mechanisms
type Manager struct {
	stores []TokenStore
}

// NewManager creates a manager backed by the keychain when available, an
// encrypted file in the config directory, and the environment
func NewManager() (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over the given stores, tried in order
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves the token in the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if err := validate(cred); err != nil {
		return err
	}
	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the token from the first store that has it
func (m *Manager) Retrieve(service string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(service); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, service)
}

// Token returns the stored token for service or "" when there is none
func (m *Manager) Token(service string) string {
	cred, err := m.Retrieve(service)
	if err != nil {
		return ""
	}
	return cred.Token
}

// List returns one credential per service, the most recently modified
// when several stores hold one
func (m *Manager) List() ([]*Credential, error) {
	byService := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := byService[cred.Service]; !ok || cred.LastModified.After(existing.LastModified) {
				byService[cred.Service] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(byService))
	for _, cred := range byService {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Service < result[j].Service })
	return result, nil
}

// Delete removes the token from every store that holds it
func (m *Manager) Delete(service string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(service); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrCredentialsNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrCredentialsNotFound, service)
}

// ApplyTo fills the empty token fields of cfg from the stores
func (m *Manager) ApplyTo(cfg *config.Config) {
	if cfg.VK.Token == "" {
		cfg.VK.Token = m.Token(ServiceVK)
	}
	if cfg.Yandex.Token == "" {
		cfg.Yandex.Token = m.Token(ServiceYandex)
	}
	if cfg.GDrive.Token == "" {
		cfg.GDrive.Token = m.Token(ServiceGDrive)
	}
}

// IsKnownService reports whether tokens can be stored for service
func IsKnownService(service string) bool {
	for _, s := range KnownServices {
		if s == service {
			return true
		}
	}
	return false
}

// Sanitize returns a copy of cred with the token masked
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}
	return &Credential{
		Service:      cred.Service,
		Token:        config.MaskSecret(cred.Token),
		LastModified: cred.LastModified,
	}
}

func validate(cred *Credential) error {
	if cred == nil || cred.Service == "" {
		return ErrInvalidCredentials
	}
	if !IsKnownService(cred.Service) {
		return fmt.Errorf("%w: unknown service %q", ErrInvalidCredentials, cred.Service)
	}
	if cred.Token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidCredentials)
	}
	return nil
}

// getConfigDir returns the per-user configuration directory, creating it
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "vkbackup")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "vkbackup")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "vkbackup")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "vkbackup")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("token not found")
	ErrInvalidCredentials  = errors.New("invalid token")
	ErrStoreUnavailable    = errors.New("token store unavailable")
)
