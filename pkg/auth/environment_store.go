package auth

import (
	"os"
	"strings"

	"vkbackup/pkg/config"
)

// EnvironmentStore implements TokenStore over VKBACKUP_<SERVICE>_TOKEN
// variables. It is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// EnvVar returns the variable holding the token for service
func EnvVar(service string) string {
	return config.EnvPrefix + strings.ToUpper(service) + "_TOKEN"
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve reads the token for service from the environment
func (e *EnvironmentStore) Retrieve(service string) (*Credential, error) {
	if service == "" {
		return nil, ErrInvalidCredentials
	}
	token := os.Getenv(EnvVar(service))
	if token == "" {
		return nil, ErrCredentialsNotFound
	}
	return &Credential{Service: service, Token: token}, nil
}

// List returns the known services that have a token set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	var creds []*Credential
	for _, service := range KnownServices {
		if cred, err := e.Retrieve(service); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(service string) error {
	return ErrStoreUnavailable
}

// Exists checks if the environment holds a token for service
func (e *EnvironmentStore) Exists(service string) bool {
	return service != "" && os.Getenv(EnvVar(service)) != ""
}
