package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrSecretNotFound means neither the secret file nor the env fallback is set.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource resolves a secret by Docker secret name with an env fallback.
type SecretSource interface {
	Read(name, envName string) (string, error)
}

// FileSecrets reads Docker secrets from Dir (usually /run/secrets).
type FileSecrets struct {
	Dir string
}

// DefaultSecrets reads from the standard Docker secrets mount.
func DefaultSecrets() FileSecrets {
	return FileSecrets{Dir: "/run/secrets"}
}

// Read prefers the secret file. An existing but empty file is an error.
func (s FileSecrets) Read(name, envName string) (string, error) {
	filePath := filepath.Join(s.Dir, name)
	secretBytes, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}

	if envName != "" {
		if v := strings.TrimSpace(os.Getenv(envName)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
}
