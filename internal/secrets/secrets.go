// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Supported key files: openai-api-key.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// KeyOpenAI is the secret file holding the model provider API key.
const KeyOpenAI = "openai-api-key"

// envFallback maps secret names to the environment variable consulted when
// the secret file is absent.
var envFallback = map[string]string{
	KeyOpenAI: "OPENAI_API_KEY",
}

// ErrMissing is returned by Require when a secret is in neither the
// directory nor the environment.
var ErrMissing = errors.New("secret not configured")

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are
// logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Require returns the named secret from loaded, falling back to its
// environment variable.
func Require(loaded map[string]string, name string) (string, error) {
	if v := loaded[name]; v != "" {
		return v, nil
	}
	if env, ok := envFallback[name]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%s (set .secrets/%s or %s): %w", name, name, env, ErrMissing)
	}
	return "", fmt.Errorf("%s: %w", name, ErrMissing)
}
