// Package artifact persists rendered documents and resolves their public
// locators.
package artifact

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("artifact_not_found")
	ErrInvalidKey = errors.New("invalid_artifact_key")
)

// Store writes binaries under a key and returns the locator clients use to
// fetch them.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Locator(key string) string
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimRight(base, "/") + "/" + key
}
