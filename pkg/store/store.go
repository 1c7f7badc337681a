// Package store persists the list of posts already republished so a
// later run can skip them.
package store

import (
	"fmt"
	"strings"

	"crossposter/pkg/config"
	"crossposter/pkg/logger"
	"crossposter/pkg/models"
)

// Store is an append-only record of published posts
type Store interface {
	// Load returns every recorded post in insertion order. A store that
	// does not exist yet loads as empty.
	Load() ([]models.Post, error)

	// Append records one post after it has been published
	Append(post models.Post) error

	// Close releases any resources held by the store
	Close() error
}

// Contains reports whether post is structurally equal to any recorded post
func Contains(posts []models.Post, post models.Post) bool {
	for _, recorded := range posts {
		if recorded.Equal(post) {
			return true
		}
	}
	return false
}

// Open returns the store backend selected by cfg
func Open(cfg config.StoreConfig, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.BackendJSON, "":
		return NewJSONStore(cfg.Path, log), nil
	case config.BackendSQLite:
		return NewSQLiteStore(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
