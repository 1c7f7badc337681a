package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	errs "crossposter/pkg/errors"
	"crossposter/pkg/logger"
	"crossposter/pkg/models"
)

// JSONStore keeps the posted list as a single JSON array on disk. Each
// entry is a [mediaUrl, caption] pair with null for text posts.
type JSONStore struct {
	path   string
	logger logger.Logger
}

// NewJSONStore creates a store backed by the file at path
func NewJSONStore(path string, log logger.Logger) *JSONStore {
	if log == nil {
		log = logger.GetLogger()
	}
	return &JSONStore{
		path:   path,
		logger: log,
	}
}

// Load reads the posted list
func (s *JSONStore) Load() ([]models.Post, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.InfoWithFields("no posted list found, starting empty", map[string]interface{}{
				"path": s.path,
			})
			return []models.Post{}, nil
		}
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to open posted list")
	}
	defer file.Close()

	var posts []models.Post
	if err := json.NewDecoder(file).Decode(&posts); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, fmt.Sprintf("failed to decode posted list %s", s.path))
	}
	if posts == nil {
		posts = []models.Post{}
	}

	s.logger.DebugWithFields("posted list loaded", map[string]interface{}{
		"path":  s.path,
		"count": len(posts),
	})

	return posts, nil
}

// Append re-reads the file, adds post and rewrites the whole list
func (s *JSONStore) Append(post models.Post) error {
	posts, err := s.Load()
	if err != nil {
		return err
	}
	posts = append(posts, post)

	if err := s.save(posts); err != nil {
		return err
	}

	s.logger.InfoWithFields("post recorded", map[string]interface{}{
		"kind":  string(post.Kind()),
		"media": post.Media(),
		"count": len(posts),
	})
	return nil
}

// Close is a no-op for the file backend
func (s *JSONStore) Close() error {
	return nil
}

// save writes posts to disk atomically
func (s *JSONStore) save(posts []models.Post) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errs.Wrap(errs.ErrorTypeStorage, err, "failed to create store directory")
		}
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "failed to create temporary store file")
	}

	if err := json.NewEncoder(file).Encode(posts); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStorage, err, "failed to encode posted list")
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStorage, err, "failed to sync store file")
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStorage, err, "failed to close store file")
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeStorage, err, "failed to replace store file")
	}

	return nil
}
