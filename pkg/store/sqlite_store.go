package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	errs "crossposter/pkg/errors"
	"crossposter/pkg/logger"
	"crossposter/pkg/models"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore records posts as rows of an append-only table
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string, log logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if path == "" {
		return nil, errs.New(errs.ErrorTypeStorage, "database path not set", 0)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to create database directory")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to connect to database")
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to run migrations")
	}

	log.DebugWithFields("sqlite store opened", map[string]interface{}{
		"path": path,
	})

	return &SQLiteStore{db: db, logger: log}, nil
}

// Load returns all posts ordered by insertion
func (s *SQLiteStore) Load() ([]models.Post, error) {
	rows, err := s.db.Query(`SELECT media_url, caption FROM posted ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to query posted list")
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var (
			mediaURL sql.NullString
			post     models.Post
		)
		if err := rows.Scan(&mediaURL, &post.CaptionText); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to scan posted row")
		}
		if mediaURL.Valid {
			url := mediaURL.String
			post.MediaURL = &url
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeStorage, err, "failed to iterate posted rows")
	}

	s.logger.DebugWithFields("posted list loaded", map[string]interface{}{
		"count": len(posts),
	})
	return posts, nil
}

// Append inserts one post
func (s *SQLiteStore) Append(post models.Post) error {
	var mediaURL sql.NullString
	if post.MediaURL != nil {
		mediaURL = sql.NullString{String: *post.MediaURL, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO posted (media_url, caption, posted_at) VALUES (?, ?, ?)`,
		mediaURL, post.CaptionText, time.Now().UTC(),
	)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, err, "failed to record post")
	}

	s.logger.InfoWithFields("post recorded", map[string]interface{}{
		"kind":  string(post.Kind()),
		"media": post.Media(),
	})
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
