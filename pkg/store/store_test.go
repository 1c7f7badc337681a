package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossposter/pkg/config"
	errs "crossposter/pkg/errors"
	"crossposter/pkg/logger"
	"crossposter/pkg/models"
)

func openBackends(t *testing.T) map[string]Store {
	dir := t.TempDir()

	sqliteStore, err := NewSQLiteStore(filepath.Join(dir, "posted.db"), logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"json":   NewJSONStore(filepath.Join(dir, "posted_tweets.json"), logger.NewTestLogger()),
		"sqlite": sqliteStore,
	}
}

func TestStoreBackends(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			posts, err := s.Load()
			require.NoError(t, err)
			assert.Empty(t, posts)

			text := models.NewTextPost("hello world")
			image := models.NewMediaPost("https://x/img.jpg", "pic")
			empty := models.NewTextPost("")

			require.NoError(t, s.Append(text))
			require.NoError(t, s.Append(image))
			require.NoError(t, s.Append(empty))

			posts, err = s.Load()
			require.NoError(t, err)
			require.Len(t, posts, 3)
			assert.True(t, posts[0].Equal(text))
			assert.Nil(t, posts[0].MediaURL)
			assert.True(t, posts[1].Equal(image))
			assert.True(t, posts[2].Equal(empty))
		})
	}
}

func TestStoreKeepsDuplicates(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			post := models.NewTextPost("same")
			require.NoError(t, s.Append(post))
			require.NoError(t, s.Append(post))

			posts, err := s.Load()
			require.NoError(t, err)
			assert.Len(t, posts, 2)
		})
	}
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	log := logger.NewTestLogger()
	s := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"), log)

	posts, err := s.Load()
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
	assert.Len(t, log.GetMessagesByLevel("INFO"), 1)
}

func TestJSONStoreReadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted_tweets.json")
	legacy := `[[null, "dup"], ["https://x/clip.mp4", "clip"]]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	s := NewJSONStore(path, logger.NewTestLogger())
	posts, err := s.Load()
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.True(t, posts[0].Equal(models.NewTextPost("dup")))
	assert.Equal(t, models.KindVideo, posts[1].Kind())
}

func TestJSONStoreWritesPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "posted_tweets.json")
	s := NewJSONStore(path, logger.NewTestLogger())

	require.NoError(t, s.Append(models.NewTextPost("hello world")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[[null, "hello world"]]`, string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted_tweets.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewJSONStore(path, logger.NewTestLogger())
	_, err := s.Load()
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeStorage, errs.TypeOf(err))

	// a failed load must not clobber the file
	err = s.Append(models.NewTextPost("x"))
	require.Error(t, err)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "{not json", string(data))
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted.db")

	first, err := NewSQLiteStore(path, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, first.Append(models.NewMediaPost("https://x/img.jpg", "pic")))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(path, logger.NewTestLogger())
	require.NoError(t, err)
	defer second.Close()

	posts, err := second.Load()
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "https://x/img.jpg", posts[0].Media())
}

func TestContains(t *testing.T) {
	posts := []models.Post{
		models.NewTextPost("dup"),
		models.NewMediaPost("https://x/img.jpg", "pic"),
	}

	assert.True(t, Contains(posts, models.NewTextPost("dup")))
	assert.True(t, Contains(posts, models.NewMediaPost("https://x/img.jpg", "pic")))
	assert.False(t, Contains(posts, models.NewTextPost("dup ")))
	assert.False(t, Contains(posts, models.NewMediaPost("https://x/img.jpg", "dup")))
	assert.False(t, Contains(posts, models.NewMediaPost("", "dup")))
	assert.False(t, Contains(nil, models.NewTextPost("dup")))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(config.StoreConfig{Backend: config.BackendJSON, Path: filepath.Join(dir, "a.json")}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	s, err = Open(config.StoreConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "a.db")}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(config.StoreConfig{Backend: "SQLite", Path: filepath.Join(dir, "b.db")}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(config.StoreConfig{Backend: " JSON ", Path: filepath.Join(dir, "b.json")}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)

	_, err = Open(config.StoreConfig{Backend: "redis", Path: "x"}, logger.NewTestLogger())
	assert.Error(t, err)
}
