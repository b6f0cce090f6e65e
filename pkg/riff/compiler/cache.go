package compiler

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"fortio.org/log"
	"github.com/klauspost/compress/zstd"

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

// Cache stores built executables keyed by a hash of everything that went
// into the build. The index lives in SQLite next to the artifacts, which are
// zstd-compressed unless the level is "none".
type Cache struct {
	mu    sync.Mutex
	db    *sql.DB
	dir   string
	level string
}

// CacheEntry describes one cached build.
type CacheEntry struct {
	Key      string
	Name     string
	Artifact string
	Size     int64
	Hits     int64
}

// CacheKey hashes the build inputs. Parts are length-prefixed so that
// moving bytes between adjacent parts changes the key.
func CacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		io.WriteString(h, strconv.Itoa(len(p)))
		io.WriteString(h, ":")
		io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// OpenCache opens or creates the cache in dir. compression is one of
// "fastest", "default", "best" or "none".
func OpenCache(dir, compression string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	path := filepath.Join(dir, "builds.db")
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening build cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to build cache: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c := &Cache{db: db, dir: dir, level: compression}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating build cache schema: %w", err)
	}
	return c, nil
}

func (c *Cache) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS builds (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			artifact TEXT NOT NULL,
			size INTEGER NOT NULL,
			created DATETIME DEFAULT CURRENT_TIMESTAMP,
			hits INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_builds_created ON builds(created);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Close closes the index database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Restore writes the executable cached under key to dest with mode 0755.
// It reports false when there is no usable entry. An entry whose artifact
// has gone missing is dropped.
func (c *Cache) Restore(key, dest string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var artifact, name string
	err := c.db.QueryRow(`SELECT artifact, name FROM builds WHERE key = ?`, key).Scan(&artifact, &name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading build cache: %w", err)
	}

	src, err := os.Open(filepath.Join(c.dir, artifact))
	if os.IsNotExist(err) {
		log.Warnf("rc: cached artifact %s for %s is missing, rebuilding", artifact, name)
		_, err = c.db.Exec(`DELETE FROM builds WHERE key = ?`, key)
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("opening cached artifact: %w", err)
	}
	defer src.Close()

	var r io.Reader = src
	if filepath.Ext(artifact) == ".zst" {
		dec, err := zstd.NewReader(src)
		if err != nil {
			return false, fmt.Errorf("reading cached artifact: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	if err := writeFileAtomic(dest, r, 0755); err != nil {
		return false, err
	}

	if _, err := c.db.Exec(`UPDATE builds SET hits = hits + 1 WHERE key = ?`, key); err != nil {
		return true, fmt.Errorf("updating build cache: %w", err)
	}
	log.Infof("rc: restored %s from cache", name)
	return true, nil
}

// Store copies the executable at src into the cache under key.
func (c *Cache) Store(key, name, src string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening build output: %w", err)
	}
	defer in.Close()

	artifact := key + ".bin"
	if c.level != "none" {
		artifact = key + ".zst"
	}

	tmp, err := os.CreateTemp(c.dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("creating cache artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.encode(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache artifact: %w", err)
	}
	info, err := os.Stat(tmp.Name())
	if err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, artifact)); err != nil {
		return fmt.Errorf("storing cache artifact: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO builds (key, name, artifact, size, hits) VALUES (?, ?, ?, ?, 0)`,
		key, name, artifact, info.Size(),
	)
	if err != nil {
		return fmt.Errorf("indexing cache artifact: %w", err)
	}
	log.LogVf("rc: cached %s as %s (%d bytes)", name, artifact, info.Size())
	return nil
}

// Entries lists the cached builds, most recent first.
func (c *Cache) Entries() ([]CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT key, name, artifact, size, hits FROM builds ORDER BY created DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing build cache: %w", err)
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.Key, &e.Name, &e.Artifact, &e.Size, &e.Hits); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (c *Cache) encode(w io.Writer, r io.Reader) error {
	if c.level == "none" {
		_, err := io.Copy(w, r)
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(encoderLevel(c.level)))
	if err != nil {
		return err
	}
	if _, err := io.Copy(enc, r); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// encoderLevel maps a configured level name to a zstd level.
func encoderLevel(level string) zstd.EncoderLevel {
	switch level {
	case "fastest":
		return zstd.SpeedFastest
	case "best":
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// writeFileAtomic writes r to path through a temporary file in the same
// directory.
func writeFileAtomic(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rc-*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
