// Package bake caches settled placement results so the physics pass
// runs once per (seed, simulation config) pair instead of on every
// startup. Results are stored as zstd-compressed gob blobs in a small
// sqlite database.
package bake

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"scatter3d/internal/physics"
)

// Store is a settle-result cache backed by a single sqlite connection.
// Safe for concurrent use; sqlite serializes through the one connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache at path, creating parent directories
// as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty bake db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func initPragmas(db *sql.DB) error {
	// WAL suits the write-once read-many pattern of a bake cache.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS bakes (
		key        TEXT PRIMARY KEY,
		seed       INTEGER NOT NULL,
		bodies     INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		blob       BLOB NOT NULL
	);`)
	return err
}

// Key derives the cache key for a seed and simulation config. Any
// change to the config's value fields produces a different key, so
// stale bakes are never replayed against new settings. The Ground
// callback cannot participate; callers varying the terrain under
// identical settings must vary the seed or keep separate stores.
func Key(seed uint32, cfg physics.Config) string {
	h := sha256.New()
	fmt.Fprintf(h, "v1|%d|", seed)
	// gob gives a stable field-order encoding of the config.
	_ = gob.NewEncoder(h).Encode(cfg)
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Put stores the settled results for a key, replacing any previous
// entry.
func (s *Store) Put(seed uint32, cfg physics.Config, results []physics.Result) error {
	blob, err := encodeResults(results)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO bakes (key, seed, bodies, created_at, blob) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET seed=excluded.seed, bodies=excluded.bodies,
		 created_at=excluded.created_at, blob=excluded.blob;`,
		Key(seed, cfg), int64(seed), len(results), time.Now().UTC().Format(time.RFC3339), blob,
	)
	return err
}

// Get loads the settled results for a key. ok is false on a cache miss.
func (s *Store) Get(seed uint32, cfg physics.Config) (results []physics.Result, ok bool, err error) {
	var blob []byte
	row := s.db.QueryRow(`SELECT blob FROM bakes WHERE key = ?;`, Key(seed, cfg))
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	results, err = decodeResults(blob)
	if err != nil {
		return nil, false, fmt.Errorf("decode bake blob: %w", err)
	}
	return results, true, nil
}

// Entry describes one cached bake.
type Entry struct {
	Key       string
	Seed      uint32
	Bodies    int
	CreatedAt string
}

// List returns all cached bakes, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT key, seed, bodies, created_at FROM bakes ORDER BY created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var seed int64
		if err := rows.Scan(&e.Key, &seed, &e.Bodies, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Seed = uint32(seed)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes one cached bake. Deleting a missing key is not an
// error.
func (s *Store) Delete(seed uint32, cfg physics.Config) error {
	_, err := s.db.Exec(`DELETE FROM bakes WHERE key = ?;`, Key(seed, cfg))
	return err
}

func encodeResults(results []physics.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	if err := gob.NewEncoder(enc).Encode(results); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeResults(blob []byte) ([]physics.Result, error) {
	dec, err := zstd.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var results []physics.Result
	if err := gob.NewDecoder(dec).Decode(&results); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return results, nil
}
