package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Shub3am/PostPilot/internal/types"

	_ "modernc.org/sqlite"
)

// storageKey is the single row everything lives under: the aggregate is
// one value, not a table per concern.
const storageKey = "postpilot"

// Store persists the settings/history aggregate in SQLite.
//
// The aggregate is one JSON value: every write is a read-modify-write of
// the whole object under a short-lived lock, last writer wins. That keeps
// concurrent completion handlers (a connection check and a publish racing
// for two different platforms) from corrupting each other without any
// cross-process locking machinery.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens (and if needed seeds) the store at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS storage (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Store{db: conn, path: path}
	if err := s.ensureSeeded(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSeeded() error {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM storage WHERE key = ?", storageKey).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return s.write(types.DefaultStorage())
}

func (s *Store) read() (types.Storage, error) {
	var raw string
	if err := s.db.QueryRow("SELECT value FROM storage WHERE key = ?", storageKey).Scan(&raw); err != nil {
		return types.Storage{}, fmt.Errorf("read aggregate: %w", err)
	}
	var data types.Storage
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return types.Storage{}, fmt.Errorf("decode aggregate: %w", err)
	}
	if data.History == nil {
		data.History = []types.HistoryRecord{}
	}
	return data, nil
}

func (s *Store) write(data types.Storage) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		"INSERT INTO storage (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		storageKey, string(raw),
	)
	return err
}

// Get returns the entire aggregate.
func (s *Store) Get() (types.Storage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Set replaces the entire aggregate.
func (s *Store) Set(data types.Storage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(data)
}

// GetSettings returns the settings half of the aggregate.
func (s *Store) GetSettings() (types.Settings, error) {
	data, err := s.Get()
	if err != nil {
		return types.Settings{}, err
	}
	return data.Settings, nil
}

// SetSettings replaces the settings half of the aggregate.
func (s *Store) SetSettings(settings types.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read()
	if err != nil {
		return err
	}
	data.Settings = settings
	return s.write(data)
}

// GetConnection returns the connection state for one platform.
func (s *Store) GetConnection(p types.Platform) (types.PlatformConnection, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return types.PlatformConnection{}, err
	}
	conn, ok := settings.ConnectionStatus[p]
	if !ok {
		return types.NotConnected(), nil
	}
	return conn, nil
}

// SetConnection writes the connection state for one platform. Writers to
// different platforms never interfere: each call rewrites only its own
// sub-record inside the read-modify-write window.
func (s *Store) SetConnection(p types.Platform, conn types.PlatformConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read()
	if err != nil {
		return err
	}
	if data.Settings.ConnectionStatus == nil {
		data.Settings.ConnectionStatus = map[types.Platform]types.PlatformConnection{}
	}
	data.Settings.ConnectionStatus[p] = conn
	return s.write(data)
}

// Disconnect resets a platform to the not-connected default. The write is
// durable before the call returns; watchers see the change and refresh.
func (s *Store) Disconnect(p types.Platform) error {
	return s.SetConnection(p, types.NotConnected())
}

// AddHistory prepends a record: history is ordered most recent first.
func (s *Store) AddHistory(rec types.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read()
	if err != nil {
		return err
	}
	data.History = append([]types.HistoryRecord{rec}, data.History...)
	return s.write(data)
}

// History returns all records, most recent first.
func (s *Store) History() ([]types.HistoryRecord, error) {
	data, err := s.Get()
	if err != nil {
		return nil, err
	}
	return data.History, nil
}

// ClearHistory removes every history record.
func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read()
	if err != nil {
		return err
	}
	data.History = []types.HistoryRecord{}
	return s.write(data)
}

// ClearAll resets the aggregate to its first-run default.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(types.DefaultStorage())
}

// ConnectedPlatforms returns the platforms whose last check succeeded.
// dev.to is excluded while the image host is unconfigured, since posts
// with images could not be published there.
func (s *Store) ConnectedPlatforms() ([]types.Platform, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}
	var connected []types.Platform
	for _, p := range types.AllPlatforms {
		conn, ok := settings.ConnectionStatus[p]
		if !ok || conn.Status != types.StatusConnected {
			continue
		}
		if p == types.PlatformDevto && !settings.Cloudinary.Configured() {
			continue
		}
		connected = append(connected, p)
	}
	return connected, nil
}
