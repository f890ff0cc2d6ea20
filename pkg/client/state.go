package client

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"
)

// State is the sqlite-backed StateStore. Only two values matter across
// restarts: the credential token and the last selected group; both live in a
// small key/value table.
type State struct {
	db  *sql.DB
	dir string
}

var _ StateStore = (*State)(nil)

// OpenState opens or creates the client state database.
func OpenState(path string) (*State, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	// One connection is all a client needs
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS Config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create config table: %w", err)
	}

	return &State{db: db, dir: dir}, nil
}

// Close closes the state database.
func (s *State) Close() error {
	return s.db.Close()
}

// Dir returns the directory the state lives in.
func (s *State) Dir() string {
	return s.dir
}

func (s *State) getConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM Config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *State) setConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO Config (key, value) VALUES (?, ?)
	`, key, value)
	return err
}

func (s *State) deleteConfig(key string) error {
	_, err := s.db.Exec("DELETE FROM Config WHERE key = ?", key)
	return err
}

// SessionToken returns the stored credential token, empty when logged out.
func (s *State) SessionToken() (string, error) {
	return s.getConfig("session_token")
}

// SetSessionToken stores the credential token.
func (s *State) SetSessionToken(token string) error {
	return s.setConfig("session_token", token)
}

// ClearSessionToken drops the credential token.
func (s *State) ClearSessionToken() error {
	return s.deleteConfig("session_token")
}

// LastGroupID returns the previously viewed group, if any.
func (s *State) LastGroupID() (uint64, bool) {
	value, err := s.getConfig("last_group_id")
	if err != nil || value == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// SetLastGroupID remembers the currently viewed group.
func (s *State) SetLastGroupID(id uint64) error {
	return s.setConfig("last_group_id", strconv.FormatUint(id, 10))
}

// ClearLastGroupID forgets the viewed group.
func (s *State) ClearLastGroupID() error {
	return s.deleteConfig("last_group_id")
}

// LastServer returns the last server address connected to.
func (s *State) LastServer() (string, error) {
	return s.getConfig("last_server")
}

// SetLastServer stores the server address.
func (s *State) SetLastServer(addr string) error {
	return s.setConfig("last_server", addr)
}

// MemState is an in-memory StateStore for tests.
type MemState struct {
	Token      string
	GroupID    uint64
	HasGroupID bool
	Server     string
}

var _ StateStore = (*MemState)(nil)

func (m *MemState) SessionToken() (string, error) { return m.Token, nil }
func (m *MemState) SetSessionToken(token string) error {
	m.Token = token
	return nil
}
func (m *MemState) ClearSessionToken() error {
	m.Token = ""
	return nil
}
func (m *MemState) LastGroupID() (uint64, bool) { return m.GroupID, m.HasGroupID }
func (m *MemState) SetLastGroupID(id uint64) error {
	m.GroupID = id
	m.HasGroupID = true
	return nil
}
func (m *MemState) ClearLastGroupID() error {
	m.GroupID = 0
	m.HasGroupID = false
	return nil
}
func (m *MemState) LastServer() (string, error) { return m.Server, nil }
func (m *MemState) SetLastServer(addr string) error {
	m.Server = addr
	return nil
}
func (m *MemState) Close() error { return nil }
