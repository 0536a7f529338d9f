package internal

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// CacheManager persists the last successfully fetched task and conversation
// lists in a local SQLite database, so list commands can still show
// something when the backend is unreachable. The cache is read-only
// fallback data; mutations never consult it.
type CacheManager struct {
	dir string
}

// NewCacheManager creates a cache manager rooted at dir.
func NewCacheManager(dir string) *CacheManager {
	return &CacheManager{dir: dir}
}

// DBPath returns the path to the cache database.
func (cm *CacheManager) DBPath() string {
	return filepath.Join(cm.dir, "cache.db")
}

func (cm *CacheManager) open() (*sql.DB, error) {
	if err := os.MkdirAll(cm.dir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", cm.DBPath())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (kind, id)
		);
		CREATE TABLE IF NOT EXISTS cache_meta (
			kind TEXT PRIMARY KEY,
			refreshed_at TEXT NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

const (
	kindTask         = "task"
	kindConversation = "conversation"
)

// SaveTasks replaces the cached task list.
func (cm *CacheManager) SaveTasks(tasks []Task) error {
	items := make(map[string]interface{}, len(tasks))
	for _, t := range tasks {
		items[t.ID] = t
	}
	return cm.replace(kindTask, items)
}

// LoadTasks returns the cached task list and its refresh time.
func (cm *CacheManager) LoadTasks() ([]Task, time.Time, error) {
	rows, refreshed, err := cm.load(kindTask)
	if err != nil {
		return nil, time.Time{}, err
	}
	tasks := make([]Task, 0, len(rows))
	for _, data := range rows {
		var t Task
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			LogWarn("Skipping corrupt cached task: %v", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, refreshed, nil
}

// SaveConversations replaces the cached conversation list.
func (cm *CacheManager) SaveConversations(conversations []Conversation) error {
	items := make(map[string]interface{}, len(conversations))
	for _, c := range conversations {
		items[c.ID] = c
	}
	return cm.replace(kindConversation, items)
}

// LoadConversations returns the cached conversation list, normalized, and
// its refresh time.
func (cm *CacheManager) LoadConversations() ([]Conversation, time.Time, error) {
	rows, refreshed, err := cm.load(kindConversation)
	if err != nil {
		return nil, time.Time{}, err
	}
	conversations := make([]Conversation, 0, len(rows))
	for _, data := range rows {
		var c Conversation
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			LogWarn("Skipping corrupt cached conversation: %v", err)
			continue
		}
		conversations = append(conversations, c)
	}
	return normalizeConversations(conversations), refreshed, nil
}

// Clear drops all cached data.
func (cm *CacheManager) Clear() error {
	if _, err := os.Stat(cm.DBPath()); os.IsNotExist(err) {
		return nil
	}
	db, err := cm.open()
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.Exec(`DELETE FROM cache_entries`); err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM cache_meta`)
	return err
}

func (cm *CacheManager) replace(kind string, items map[string]interface{}) error {
	db, err := cm.open()
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cache_entries WHERE kind = ?`, kind); err != nil {
		return err
	}
	for id, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO cache_entries (kind, id, data) VALUES (?, ?, ?)`,
			kind, id, string(data),
		); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO cache_meta (kind, refreshed_at) VALUES (?, ?)
		 ON CONFLICT(kind) DO UPDATE SET refreshed_at = excluded.refreshed_at`,
		kind, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (cm *CacheManager) load(kind string) ([]string, time.Time, error) {
	if _, err := os.Stat(cm.DBPath()); os.IsNotExist(err) {
		return nil, time.Time{}, nil
	}

	db, err := cm.open()
	if err != nil {
		return nil, time.Time{}, err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT data FROM cache_entries WHERE kind = ?`, kind)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, time.Time{}, err
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, err
	}

	var refreshed time.Time
	var stamp string
	err = db.QueryRow(`SELECT refreshed_at FROM cache_meta WHERE kind = ?`, kind).Scan(&stamp)
	if err == nil {
		refreshed, _ = time.Parse(time.RFC3339, stamp)
	} else if err != sql.ErrNoRows {
		return nil, time.Time{}, err
	}

	return out, refreshed, nil
}
