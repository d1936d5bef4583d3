package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn    *sql.DB
	dataDir string // root directory for attachment files and backups
}

// New creates a new DB, opening (or creating) the SQLite file at dbPath.
// dataDir is the root directory where attachment binaries are stored.
func New(dbPath, dataDir string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer — limit to single connection to prevent SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, dataDir: dataDir}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DataDir returns the root data directory.
func (db *DB) DataDir() string {
	return db.dataDir
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS scenes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			view_background_color TEXT NOT NULL DEFAULT '#ffffff',
			dark_mode INTEGER NOT NULL DEFAULT 0,
			export_background INTEGER NOT NULL DEFAULT 1,
			export_background_key TEXT NOT NULL DEFAULT 'solid',
			export_dark_mode INTEGER NOT NULL DEFAULT 0,
			export_embed_scene INTEGER NOT NULL DEFAULT 0,
			export_scale REAL NOT NULL DEFAULT 1.0,
			export_selection_only INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS elements (
			id TEXT PRIMARY KEY,
			scene_id TEXT NOT NULL REFERENCES scenes(id),
			type TEXT NOT NULL DEFAULT 'rectangle',
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			width REAL NOT NULL DEFAULT 0,
			height REAL NOT NULL DEFAULT 0,
			angle REAL NOT NULL DEFAULT 0,
			stroke_color TEXT NOT NULL DEFAULT '#1e1e1e',
			fill_color TEXT NOT NULL DEFAULT '',
			stroke_width REAL NOT NULL DEFAULT 1,
			opacity REAL NOT NULL DEFAULT 1,
			points_json TEXT NOT NULL DEFAULT '[]',
			text TEXT NOT NULL DEFAULT '',
			font_size REAL NOT NULL DEFAULT 0,
			container_id TEXT NOT NULL DEFAULT '',
			frame_id TEXT NOT NULL DEFAULT '',
			file_id TEXT NOT NULL DEFAULT '',
			locked INTEGER NOT NULL DEFAULT 0,
			deleted INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			id TEXT PRIMARY KEY,
			scene_id TEXT NOT NULL REFERENCES scenes(id),
			path TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT 'image/png',
			checksum TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_elements_scene ON elements(scene_id)`,
		`CREATE INDEX IF NOT EXISTS idx_files_scene ON files(scene_id)`,
		// Undo history — individual records per undo state
		`CREATE TABLE IF NOT EXISTS undo_nodes (
			id TEXT PRIMARY KEY,
			scene_id TEXT NOT NULL REFERENCES scenes(id),
			parent_id TEXT,
			label TEXT NOT NULL,
			snapshot_json TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_undo_nodes_scene ON undo_nodes(scene_id)`,
		`CREATE TABLE IF NOT EXISTS undo_state (
			scene_id TEXT PRIMARY KEY REFERENCES scenes(id),
			current_node_id TEXT NOT NULL REFERENCES undo_nodes(id)
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// ALTER TABLE fails if column already exists — safe to ignore
			if strings.Contains(m, "ALTER TABLE") && strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}

	return nil
}
