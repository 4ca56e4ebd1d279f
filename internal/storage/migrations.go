package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.0.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: "1.0.0",
		Up:      migrationV1Up,
		Down:    migrationV1Down,
	},
}

const migrationV1Up = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Authoritative workflow metadata table
CREATE TABLE IF NOT EXISTS workflows (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    workflow_id TEXT,
    active BOOLEAN DEFAULT 0,
    description TEXT DEFAULT '',
    trigger_type TEXT DEFAULT 'Manual',
    complexity TEXT DEFAULT 'low',
    node_count INTEGER DEFAULT 0,
    integrations TEXT DEFAULT '[]',
    tags TEXT DEFAULT '[]',
    category TEXT,
    created_at TEXT,
    updated_at TEXT,
    file_hash TEXT NOT NULL,
    file_size INTEGER DEFAULT 0,
    analyzed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    CONSTRAINT chk_trigger_type CHECK (trigger_type IN ('Manual', 'Webhook', 'Scheduled', 'Complex')),
    CONSTRAINT chk_complexity CHECK (complexity IN ('low', 'medium', 'high')),
    CONSTRAINT chk_node_count CHECK (node_count >= 0),
    CONSTRAINT chk_file_size CHECK (file_size >= 0)
);

CREATE INDEX IF NOT EXISTS idx_workflows_trigger_type ON workflows(trigger_type);
CREATE INDEX IF NOT EXISTS idx_workflows_complexity ON workflows(complexity);
CREATE INDEX IF NOT EXISTS idx_workflows_active ON workflows(active);
CREATE INDEX IF NOT EXISTS idx_workflows_node_count ON workflows(node_count);
CREATE INDEX IF NOT EXISTS idx_workflows_filename ON workflows(filename);
CREATE INDEX IF NOT EXISTS idx_workflows_category ON workflows(category);
CREATE INDEX IF NOT EXISTS idx_workflows_analyzed_at ON workflows(analyzed_at);
CREATE INDEX IF NOT EXISTS idx_workflows_file_hash ON workflows(file_hash);
CREATE INDEX IF NOT EXISTS idx_workflows_composite ON workflows(active, trigger_type, complexity);

-- Full-text shadow index over the searchable text columns.
-- External-content table: rowid is the workflows.id, no duplicate storage.
CREATE VIRTUAL TABLE IF NOT EXISTS workflows_fts USING fts5(
    filename,
    name,
    description,
    integrations,
    tags,
    category,
    content='workflows',
    content_rowid='id',
    tokenize='porter ascii'
);

-- Triggers to keep the FTS shadow in sync. External-content FTS5 cannot
-- update a row in place, so the update trigger deletes then reinserts.
CREATE TRIGGER IF NOT EXISTS workflows_fts_insert AFTER INSERT ON workflows BEGIN
    INSERT INTO workflows_fts(rowid, filename, name, description, integrations, tags, category)
    VALUES (new.id, new.filename, new.name, new.description, new.integrations, new.tags, new.category);
END;

CREATE TRIGGER IF NOT EXISTS workflows_fts_delete AFTER DELETE ON workflows BEGIN
    INSERT INTO workflows_fts(workflows_fts, rowid, filename, name, description, integrations, tags, category)
    VALUES ('delete', old.id, old.filename, old.name, old.description, old.integrations, old.tags, old.category);
END;

CREATE TRIGGER IF NOT EXISTS workflows_fts_update AFTER UPDATE ON workflows BEGIN
    INSERT INTO workflows_fts(workflows_fts, rowid, filename, name, description, integrations, tags, category)
    VALUES ('delete', old.id, old.filename, old.name, old.description, old.integrations, old.tags, old.category);
    INSERT INTO workflows_fts(rowid, filename, name, description, integrations, tags, category)
    VALUES (new.id, new.filename, new.name, new.description, new.integrations, new.tags, new.category);
END;

-- System metadata key/value store
CREATE TABLE IF NOT EXISTS system_metadata (
    key TEXT PRIMARY KEY,
    value TEXT,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const migrationV1Down = `
DROP TRIGGER IF EXISTS workflows_fts_update;
DROP TRIGGER IF EXISTS workflows_fts_delete;
DROP TRIGGER IF EXISTS workflows_fts_insert;

DROP TABLE IF EXISTS system_metadata;
DROP TABLE IF EXISTS workflows_fts;
DROP TABLE IF EXISTS workflows;
DROP TABLE IF EXISTS schema_version;
`

// ApplyMigrations runs all pending migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	// Check if schema_version table exists
	var tableName string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)

	// Parse current version (default to 0.0.0 if no migrations applied or table doesn't exist)
	var currentVersion *semver.Version
	if err == sql.ErrNoRows {
		currentVersion = semver.MustParse("0.0.0")
	} else if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	} else {
		var currentVersionStr string
		err = db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersionStr)
		if err == sql.ErrNoRows || currentVersionStr == "" {
			currentVersion = semver.MustParse("0.0.0")
		} else if err != nil {
			return fmt.Errorf("failed to read schema_version: %w", err)
		} else {
			currentVersion, err = semver.NewVersion(currentVersionStr)
			if err != nil {
				return fmt.Errorf("invalid current schema version %s: %w", currentVersionStr, err)
			}
		}
	}

	// Run migrations in order
	for _, migration := range AllMigrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !currentVersion.LessThan(migrationVersion) {
			continue // Already applied
		}

		if _, err := db.ExecContext(ctx, migration.Up); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}

		currentVersion = migrationVersion
	}

	return nil
}

// RollbackMigration rolls back the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB) error {
	var currentVersion string
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("no migrations to rollback: %w", err)
	}

	var migration *Migration
	for i := range AllMigrations {
		if AllMigrations[i].Version == currentVersion {
			migration = &AllMigrations[i]
			break
		}
	}

	if migration == nil {
		return fmt.Errorf("migration %s not found", currentVersion)
	}

	if _, err := db.ExecContext(ctx, migration.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %s: %w", currentVersion, err)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", currentVersion); err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", currentVersion, err)
	}

	return nil
}
