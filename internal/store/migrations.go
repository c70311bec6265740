package store

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a schema migration step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationStatus reports the current and available migration versions.
// Untracked is set for databases with no migration history, whose version was
// read off the table layout.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version" yaml:"current_version"`
	AvailableVersion int             `json:"available_version" yaml:"available_version"`
	Untracked        bool            `json:"untracked" yaml:"untracked"`
	Pending          []MigrationInfo `json:"pending" yaml:"pending"`
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version" yaml:"version"`
	Description string `json:"description" yaml:"description"`
}

// migrations is the ordered list of all schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: document, attachment and page tables",
		SQL: `
CREATE TABLE IF NOT EXISTS document (
  document_id INTEGER PRIMARY KEY,
  document_number TEXT NOT NULL UNIQUE,
  document_type TEXT,
  comment TEXT,
  date_added INTEGER NOT NULL DEFAULT (unixepoch('now'))
);

CREATE TABLE IF NOT EXISTS attachment (
  attachment_id INTEGER PRIMARY KEY,
  reference_number TEXT NOT NULL UNIQUE,
  comment TEXT,
  date_added INTEGER NOT NULL DEFAULT (unixepoch('now')),
  document_id INTEGER NOT NULL,
  FOREIGN KEY (document_id) REFERENCES document(document_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS page (
  page_id INTEGER PRIMARY KEY,
  file_path TEXT NOT NULL,
  attachment_id INTEGER NOT NULL,
  FOREIGN KEY (attachment_id) REFERENCES attachment(attachment_id) ON DELETE CASCADE
);
`,
	},
	{
		Version:     2,
		Description: "explicit page ordering and foreign key indexes",
		SQL: `
ALTER TABLE page ADD COLUMN page_index INTEGER NOT NULL DEFAULT 0;

UPDATE page SET page_index = (
  SELECT COUNT(*) FROM page AS p2
  WHERE p2.attachment_id = page.attachment_id AND p2.page_id <= page.page_id
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_page_attachment_index ON page(attachment_id, page_index);
CREATE INDEX IF NOT EXISTS idx_attachment_document ON attachment(document_id);
`,
	},
}

const migrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

func sortedMigrations() []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return sorted
}

func tableExists(q querier, name string) (bool, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	return n > 0, err
}

func columnExists(q querier, table, column string) (bool, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name=?", table, column).Scan(&n)
	return n > 0, err
}

// querier is the read side shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
}

// schemaVersion reports which migrations db already carries. With a
// migration history the answer is its highest version. Without one, the
// layout decides: no document table is an empty database, the document
// manager's original tables are version 1, and a page.page_index column
// means version 2.
func schemaVersion(db *sql.DB) (version int, tracked bool, err error) {
	hasHistory, err := tableExists(db, "schema_migrations")
	if err != nil {
		return 0, false, err
	}
	if hasHistory {
		if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
			return 0, false, err
		}
		if version > 0 {
			return version, true, nil
		}
	}

	hasDocuments, err := tableExists(db, "document")
	if err != nil || !hasDocuments {
		return 0, false, err
	}
	hasPageIndex, err := columnExists(db, "page", "page_index")
	if err != nil {
		return 0, false, err
	}
	if hasPageIndex {
		return 2, false, nil
	}
	return 1, false, nil
}

// currentVersion returns the highest recorded migration, or 0 if none.
func currentVersion(db *sql.DB) (int, error) {
	version, tracked, err := schemaVersion(db)
	if err != nil || !tracked {
		return 0, err
	}
	return version, nil
}

// runMigrations brings db up to the newest schema. An untracked database has
// the versions its layout already satisfies recorded first, then the rest
// are applied one transaction each.
func runMigrations(db *sql.DB) error {
	version, tracked, err := schemaVersion(db)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if _, err := db.Exec(migrationsTableSQL); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range sortedMigrations() {
		if m.Version <= version {
			if !tracked {
				if err := recordMigration(db, m.Version); err != nil {
					return fmt.Errorf("record existing schema version %d: %w", m.Version, err)
				}
			}
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func recordMigration(db execer, version int) error {
	_, err := db.Exec("INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", version)
	return err
}

func applyMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d: begin: %w", m.Version, err)
	}
	if _, err := tx.Exec(m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := recordMigration(tx, m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %d: record: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d: commit: %w", m.Version, err)
	}
	return nil
}

// MigrationPlan reports the schema version of db and what migrating would
// apply. It only reads.
func MigrationPlan(db *sql.DB) (*MigrationStatus, error) {
	version, tracked, err := schemaVersion(db)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{CurrentVersion: version, Untracked: !tracked && version > 0}
	for _, m := range sortedMigrations() {
		status.AvailableVersion = m.Version
		if m.Version > version {
			status.Pending = append(status.Pending, MigrationInfo{Version: m.Version, Description: m.Description})
		}
	}
	return status, nil
}
