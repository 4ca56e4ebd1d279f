package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/flowdex/pkg/types"
)

// SQLiteStore implements the Store interface using SQLite with an FTS5
// shadow index kept in sync by triggers.
//
// Two handles share one WAL database: a single-connection writer that
// serializes all mutations, and a pooled read-only path so queries never
// block behind an in-progress reindex. For in-memory databases the reader
// aliases the writer (a second handle would open a second database).
type SQLiteStore struct {
	writer *sql.DB
	reader *sql.DB
}

// openDatabase opens a SQLite handle with the standard pragmas applied.
// The pragmas ride in the DSN (see dsn in the build-tag files) so that every
// pooled connection is configured, not just whichever one an Exec lands on.
func openDatabase(dbPath string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn(dbPath))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}

	return db, nil
}

// isMemoryPath reports whether the DSN refers to an in-memory database
func isMemoryPath(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// NewSQLiteStore opens (creating if necessary) the index database at dbPath
// and applies pending schema migrations. Errors here are fatal for startup.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if !isMemoryPath(dbPath) {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, &types.StorageError{Op: "open", Err: fmt.Errorf("create database directory: %w", err)}
		}
	}

	writer, err := openDatabase(dbPath, 1)
	if err != nil {
		return nil, &types.StorageError{Op: "open", Err: err}
	}

	if err := ApplyMigrations(context.Background(), writer); err != nil {
		_ = writer.Close()
		return nil, &types.StorageError{Op: "migrate", Err: err}
	}

	if _, err := writer.Exec(
		"INSERT OR REPLACE INTO system_metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		MetaSchemaVersion, CurrentSchemaVersion,
	); err != nil {
		_ = writer.Close()
		return nil, &types.StorageError{Op: "migrate", Err: err}
	}

	reader := writer
	if !isMemoryPath(dbPath) {
		reader, err = openDatabase(dbPath, 4)
		if err != nil {
			_ = writer.Close()
			return nil, &types.StorageError{Op: "open", Err: err}
		}
	}

	return &SQLiteStore{writer: writer, reader: reader}, nil
}

// Close closes the database handles
func (s *SQLiteStore) Close() error {
	if s.reader != s.writer {
		_ = s.reader.Close()
	}
	return s.writer.Close()
}

// workflowColumns is the scan order shared by every record query
const workflowColumns = `id, filename, name, workflow_id, active, description,
       trigger_type, complexity, node_count, integrations, tags, category,
       created_at, updated_at, file_hash, file_size, analyzed_at`

// Upsert inserts or fully replaces a record keyed by filename. The row write
// and the FTS shadow update commit in one transaction: the insert/update
// triggers rewrite the shadow entry (delete-then-insert on update), so a
// reader never sees the table and the shadow disagree.
func (s *SQLiteStore) Upsert(ctx context.Context, record *types.WorkflowRecord) error {
	record.Normalize()
	if err := record.Validate(); err != nil {
		return &types.StorageError{Op: "upsert", Err: err}
	}

	integrations, err := json.Marshal(sliceOrEmpty(record.Integrations))
	if err != nil {
		return &types.StorageError{Op: "upsert", Err: err}
	}
	tags, err := json.Marshal(sliceOrEmpty(record.Tags))
	if err != nil {
		return &types.StorageError{Op: "upsert", Err: err}
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Op: "upsert", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO workflows (
			filename, name, workflow_id, active, description,
			trigger_type, complexity, node_count, integrations, tags,
			category, created_at, updated_at, file_hash, file_size, analyzed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			name = excluded.name,
			workflow_id = excluded.workflow_id,
			active = excluded.active,
			description = excluded.description,
			trigger_type = excluded.trigger_type,
			complexity = excluded.complexity,
			node_count = excluded.node_count,
			integrations = excluded.integrations,
			tags = excluded.tags,
			category = excluded.category,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			file_hash = excluded.file_hash,
			file_size = excluded.file_size,
			analyzed_at = excluded.analyzed_at
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		record.Filename, record.Name, record.WorkflowID, record.Active, record.Description,
		string(record.TriggerType), string(record.Complexity), record.NodeCount,
		string(integrations), string(tags),
		nullableString(record.Category), record.CreatedAt, record.UpdatedAt,
		record.FileHash, record.FileSize, record.AnalyzedAt,
	).Scan(&record.ID)
	if err != nil {
		return &types.StorageError{Op: "upsert", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Op: "upsert", Err: err}
	}
	return nil
}

// Get returns the record for filename, or types.ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, filename string) (*types.WorkflowRecord, error) {
	row := s.reader.QueryRowContext(ctx,
		"SELECT "+workflowColumns+" FROM workflows WHERE filename = ?", filename)

	record, err := scanWorkflow(row)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Op: "get", Err: err}
	}
	return record, nil
}

// Delete removes the record (and, via trigger, its FTS shadow entry) in one
// transaction. Returns types.ErrNotFound when no such record exists.
func (s *SQLiteStore) Delete(ctx context.Context, filename string) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Op: "delete", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, "DELETE FROM workflows WHERE filename = ?", filename)
	if err != nil {
		return &types.StorageError{Op: "delete", Err: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return &types.StorageError{Op: "delete", Err: err}
	}
	if affected == 0 {
		return types.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// ListFingerprints returns filename -> file_hash for every indexed record
func (s *SQLiteStore) ListFingerprints(ctx context.Context) (map[string]string, error) {
	rows, err := s.reader.QueryContext(ctx, "SELECT filename, file_hash FROM workflows")
	if err != nil {
		return nil, &types.StorageError{Op: "list", Err: err}
	}
	defer func() { _ = rows.Close() }()

	fingerprints := make(map[string]string)
	for rows.Next() {
		var filename, hash string
		if err := rows.Scan(&filename, &hash); err != nil {
			return nil, &types.StorageError{Op: "list", Err: err}
		}
		fingerprints[filename] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "list", Err: err}
	}
	return fingerprints, nil
}

// Search runs a filtered, optionally full-text query. The page rows and the
// total are read inside one transaction so pagination arithmetic is exact
// against a single snapshot even while a reindex runs.
func (s *SQLiteStore) Search(ctx context.Context, req *types.SearchRequest) ([]types.WorkflowRecord, int, error) {
	var (
		conditions []string
		args       []interface{}
	)

	text := strings.TrimSpace(req.Query)
	useFTS := text != ""

	if useFTS {
		conditions = append(conditions, "workflows_fts MATCH ?")
		args = append(args, ftsMatchExpression(text))
	}
	if req.Trigger != types.FilterAll {
		conditions = append(conditions, "w.trigger_type = ?")
		args = append(args, req.Trigger)
	}
	if req.Complexity != types.FilterAll {
		conditions = append(conditions, "w.complexity = ?")
		args = append(args, req.Complexity)
	}
	if req.Category != types.FilterAll {
		conditions = append(conditions, "w.category = ?")
		args = append(args, req.Category)
	}
	if req.ActiveOnly {
		conditions = append(conditions, "w.active = 1")
	}

	from := "FROM workflows w"
	orderBy := "ORDER BY w.filename"
	if useFTS {
		// Weighted BM25 (lower is better). Name carries the most weight so a
		// name match always outranks repeated hits in a long description;
		// weights follow the shadow column order: filename, name,
		// description, integrations, tags, category. Filename tiebreak keeps
		// pagination deterministic.
		from = "FROM workflows w JOIN workflows_fts ON w.id = workflows_fts.rowid"
		orderBy = "ORDER BY bm25(workflows_fts, 5.0, 10.0, 1.0, 2.0, 2.0, 1.0), w.filename"
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	tx, err := s.reader.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, &types.StorageError{Op: "search", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s %s", from, where)
	if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, &types.StorageError{Op: "search", Err: err}
	}

	offset := (req.Page - 1) * req.PerPage
	pageQuery := fmt.Sprintf("SELECT %s %s %s %s LIMIT ? OFFSET ?",
		qualifyColumns(workflowColumns), from, where, orderBy)
	pageArgs := append(append([]interface{}{}, args...), req.PerPage, offset)

	rows, err := tx.QueryContext(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, &types.StorageError{Op: "search", Err: err}
	}
	defer func() { _ = rows.Close() }()

	records := make([]types.WorkflowRecord, 0, req.PerPage)
	for rows.Next() {
		record, err := scanWorkflow(rows)
		if err != nil {
			return nil, 0, &types.StorageError{Op: "search", Err: err}
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, &types.StorageError{Op: "search", Err: err}
	}

	return records, total, nil
}

// Stats aggregates over the whole authoritative table
func (s *SQLiteStore) Stats(ctx context.Context) (*types.StatsReport, error) {
	tx, err := s.reader.BeginTx(ctx, nil)
	if err != nil {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	report := &types.StatsReport{
		Triggers:   make(map[string]int),
		Complexity: make(map[string]int),
		Categories: []string{},
	}

	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(node_count), 0)
		FROM workflows
	`).Scan(&report.Total, &report.Active, &report.TotalNodes)
	if err != nil {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}
	report.Inactive = report.Total - report.Active

	if err := scanHistogram(ctx, tx, "trigger_type", report.Triggers); err != nil {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}
	if err := scanHistogram(ctx, tx, "complexity", report.Complexity); err != nil {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}

	catRows, err := tx.QueryContext(ctx,
		"SELECT DISTINCT category FROM workflows WHERE category IS NOT NULL AND category != '' ORDER BY category")
	if err != nil {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}
	defer func() { _ = catRows.Close() }()
	for catRows.Next() {
		var category string
		if err := catRows.Scan(&category); err != nil {
			return nil, &types.StorageError{Op: "stats", Err: err}
		}
		report.Categories = append(report.Categories, category)
	}
	if err := catRows.Err(); err != nil {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}

	// Integrations live as JSON array text; the distinct count is computed
	// here so the SQL stays identical across both drivers.
	unique, err := countUniqueIntegrations(ctx, tx)
	if err != nil {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}
	report.UniqueIntegrations = unique

	var lastIndexed sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT value FROM system_metadata WHERE key = ?", MetaLastIndexed).Scan(&lastIndexed)
	if err != nil && err != sql.ErrNoRows {
		return nil, &types.StorageError{Op: "stats", Err: err}
	}
	if lastIndexed.Valid {
		report.LastIndexed = lastIndexed.String
	}

	return report, nil
}

// GetMetadata returns the value for a system metadata key, or types.ErrNotFound
func (s *SQLiteStore) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.reader.QueryRowContext(ctx,
		"SELECT value FROM system_metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", &types.StorageError{Op: "metadata", Err: err}
	}
	return value, nil
}

// SetMetadata writes a system metadata key
func (s *SQLiteStore) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.writer.ExecContext(ctx,
		"INSERT OR REPLACE INTO system_metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		key, value)
	if err != nil {
		return &types.StorageError{Op: "metadata", Err: err}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanWorkflow scans one row in workflowColumns order
func scanWorkflow(row rowScanner) (*types.WorkflowRecord, error) {
	var (
		record       types.WorkflowRecord
		workflowID   sql.NullString
		category     sql.NullString
		createdAt    sql.NullString
		updatedAt    sql.NullString
		integrations string
		tags         string
	)

	err := row.Scan(
		&record.ID, &record.Filename, &record.Name, &workflowID, &record.Active,
		&record.Description, &record.TriggerType, &record.Complexity, &record.NodeCount,
		&integrations, &tags, &category, &createdAt, &updatedAt,
		&record.FileHash, &record.FileSize, &record.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}

	record.WorkflowID = workflowID.String
	record.Category = category.String
	record.CreatedAt = createdAt.String
	record.UpdatedAt = updatedAt.String

	if err := json.Unmarshal([]byte(integrations), &record.Integrations); err != nil {
		return nil, fmt.Errorf("decode integrations for %s: %w", record.Filename, err)
	}
	if err := json.Unmarshal([]byte(tags), &record.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", record.Filename, err)
	}

	// Stored complexity is never trusted over the derived value.
	record.Normalize()

	return &record, nil
}

// scanHistogram fills counts with value -> row count for a column
func scanHistogram(ctx context.Context, tx *sql.Tx, column string, counts map[string]int) error {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf("SELECT %s, COUNT(*) FROM workflows GROUP BY %s", column, column))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var value string
		var count int
		if err := rows.Scan(&value, &count); err != nil {
			return err
		}
		counts[value] = count
	}
	return rows.Err()
}

// countUniqueIntegrations counts distinct integration names across all rows
func countUniqueIntegrations(ctx context.Context, tx *sql.Tx) (int, error) {
	rows, err := tx.QueryContext(ctx, "SELECT integrations FROM workflows")
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]struct{})
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return 0, err
		}
		var names []string
		if err := json.Unmarshal([]byte(raw), &names); err != nil {
			continue
		}
		for _, name := range names {
			seen[name] = struct{}{}
		}
	}
	return len(seen), rows.Err()
}

// ftsMatchExpression turns free text into a safe FTS5 MATCH expression.
// Each token is quoted so user input cannot inject FTS query syntax;
// quoted tokens are ANDed, which porter stemming then matches loosely.
func ftsMatchExpression(text string) string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		escaped := strings.ReplaceAll(field, `"`, `""`)
		tokens = append(tokens, `"`+escaped+`"`)
	}
	return strings.Join(tokens, " ")
}

// qualifyColumns prefixes each column in a comma-separated list with "w."
func qualifyColumns(columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = "w." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

// sliceOrEmpty ensures nil slices marshal as [] rather than null
func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullableString stores empty strings as NULL (category joins rely on it)
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
