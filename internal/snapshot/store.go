package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"gridauto/internal/coerce"
	"gridauto/internal/table"
)

// Store manages snapshot persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Snapshot describes one saved capture.
type Snapshot struct {
	ID         int64
	Name       string
	ObjectType string
	RowCount   int
	CreatedAt  time.Time
}

// columnMeta records the typed shape of a snapshot so Load can rebuild
// the table exactly.
type columnMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Open initializes or connects to the snapshot database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure snapshot directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS snapshots (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        object_type TEXT NOT NULL,
        row_count INTEGER NOT NULL,
        columns_json TEXT NOT NULL,
        created_at TEXT NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure snapshots table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Save captures a table under the given name. The data lands in its own
// SQL table with columns typed after the source fields; the index row
// and data table are written in one transaction.
func (s *Store) Save(ctx context.Context, name, objectType string, tbl *table.Table) (int64, error) {
	if tbl == nil {
		return 0, fmt.Errorf("nil table")
	}
	columns := tbl.Columns()
	if len(columns) == 0 {
		return 0, fmt.Errorf("table has no columns")
	}

	meta := make([]columnMeta, len(columns))
	for i, col := range columns {
		meta[i] = columnMeta{Name: col.Name, Type: string(col.Type)}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("marshal column metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO snapshots (name, object_type, row_count, columns_json, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		name,
		objectType,
		tbl.RowCount(),
		string(metaJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	columnDefs := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		columnDefs[i] = fmt.Sprintf("%s %s", quoteIdent(col.Name), sqlType(col.Type))
		placeholders[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", dataTableName(id), strings.Join(columnDefs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return 0, fmt.Errorf("create snapshot data table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", dataTableName(id), strings.Join(placeholders, ", "))
	for _, row := range tbl.Rows() {
		if _, err := tx.ExecContext(ctx, insert, row.Values()...); err != nil {
			return 0, fmt.Errorf("insert snapshot row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	return id, nil
}

// List returns all snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT id, name, object_type, row_count, created_at FROM snapshots ORDER BY id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.Name, &snap.ObjectType, &snap.RowCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			snap.CreatedAt = t
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Load rebuilds a saved snapshot as a typed table.
func (s *Store) Load(ctx context.Context, id int64) (*table.Table, error) {
	var metaJSON string
	err := s.db.QueryRowContext(ctx, "SELECT columns_json FROM snapshots WHERE id = ?", id).Scan(&metaJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %d: %w", id, err)
	}

	var meta []columnMeta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal column metadata: %w", err)
	}
	columns := make([]table.Column, len(meta))
	selected := make([]string, len(meta))
	for i, m := range meta {
		columns[i] = table.Column{Name: m.Name, Type: coerce.FieldType(m.Type)}
		selected[i] = quoteIdent(m.Name)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selected, ", "), dataTableName(id))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query snapshot data: %w", err)
	}
	defer rows.Close()

	out := table.New(columns)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		for i, v := range values {
			if b, isBytes := v.([]byte); isBytes {
				values[i] = string(b)
			}
		}
		if err := out.AppendRow(values); err != nil {
			return nil, err
		}
	}
	return out, rows.Err()
}

// Delete removes a snapshot's index row and data table.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete snapshot %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("snapshot %d does not exist", id)
	}
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+dataTableName(id)); err != nil {
		return fmt.Errorf("drop snapshot data table: %w", err)
	}
	return nil
}

func dataTableName(id int64) string {
	return fmt.Sprintf("snapshot_data_%d", id)
}

func sqlType(t coerce.FieldType) string {
	switch t {
	case coerce.Integer:
		return "INTEGER"
	case coerce.Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

// quoteIdent makes a field name safe as a SQL identifier. Field names
// like "BusNum:1" are valid once double-quoted.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, ``) + `"`
}
