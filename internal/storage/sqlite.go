package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps :memory: databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Project operations

const projectColumns = `id, root_path, package_name, total_files, total_elements,
	index_version, last_run_id, last_indexed_at, created_at, updated_at`

func scanProject(row rowScanner) (*Project, error) {
	var project Project
	var packageName, runID sql.NullString
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&project.ID, &project.RootPath, &packageName, &project.TotalFiles,
		&project.TotalElements, &project.IndexVersion, &runID,
		&lastIndexedAt, &project.CreatedAt, &project.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	project.PackageName = packageName.String
	project.LastRunID = runID.String
	if lastIndexedAt.Valid {
		project.LastIndexedAt = lastIndexedAt.Time
	}
	return &project, nil
}

func (s *SQLiteStorage) createProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		INSERT INTO projects (root_path, package_name, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(root_path) DO NOTHING
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.RootPath, project.PackageName, project.IndexVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("project %s: %w", project.RootPath, ErrAlreadyExists)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	project.ID = id
	project.CreatedAt = now
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateProject(ctx context.Context, project *Project) error {
	return s.createProjectWithQuerier(ctx, s.querier(), project)
}

func (s *SQLiteStorage) getProjectWithQuerier(ctx context.Context, q querier, rootPath string) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE root_path = ?`
	return scanProject(q.QueryRowContext(ctx, query, rootPath))
}

func (s *SQLiteStorage) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return s.getProjectWithQuerier(ctx, s.querier(), rootPath)
}

func (s *SQLiteStorage) getProjectByIDWithQuerier(ctx context.Context, q querier, projectID int64) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return scanProject(q.QueryRowContext(ctx, query, projectID))
}

func (s *SQLiteStorage) updateProjectWithQuerier(ctx context.Context, q querier, project *Project) error {
	query := `
		UPDATE projects
		SET package_name = ?, total_files = ?, total_elements = ?, index_version = ?,
		    last_run_id = ?, last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		project.PackageName, project.TotalFiles, project.TotalElements, project.IndexVersion,
		project.LastRunID, project.LastIndexedAt, now, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	project.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateProject(ctx context.Context, project *Project) error {
	return s.updateProjectWithQuerier(ctx, s.querier(), project)
}

func (s *SQLiteStorage) listProjectsWithQuerier(ctx context.Context, q querier) ([]*Project, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY root_path`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	projects := make([]*Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *SQLiteStorage) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.listProjectsWithQuerier(ctx, s.querier())
}

// File operations

const fileColumns = `id, project_id, file_path, content_hash, mod_time, size_bytes,
	payload, parse_error, last_indexed_at, created_at, updated_at`

func scanFile(row rowScanner) (*File, error) {
	var file File
	var hash []byte
	var modTime sql.NullTime
	var sizeBytes sql.NullInt64
	var parseError sql.NullString
	err := row.Scan(
		&file.ID, &file.ProjectID, &file.FilePath, &hash, &modTime, &sizeBytes,
		&file.Payload, &parseError, &file.LastIndexedAt, &file.CreatedAt, &file.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(file.ContentHash[:], hash)
	if modTime.Valid {
		file.ModTime = modTime.Time
	}
	file.SizeBytes = sizeBytes.Int64
	if parseError.Valid {
		file.ParseError = &parseError.String
	}
	return &file, nil
}

func (s *SQLiteStorage) upsertFileWithQuerier(ctx context.Context, q querier, file *File) error {
	query := `
		INSERT INTO files (project_id, file_path, content_hash, mod_time, size_bytes, payload, parse_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			payload = excluded.payload,
			parse_error = excluded.parse_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		file.ProjectID, file.FilePath, file.ContentHash[:], file.ModTime, file.SizeBytes,
		file.Payload, file.ParseError, now, now, now).Scan(&file.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert file: %w", err)
	}

	file.LastIndexedAt = now
	file.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertFile(ctx context.Context, file *File) error {
	return s.upsertFileWithQuerier(ctx, s.querier(), file)
}

func (s *SQLiteStorage) getFileWithQuerier(ctx context.Context, q querier, projectID int64, filePath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? AND file_path = ?`
	return scanFile(q.QueryRowContext(ctx, query, projectID, filePath))
}

func (s *SQLiteStorage) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return s.getFileWithQuerier(ctx, s.querier(), projectID, filePath)
}

func (s *SQLiteStorage) getFileByIDWithQuerier(ctx context.Context, q querier, fileID int64) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = ?`
	return scanFile(q.QueryRowContext(ctx, query, fileID))
}

func (s *SQLiteStorage) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return s.getFileByIDWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) deleteFileWithQuerier(ctx context.Context, q querier, fileID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, fileID)
	return err
}

func (s *SQLiteStorage) DeleteFile(ctx context.Context, fileID int64) error {
	return s.deleteFileWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) listFilesWithQuerier(ctx context.Context, q querier, projectID int64) ([]*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE project_id = ? ORDER BY file_path`
	rows, err := q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return s.listFilesWithQuerier(ctx, s.querier(), projectID)
}

// Element operations

const elementColumns = `e.id, e.file_id, e.fqsen, e.name, e.kind, e.namespace,
	e.owner, e.summary, e.signature, e.line, e.deprecated`

func scanElement(row rowScanner, extra ...interface{}) (*Element, error) {
	var el Element
	var owner, summary, signature sql.NullString
	var line sql.NullInt64
	dest := []interface{}{
		&el.ID, &el.FileID, &el.FQSEN, &el.Name, &el.Kind, &el.Namespace,
		&owner, &summary, &signature, &line, &el.Deprecated,
	}
	err := row.Scan(append(dest, extra...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	el.Owner = owner.String
	el.Summary = summary.String
	el.Signature = signature.String
	el.Line = int(line.Int64)
	return &el, nil
}

// replaceElementsWithQuerier drops the file's rows and inserts the new set;
// the FTS triggers keep elements_fts in step
func (s *SQLiteStorage) replaceElementsWithQuerier(ctx context.Context, q querier, fileID int64, elements []*Element) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM elements WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to clear elements: %w", err)
	}

	query := `
		INSERT INTO elements (file_id, fqsen, name, kind, namespace, owner, summary, signature, line, deprecated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	for _, el := range elements {
		el.FileID = fileID
		err := q.QueryRowContext(ctx, query,
			el.FileID, el.FQSEN, el.Name, el.Kind, el.Namespace,
			el.Owner, el.Summary, el.Signature, el.Line, el.Deprecated,
		).Scan(&el.ID)
		if err != nil {
			return fmt.Errorf("failed to insert element %s: %w", el.FQSEN, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) ReplaceElements(ctx context.Context, fileID int64, elements []*Element) error {
	return s.replaceElementsWithQuerier(ctx, s.querier(), fileID, elements)
}

func (s *SQLiteStorage) getElementWithQuerier(ctx context.Context, q querier, projectID int64, fqsen string) (*Element, error) {
	query := `
		SELECT ` + elementColumns + `
		FROM elements e
		JOIN files f ON e.file_id = f.id
		WHERE f.project_id = ? AND e.fqsen = ? COLLATE NOCASE
		ORDER BY f.file_path DESC
		LIMIT 1
	`
	return scanElement(q.QueryRowContext(ctx, query, projectID, fqsen))
}

func (s *SQLiteStorage) GetElement(ctx context.Context, projectID int64, fqsen string) (*Element, error) {
	return s.getElementWithQuerier(ctx, s.querier(), projectID, fqsen)
}

func (s *SQLiteStorage) listElementsByFileWithQuerier(ctx context.Context, q querier, fileID int64) ([]*Element, error) {
	query := `SELECT ` + elementColumns + ` FROM elements e WHERE e.file_id = ? ORDER BY e.line, e.fqsen`
	rows, err := q.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	elements := make([]*Element, 0)
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	return elements, rows.Err()
}

func (s *SQLiteStorage) ListElementsByFile(ctx context.Context, fileID int64) ([]*Element, error) {
	return s.listElementsByFileWithQuerier(ctx, s.querier(), fileID)
}

func (s *SQLiteStorage) SearchElements(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, s.querier(), projectID, query, limit, filters)
}

// Diagnostic operations

func (s *SQLiteStorage) replaceDiagnosticsWithQuerier(ctx context.Context, q querier, fileID int64, diagnostics []types.Diagnostic) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM diagnostics WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to clear diagnostics: %w", err)
	}
	query := `INSERT INTO diagnostics (file_id, line, severity, severity_rank, message) VALUES (?, ?, ?, ?, ?)`
	for _, d := range diagnostics {
		if _, err := q.ExecContext(ctx, query, fileID, d.Line, string(d.Severity), d.Severity.Rank(), d.Message); err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) ReplaceDiagnostics(ctx context.Context, fileID int64, diagnostics []types.Diagnostic) error {
	return s.replaceDiagnosticsWithQuerier(ctx, s.querier(), fileID, diagnostics)
}

// listDiagnosticsWithQuerier returns diagnostics at least as severe as
// minSeverity, ordered by file then line
func (s *SQLiteStorage) listDiagnosticsWithQuerier(ctx context.Context, q querier, projectID int64, minSeverity types.Severity) ([]types.Diagnostic, error) {
	query := `
		SELECT f.file_path, d.line, d.severity, d.message
		FROM diagnostics d
		JOIN files f ON d.file_id = f.id
		WHERE f.project_id = ? AND d.severity_rank <= ?
		ORDER BY f.file_path, d.line, d.id
	`
	rows, err := q.QueryContext(ctx, query, projectID, minSeverity.Rank())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]types.Diagnostic, 0)
	for rows.Next() {
		var d types.Diagnostic
		var severity string
		if err := rows.Scan(&d.File, &d.Line, &severity, &d.Message); err != nil {
			return nil, err
		}
		d.Severity = types.Severity(severity)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) ListDiagnostics(ctx context.Context, projectID int64, minSeverity types.Severity) ([]types.Diagnostic, error) {
	return s.listDiagnosticsWithQuerier(ctx, s.querier(), projectID, minSeverity)
}

// Marker operations

func (s *SQLiteStorage) replaceMarkersWithQuerier(ctx context.Context, q querier, fileID int64, markers []types.Marker) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM markers WHERE file_id = ?`, fileID); err != nil {
		return fmt.Errorf("failed to clear markers: %w", err)
	}
	query := `INSERT INTO markers (file_id, term, line, note) VALUES (?, ?, ?, ?)`
	for _, m := range markers {
		if _, err := q.ExecContext(ctx, query, fileID, m.Term, m.Line, m.Note); err != nil {
			return fmt.Errorf("failed to insert marker: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) ReplaceMarkers(ctx context.Context, fileID int64, markers []types.Marker) error {
	return s.replaceMarkersWithQuerier(ctx, s.querier(), fileID, markers)
}

// listMarkersWithQuerier lists markers of a project; an empty term matches all
func (s *SQLiteStorage) listMarkersWithQuerier(ctx context.Context, q querier, projectID int64, term string) ([]types.Marker, error) {
	query := `
		SELECT f.file_path, m.term, m.line, m.note
		FROM markers m
		JOIN files f ON m.file_id = f.id
		WHERE f.project_id = ? AND (? = '' OR m.term = ? COLLATE NOCASE)
		ORDER BY f.file_path, m.line
	`
	rows, err := q.QueryContext(ctx, query, projectID, term, term)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]types.Marker, 0)
	for rows.Next() {
		var m types.Marker
		var note sql.NullString
		if err := rows.Scan(&m.File, &m.Term, &m.Line, &note); err != nil {
			return nil, err
		}
		m.Note = note.String
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) ListMarkers(ctx context.Context, projectID int64, term string) ([]types.Marker, error) {
	return s.listMarkersWithQuerier(ctx, s.querier(), projectID, term)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, projectID int64) (*ProjectStatus, error) {
	project, err := s.getProjectByIDWithQuerier(ctx, q, projectID)
	if err != nil {
		return nil, err
	}

	status := &ProjectStatus{
		Project:       project,
		LastIndexedAt: project.LastIndexedAt,
	}

	counts := []struct {
		dest  *int
		query string
	}{
		{&status.FilesCount, `SELECT COUNT(*) FROM files WHERE project_id = ?`},
		{&status.ElementsCount, `SELECT COUNT(*) FROM elements e JOIN files f ON e.file_id = f.id WHERE f.project_id = ?`},
		{&status.DiagnosticsCount, `SELECT COUNT(*) FROM diagnostics d JOIN files f ON d.file_id = f.id WHERE f.project_id = ?`},
		{&status.MarkersCount, `SELECT COUNT(*) FROM markers m JOIN files f ON m.file_id = f.id WHERE f.project_id = ?`},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query, projectID).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	var pageCount, pageSize int64
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeBytes = pageCount * pageSize
	}

	var ftsTable string
	ftsErr := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name = 'elements_fts'").Scan(&ftsTable)
	status.Health = HealthStatus{
		DatabaseAccessible: true,
		FTSIndexesBuilt:    ftsErr == nil,
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), projectID)
}

// Transaction implementations delegate to the querier-based helpers

func (t *sqliteTx) CreateProject(ctx context.Context, project *Project) error {
	return t.storage.createProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) GetProject(ctx context.Context, rootPath string) (*Project, error) {
	return t.storage.getProjectWithQuerier(ctx, t.querier(), rootPath)
}

func (t *sqliteTx) UpdateProject(ctx context.Context, project *Project) error {
	return t.storage.updateProjectWithQuerier(ctx, t.querier(), project)
}

func (t *sqliteTx) ListProjects(ctx context.Context) ([]*Project, error) {
	return t.storage.listProjectsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertFile(ctx context.Context, file *File) error {
	return t.storage.upsertFileWithQuerier(ctx, t.querier(), file)
}

func (t *sqliteTx) GetFile(ctx context.Context, projectID int64, filePath string) (*File, error) {
	return t.storage.getFileWithQuerier(ctx, t.querier(), projectID, filePath)
}

func (t *sqliteTx) GetFileByID(ctx context.Context, fileID int64) (*File, error) {
	return t.storage.getFileByIDWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) DeleteFile(ctx context.Context, fileID int64) error {
	return t.storage.deleteFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) ListFiles(ctx context.Context, projectID int64) ([]*File, error) {
	return t.storage.listFilesWithQuerier(ctx, t.querier(), projectID)
}

func (t *sqliteTx) ReplaceElements(ctx context.Context, fileID int64, elements []*Element) error {
	return t.storage.replaceElementsWithQuerier(ctx, t.querier(), fileID, elements)
}

func (t *sqliteTx) GetElement(ctx context.Context, projectID int64, fqsen string) (*Element, error) {
	return t.storage.getElementWithQuerier(ctx, t.querier(), projectID, fqsen)
}

func (t *sqliteTx) ListElementsByFile(ctx context.Context, fileID int64) ([]*Element, error) {
	return t.storage.listElementsByFileWithQuerier(ctx, t.querier(), fileID)
}

func (t *sqliteTx) SearchElements(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	return searchText(ctx, t.querier(), projectID, query, limit, filters)
}

func (t *sqliteTx) ReplaceDiagnostics(ctx context.Context, fileID int64, diagnostics []types.Diagnostic) error {
	return t.storage.replaceDiagnosticsWithQuerier(ctx, t.querier(), fileID, diagnostics)
}

func (t *sqliteTx) ListDiagnostics(ctx context.Context, projectID int64, minSeverity types.Severity) ([]types.Diagnostic, error) {
	return t.storage.listDiagnosticsWithQuerier(ctx, t.querier(), projectID, minSeverity)
}

func (t *sqliteTx) ReplaceMarkers(ctx context.Context, fileID int64, markers []types.Marker) error {
	return t.storage.replaceMarkersWithQuerier(ctx, t.querier(), fileID, markers)
}

func (t *sqliteTx) ListMarkers(ctx context.Context, projectID int64, term string) ([]types.Marker, error) {
	return t.storage.listMarkersWithQuerier(ctx, t.querier(), projectID, term)
}

func (t *sqliteTx) GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), projectID)
}

// Close is a no-op; the owning storage closes the database
func (t *sqliteTx) Close() error {
	return nil
}

// BeginTx is not supported inside a transaction
func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}
