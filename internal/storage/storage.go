package storage

import (
	"context"
	"time"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying reflected projects
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, project *Project) error
	GetProject(ctx context.Context, rootPath string) (*Project, error)
	UpdateProject(ctx context.Context, project *Project) error
	ListProjects(ctx context.Context) ([]*Project, error)

	// File operations
	UpsertFile(ctx context.Context, file *File) error
	GetFile(ctx context.Context, projectID int64, filePath string) (*File, error)
	GetFileByID(ctx context.Context, fileID int64) (*File, error)
	DeleteFile(ctx context.Context, fileID int64) error
	ListFiles(ctx context.Context, projectID int64) ([]*File, error)

	// Element operations
	ReplaceElements(ctx context.Context, fileID int64, elements []*Element) error
	GetElement(ctx context.Context, projectID int64, fqsen string) (*Element, error)
	ListElementsByFile(ctx context.Context, fileID int64) ([]*Element, error)
	SearchElements(ctx context.Context, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error)

	// Diagnostic operations
	ReplaceDiagnostics(ctx context.Context, fileID int64, diagnostics []types.Diagnostic) error
	ListDiagnostics(ctx context.Context, projectID int64, minSeverity types.Severity) ([]types.Diagnostic, error)

	// Marker operations
	ReplaceMarkers(ctx context.Context, fileID int64, markers []types.Marker) error
	ListMarkers(ctx context.Context, projectID int64, term string) ([]types.Marker, error)

	// Status operations
	GetStatus(ctx context.Context, projectID int64) (*ProjectStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Project represents a reflected PHP codebase
type Project struct {
	ID            int64
	RootPath      string
	PackageName   string // composer.json "name", if any
	TotalFiles    int
	TotalElements int
	IndexVersion  string
	LastRunID     string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// File represents a tracked source file together with its cached
// reflection result
type File struct {
	ID            int64
	ProjectID     int64
	FilePath      string // Relative to project root
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	Payload       []byte  // JSON-encoded types.File
	ParseError    *string // First parse error, nullable
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Element is the searchable projection of a structural element
type Element struct {
	ID         int64
	FileID     int64
	FQSEN      string
	Name       string
	Kind       string
	Namespace  string
	Owner      string
	Summary    string
	Signature  string
	Line       int
	Deprecated bool
}

// SearchFilters contains filters for narrowing search results
type SearchFilters struct {
	Kinds       []string // Filter by element kind
	Namespace   string   // Namespace prefix, e.g. App\Models
	FilePattern string   // Doublestar glob on file paths
}

// TextResult represents a result from full-text search
type TextResult struct {
	Element   *Element
	FilePath  string
	BM25Score float64
}

// ProjectStatus contains statistics about a reflected project
type ProjectStatus struct {
	Project          *Project
	FilesCount       int
	ElementsCount    int
	DiagnosticsCount int
	MarkersCount     int
	IndexSizeBytes   int64
	LastIndexedAt    time.Time
	Health           HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
}
