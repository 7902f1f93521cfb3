package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/phpdoc-mcp/internal/config"
	"github.com/dshills/phpdoc-mcp/internal/indexer"
	"github.com/dshills/phpdoc-mcp/internal/searcher"
	"github.com/dshills/phpdoc-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "phpdoc-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"

	// snapshotCacheSize bounds the number of projects kept in memory
	snapshotCacheSize = 8
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	cfg      *config.Config
	storage  storage.Storage
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	logger   *slog.Logger

	// snapshots holds the last Result per absolute project root
	snapshots *lru.Cache[string, *indexer.Result]

	locksMu sync.Mutex
	locks   map[string]*indexer.RunLock
}

// NewServer opens the database named by cfg and creates a new MCP server
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	dbPath := cfg.Storage.DBPath
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s, err := newServer(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// newServer wires the tools around an open store
func newServer(cfg *config.Config, store storage.Storage) (*Server, error) {
	snapshots, err := lru.New[string, *indexer.Result](snapshotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	idx := indexer.New(store)

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:       mcpServer,
		cfg:       cfg,
		storage:   store,
		indexer:   idx,
		searcher:  searcher.NewSearcher(store),
		logger:    slog.Default(),
		snapshots: snapshots,
		locks:     make(map[string]*indexer.RunLock),
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// SetLogger replaces the logger of the server and its indexer
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger
	s.indexer.SetLogger(logger)
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the database
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(reflectProjectTool(), s.handleReflectProject)
	s.mcp.AddTool(getElementTool(), s.handleGetElement)
	s.mcp.AddTool(listNamespaceTool(), s.handleListNamespace)
	s.mcp.AddTool(searchSymbolsTool(), s.handleSearchSymbols)
	s.mcp.AddTool(getDiagnosticsTool(), s.handleGetDiagnostics)
	s.mcp.AddTool(getMarkersTool(), s.handleGetMarkers)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}

// lockFor returns the run lock of a project root
func (s *Server) lockFor(root string) *indexer.RunLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[root]
	if !ok {
		lock = &indexer.RunLock{}
		s.locks[root] = lock
	}
	return lock
}

// snapshot returns the in-memory model of a reflected project, rebuilding
// it from stored payloads after a restart. storage.ErrNotFound means the
// project was never reflected.
func (s *Server) snapshot(ctx context.Context, root string) (*indexer.Result, error) {
	if res, ok := s.snapshots.Get(root); ok {
		return res, nil
	}
	res, err := s.indexer.LoadProject(ctx, root)
	if err != nil {
		return nil, err
	}
	s.snapshots.Add(root, res)
	return res, nil
}

// project returns the stored project of a root
func (s *Server) project(ctx context.Context, root string) (*storage.Project, error) {
	if res, ok := s.snapshots.Get(root); ok && res.Project != nil {
		return res.Project, nil
	}
	return s.storage.GetProject(ctx, root)
}

// notIndexed converts a missing project into the matching MCP error
func notIndexed(err error, root string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return newMCPError(ErrorCodeNotIndexed, "project not reflected", map[string]interface{}{
			"path": root,
			"hint": "use the reflect_project tool first",
		})
	}
	return newMCPError(ErrorCodeInternalError, "failed to load project", map[string]interface{}{
		"error": err.Error(),
	})
}

// Health reports whether the database answers queries
func (s *Server) Health(ctx context.Context) error {
	_, err := s.storage.ListProjects(ctx)
	return err
}
