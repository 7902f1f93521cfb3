package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phpdoc-mcp/internal/config"
)

var projectFiles = map[string]string{
	"src/Greeter.php": `<?php
namespace App;

interface Greeter
{
    public function hello(): void;
}
`,
	"src/Base.php": `<?php
namespace App;

/**
 * Base model.
 *
 * @property string $email
 */
class Base implements Greeter
{
    /** Says hello. */
    public function hello(): void {}
}
`,
	"src/Child.php": `<?php
namespace App;

// TODO: add more waving
class Child extends Base
{
    /** {@inheritDoc} */
    public function hello(): void {}

    public function wave() {}
}
`,
	"src/Broken.php": `<?php
namespace App;

/** @property string Missing */
class Broken {}
`,
}

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// setupTestServer creates a server over an in-memory database
func setupTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.DBPath = ":memory:"

	s, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// createProject writes the fixture project and returns its root
func createProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range projectFiles {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func callTool(t *testing.T, handler toolHandler, args map[string]interface{}) (map[string]interface{}, error) {
	t.Helper()
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
	res, err := handler(context.Background(), req)
	if err != nil {
		return nil, err
	}
	require.Len(t, res.Content, 1)
	content, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(content.Text), &out))
	return out, nil
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCPError, got %v", err)
	assert.Equal(t, code, mcpErr.Code, mcpErr.Message)
}

// reflected creates the fixture project and reflects it
func reflected(t *testing.T, s *Server) string {
	t.Helper()
	root := createProject(t)
	_, err := callTool(t, s.handleReflectProject, map[string]interface{}{"path": root})
	require.NoError(t, err)
	return root
}

func fqsenList(t *testing.T, v interface{}) []string {
	t.Helper()
	items, ok := v.([]interface{})
	require.True(t, ok, "expected a list, got %T", v)
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.(map[string]interface{})["fqsen"].(string)
	}
	return out
}

func TestServer_Initialization(t *testing.T) {
	t.Run("creates the database directory", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Storage.DBPath = filepath.Join(t.TempDir(), "nested", "index.db")

		s, err := NewServer(cfg)
		require.NoError(t, err)
		defer s.Close()

		assert.FileExists(t, cfg.Storage.DBPath)
	})

	t.Run("server has all required components", func(t *testing.T) {
		s := setupTestServer(t)

		assert.NotNil(t, s.mcp, "MCP server should be initialized")
		assert.NotNil(t, s.storage, "Storage should be initialized")
		assert.NotNil(t, s.indexer, "Indexer should be initialized")
		assert.NotNil(t, s.searcher, "Searcher should be initialized")
		assert.NotNil(t, s.snapshots, "Snapshot cache should be initialized")
	})
}

func TestHandleReflectProject(t *testing.T) {
	s := setupTestServer(t)
	root := createProject(t)

	out, err := callTool(t, s.handleReflectProject, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, true, out["reflected"])
	assert.Equal(t, float64(4), out["files_reflected"])
	assert.Equal(t, float64(0), out["files_skipped"])
	assert.Equal(t, map[string]interface{}{"TODO": float64(1)}, out["markers"])
	assert.NotEmpty(t, out["run_id"])

	out, err = callTool(t, s.handleReflectProject, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out["files_reflected"])
	assert.Equal(t, float64(4), out["files_skipped"])

	out, err = callTool(t, s.handleReflectProject, map[string]interface{}{"path": root, "force": true})
	require.NoError(t, err)
	assert.Equal(t, float64(4), out["files_reflected"])

	t.Run("invalid paths", func(t *testing.T) {
		tests := []struct {
			name string
			args map[string]interface{}
			code int
		}{
			{"missing path", map[string]interface{}{}, ErrorCodeInvalidParams},
			{"relative path", map[string]interface{}{"path": "src"}, ErrorCodeInvalidParams},
			{"not a directory", map[string]interface{}{"path": filepath.Join(root, "src", "Base.php")}, ErrorCodeInvalidParams},
			{"no PHP files", map[string]interface{}{"path": t.TempDir()}, ErrorCodeProjectNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := callTool(t, s.handleReflectProject, tt.args)
				requireMCPError(t, err, tt.code)
			})
		}
	})

	t.Run("concurrent run is rejected", func(t *testing.T) {
		lock := s.lockFor(filepath.Clean(root))
		require.True(t, lock.TryAcquire())
		defer lock.Release()

		_, err := callTool(t, s.handleReflectProject, map[string]interface{}{"path": root})
		requireMCPError(t, err, ErrorCodeReflectInProgress)
	})
}

func TestHandleGetElement(t *testing.T) {
	s := setupTestServer(t)
	root := reflected(t, s)

	t.Run("class with inherited and magic members", func(t *testing.T) {
		out, err := callTool(t, s.handleGetElement, map[string]interface{}{"path": root, "fqsen": `\App\Child`})
		require.NoError(t, err)
		assert.Equal(t, "class", out["kind"])
		assert.Equal(t, "src/Child.php", out["file"])

		members := out["members"].(map[string]interface{})
		methods := members["methods"].([]interface{})
		assert.Equal(t, []string{`\App\Child::hello()`, `\App\Child::wave()`}, fqsenList(t, methods))
		assert.Equal(t, "Says hello.", methods[0].(map[string]interface{})["summary"])

		magic := out["magic"].(map[string]interface{})
		props := magic["properties"].([]interface{})
		require.Len(t, props, 1)
		email := props[0].(map[string]interface{})
		assert.Equal(t, "email", email["name"])
		assert.Equal(t, `\App\Base`, email["declared_in"])
	})

	t.Run("inheritDoc on a method", func(t *testing.T) {
		out, err := callTool(t, s.handleGetElement, map[string]interface{}{"path": root, "fqsen": `\app\child::HELLO()`})
		require.NoError(t, err)
		assert.Equal(t, `\App\Child::hello()`, out["fqsen"])
		assert.Equal(t, "Says hello.", out["summary"])
		assert.Equal(t, "void", out["return_type"])
	})

	t.Run("interface implementers", func(t *testing.T) {
		out, err := callTool(t, s.handleGetElement, map[string]interface{}{"path": root, "fqsen": `\App\Greeter`})
		require.NoError(t, err)
		assert.Equal(t, []interface{}{`\App\Base`}, out["implementers"])
	})

	t.Run("invalid magic tag", func(t *testing.T) {
		out, err := callTool(t, s.handleGetElement, map[string]interface{}{"path": root, "fqsen": `\App\Broken`})
		require.NoError(t, err)
		assert.NotEmpty(t, out["errors"])
		assert.NotEmpty(t, out["magic_errors"])
	})

	t.Run("snapshot rebuilt from storage", func(t *testing.T) {
		s.snapshots.Purge()
		out, err := callTool(t, s.handleGetElement, map[string]interface{}{"path": root, "fqsen": `\App\Base::hello()`})
		require.NoError(t, err)
		assert.Equal(t, "Says hello.", out["summary"])
	})

	t.Run("errors", func(t *testing.T) {
		_, err := callTool(t, s.handleGetElement, map[string]interface{}{"path": root, "fqsen": `\App\Nope`})
		requireMCPError(t, err, ErrorCodeElementNotFound)

		_, err = callTool(t, s.handleGetElement, map[string]interface{}{"path": root})
		requireMCPError(t, err, ErrorCodeInvalidParams)

		_, err = callTool(t, s.handleGetElement, map[string]interface{}{"path": t.TempDir(), "fqsen": `\App\Base`})
		requireMCPError(t, err, ErrorCodeNotIndexed)
	})
}

func TestHandleListNamespace(t *testing.T) {
	s := setupTestServer(t)
	root := reflected(t, s)

	out, err := callTool(t, s.handleListNamespace, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{`\App`}, out["namespaces"])
	assert.Empty(t, out["elements"])

	out, err = callTool(t, s.handleListNamespace, map[string]interface{}{"path": root, "namespace": `App`})
	require.NoError(t, err)
	assert.Equal(t, `\App`, out["namespace"])
	assert.ElementsMatch(t, []string{`\App\Base`, `\App\Broken`, `\App\Child`, `\App\Greeter`}, fqsenList(t, out["elements"]))

	_, err = callTool(t, s.handleListNamespace, map[string]interface{}{"path": root, "namespace": `\Nope`})
	requireMCPError(t, err, ErrorCodeNamespaceNotFound)
}

func TestHandleSearchSymbols(t *testing.T) {
	s := setupTestServer(t)
	root := reflected(t, s)

	out, err := callTool(t, s.handleSearchSymbols, map[string]interface{}{"path": root, "query": "wave"})
	require.NoError(t, err)
	assert.Contains(t, fqsenList(t, out["results"]), `\App\Child::wave()`)
	assert.Equal(t, "combined", out["search_mode"])

	out, err = callTool(t, s.handleSearchSymbols, map[string]interface{}{
		"path":    root,
		"query":   "greeter",
		"filters": map[string]interface{}{"kinds": []interface{}{"interface"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{`\App\Greeter`}, fqsenList(t, out["results"]))

	t.Run("invalid parameters", func(t *testing.T) {
		tests := []struct {
			name string
			args map[string]interface{}
			code int
		}{
			{"empty query", map[string]interface{}{"path": root, "query": "  "}, ErrorCodeEmptyQuery},
			{"limit out of range", map[string]interface{}{"path": root, "query": "x", "limit": float64(0)}, ErrorCodeInvalidParams},
			{"unknown mode", map[string]interface{}{"path": root, "query": "x", "search_mode": "vector"}, ErrorCodeInvalidParams},
			{"not reflected", map[string]interface{}{"path": t.TempDir(), "query": "x"}, ErrorCodeNotIndexed},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := callTool(t, s.handleSearchSymbols, tt.args)
				requireMCPError(t, err, tt.code)
			})
		}
	})
}

func TestHandleGetDiagnostics(t *testing.T) {
	s := setupTestServer(t)
	root := reflected(t, s)

	out, err := callTool(t, s.handleGetDiagnostics, map[string]interface{}{"path": root, "min_severity": "error"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out["count"], float64(1))
	diags := out["diagnostics"].([]interface{})
	assert.Equal(t, "src/Broken.php", diags[0].(map[string]interface{})["file"])

	out, err = callTool(t, s.handleGetDiagnostics, map[string]interface{}{"path": root, "min_severity": "critical"})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out["count"])

	_, err = callTool(t, s.handleGetDiagnostics, map[string]interface{}{"path": root, "min_severity": "fatal"})
	requireMCPError(t, err, ErrorCodeInvalidParams)
}

func TestHandleGetMarkers(t *testing.T) {
	s := setupTestServer(t)
	root := reflected(t, s)

	out, err := callTool(t, s.handleGetMarkers, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["count"])
	assert.Equal(t, []interface{}{"TODO"}, out["terms"])

	todo := out["markers"].(map[string]interface{})["TODO"].([]interface{})
	marker := todo[0].(map[string]interface{})
	assert.Equal(t, "src/Child.php", marker["file"])
	assert.Equal(t, "add more waving", marker["note"])

	out, err = callTool(t, s.handleGetMarkers, map[string]interface{}{"path": root, "term": "fixme"})
	require.NoError(t, err)
	assert.Equal(t, float64(0), out["count"])
}

func TestHandleGetStatus(t *testing.T) {
	s := setupTestServer(t)
	root := createProject(t)

	out, err := callTool(t, s.handleGetStatus, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, false, out["indexed"])

	_, err = callTool(t, s.handleReflectProject, map[string]interface{}{"path": root})
	require.NoError(t, err)

	out, err = callTool(t, s.handleGetStatus, map[string]interface{}{"path": root})
	require.NoError(t, err)
	assert.Equal(t, true, out["indexed"])

	stats := out["statistics"].(map[string]interface{})
	assert.Equal(t, float64(4), stats["files_count"])
	assert.NotEmpty(t, stats["index_size"])

	health := out["health"].(map[string]interface{})
	assert.Equal(t, true, health["database_accessible"])
	assert.Equal(t, true, health["fts_indexes_built"])
	assert.Equal(t, false, health["reflecting"])
}
