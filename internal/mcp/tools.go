package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/phpdoc-mcp/internal/indexer"
	"github.com/dshills/phpdoc-mcp/internal/resolver"
	"github.com/dshills/phpdoc-mcp/internal/searcher"
	"github.com/dshills/phpdoc-mcp/internal/storage"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeProjectNotFound   = -32001 // Specified path does not contain PHP files
	ErrorCodeReflectInProgress = -32002 // Another run is already reflecting the project
	ErrorCodeNotIndexed        = -32003 // Project not reflected yet
	ErrorCodeEmptyQuery        = -32004 // Query parameter is empty
	ErrorCodeElementNotFound   = -32005 // No element with the given FQSEN
	ErrorCodeNamespaceNotFound = -32006 // No namespace with the given path
)

const (
	maxReportedErrors  = 5
	defaultSearchLimit = 10
	timeFormat         = "2006-01-02T15:04:05Z07:00"
)

// handleReflectProject handles the reflect_project tool invocation
func (s *Server) handleReflectProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	cfg := indexer.FromConfig(s.cfg)
	cfg.Force = getBoolDefault(args, "force", false)

	files, err := indexer.Discover(root, cfg.Includes, cfg.Excludes)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	if len(files) == 0 {
		return nil, newMCPError(ErrorCodeProjectNotFound, ErrNoPHPFiles.Error(), map[string]interface{}{
			"path":   root,
			"reason": "no files match the configured includes",
		})
	}

	lock := s.lockFor(root)
	if !lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeReflectInProgress, "project is already being reflected", map[string]interface{}{
			"path": root,
		})
	}
	defer lock.Release()

	res, err := s.indexer.IndexProject(ctx, root, cfg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "reflection failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	s.snapshots.Add(root, res)
	s.searcher.InvalidateCache()

	stats := res.Stats
	s.logger.Info("project reflected",
		"path", root,
		"run_id", stats.RunID,
		"reflected", stats.FilesReflected,
		"skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed,
		"duration", stats.Duration)

	markers := make(map[string]int, len(res.Markers))
	for term, list := range res.Markers {
		markers[term] = len(list)
	}

	response := map[string]interface{}{
		"reflected":         true,
		"run_id":            stats.RunID,
		"files_reflected":   stats.FilesReflected,
		"files_skipped":     stats.FilesSkipped,
		"files_failed":      stats.FilesFailed,
		"files_deleted":     stats.FilesDeleted,
		"elements_indexed":  stats.ElementsIndexed,
		"diagnostics_count": stats.DiagnosticsCount,
		"markers":           markers,
		"duration_ms":       stats.Duration.Milliseconds(),
	}

	if errorCount := len(stats.ErrorMessages); errorCount > 0 {
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetElement handles the get_element tool invocation
func (s *Server) handleGetElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args)
	if err != nil {
		return nil, err
	}
	fqsen := strings.TrimSpace(getStringDefault(args, "fqsen", ""))
	if fqsen == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "fqsen parameter is required", map[string]interface{}{
			"param":  "fqsen",
			"reason": "missing or empty",
		})
	}

	res, err := s.snapshot(ctx, root)
	if err != nil {
		return nil, notIndexed(err, root)
	}

	el, ok := res.Index.Lookup(fqsen)
	if !ok {
		return nil, newMCPError(ErrorCodeElementNotFound, types.ErrElementNotFound.Error(), map[string]interface{}{
			"fqsen": fqsen,
		})
	}

	r := resolver.New(res.Index)
	response := describeElement(r, el, true)

	if c, ok := el.(*types.Class); ok {
		members := make(map[string]interface{})
		magic := make(map[string]interface{})
		var magicErrors []string
		for _, kind := range []resolver.MemberKind{resolver.Methods, resolver.Properties, resolver.Constants} {
			members[kind.String()] = describeMembers(r, c, r.Members(c, kind))

			synthesized, errs := r.MagicMembers(c, kind)
			if len(synthesized) > 0 {
				magic[kind.String()] = describeMembers(r, c, synthesized)
			}
			for _, e := range errs {
				magicErrors = append(magicErrors, e.Error())
			}
		}
		response["members"] = members
		if len(magic) > 0 {
			response["magic"] = magic
		}
		if len(magicErrors) > 0 {
			response["magic_errors"] = magicErrors
		}

		switch c.Kind {
		case types.KindInterface:
			response["implementers"] = classNames(res.Index.ClassesImplementing(c.FQSEN()))
		case types.KindClass:
			response["subclasses"] = classNames(res.Index.Subclasses(c.FQSEN()))
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// describeElement renders the fields every element shares, with summaries
// resolved through {@inheritDoc}
func describeElement(r *resolver.Resolver, el types.StructuralElement, withDetails bool) map[string]interface{} {
	common := el.Common()
	path, _ := r.Index().FileOf(el.FQSEN())

	out := map[string]interface{}{
		"fqsen":     el.FQSEN(),
		"kind":      string(el.ElementKind()),
		"name":      common.Name,
		"namespace": common.Namespace,
		"file":      path,
		"line":      common.Line,
		"signature": storage.Signature(el),
		"summary":   r.EffectiveSummary(el),
	}
	if common.DocBlock.IsDeprecated() {
		out["deprecated"] = true
	}
	if !withDetails {
		return out
	}

	if desc := r.EffectiveDescription(el); desc != "" {
		out["description"] = desc
	}
	if common.DocBlock != nil && len(common.DocBlock.Tags) > 0 {
		out["tags"] = common.DocBlock.Tags
	}
	if len(common.Errors) > 0 {
		out["errors"] = common.Errors
	}
	if fn := functionOf(el); fn != nil {
		params := make([]map[string]interface{}, len(fn.Parameters))
		for i, p := range fn.Parameters {
			param := map[string]interface{}{"name": p.Name, "type": p.TypeHint}
			if p.Default != "" {
				param["default"] = p.Default
			}
			if p.IsVariadic {
				param["variadic"] = true
			}
			if p.IsByReference {
				param["by_reference"] = true
			}
			params[i] = param
		}
		out["parameters"] = params
		if fn.ReturnType != "" {
			out["return_type"] = fn.ReturnType
		}
	}
	return out
}

func functionOf(el types.StructuralElement) *types.Function {
	switch v := el.(type) {
	case *types.Function:
		return v
	case *types.Method:
		return &v.Function
	}
	return nil
}

// describeMembers renders a member list of c, flagging members declared elsewhere
func describeMembers(r *resolver.Resolver, c *types.Class, members []types.StructuralElement) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(members))
	for _, m := range members {
		entry := describeElement(r, m, false)
		if owner := ownerOf(m); owner != "" && !strings.EqualFold(owner, c.FQSEN()) {
			entry["declared_in"] = owner
		}
		out = append(out, entry)
	}
	return out
}

func ownerOf(el types.StructuralElement) string {
	switch v := el.(type) {
	case *types.Method:
		return v.Owner
	case *types.Property:
		return v.Owner
	case *types.Constant:
		return v.Owner
	}
	return ""
}

func classNames(classes []*types.Class) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = c.FQSEN()
	}
	return out
}

// handleListNamespace handles the list_namespace tool invocation
func (s *Server) handleListNamespace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args)
	if err != nil {
		return nil, err
	}
	namespace := getStringDefault(args, "namespace", types.NamespaceSeparator)

	res, err := s.snapshot(ctx, root)
	if err != nil {
		return nil, notIndexed(err, root)
	}

	node, ok := res.Index.Namespace(namespace)
	if !ok {
		return nil, newMCPError(ErrorCodeNamespaceNotFound, "namespace not found", map[string]interface{}{
			"namespace": namespace,
		})
	}

	children := make([]string, 0, len(node.Children))
	for _, key := range node.ChildNames() {
		children = append(children, node.Children[key].Path)
	}

	r := resolver.New(res.Index)
	elements := make([]map[string]interface{}, 0, len(node.Elements))
	for _, fqsen := range node.Elements {
		if el, ok := res.Index.Lookup(fqsen); ok {
			elements = append(elements, describeElement(r, el, false))
		}
	}

	path := node.Path
	if path == "" {
		path = types.NamespaceSeparator
	}
	response := map[string]interface{}{
		"namespace":  path,
		"namespaces": children,
		"elements":   elements,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSymbols handles the search_symbols tool invocation
func (s *Server) handleSearchSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", defaultSearchLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	mode := searcher.SearchMode(getStringDefault(args, "search_mode", string(searcher.SearchModeCombined)))
	switch mode {
	case searcher.SearchModeCombined, searcher.SearchModeText, searcher.SearchModeName:
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid search_mode", map[string]interface{}{
			"param":   "search_mode",
			"value":   mode,
			"allowed": []string{"combined", "text", "name"},
		})
	}

	res, err := s.snapshot(ctx, root)
	if err != nil {
		return nil, notIndexed(err, root)
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:     query,
		Limit:     limit,
		Mode:      mode,
		Filters:   parseFilters(args),
		ProjectID: res.Project.ID,
		Index:     res.Index,
		UseCache:  true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmptyQuery) {
			return nil, newMCPError(ErrorCodeEmptyQuery, "query has no searchable terms", map[string]interface{}{
				"query": query,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"query":         query,
		"search_mode":   string(resp.SearchMode),
		"total_results": resp.TotalResults,
		"cache_hit":     resp.CacheHit,
		"duration_ms":   resp.Duration.Milliseconds(),
		"results":       resp.Results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// parseFilters reads the optional filters object of search_symbols
func parseFilters(args map[string]interface{}) *storage.SearchFilters {
	raw, ok := args["filters"].(map[string]interface{})
	if !ok {
		return nil
	}
	filters := &storage.SearchFilters{
		Namespace:   getStringDefault(raw, "namespace", ""),
		FilePattern: getStringDefault(raw, "file_pattern", ""),
	}
	if kinds, ok := raw["kinds"].([]interface{}); ok {
		for _, k := range kinds {
			if kind, ok := k.(string); ok && kind != "" {
				filters.Kinds = append(filters.Kinds, kind)
			}
		}
	}
	if len(filters.Kinds) == 0 && filters.Namespace == "" && filters.FilePattern == "" {
		return nil
	}
	return filters
}

// handleGetDiagnostics handles the get_diagnostics tool invocation
func (s *Server) handleGetDiagnostics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	minSeverity, err := types.ParseSeverity(getStringDefault(args, "min_severity", string(types.SeverityNotice)))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid min_severity", map[string]interface{}{
			"param":   "min_severity",
			"reason":  err.Error(),
			"allowed": []string{"critical", "error", "warning", "notice"},
		})
	}

	project, err := s.project(ctx, root)
	if err != nil {
		return nil, notIndexed(err, root)
	}

	diags, err := s.storage.ListDiagnostics(ctx, project.ID, minSeverity)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list diagnostics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	bySeverity := make(map[string]int)
	for _, d := range diags {
		bySeverity[string(d.Severity)]++
	}

	response := map[string]interface{}{
		"min_severity": string(minSeverity),
		"count":        len(diags),
		"by_severity":  bySeverity,
		"diagnostics":  diags,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetMarkers handles the get_markers tool invocation
func (s *Server) handleGetMarkers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args)
	if err != nil {
		return nil, err
	}
	term := strings.TrimSpace(getStringDefault(args, "term", ""))

	project, err := s.project(ctx, root)
	if err != nil {
		return nil, notIndexed(err, root)
	}

	markers, err := s.storage.ListMarkers(ctx, project.ID, term)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list markers", map[string]interface{}{
			"error": err.Error(),
		})
	}

	table := make(map[string][]types.Marker)
	for _, m := range markers {
		table[m.Term] = append(table[m.Term], m)
	}
	terms := make([]string, 0, len(table))
	for t := range table {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	response := map[string]interface{}{
		"count":   len(markers),
		"terms":   terms,
		"markers": table,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	root, err := requirePath(args)
	if err != nil {
		return nil, err
	}

	project, err := s.storage.GetProject(ctx, root)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    root,
			"message": "Project not reflected. Use the reflect_project tool to reflect this project.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get project status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx, project.ID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	projectInfo := map[string]interface{}{
		"path":          project.RootPath,
		"package_name":  project.PackageName,
		"index_version": project.IndexVersion,
		"last_run_id":   project.LastRunID,
	}
	if !project.LastIndexedAt.IsZero() {
		projectInfo["last_indexed_at"] = project.LastIndexedAt.Format(timeFormat)
		projectInfo["last_indexed"] = humanize.Time(project.LastIndexedAt)
	}

	response := map[string]interface{}{
		"indexed": true,
		"project": projectInfo,
		"statistics": map[string]interface{}{
			"files_count":       status.FilesCount,
			"elements_count":    status.ElementsCount,
			"diagnostics_count": status.DiagnosticsCount,
			"markers_count":     status.MarkersCount,
			"index_size":        humanize.Bytes(uint64(status.IndexSizeBytes)),
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"fts_indexes_built":   status.Health.FTSIndexesBuilt,
			"reflecting":          s.lockFor(root).Running(),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requirePath reads and validates the path argument and returns it cleaned
func requirePath(args map[string]interface{}) (string, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}
	return filepath.Clean(path), nil
}

// validatePath checks if a path exists and is a readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
	ErrNoPHPFiles      = errors.New("directory does not contain PHP files")
)
