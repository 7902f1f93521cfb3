package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// pathProperty is the project root parameter every tool takes
func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the PHP project root",
	}
}

// reflectProjectTool returns the tool definition for reflect_project
func reflectProjectTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reflect_project",
		Description: "Reflect the PHP files of a project into a documentation model and persist it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, reflect every file again ignoring content hashes",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getElementTool returns the tool definition for get_element
func getElementTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_element",
		Description: "Describe an element by FQSEN, with inherited and magic members and {@inheritDoc} resolved",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"fqsen": map[string]interface{}{
					"type":        "string",
					"description": `Fully qualified structural element name, e.g. \App\User, \App\User::getName() or \App\User::$email`,
				},
			},
			Required: []string{"path", "fqsen"},
		},
	}
}

// listNamespaceTool returns the tool definition for list_namespace
func listNamespaceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_namespace",
		Description: "List the child namespaces and the classes, functions and constants of a namespace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"namespace": map[string]interface{}{
					"type":        "string",
					"description": `Namespace to list, e.g. \App\Models. Defaults to the root namespace`,
					"default":     `\`,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchSymbolsTool returns the tool definition for search_symbols
func searchSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbols",
		Description: "Search the elements of a reflected PHP project by name, FQSEN, summary or signature",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional filters to narrow search",
					"properties": map[string]interface{}{
						"kinds": map[string]interface{}{
							"type":        "array",
							"description": "Filter by element kind",
							"items": map[string]interface{}{
								"type": "string",
								"enum": []string{"class", "interface", "trait", "function", "method", "property", "constant"},
							},
						},
						"namespace": map[string]interface{}{
							"type":        "string",
							"description": "Limit results to a namespace and the namespaces below it",
						},
						"file_pattern": map[string]interface{}{
							"type":        "string",
							"description": "Glob pattern for file paths (e.g., 'src/Models/**')",
						},
					},
				},
				"search_mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy: combined (text + name), text (BM25 only), or name (element names only)",
					"enum":        []string{"combined", "text", "name"},
					"default":     "combined",
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getDiagnosticsTool returns the tool definition for get_diagnostics
func getDiagnosticsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_diagnostics",
		Description: "List parse errors and docblock validation errors of a reflected project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"min_severity": map[string]interface{}{
					"type":        "string",
					"description": "Least severe diagnostic to include",
					"enum":        []string{"critical", "error", "warning", "notice"},
					"default":     "notice",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getMarkersTool returns the tool definition for get_markers
func getMarkersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_markers",
		Description: "List TODO, FIXME and other configured comment markers of a reflected project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
				"term": map[string]interface{}{
					"type":        "string",
					"description": "Only return markers of this term (case-insensitive)",
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query reflection status and statistics for a PHP project",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": pathProperty(),
			},
			Required: []string{"path"},
		},
	}
}
