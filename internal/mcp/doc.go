// Package mcp implements the Model Context Protocol (MCP) server for phpdoc-mcp.
//
// The server exposes the reflected model of PHP projects to AI coding
// assistants through seven tools:
//   - reflect_project: Reflect (or incrementally re-reflect) a project
//   - get_element: Describe one element by FQSEN, with inherited and magic members
//   - list_namespace: List the child namespaces and elements of a namespace
//   - search_symbols: Search elements by name and docblock text
//   - get_diagnostics: List parse and docblock validation problems
//   - get_markers: List TODO/FIXME style comments by term
//   - get_status: Report index statistics and health of a project
//
// Every tool takes the absolute project root as "path". All tools but
// reflect_project read the last stored run; the in-memory model is kept in
// a small LRU of projects and rebuilt from the database after a restart.
//
// # Tool: reflect_project
//
//	Request:
//	{
//	  "name": "reflect_project",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "force": false
//	  }
//	}
//
//	Response:
//	{
//	  "reflected": true,
//	  "run_id": "0f8e...",
//	  "files_reflected": 12,
//	  "files_skipped": 230,
//	  "files_failed": 0,
//	  "files_deleted": 1,
//	  "elements_indexed": 4711,
//	  "diagnostics_count": 3,
//	  "markers": {"TODO": 14, "FIXME": 2},
//	  "duration_ms": 812
//	}
//
// Only one run per project is allowed at a time; a concurrent call fails
// with -32002.
//
// # Tool: get_element
//
//	Request:
//	{
//	  "name": "get_element",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "fqsen": "\\App\\Models\\User"
//	  }
//	}
//
// The response carries the signature, the effective summary and description
// ({@inheritDoc} resolved against ancestors), tags and validation errors.
// Classes add "members" per collection, "magic" members synthesized from
// @property and @method tags, and their subclasses or implementers.
//
// # Error Handling
//
// Errors are returned as JSON-RPC style errors with a data payload:
//
//	{
//	  "code": -32602,
//	  "message": "invalid path",
//	  "data": {"param": "path", "reason": "path does not exist"}
//	}
//
// Error codes:
//   - -32602: Invalid params
//   - -32603: Internal error
//   - -32001: Project not found (no PHP files under path)
//   - -32002: Reflection in progress
//   - -32003: Project not reflected
//   - -32004: Empty search query
//   - -32005: Element not found
//   - -32006: Namespace not found
//
// # Logging
//
// stdout is reserved for the protocol; the server logs through log/slog to
// stderr. Set the level with PHPDOC_LOG_LEVEL or logging.level in
// phpdoc.yaml.
package mcp
