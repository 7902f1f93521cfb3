package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrEmptyQuery is returned when a search query has no searchable terms
var ErrEmptyQuery = errors.New("empty search query")

// searchText performs BM25 full-text search over element names, FQSENs,
// summaries and signatures
func searchText(ctx context.Context, q querier, projectID int64, query string, limit int, filters *SearchFilters) ([]TextResult, error) {
	match := sanitizeFTSQuery(query)
	if match == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 20
	}

	sqlQuery := `
		SELECT ` + elementColumns + `, f.file_path, bm25(elements_fts) AS score
		FROM elements_fts
		INNER JOIN elements e ON elements_fts.rowid = e.id
		INNER JOIN files f ON e.file_id = f.id
		WHERE elements_fts MATCH ?
		AND f.project_id = ?
	`
	args := []interface{}{match, projectID}
	sqlQuery, args = applyTextFilters(sqlQuery, args, filters)

	// the file pattern is matched in Go, so the limit is applied after it
	sqlQuery += " ORDER BY score"
	if filters == nil || filters.FilePattern == "" {
		sqlQuery += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]TextResult, 0)
	for rows.Next() {
		var result TextResult
		el, err := scanElement(rows, &result.FilePath, &result.BM25Score)
		if err != nil {
			return nil, err
		}
		result.Element = el

		if filters != nil && filters.FilePattern != "" {
			if ok, _ := doublestar.Match(filters.FilePattern, result.FilePath); !ok {
				continue
			}
		}

		// bm25 is negative with lower meaning better; map it onto (0, 1]
		result.BM25Score = 1.0 / (1.0 + math.Abs(result.BM25Score)/50.0)
		results = append(results, result)
		if len(results) == limit {
			break
		}
	}
	return results, rows.Err()
}

// applyTextFilters adds WHERE clause filters for text search
func applyTextFilters(query string, args []interface{}, filters *SearchFilters) (string, []interface{}) {
	if filters == nil {
		return query, args
	}

	if len(filters.Kinds) > 0 {
		query += " AND e.kind IN (" + strings.TrimSuffix(strings.Repeat("?,", len(filters.Kinds)), ",") + ")"
		for _, kind := range filters.Kinds {
			args = append(args, kind)
		}
	}

	if ns := strings.Trim(filters.Namespace, `\`); ns != "" {
		query += " AND (e.namespace = ? COLLATE NOCASE OR e.namespace LIKE ? ESCAPE '!')"
		args = append(args, ns, escapeLike(ns)+`\%`)
	}

	return query, args
}

// escapeLike escapes LIKE wildcards using ! as the escape character
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

// sanitizeFTSQuery turns free text into an FTS5 expression of quoted prefix
// terms. Only letters, digits and underscores survive, which keeps operators
// and punctuation such as namespace separators out of the MATCH syntax.
func sanitizeFTSQuery(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = `"` + term + `"*`
	}
	return strings.Join(quoted, " ")
}
