package marker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// DefaultTerms are scanned for when no terms are configured
var DefaultTerms = []string{"TODO", "FIXME"}

// Scanner finds marker terms introduced by a comment in raw source text
type Scanner struct {
	terms []string
	re    *regexp.Regexp
}

// New compiles a scanner for terms. Empty or blank terms fall back to
// DefaultTerms.
func New(terms []string) *Scanner {
	var clean []string
	seen := make(map[string]bool)
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}
	if len(clean) == 0 {
		clean = append(clean, DefaultTerms...)
	}

	quoted := make([]string, len(clean))
	for i, t := range clean {
		quoted[i] = regexp.QuoteMeta(t)
	}
	// the term must follow a docblock line's leading * or a //, # or /*
	// that starts the line or follows whitespace or a statement end
	pattern := `(?:^\s*\*+|(?:^|[\s;{}])(?://|#|/\*+))\s*(` + strings.Join(quoted, "|") + `)\b:?\s*(.*?)\s*(?:\*/)?\s*$`
	return &Scanner{terms: clean, re: regexp.MustCompile(pattern)}
}

// Terms returns the terms the scanner looks for
func (s *Scanner) Terms() []string {
	return append([]string(nil), s.terms...)
}

// Scan returns the markers found in content, one per line at most
func (s *Scanner) Scan(path string, content []byte) []types.Marker {
	if len(content) == 0 {
		return nil
	}
	var out []types.Marker
	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		m := s.re.FindStringSubmatchIndex(line)
		if m == nil || inString(line[:m[0]]) {
			continue
		}
		out = append(out, types.Marker{
			Term: line[m[2]:m[3]],
			File: path,
			Line: i + 1,
			Note: line[m[4]:m[5]],
		})
	}
	return out
}

// inString reports whether a line prefix ends inside a quoted string
func inString(prefix string) bool {
	var quote byte
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
		}
	}
	return quote != 0
}

// Table groups the markers of files by term, ordered by file then line
func Table(files []*types.File) map[string][]types.Marker {
	table := make(map[string][]types.Marker)
	for _, f := range files {
		for _, m := range f.Markers {
			table[m.Term] = append(table[m.Term], m)
		}
	}
	for _, markers := range table {
		sort.Slice(markers, func(i, j int) bool {
			if markers[i].File != markers[j].File {
				return markers[i].File < markers[j].File
			}
			return markers[i].Line < markers[j].Line
		})
	}
	return table
}
