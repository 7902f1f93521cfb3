package docblock

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// methodTag matches "[static] [type] name(args) [description]"
var methodTag = regexp.MustCompile(`^(?:(static)\s+)?(?:(\S+)\s+)?([A-Za-z_\x80-\xff][\w\x80-\xff]*)\s*\(([^)]*)\)\s*(.*)$`)

// Parse parses a raw /** ... */ comment. expand normalizes type names found in
// tags; nil leaves them as written.
func Parse(raw string, expand func(string) string) (*types.DocBlock, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 5 || !strings.HasPrefix(raw, "/**") || !strings.HasSuffix(raw, "*/") {
		return nil, fmt.Errorf("%w: comment must open with /** and close with */", types.ErrMalformedDocBlock)
	}
	if expand == nil {
		expand = func(s string) string { return s }
	}

	lines := cleanLines(raw[3 : len(raw)-2])

	text := lines
	var tagLines []string
	for i, l := range lines {
		if strings.HasPrefix(l, "@") {
			text, tagLines = lines[:i], lines[i:]
			break
		}
	}

	doc := &types.DocBlock{}
	doc.Summary, doc.Description = splitSummary(strings.TrimSpace(strings.Join(text, "\n")))

	var current []string
	flush := func() {
		if len(current) > 0 {
			doc.Tags = append(doc.Tags, parseTag(strings.Join(current, "\n"), expand))
		}
		current = nil
	}
	for _, l := range tagLines {
		if strings.HasPrefix(l, "@") {
			flush()
		}
		current = append(current, strings.TrimSpace(l))
	}
	flush()

	return doc, nil
}

// cleanLines strips comment decoration: leading whitespace, one asterisk and
// one following blank
func cleanLines(body string) []string {
	raw := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimLeft(l, " \t")
		if strings.HasPrefix(l, "*") {
			l = l[1:]
			if strings.HasPrefix(l, " ") || strings.HasPrefix(l, "\t") {
				l = l[1:]
			}
		}
		out = append(out, strings.TrimRight(l, " \t"))
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// splitSummary ends the summary at a blank line or at a period followed by
// whitespace, whichever comes first
func splitSummary(text string) (string, string) {
	end := len(text)
	if i := strings.Index(text, "\n\n"); i >= 0 {
		end = i
	}
	for i := 0; i < end-1; i++ {
		if text[i] == '.' && isBlank(text[i+1]) {
			end = i + 1
			break
		}
	}
	summary := strings.Join(strings.Fields(text[:end]), " ")
	return summary, strings.TrimSpace(text[end:])
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func tagKind(name string) types.TagKind {
	switch n := strings.ToLower(name); n {
	case "var", "param", "return", "property", "property-read", "property-write",
		"method", "package", "subpackage", "deprecated", "inheritdoc":
		return types.TagKind(n)
	case "returns":
		return types.TagReturn
	}
	return types.TagGeneric
}

func parseTag(line string, expand func(string) string) types.Tag {
	line = strings.TrimPrefix(line, "@")
	name, body := line, ""
	if i := strings.IndexAny(line, " \t\n"); i >= 0 {
		name, body = line[:i], strings.TrimSpace(line[i+1:])
	}

	tag := types.Tag{Name: name, Kind: tagKind(name), Body: body}
	switch tag.Kind {
	case types.TagVar, types.TagReturn:
		parseTypedTag(&tag, expand)
	case types.TagParam:
		parseParamTag(&tag, expand)
	case types.TagProperty, types.TagPropertyRead, types.TagPropertyWrite:
		parseTypedTag(&tag, expand)
	case types.TagMethod:
		parseMethodTag(&tag, expand)
	case types.TagDeprecated:
		version, rest := nextField(body)
		if version != "" && (isDigitByte(version[0]) || strings.EqualFold(version, "unknown")) {
			tag.Version = version
			tag.Description = rest
		} else {
			tag.Description = body
		}
	case types.TagPackage, types.TagSubpackage:
		tag.Body, _ = nextField(body)
	}
	return tag
}

// parseTypedTag handles "type [$name] [description]", also accepting the
// variable first
func parseTypedTag(tag *types.Tag, expand func(string) string) {
	first, rest := nextField(tag.Body)
	if strings.HasPrefix(first, "$") {
		tag.Variable = first
		typ, desc := nextField(rest)
		if typ != "" && !strings.HasPrefix(typ, "$") && looksLikeType(typ) {
			tag.Types = expandTypes(typ, expand)
			rest = desc
		}
		tag.Description = rest
		return
	}
	if first != "" {
		tag.Types = expandTypes(first, expand)
	}
	if tag.Kind == types.TagReturn {
		tag.Description = rest
		return
	}
	if v, desc := nextField(rest); strings.HasPrefix(v, "$") {
		tag.Variable = v
		rest = desc
	}
	tag.Description = rest
}

// parseParamTag handles "type [&][...]$name [description]"
func parseParamTag(tag *types.Tag, expand func(string) string) {
	first, rest := nextField(tag.Body)
	if !isParamVariable(first) {
		if first != "" {
			tag.Types = expandTypes(first, expand)
		}
		first, rest = nextField(rest)
	}
	if isParamVariable(first) {
		v := first
		if strings.HasPrefix(v, "&") {
			tag.IsByReference = true
			v = v[1:]
		}
		if strings.HasPrefix(v, "...") {
			tag.IsVariadic = true
			v = v[3:]
		}
		tag.Variable = v
		tag.Description = rest
		return
	}
	tag.Description = strings.TrimSpace(first + " " + rest)
}

func isParamVariable(s string) bool {
	s = strings.TrimPrefix(s, "&")
	s = strings.TrimPrefix(s, "...")
	return strings.HasPrefix(s, "$")
}

func parseMethodTag(tag *types.Tag, expand func(string) string) {
	m := methodTag.FindStringSubmatch(strings.ReplaceAll(tag.Body, "\n", " "))
	if m == nil {
		tag.Description = tag.Body
		return
	}
	tag.IsStatic = m[1] != ""
	if m[2] != "" {
		tag.Types = expandTypes(m[2], expand)
	}
	tag.MethodName = m[3]
	tag.Arguments = strings.TrimSpace(m[4])
	tag.Description = strings.TrimSpace(m[5])
}

func expandTypes(raw string, expand func(string) string) []string {
	expanded := expand(raw)
	if expanded == "" {
		return nil
	}
	return splitUnion(expanded)
}

// looksLikeType rejects plain prose words that follow a leading variable
func looksLikeType(s string) bool {
	return strings.ContainsAny(s, `\|[]<>`) || isPrimitiveWord(s)
}

func isPrimitiveWord(s string) bool {
	switch strings.ToLower(s) {
	case "string", "int", "integer", "bool", "boolean", "float", "double", "object",
		"mixed", "array", "resource", "void", "null", "callback", "callable",
		"false", "true", "iterable", "self", "static":
		return true
	}
	return false
}

// splitUnion splits on | outside of <>, () and {}
func splitUnion(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '{':
			depth++
		case '>', ')', '}':
			if depth > 0 {
				depth--
			}
		case '|':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// nextField returns the first whitespace-delimited field, keeping generic
// and shape brackets together, and the trimmed remainder
func nextField(s string) (string, string) {
	s = strings.TrimSpace(s)
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<' || c == '(' || c == '{':
			depth++
		case c == '>' || c == ')' || c == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && isBlank(c):
			return s[:i], strings.TrimSpace(s[i+1:])
		}
	}
	return s, ""
}

func isDigitByte(c byte) bool {
	return c >= '0' && c <= '9'
}
