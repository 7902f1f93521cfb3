package indexer

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// Source is one unit of input to a run. Hash, when set, is the hex SHA-256
// of the normalized content and lets an unchanged file be restored from the
// cache without decoding it.
type Source struct {
	Path    string
	Content []byte
	Hash    string

	// fsPath is read lazily by the worker when Content is nil
	fsPath string
}

// NewFileSource returns a source whose content is read from disk when the
// run reaches it. path is the project-relative name the file is reported under.
func NewFileSource(path, fsPath string) Source {
	return Source{Path: path, fsPath: fsPath}
}

func (s *Source) load() ([]byte, time.Time, error) {
	if s.Content != nil || s.fsPath == "" {
		return s.Content, time.Time{}, nil
	}
	info, err := os.Stat(s.fsPath)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("stat %s: %w", s.Path, err)
	}
	data, err := os.ReadFile(s.fsPath)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return data, info.ModTime(), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decoder normalizes raw source bytes to UTF-8
type decoder struct {
	name string
	enc  encoding.Encoding
}

// newDecoder resolves a WHATWG encoding label such as "utf-8" or "windows-1252"
func newDecoder(label string) (*decoder, error) {
	if strings.TrimSpace(label) == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedCharset, label)
	}
	name, _ := htmlindex.Name(enc)
	return &decoder{name: name, enc: enc}, nil
}

func (d *decoder) isUTF8() bool {
	return d.enc == unicode.UTF8 || d.name == "utf-8"
}

// decode returns content as UTF-8 without a byte order mark
func (d *decoder) decode(content []byte) ([]byte, error) {
	if d.isUTF8() {
		content = bytes.TrimPrefix(content, utf8BOM)
		if !utf8.Valid(content) {
			return nil, fmt.Errorf("%w: %s", types.ErrInvalidEncoding, d.name)
		}
		return content, nil
	}

	out, _, err := transform.Bytes(d.enc.NewDecoder(), content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrInvalidEncoding, d.name, err)
	}
	out = bytes.TrimPrefix(out, utf8BOM)
	if !utf8.Valid(out) {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidEncoding, d.name)
	}
	return out, nil
}

// undecodable is the result for content that cannot be normalized: no
// elements and a single critical diagnostic
func undecodable(path string, raw []byte, err error) *types.File {
	f := types.NewFile(path, types.ComputeContentHash(raw))
	f.AddParseError(0, types.SeverityCritical, err.Error())
	return f
}
