package token

// Search describes a bounded token search. Targets are checked before StopAt,
// so a token matching both is reported as found.
type Search struct {
	Targets []Pattern
	// Max is the maximum number of tokens inspected; 0 means unbounded
	Max    int
	StopAt []Pattern
}

// PairStatus reports the outcome of a matching pair scan
type PairStatus int

const (
	// PairNotFound means no balanced pair exists from the start position
	PairNotFound PairStatus = iota
	// PairFound means Start and End hold the opening and closing indexes
	PairFound
	// PairNoBody means the no-body terminator came before any opener
	PairNoBody
)

func (s PairStatus) String() string {
	switch s {
	case PairFound:
		return "found"
	case PairNoBody:
		return "no_body"
	default:
		return "not_found"
	}
}

// Pair is the result of a matching pair scan. Start and End are -1 unless
// Status is PairFound; for PairNoBody, End holds the terminator index.
type Pair struct {
	Start  int
	End    int
	Status PairStatus
}

// Found reports whether a balanced pair was located
func (p Pair) Found() bool {
	return p.Status == PairFound
}

// Cursor is a seekable sequence of tokens with a single mutable position
type Cursor struct {
	tokens []Token
	key    int
}

// NewCursor creates a cursor positioned on the first token
func NewCursor(tokens []Token) *Cursor {
	return &Cursor{tokens: tokens}
}

// Len returns the number of tokens
func (c *Cursor) Len() int {
	return len(c.tokens)
}

// Key returns the current position
func (c *Cursor) Key() int {
	return c.key
}

// Valid reports whether the position is inside the sequence
func (c *Cursor) Valid() bool {
	return c.key >= 0 && c.key < len(c.tokens)
}

// Tokens returns the underlying sequence; callers must not modify it
func (c *Cursor) Tokens() []Token {
	return c.tokens
}

// At returns the token at index i without moving the cursor
func (c *Cursor) At(i int) (Token, bool) {
	if i < 0 || i >= len(c.tokens) {
		return Token{}, false
	}
	return c.tokens[i], true
}

// Current returns the token at the position, or nil when exhausted
func (c *Cursor) Current() *Token {
	if !c.Valid() {
		return nil
	}
	return &c.tokens[c.key]
}

// Next advances one token and returns it, or nil when exhausted
func (c *Cursor) Next() *Token {
	if c.key < len(c.tokens) {
		c.key++
	}
	return c.Current()
}

// Previous steps back one token and returns it, or nil when exhausted
func (c *Cursor) Previous() *Token {
	if c.key >= 0 {
		c.key--
	}
	return c.Current()
}

// Seek moves to index i and returns the token there. Out-of-range indexes
// leave the cursor exhausted and return nil.
func (c *Cursor) Seek(i int) *Token {
	switch {
	case i < 0:
		c.key = -1
	case i > len(c.tokens):
		c.key = len(c.tokens)
	default:
		c.key = i
	}
	return c.Current()
}

// FindNext searches forward without moving the cursor. It returns the
// matching token and its index, or nil and -1.
func (c *Cursor) FindNext(s Search) (*Token, int) {
	return c.find(s, 1)
}

// FindPrevious searches backward without moving the cursor
func (c *Cursor) FindPrevious(s Search) (*Token, int) {
	return c.find(s, -1)
}

// GotoNext searches forward and moves to the match. The position is
// unchanged when nothing is found.
func (c *Cursor) GotoNext(s Search) *Token {
	t, i := c.find(s, 1)
	if t != nil {
		c.key = i
	}
	return t
}

// GotoPrevious searches backward and moves to the match
func (c *Cursor) GotoPrevious(s Search) *Token {
	t, i := c.find(s, -1)
	if t != nil {
		c.key = i
	}
	return t
}

func (c *Cursor) find(s Search, step int) (*Token, int) {
	for i, n := c.key+step, 1; i >= 0 && i < len(c.tokens); i, n = i+step, n+1 {
		if s.Max > 0 && n > s.Max {
			break
		}
		t := &c.tokens[i]
		if matchAny(s.Targets, *t) {
			return t, i
		}
		if matchAny(s.StopAt, *t) {
			break
		}
	}
	return nil, -1
}

// MatchingPair scans forward from the current token for a balanced
// open/close region. When noBody is non-empty and that literal appears
// before any opener, the result is PairNoBody. The position is restored.
func (c *Cursor) MatchingPair(open, closer, noBody string) Pair {
	return c.matchingPair([]Pattern{Lit(open)}, closer, noBody)
}

// BracePair is MatchingPair for { and } with ; as the no-body terminator.
// String interpolation openers ({$ and ${) count toward nesting because
// their closing brace is a plain literal.
func (c *Cursor) BracePair() Pair {
	return c.matchingPair(braceOpeners, "}", ";")
}

var braceOpeners = []Pattern{Lit("{"), Of(CurlyOpen), Of(DollarOpenCurlyBraces)}

// IsBraceOpener reports whether t opens a brace region
func IsBraceOpener(t Token) bool {
	return matchAny(braceOpeners, t)
}

func (c *Cursor) matchingPair(openers []Pattern, closer, noBody string) Pair {
	level := -1
	start := -1
	for i := c.key; i >= 0 && i < len(c.tokens); i++ {
		t := c.tokens[i]
		switch {
		case matchAny(openers, t):
			if level == -1 {
				level = 0
				start = i
			}
			level++
		case t.IsLiteral(closer):
			if level == -1 {
				continue
			}
			level--
			if level == 0 {
				return Pair{Start: start, End: i, Status: PairFound}
			}
		case noBody != "" && level == -1 && t.IsLiteral(noBody):
			return Pair{Start: -1, End: i, Status: PairNoBody}
		}
	}
	return Pair{Start: -1, End: -1, Status: PairNotFound}
}
