package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phpdoc-mcp/internal/token"
)

type kt struct {
	kind token.Kind
	text string
}

func scanPairs(t *testing.T, src string) []kt {
	t.Helper()
	tokens, errs := Scan(src)
	require.Empty(t, errs)
	out := make([]kt, len(tokens))
	for i, tk := range tokens {
		out[i] = kt{tk.Kind, tk.Text}
	}
	return out
}

func TestScan_NamespaceAndKeywords(t *testing.T) {
	got := scanPairs(t, "<?php\nnamespace Foo\\Bar;\nCLASS Baz extends \\Base {}")
	want := []kt{
		{token.OpenTag, "<?php\n"},
		{token.Namespace, "namespace"},
		{token.Identifier, "Foo"},
		{token.NsSeparator, "\\"},
		{token.Identifier, "Bar"},
		{token.Literal, ";"},
		{token.Class, "CLASS"},
		{token.Identifier, "Baz"},
		{token.Extends, "extends"},
		{token.NsSeparator, "\\"},
		{token.Identifier, "Base"},
		{token.Literal, "{"},
		{token.Literal, "}"},
	}
	assert.Equal(t, want, got)
}

func TestScan_ContextualIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []kt
	}{
		{
			name: "property named like a keyword",
			src:  "<?php $a->class;",
			want: []kt{{token.OpenTag, "<?php "}, {token.Variable, "$a"}, {token.ObjectOperator, "->"}, {token.Identifier, "class"}, {token.Literal, ";"}},
		},
		{
			name: "class constant fetch",
			src:  "<?php Foo::class;",
			want: []kt{{token.OpenTag, "<?php "}, {token.Identifier, "Foo"}, {token.DoubleColon, "::"}, {token.Identifier, "class"}, {token.Literal, ";"}},
		},
		{
			name: "method named like a keyword",
			src:  "<?php function new() {}",
			want: []kt{{token.OpenTag, "<?php "}, {token.Function, "function"}, {token.Identifier, "new"}, {token.Literal, "("}, {token.Literal, ")"}, {token.Literal, "{"}, {token.Literal, "}"}},
		},
		{
			name: "by-reference function",
			src:  "<?php function &use() {}",
			want: []kt{{token.OpenTag, "<?php "}, {token.Function, "function"}, {token.Literal, "&"}, {token.Identifier, "use"}, {token.Literal, "("}, {token.Literal, ")"}, {token.Literal, "{"}, {token.Literal, "}"}},
		},
		{
			name: "nullsafe operator",
			src:  "<?php $a?->b;",
			want: []kt{{token.OpenTag, "<?php "}, {token.Variable, "$a"}, {token.ObjectOperator, "?->"}, {token.Identifier, "b"}, {token.Literal, ";"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanPairs(t, tt.src))
		})
	}
}

func TestScan_Comments(t *testing.T) {
	src := "<?php\n// line\n# hash\n/* block */\n/** doc */\n/**/\n#[Attr]"
	got := scanPairs(t, src)
	want := []kt{
		{token.OpenTag, "<?php\n"},
		{token.Comment, "// line"},
		{token.Comment, "# hash"},
		{token.Comment, "/* block */"},
		{token.DocComment, "/** doc */"},
		{token.Comment, "/**/"},
		{token.Literal, "#["},
		{token.Identifier, "Attr"},
		{token.Literal, "]"},
	}
	assert.Equal(t, want, got)
}

func TestScan_Strings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []kt
	}{
		{
			name: "single quoted",
			src:  `<?php 'it\'s';`,
			want: []kt{{token.OpenTag, "<?php "}, {token.ConstantString, `'it\'s'`}, {token.Literal, ";"}},
		},
		{
			name: "double quoted without interpolation",
			src:  `<?php "a \$b";`,
			want: []kt{{token.OpenTag, "<?php "}, {token.ConstantString, `"a \$b"`}, {token.Literal, ";"}},
		},
		{
			name: "curly interpolation",
			src:  `<?php "a {$b} c";`,
			want: []kt{
				{token.OpenTag, "<?php "},
				{token.Literal, `"`},
				{token.EncapsedAndWhitespace, "a "},
				{token.CurlyOpen, "{"},
				{token.Variable, "$b"},
				{token.Literal, "}"},
				{token.EncapsedAndWhitespace, " c"},
				{token.Literal, `"`},
				{token.Literal, ";"},
			},
		},
		{
			name: "dollar brace interpolation",
			src:  `<?php "${name}";`,
			want: []kt{
				{token.OpenTag, "<?php "},
				{token.Literal, `"`},
				{token.DollarOpenCurlyBraces, "${"},
				{token.Identifier, "name"},
				{token.Literal, "}"},
				{token.Literal, `"`},
				{token.Literal, ";"},
			},
		},
		{
			name: "simple variables",
			src:  `<?php "x $a[0] and $b->c";`,
			want: []kt{
				{token.OpenTag, "<?php "},
				{token.Literal, `"`},
				{token.EncapsedAndWhitespace, "x "},
				{token.Variable, "$a"},
				{token.Literal, "["},
				{token.LNumber, "0"},
				{token.Literal, "]"},
				{token.EncapsedAndWhitespace, " and "},
				{token.Variable, "$b"},
				{token.ObjectOperator, "->"},
				{token.Identifier, "c"},
				{token.Literal, `"`},
				{token.Literal, ";"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanPairs(t, tt.src))
		})
	}
}

func TestScan_Heredoc(t *testing.T) {
	t.Run("heredoc", func(t *testing.T) {
		got := scanPairs(t, "<?php\n$x = <<<EOT\nHello $name\nEOT;\n")
		want := []kt{
			{token.OpenTag, "<?php\n"},
			{token.Variable, "$x"},
			{token.Literal, "="},
			{token.StartHeredoc, "<<<EOT\n"},
			{token.EncapsedAndWhitespace, "Hello "},
			{token.Variable, "$name"},
			{token.EncapsedAndWhitespace, "\n"},
			{token.EndHeredoc, "EOT"},
			{token.Literal, ";"},
		}
		assert.Equal(t, want, got)
	})

	t.Run("nowdoc with indented close", func(t *testing.T) {
		got := scanPairs(t, "<?php\n$x = <<<'EOT'\n  raw $x {$y}\n  EOT;\n")
		want := []kt{
			{token.OpenTag, "<?php\n"},
			{token.Variable, "$x"},
			{token.Literal, "="},
			{token.StartHeredoc, "<<<'EOT'\n"},
			{token.EncapsedAndWhitespace, "  raw $x {$y}\n"},
			{token.EndHeredoc, "EOT"},
			{token.Literal, ";"},
		}
		assert.Equal(t, want, got)
	})

	t.Run("shift operator is not a heredoc", func(t *testing.T) {
		got := scanPairs(t, "<?php $a << 2;")
		assert.Contains(t, got, kt{token.Operator, "<<"})
	})
}

func TestScan_Numbers(t *testing.T) {
	got := scanPairs(t, "<?php 1 1.5 0x1F 1e3 .5 1_000")
	want := []kt{
		{token.OpenTag, "<?php "},
		{token.LNumber, "1"},
		{token.DNumber, "1.5"},
		{token.LNumber, "0x1F"},
		{token.DNumber, "1e3"},
		{token.DNumber, ".5"},
		{token.LNumber, "1_000"},
	}
	assert.Equal(t, want, got)
}

func TestScan_InlineHTML(t *testing.T) {
	got := scanPairs(t, "<html><?php echo 1; ?>\n<b><?= $x ?>")
	want := []kt{
		{token.InlineHTML, "<html>"},
		{token.OpenTag, "<?php "},
		{token.Identifier, "echo"},
		{token.LNumber, "1"},
		{token.Literal, ";"},
		{token.CloseTag, "?>\n"},
		{token.InlineHTML, "<b>"},
		{token.OpenTagWithEcho, "<?="},
		{token.Variable, "$x"},
		{token.CloseTag, "?>"},
	}
	assert.Equal(t, want, got)

	tokens, errs := Scan("<p>no php here</p>")
	require.Empty(t, errs)
	require.Len(t, tokens, 1)
	assert.Equal(t, token.InlineHTML, tokens[0].Kind)
}

func TestScan_Operators(t *testing.T) {
	got := scanPairs(t, "<?php $a === $b => ... ?? :: \\")
	want := []kt{
		{token.OpenTag, "<?php "},
		{token.Variable, "$a"},
		{token.Operator, "==="},
		{token.Variable, "$b"},
		{token.DoubleArrow, "=>"},
		{token.Ellipsis, "..."},
		{token.Operator, "??"},
		{token.DoubleColon, "::"},
		{token.NsSeparator, "\\"},
	}
	assert.Equal(t, want, got)
}

func TestScan_LinesAndSpacing(t *testing.T) {
	tokens, errs := Scan("<?php\n\n/**\n * Doc\n */\nfunction f(array $a = array(2, 3)) {}\n")
	require.Empty(t, errs)

	var doc, fn token.Token
	for _, tk := range tokens {
		switch tk.Kind {
		case token.DocComment:
			doc = tk
		case token.Function:
			fn = tk
		}
	}
	assert.Equal(t, 3, doc.Line)
	assert.Equal(t, 6, fn.Line)

	// array(2, 3) round-trips through Join
	var start int
	for i, tk := range tokens {
		if tk.Kind == token.Array && tokens[i+1].IsLiteral("(") && i > 0 && tokens[i-1].IsLiteral("=") {
			start = i
		}
	}
	require.NotZero(t, start)
	assert.Equal(t, "array(2, 3)", token.Join(tokens[start:start+6]))
}

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"unterminated comment", "<?php\n/* open", "unterminated comment", 2},
		{"unterminated single quoted", "<?php 'abc", "unterminated string", 1},
		{"unterminated double quoted", "<?php\n\n\"a $b", "unterminated string", 3},
		{"unterminated heredoc", "<?php <<<EOT\nbody\n", "unterminated heredoc EOT", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, errs := Scan(tt.src)
			require.Len(t, errs, 1)
			assert.NotEmpty(t, tokens)

			var scanErr *Error
			require.ErrorAs(t, errs[0], &scanErr)
			assert.Equal(t, tt.line, scanErr.Line)
			assert.Contains(t, scanErr.Message, tt.msg)
		})
	}
}
