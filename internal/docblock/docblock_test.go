package docblock

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

func qualify(s string) string {
	parts := strings.Split(s, "|")
	for i, p := range parts {
		if p != "string" && p != "int" && !strings.HasPrefix(p, `\`) {
			parts[i] = `\App\` + p
		}
	}
	return strings.Join(parts, "|")
}

func TestParse_SummaryAndDescription(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		summary     string
		description string
	}{
		{
			name:    "single line",
			raw:     "/** Returns the user name */",
			summary: "Returns the user name",
		},
		{
			name:        "period ends summary",
			raw:         "/**\n * Loads a record. The cache is\n * consulted first.\n */",
			summary:     "Loads a record.",
			description: "The cache is\nconsulted first.",
		},
		{
			name:        "blank line ends summary",
			raw:         "/**\n * A summary spanning\n * two lines\n *\n * Long text v1.2 here.\n */",
			summary:     "A summary spanning two lines",
			description: "Long text v1.2 here.",
		},
		{
			name:    "version numbers do not end the summary",
			raw:     "/** Added in 1.2 for users. */",
			summary: "Added in 1.2 for users.",
		},
		{
			name:    "inherit marker",
			raw:     "/** {@inheritDoc} */",
			summary: "{@inheritDoc}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.raw, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.summary, doc.Summary)
			assert.Equal(t, tt.description, doc.Description)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{"/* plain */", "/** unterminated", "// line", ""} {
		doc, err := Parse(raw, nil)
		assert.Nil(t, doc)
		assert.ErrorIs(t, err, types.ErrMalformedDocBlock, raw)
	}
}

func TestParse_Tags(t *testing.T) {
	raw := `/**
 * Summary.
 *
 * @param string|User $name The name
 *        continued here
 * @param int &...$ids
 * @return Collection|null the result
 * @var int $count
 * @property string $title Page title
 * @property-read int $id
 * @property string Description only
 * @method static Builder where(string $col, $value) Filters rows
 * @method save()
 * @package App\Models
 * @deprecated 2.0 Use other()
 * @inheritDoc
 * @see Foo::bar()
 */`
	doc, err := Parse(raw, qualify)
	require.NoError(t, err)
	require.Len(t, doc.Tags, 13)

	param := doc.Tags[0]
	assert.Equal(t, types.TagParam, param.Kind)
	assert.Equal(t, []string{"string", `\App\User`}, param.Types)
	assert.Equal(t, "$name", param.Variable)
	assert.Equal(t, "The name\ncontinued here", param.Description)

	ids := doc.Tags[1]
	assert.Equal(t, "$ids", ids.Variable)
	assert.True(t, ids.IsByReference)
	assert.True(t, ids.IsVariadic)
	assert.Equal(t, []string{"int"}, ids.Types)

	ret := doc.Tags[2]
	assert.Equal(t, types.TagReturn, ret.Kind)
	assert.Equal(t, []string{`\App\Collection`, `\App\null`}, ret.Types)
	assert.Equal(t, "the result", ret.Description)

	v := doc.Tags[3]
	assert.Equal(t, types.TagVar, v.Kind)
	assert.Equal(t, "$count", v.Variable)

	prop := doc.Tags[4]
	assert.Equal(t, types.TagProperty, prop.Kind)
	assert.Equal(t, "$title", prop.Variable)
	assert.Equal(t, "Page title", prop.Description)
	assert.Equal(t, types.TagPropertyRead, doc.Tags[5].Kind)

	nameless := doc.Tags[6]
	assert.Equal(t, types.TagProperty, nameless.Kind)
	assert.Empty(t, nameless.Variable)
	assert.Equal(t, "Description only", nameless.Description)

	where := doc.Tags[7]
	assert.Equal(t, types.TagMethod, where.Kind)
	assert.True(t, where.IsStatic)
	assert.Equal(t, "where", where.MethodName)
	assert.Equal(t, []string{`\App\Builder`}, where.Types)
	assert.Equal(t, "string $col, $value", where.Arguments)
	assert.Equal(t, "Filters rows", where.Description)

	save := doc.Tags[8]
	assert.Equal(t, "save", save.MethodName)
	assert.False(t, save.IsStatic)
	assert.Empty(t, save.Types)

	assert.Equal(t, `App\Models`, doc.Package())

	dep := doc.Tags[10]
	assert.Equal(t, "2.0", dep.Version)
	assert.Equal(t, "Use other()", dep.Description)
	assert.True(t, doc.IsDeprecated())

	assert.Equal(t, types.TagInheritDoc, doc.Tags[11].Kind)
	assert.Equal(t, types.TagGeneric, doc.Tags[12].Kind)
	assert.Equal(t, "Foo::bar()", doc.Tags[12].Body)
}

func TestParse_TagOnly(t *testing.T) {
	doc, err := Parse("/** @var \\DateTime */", nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Summary)
	require.Len(t, doc.Tags, 1)
	assert.Equal(t, []string{`\DateTime`}, doc.Tags[0].Types)
}

func TestNextField_KeepsGenerics(t *testing.T) {
	field, rest := nextField("array<int, string> $map the map")
	assert.Equal(t, "array<int, string>", field)
	assert.Equal(t, "$map the map", rest)

	assert.Equal(t, []string{"array<int|string>", "null"}, splitUnion("array<int|string>|null"))
}
