package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_AliasRoundTrip(t *testing.T) {
	r := NewResolver()
	r.SetNamespace("App")
	r.AddAlias(`Foo\Bar`, "B")

	assert.Equal(t, `\Foo\Bar`, r.ExpandType("B"))
	assert.Equal(t, `\Foo\Bar[]`, r.ExpandType("B[]"))
	assert.Equal(t, "string", r.ExpandType("string"))
}

func TestResolver_ExpandType(t *testing.T) {
	r := NewResolver()
	r.SetNamespace(`App\Models`)
	r.AddAlias(`\Illuminate\Support\Collection`, "")
	r.AddAlias(`Vendor\Lib`, "")

	tests := []struct {
		raw  string
		want string
	}{
		{"User", `\App\Models\User`},
		{`\DateTime`, `\DateTime`},
		{"Collection", `\Illuminate\Support\Collection`},
		{"collection", `\Illuminate\Support\Collection`},
		{`Lib\Client`, `\Vendor\Lib\Client`},
		{`namespace\Post`, `\App\Models\Post`},
		{`Sub\Thing`, `\Sub\Thing`},
		{"int|User[]|null", `int|\App\Models\User[]|null`},
		{"?User", `?\App\Models\User`},
		{"Integer", "Integer"},
		{"self", "self"},
		{"$this", "$this"},
		{"array<int, User>", "array<int, User>"},
		{"Collection<User>|null", `\Illuminate\Support\Collection<User>|null`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ExpandType(tt.raw))
		})
	}
}

func TestResolver_GlobalNamespace(t *testing.T) {
	r := NewResolver()
	assert.Equal(t, "global", r.Namespace())
	assert.Equal(t, `\Foo`, r.ExpandType("Foo"))
	assert.Equal(t, `\Foo`, r.ExpandType(`namespace\Foo`))

	r.SetNamespace("")
	assert.Equal(t, "global", r.Namespace())
}

func TestResolver_NamespaceResetsAliases(t *testing.T) {
	r := NewResolver()
	r.SetNamespace("A")
	r.AddAlias(`X\Y`, "Z")
	r.AddFunctionAlias(`X\helper`, "")
	assert.Equal(t, map[string]string{"Z": `X\Y`}, r.Aliases())

	fn, ok := r.FunctionAlias("helper")
	assert.True(t, ok)
	assert.Equal(t, `X\helper`, fn)

	r.SetNamespace("B")
	assert.Nil(t, r.Aliases())
	assert.Equal(t, `\B\Z`, r.ExpandType("Z"))
	_, ok = r.FunctionAlias("helper")
	assert.False(t, ok)
}

func TestResolver_FunctionImportsDoNotAffectTypes(t *testing.T) {
	r := NewResolver()
	r.SetNamespace("App")
	r.AddFunctionAlias(`Other\Thing`, "")
	r.AddConstantAlias(`Other\LIMIT`, "")

	assert.Equal(t, `\App\Thing`, r.ExpandType("Thing"))
	c, ok := r.ConstantAlias("LIMIT")
	assert.True(t, ok)
	assert.Equal(t, `Other\LIMIT`, c)
}
