package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phpdoc-mcp/internal/reflector"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

const baseSource = `<?php
namespace App;

class Base
{
    /** Says hello. */
    public function hello() {}
}

interface Greets {}
`

const childSource = `<?php
namespace App\Sub;

use App\Base;

class Child extends Base implements \App\Greets
{
}

function helper() {}

const LIMIT = 5;
`

func buildProject(t *testing.T) *Index {
	t.Helper()
	base := reflector.ReflectFile("src/Base.php", []byte(baseSource))
	child := reflector.ReflectFile("src/Sub/Child.php", []byte(childSource))
	require.Empty(t, base.ParseErrors)
	require.Empty(t, child.ParseErrors)
	return Build([]*types.File{child, base})
}

func TestBuild_Lookup(t *testing.T) {
	idx := buildProject(t)
	assert.Equal(t, 6, idx.Len())

	tests := []struct {
		fqsen string
		found bool
		kind  types.ElementKind
	}{
		{`\App\Base`, true, types.KindClass},
		{`App\Base`, true, types.KindClass},
		{`\app\base`, true, types.KindClass},
		{`\App\Greets`, true, types.KindInterface},
		{`\App\Base::hello()`, true, types.KindMethod},
		{`\APP\BASE::HELLO()`, true, types.KindMethod},
		{`\App\Sub\helper()`, true, types.KindFunction},
		{`\App\Sub\Helper()`, true, types.KindFunction},
		{`\App\Sub\LIMIT`, true, types.KindConstant},
		{`\app\sub\LIMIT`, true, types.KindConstant},
		{`\App\Sub\limit`, false, ""},
		{`\App\Missing`, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.fqsen, func(t *testing.T) {
			el, ok := idx.Lookup(tt.fqsen)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				require.NotNil(t, el)
				assert.Equal(t, tt.kind, el.ElementKind())
			}
		})
	}

	c, ok := idx.Class(`\App\Sub\Child`)
	require.True(t, ok)
	assert.Equal(t, []string{`\App\Base`}, c.Extends)

	_, ok = idx.Class(`\App\Base::hello()`)
	assert.False(t, ok)

	path, ok := idx.FileOf(`\app\sub\child`)
	require.True(t, ok)
	assert.Equal(t, "src/Sub/Child.php", path)
}

func TestBuild_NamespaceTree(t *testing.T) {
	idx := buildProject(t)

	root := idx.Root()
	assert.Equal(t, `\`, root.Path)
	assert.Equal(t, []string{"app"}, root.ChildNames())

	app, ok := idx.Namespace(`\App`)
	require.True(t, ok)
	assert.Equal(t, "App", app.Name)
	assert.Equal(t, `\App`, app.Path)
	assert.Equal(t, []string{`\App\Base`, `\App\Greets`}, app.Elements)

	sub, ok := idx.Namespace(`app\sub`)
	require.True(t, ok)
	assert.Equal(t, `\App\Sub`, sub.Path)
	assert.Equal(t, []string{`\App\Sub\Child`, `\App\Sub\LIMIT`, `\App\Sub\helper()`}, sub.Elements)

	_, ok = idx.Namespace(`\Vendor`)
	assert.False(t, ok)

	global, ok := idx.Namespace(types.GlobalNamespace)
	require.True(t, ok)
	assert.Same(t, root, global)
}

func TestBuild_LastWriteWins(t *testing.T) {
	first := reflector.ReflectFile("a.php", []byte("<?php\nclass Dup { const V = 1; }\n"))
	second := reflector.ReflectFile("b.php", []byte("<?php\n\n\nclass Dup { const V = 2; }\n"))

	// input order must not matter
	idx := Build([]*types.File{second, first})

	c, ok := idx.Class(`\Dup`)
	require.True(t, ok)
	assert.Equal(t, 4, c.Line)
	path, _ := idx.FileOf(`\Dup`)
	assert.Equal(t, "b.php", path)

	k, ok := idx.Lookup(`\Dup::V`)
	require.True(t, ok)
	assert.Equal(t, "2", k.(*types.Constant).Value)

	assert.Equal(t, []string{`\Dup`}, idx.Root().Elements)
	assert.Equal(t, 2, idx.Len())
}

func TestIndex_ReverseLookups(t *testing.T) {
	idx := buildProject(t)

	subs := idx.Subclasses(`App\Base`)
	require.Len(t, subs, 1)
	assert.Equal(t, `\App\Sub\Child`, subs[0].FQSEN())

	impl := idx.ClassesImplementing(`\app\greets`)
	require.Len(t, impl, 1)
	assert.Equal(t, "Child", impl[0].Name)

	assert.Empty(t, idx.Subclasses(`\App\Sub\Child`))

	classes := idx.Classes()
	require.Len(t, classes, 3)
	assert.Equal(t, `\App\Base`, classes[0].FQSEN())
}

func TestKey(t *testing.T) {
	assert.Equal(t, `\app\User`, Key(`App\User`))
	assert.Equal(t, `\app\user::getname()`, Key(`\App\User::getName()`))
	assert.Equal(t, `\app\user::$Name`, Key(`\App\User::$Name`))
	assert.Equal(t, `\app\user::MAX`, Key(`\App\User::MAX`))
	assert.Equal(t, `\app\helper()`, Key(`\App\Helper()`))
}
