package reflector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

const modelSource = `<?php
/**
 * File summary.
 * @package App
 */

namespace App\Models;

use Foo\Bar as B;
use Illuminate\Support\{Collection, Str as S};
use function Foo\helper;

/**
 * A user.
 *
 * @property string $nickname Display name
 * @property string Missing name
 */
abstract class User extends B implements \JsonSerializable, HasName
{
    use SoftDeletes, \App\Traits\Tracks {
        Tracks::boot insteadof SoftDeletes;
    }

    /** Maximum length */
    const MAX = 10, MIN = 1;

    /** @var Collection */
    protected $items = array(1, 2), $other;

    private static ?int $count = null;

    /**
     * Returns the name.
     * @return string
     */
    public function getName(string $prefix = "x", B ...$rest): string
    {
        $s = "{$prefix}-{$this->name}";
        $f = function () use ($s) { return $s; };
        return $s;
    }

    abstract protected function save(array &$opts = []);

    public static function new(): static { return new static(); }
}
`

func TestReflectFile_Class(t *testing.T) {
	file := ReflectFile("src/User.php", []byte(modelSource))
	require.Empty(t, file.ParseErrors)

	require.NotNil(t, file.DocBlock)
	assert.Equal(t, "File summary.", file.DocBlock.Summary)
	assert.Equal(t, []string{`App\Models`}, file.Namespaces)
	assert.Equal(t, types.ComputeContentHash([]byte(modelSource)), file.ContentHash)

	require.Len(t, file.Classes, 1)
	c := file.Classes[0]
	assert.Equal(t, "User", c.Name)
	assert.Equal(t, `App\Models`, c.Namespace)
	assert.Equal(t, `\App\Models\User`, c.FQSEN())
	assert.Equal(t, 19, c.Line)
	assert.True(t, c.IsAbstract)
	assert.False(t, c.IsFinal)
	assert.Equal(t, []string{`\Foo\Bar`}, c.Extends)
	assert.Equal(t, []string{`\JsonSerializable`, `\App\Models\HasName`}, c.Implements)
	assert.Equal(t, []string{`\App\Models\SoftDeletes`, `\App\Traits\Tracks`}, c.UsedTraits)
	assert.Equal(t, map[string]string{
		"B":          `Foo\Bar`,
		"Collection": `Illuminate\Support\Collection`,
		"S":          `Illuminate\Support\Str`,
	}, c.NamespaceAliases)

	require.NotNil(t, c.DocBlock)
	assert.Equal(t, "A user.", c.DocBlock.Summary)
	require.Len(t, c.Errors, 1)
	assert.Equal(t, types.SeverityError, c.Errors[0].Severity)
	assert.Contains(t, c.Errors[0].Message, "has no variable name")

	t.Run("constants", func(t *testing.T) {
		require.Len(t, c.Constants, 2)
		assert.Equal(t, "10", c.Constants["MAX"].Value)
		assert.Equal(t, "1", c.Constants["MIN"].Value)
		assert.Equal(t, `\App\Models\User::MAX`, c.Constants["MAX"].FQSEN())
		assert.Equal(t, types.VisibilityPublic, c.Constants["MAX"].Visibility)
		assert.Equal(t, "Maximum length", c.Constants["MIN"].Summary())
	})

	t.Run("properties", func(t *testing.T) {
		require.Len(t, c.Properties, 3)

		items := c.Properties["items"]
		assert.Equal(t, types.VisibilityProtected, items.Visibility)
		assert.Equal(t, "array(1, 2)", items.Default)
		assert.Equal(t, `\Illuminate\Support\Collection`, items.Type)
		assert.Equal(t, `\App\Models\User::$items`, items.FQSEN())

		other := c.Properties["other"]
		assert.Equal(t, types.VisibilityProtected, other.Visibility)
		assert.Empty(t, other.Default)

		count := c.Properties["count"]
		assert.Equal(t, types.VisibilityPrivate, count.Visibility)
		assert.True(t, count.IsStatic)
		assert.Equal(t, "?int", count.Type)
		assert.Equal(t, "null", count.Default)
	})

	t.Run("methods", func(t *testing.T) {
		require.Len(t, c.Methods, 3)

		get := c.Methods["getName"]
		require.NotNil(t, get)
		assert.Equal(t, `\App\Models\User::getName()`, get.FQSEN())
		assert.Equal(t, types.VisibilityPublic, get.Visibility)
		assert.True(t, get.HasBody)
		assert.Equal(t, "string", get.ReturnType)
		assert.Equal(t, "Returns the name.", get.Summary())
		require.Len(t, get.Parameters, 2)
		assert.Equal(t, "prefix", get.Parameters[0].Name)
		assert.Equal(t, "string", get.Parameters[0].TypeHint)
		assert.Equal(t, `"x"`, get.Parameters[0].Default)
		assert.Equal(t, `\App\Models\User::getName()#$prefix`, get.Parameters[0].FQSEN())
		assert.Equal(t, `\Foo\Bar`, get.Parameters[1].TypeHint)
		assert.True(t, get.Parameters[1].IsVariadic)

		save := c.Methods["save"]
		require.NotNil(t, save)
		assert.True(t, save.IsAbstract)
		assert.False(t, save.HasBody)
		assert.Equal(t, types.VisibilityProtected, save.Visibility)
		require.Len(t, save.Parameters, 1)
		assert.True(t, save.Parameters[0].IsByReference)
		assert.Equal(t, "array", save.Parameters[0].TypeHint)
		assert.Equal(t, "[]", save.Parameters[0].Default)
		assert.Empty(t, save.Errors)

		ctor := c.Methods["new"]
		require.NotNil(t, ctor)
		assert.True(t, ctor.IsStatic)
		assert.Equal(t, "static", ctor.ReturnType)
	})

	assert.Len(t, file.Diagnostics(), 1)
}

const librarySource = `<?php
namespace Lib;

const VERSION = "1.0";
define('DEBUG', true);
define("Lib\\LEVEL", 3);

/** Helper. */
function &helper($a, $x = array(2, 3), $b = 4) { return $a; }

require_once __DIR__ . '/boot.php';
include('extra.php');

$anon = new class { public function hidden() {} };
$fn = function () { function inner() {} };
echo Foo::class;
`

func TestReflectFile_NamespaceLevel(t *testing.T) {
	file := ReflectFile("lib.php", []byte(librarySource))
	require.Empty(t, file.ParseErrors)
	assert.Empty(t, file.Classes)

	require.Len(t, file.Constants, 3)
	version := file.Constants[0]
	assert.Equal(t, `\Lib\VERSION`, version.FQSEN())
	assert.Equal(t, `"1.0"`, version.Value)
	assert.False(t, version.IsDefine)

	debug := file.Constants[1]
	assert.Equal(t, `\DEBUG`, debug.FQSEN())
	assert.Equal(t, "true", debug.Value)
	assert.True(t, debug.IsDefine)

	level := file.Constants[2]
	assert.Equal(t, `\Lib\LEVEL`, level.FQSEN())
	assert.Equal(t, "3", level.Value)

	require.Len(t, file.Functions, 1)
	fn := file.Functions[0]
	assert.Equal(t, `\Lib\helper()`, fn.FQSEN())
	assert.True(t, fn.IsByReference)
	assert.Equal(t, "Helper.", fn.Summary())
	require.Len(t, fn.Parameters, 3)
	assert.Equal(t, "array(2, 3)", fn.Parameters[1].Default)
	assert.Equal(t, "4", fn.Parameters[2].Default)
	assert.Empty(t, fn.Parameters[0].Default)

	require.Len(t, file.Includes, 2)
	assert.Equal(t, types.IncludeRequireOnce, file.Includes[0].Type)
	assert.Equal(t, `__DIR__ . '/boot.php'`, file.Includes[0].Name)
	assert.Equal(t, types.IncludePlain, file.Includes[1].Type)
	assert.Equal(t, `'extra.php'`, file.Includes[1].Name)
}

func TestReflectFile_FileDocBlock(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		fileDoc  string
		classDoc string
	}{
		{
			name:     "single docblock belongs to the class",
			src:      "<?php\n/** Class doc */\nclass A {}\n",
			classDoc: "Class doc",
		},
		{
			name:     "docblock followed by another docblock",
			src:      "<?php\n/** File doc */\n/** Class doc */\nclass A {}\n",
			fileDoc:  "File doc",
			classDoc: "Class doc",
		},
		{
			name:    "package tag claims the docblock",
			src:     "<?php\n/**\n * File doc\n * @package X\n */\nclass A {}\n",
			fileDoc: "File doc",
		},
		{
			name:    "declare statements are stepped over",
			src:     "<?php\ndeclare(strict_types=1);\nDECLARE(ticks=1);\n/**\n * File doc\n * @package P\n */\nnamespace N;\nclass A {}\n",
			fileDoc: "File doc",
		},
		{
			name:     "docblock after declare still belongs to the class",
			src:      "<?php declare(strict_types=1);\n/** Class doc */\nclass A {}\n",
			classDoc: "Class doc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := ReflectFile("a.php", []byte(tt.src))
			require.Len(t, file.Classes, 1)
			c := file.Classes[0]

			if tt.fileDoc == "" {
				assert.Nil(t, file.DocBlock)
			} else {
				require.NotNil(t, file.DocBlock)
				assert.Equal(t, tt.fileDoc, file.DocBlock.Summary)
			}
			if tt.classDoc == "" {
				assert.Nil(t, c.DocBlock)
			} else {
				require.NotNil(t, c.DocBlock)
				assert.Equal(t, tt.classDoc, c.DocBlock.Summary)
			}
		})
	}
}

func TestReflectFile_Interface(t *testing.T) {
	src := `<?php
interface Shape extends Countable, \Stringable {
    const SIDES = 0;
    public function area(): float;
    function name();
}
trait Named { public function label() { return "{${'x'}}"; } }
`
	file := ReflectFile("shape.php", []byte(src))
	require.Empty(t, file.ParseErrors)

	require.Len(t, file.Interfaces, 1)
	shape := file.Interfaces[0]
	assert.Equal(t, types.KindInterface, shape.Kind)
	assert.Equal(t, []string{`\Countable`, `\Stringable`}, shape.Extends)
	assert.Empty(t, shape.Errors)
	require.Len(t, shape.Methods, 2)
	assert.False(t, shape.Methods["area"].HasBody)
	assert.Equal(t, "float", shape.Methods["area"].ReturnType)
	assert.False(t, shape.Methods["name"].HasBody)
	assert.Contains(t, shape.Constants, "SIDES")

	require.Len(t, file.Traits, 1)
	assert.Contains(t, file.Traits[0].Methods, "label")
	assert.True(t, file.Traits[0].Methods["label"].HasBody)

	assert.Len(t, file.ClassLikes(), 2)
}

func TestReflectFile_ValidationErrors(t *testing.T) {
	src := "<?php\nclass A extends B, C {\n    function f();\n}\n"
	file := ReflectFile("a.php", []byte(src))
	require.Len(t, file.Classes, 1)
	c := file.Classes[0]

	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Message, "at most one parent")
	require.Contains(t, c.Methods, "f")
	require.Len(t, c.Methods["f"].Errors, 1)
	assert.Contains(t, c.Methods["f"].Errors[0].Message, "has no body")
	assert.Len(t, file.Diagnostics(), 2)
}

func TestReflectFile_LexicalErrors(t *testing.T) {
	src := "<?php\nclass A {\n    public $s = 'unterminated;\n"
	file := ReflectFile("broken.php", []byte(src))

	require.Len(t, file.ParseErrors, 2)
	assert.Equal(t, 3, file.ParseErrors[0].Line)
	assert.Contains(t, file.ParseErrors[0].Message, "unterminated string")
	assert.Contains(t, file.ParseErrors[1].Message, "unterminated body of class A")
	assert.Equal(t, "broken.php", file.ParseErrors[1].File)

	require.Len(t, file.Classes, 1)
	assert.Contains(t, file.Classes[0].Properties, "s")
}

func TestReflectFile_NamespaceBlocks(t *testing.T) {
	src := `<?php
namespace One {
    use X\Y;
    class A extends Y {}
}
namespace {
    class B extends Y {}
}
`
	file := ReflectFile("blocks.php", []byte(src))
	require.Len(t, file.Classes, 2)
	assert.Equal(t, []string{"One", "global"}, file.Namespaces)

	a, b := file.Classes[0], file.Classes[1]
	assert.Equal(t, `\One\A`, a.FQSEN())
	assert.Equal(t, []string{`\X\Y`}, a.Extends)
	assert.Equal(t, `\B`, b.FQSEN())
	assert.Equal(t, []string{`\Y`}, b.Extends, "imports do not leak into the next namespace")
}

func TestReflectFile_Empty(t *testing.T) {
	file := ReflectFile("empty.php", nil)
	assert.Empty(t, file.Elements())
	assert.Empty(t, file.ParseErrors)

	file = ReflectFile("page.html", []byte("<p>static</p>"))
	assert.Empty(t, file.Elements())
}
