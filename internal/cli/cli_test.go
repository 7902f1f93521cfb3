package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseSource = `<?php
namespace App;

// TODO: split into smaller classes
class Base
{
    /** Says hello. */
    public function hello(): void {}
}
`
	childSource = `<?php
namespace App;

/**
 * A waving child.
 *
 * @property string $nickname
 */
class Child extends Base
{
    public function wave() {}
}
`
)

// setupProject writes the fixture project and returns its root and a database path
func setupProject(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"src/Base.php":  baseSource,
		"src/Child.php": childSource,
	} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root, filepath.Join(t.TempDir(), "index.db")
}

// run executes the command tree and returns its standard output
func run(t *testing.T, root, db string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--dir", root, "--db", db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestReflectCommand(t *testing.T) {
	root, db := setupProject(t)

	out, err := run(t, root, db, "reflect", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Files reflected: 2")
	assert.Contains(t, out, "Files skipped:   0")

	out, err = run(t, root, db, "reflect", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Files reflected: 0")
	assert.Contains(t, out, "Files skipped:   2")

	out, err = run(t, root, db, "reflect", "--quiet", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Files reflected: 2")
}

func TestReflectCommand_InvalidArguments(t *testing.T) {
	root, db := setupProject(t)

	_, err := run(t, root, db, "reflect", "--quiet", "--min-severity", "loud")
	assert.Error(t, err)

	_, err = run(t, root, db, "reflect", "--quiet", filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestMarkersCommand(t *testing.T) {
	root, db := setupProject(t)

	out, err := run(t, root, db, "markers")
	require.NoError(t, err)
	assert.Contains(t, out, "TODO (1)")
	assert.Contains(t, out, "src/Base.php:4  split into smaller classes")

	out, err = run(t, root, db, "markers", "--term", "FIXME")
	require.NoError(t, err)
	assert.Contains(t, out, "No markers found")
}

func TestInspectCommand(t *testing.T) {
	root, db := setupProject(t)

	_, err := run(t, root, db, "inspect", `\App\Child`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reflected")

	_, err = run(t, root, db, "reflect", "--quiet")
	require.NoError(t, err)

	out, err := run(t, root, db, "inspect", `\App\Child`)
	require.NoError(t, err)
	assert.Contains(t, out, `\App\Child (class)`)
	assert.Contains(t, out, "A waving child.")
	assert.Contains(t, out, `[from \App\Base]  Says hello.`)
	assert.Contains(t, out, "Magic properties:")
	assert.Contains(t, out, "nickname")

	out, err = run(t, root, db, "inspect", `\App\Base`)
	require.NoError(t, err)
	assert.Contains(t, out, "Subclasses:")
	assert.Contains(t, out, `\App\Child`)

	_, err = run(t, root, db, "inspect", `\App\Missing`)
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	root, db := setupProject(t)

	_, err := run(t, root, db, "reflect", "--quiet")
	require.NoError(t, err)

	out, err := run(t, root, db, "search", "hello", "--mode", "name")
	require.NoError(t, err)
	assert.Contains(t, out, `\App\Base::hello()`)

	out, err = run(t, root, db, "search", "wave", "--kind", "class")
	require.NoError(t, err)
	assert.Contains(t, out, "No results")

	_, err = run(t, root, db, "search", "hello", "--mode", "fuzzy")
	assert.Error(t, err)
}
