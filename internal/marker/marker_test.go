package marker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phpdoc-mcp/pkg/types"
)

const source = `<?php
// TODO: split this class
class Legacy
{
    /**
     * Loads rows.
     * FIXME handle empty result
     */
    public function load() {
        # TODO
        $limit = 5 * TODO_LIMIT;
        /* FIXME: slow query */
        return "no TODO here";
    }
    // todo lowercase is not a marker
}
`

func TestScanner_Scan(t *testing.T) {
	s := New(nil)
	assert.Equal(t, []string{"TODO", "FIXME"}, s.Terms())

	markers := s.Scan("src/Legacy.php", []byte(source))
	require.Len(t, markers, 4)

	assert.Equal(t, types.Marker{Term: "TODO", File: "src/Legacy.php", Line: 2, Note: "split this class"}, markers[0])
	assert.Equal(t, types.Marker{Term: "FIXME", File: "src/Legacy.php", Line: 7, Note: "handle empty result"}, markers[1])
	assert.Equal(t, types.Marker{Term: "TODO", File: "src/Legacy.php", Line: 10, Note: ""}, markers[2])
	assert.Equal(t, types.Marker{Term: "FIXME", File: "src/Legacy.php", Line: 12, Note: "slow query"}, markers[3])
}

func TestScanner_OnlyComments(t *testing.T) {
	src := `<?php
$total = $base * TODO;
$url = "http://x/# FIXME later";
echo 'a // TODO not a comment';
$x = 1; // TODO: trailing comment
$y = "done";# FIXME after string
`
	markers := New(nil).Scan("a.php", []byte(src))
	require.Len(t, markers, 2)
	assert.Equal(t, types.Marker{Term: "TODO", File: "a.php", Line: 5, Note: "trailing comment"}, markers[0])
	assert.Equal(t, types.Marker{Term: "FIXME", File: "a.php", Line: 6, Note: "after string"}, markers[1])
}

func TestScanner_CustomTerms(t *testing.T) {
	s := New([]string{" HACK ", "", "@todo", "HACK"})
	assert.Equal(t, []string{"HACK", "@todo"}, s.Terms())

	src := "<?php\n// HACK: works for now\n/** @todo document */\n// TODO ignored\n"
	markers := s.Scan("a.php", []byte(src))
	require.Len(t, markers, 2)
	assert.Equal(t, "HACK", markers[0].Term)
	assert.Equal(t, "works for now", markers[0].Note)
	assert.Equal(t, "@todo", markers[1].Term)
	assert.Equal(t, 3, markers[1].Line)
	assert.Equal(t, "document", markers[1].Note)
}

func TestScanner_Empty(t *testing.T) {
	assert.Empty(t, New(nil).Scan("a.php", nil))
	assert.Empty(t, New(nil).Scan("a.php", []byte("<?php\r\necho 1;\r\n")))
}

func TestTable(t *testing.T) {
	files := []*types.File{
		{Path: "b.php", Markers: []types.Marker{
			{Term: "TODO", File: "b.php", Line: 9},
			{Term: "FIXME", File: "b.php", Line: 2},
		}},
		{Path: "a.php", Markers: []types.Marker{
			{Term: "TODO", File: "a.php", Line: 4},
			{Term: "TODO", File: "a.php", Line: 1},
		}},
		{Path: "c.php"},
	}

	table := Table(files)
	require.Len(t, table, 2)
	require.Len(t, table["TODO"], 3)
	assert.Equal(t, "a.php", table["TODO"][0].File)
	assert.Equal(t, 1, table["TODO"][0].Line)
	assert.Equal(t, 4, table["TODO"][1].Line)
	assert.Equal(t, "b.php", table["TODO"][2].File)
	assert.Len(t, table["FIXME"], 1)
}
