package docblock

import "testing"

func FuzzParse(f *testing.F) {
	f.Add("/** Summary. */")
	f.Add("/**\n * Summary.\n *\n * @param int|null $a the a\n * @return static\n */")
	f.Add("/** @method static Foo bar(int $x = 1, ...$rest) */")
	f.Add("/** @property-read")
	f.Add("")
	f.Fuzz(func(t *testing.T, raw string) {
		_, _ = Parse(raw, func(s string) string { return s }) // must not panic
	})
}
