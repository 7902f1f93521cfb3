package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/phpdoc-mcp/internal/resolver"
	"github.com/dshills/phpdoc-mcp/internal/storage"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <fqsen>",
		Short: "Show an element of the reflected project",
		Long: `Inspect prints the signature and documentation of an element. Classes are
shown with their inherited members, the magic members declared by @property
and @method tags, and their subclasses or implementers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			res, err := a.loadProject(cmd, st)
			if err != nil {
				return err
			}

			el, ok := res.Index.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", types.ErrElementNotFound, args[0])
			}

			r := resolver.New(res.Index)
			out := cmd.OutOrStdout()
			printElement(out, r, el)
			if c, ok := el.(*types.Class); ok {
				printClass(out, r, c)
			}
			return nil
		},
	}
}

func printElement(w io.Writer, r *resolver.Resolver, el types.StructuralElement) {
	common := el.Common()
	path, _ := r.Index().FileOf(el.FQSEN())

	fmt.Fprintf(w, "%s (%s)\n", el.FQSEN(), el.ElementKind())
	fmt.Fprintf(w, "  %s\n", storage.Signature(el))
	fmt.Fprintf(w, "  %s:%d\n", path, common.Line)
	if common.DocBlock.IsDeprecated() {
		fmt.Fprintln(w, "  deprecated")
	}
	if summary := r.EffectiveSummary(el); summary != "" {
		fmt.Fprintf(w, "\n  %s\n", summary)
	}
	if desc := r.EffectiveDescription(el); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	for _, d := range common.Errors {
		fmt.Fprintf(w, "  ! %s\n", d.Error())
	}
}

func printClass(w io.Writer, r *resolver.Resolver, c *types.Class) {
	for _, kind := range []resolver.MemberKind{resolver.Methods, resolver.Properties, resolver.Constants} {
		printMembers(w, r, c, kind.String(), r.Members(c, kind))

		magic, errs := r.MagicMembers(c, kind)
		printMembers(w, r, c, "magic "+kind.String(), magic)
		for _, err := range errs {
			fmt.Fprintf(w, "  ! %v\n", err)
		}
	}

	idx := r.Index()
	switch c.Kind {
	case types.KindInterface:
		printClassList(w, "Implementers", idx.ClassesImplementing(c.FQSEN()))
	case types.KindClass:
		printClassList(w, "Subclasses", idx.Subclasses(c.FQSEN()))
	}
}

func printMembers(w io.Writer, r *resolver.Resolver, c *types.Class, title string, members []types.StructuralElement) {
	if len(members) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s%s:\n", strings.ToUpper(title[:1]), title[1:])
	for _, m := range members {
		line := "  " + storage.Signature(m)
		if owner := ownerClass(m.FQSEN()); owner != "" && !strings.EqualFold(owner, c.FQSEN()) {
			line += "  [from " + owner + "]"
		}
		if summary := r.EffectiveSummary(m); summary != "" {
			line += "  " + summary
		}
		fmt.Fprintln(w, line)
	}
}

func printClassList(w io.Writer, title string, classes []*types.Class) {
	if len(classes) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, c := range classes {
		fmt.Fprintf(w, "  %s\n", c.FQSEN())
	}
}

// ownerClass returns the class part of a member FQSEN such as \A\B::c()
func ownerClass(fqsen string) string {
	if i := strings.Index(fqsen, "::"); i >= 0 {
		return fqsen[:i]
	}
	return ""
}
