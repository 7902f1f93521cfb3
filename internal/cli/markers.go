package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/phpdoc-mcp/internal/indexer"
)

func newMarkersCmd(a *app) *cobra.Command {
	var term string

	cmd := &cobra.Command{
		Use:   "markers [dir]",
		Short: "List TODO/FIXME style comments of a project",
		Long: `Markers brings the index up to date and lists the comment markers of every
file, grouped by term. The collected terms are configured under markers.terms.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.projectDir(args)
			if err != nil {
				return err
			}
			st, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			res, err := indexer.New(st).IndexProject(cmd.Context(), root, indexer.FromConfig(a.cfg))
			if err != nil {
				return fmt.Errorf("reflection failed: %w", err)
			}

			out := cmd.OutOrStdout()
			terms := make([]string, 0, len(res.Markers))
			for t := range res.Markers {
				if term == "" || strings.EqualFold(t, term) {
					terms = append(terms, t)
				}
			}
			sort.Strings(terms)

			if len(terms) == 0 {
				fmt.Fprintln(out, "No markers found")
				return nil
			}
			for _, t := range terms {
				markers := res.Markers[t]
				fmt.Fprintf(out, "%s (%d)\n", t, len(markers))
				for _, m := range markers {
					fmt.Fprintf(out, "  %s:%d  %s\n", m.File, m.Line, m.Note)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&term, "term", "t", "", "only list markers of this term")
	return cmd
}
