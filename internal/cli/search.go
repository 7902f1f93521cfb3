package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/phpdoc-mcp/internal/searcher"
	"github.com/dshills/phpdoc-mcp/internal/storage"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		limit       int
		mode        string
		kinds       []string
		namespace   string
		filePattern string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the elements of the reflected project",
		Long: `Search looks up elements by name and by the text of their docblocks. The
combined mode fuses both rankings.`,
		Args: cobra.MinimumNArgs(1),
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

			req := searcher.SearchRequest{
				Query:     strings.Join(args, " "),
				Limit:     limit,
				Mode:      searcher.SearchMode(mode),
				ProjectID: res.Project.ID,
				Index:     res.Index,
			}
			if len(kinds) > 0 || namespace != "" || filePattern != "" {
				req.Filters = &storage.SearchFilters{
					Kinds:       kinds,
					Namespace:   namespace,
					FilePattern: filePattern,
				}
			}

			resp, err := searcher.NewSearcher(st).Search(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(resp.Results) == 0 {
				fmt.Fprintln(out, "No results")
				return nil
			}
			for _, r := range resp.Results {
				fmt.Fprintf(out, "%2d. %s (%s)  %s:%d\n", r.Rank, r.FQSEN, r.Kind, r.File, r.Line)
				if r.Summary != "" {
					fmt.Fprintf(out, "    %s\n", r.Summary)
				}
			}
			fmt.Fprintf(out, "\n%d results (%s mode, %s)\n", resp.TotalResults, resp.SearchMode, resp.Duration)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVarP(&mode, "mode", "m", string(searcher.SearchModeCombined), "search mode: combined, text or name")
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "only return elements of these kinds")
	cmd.Flags().StringVar(&namespace, "namespace", "", "only return elements under this namespace")
	cmd.Flags().StringVar(&filePattern, "file", "", "only return elements of files matching this glob")
	return cmd
}
