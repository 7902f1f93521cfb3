package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/phpdoc-mcp/internal/indexer"
	"github.com/dshills/phpdoc-mcp/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Keep the index of a project up to date while files change",
		Long: `Watch reflects the project once, then re-runs an incremental reflection
whenever included PHP files are created, changed or removed.`,
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			idx := indexer.New(st)
			runCfg := indexer.FromConfig(a.cfg)
			out := cmd.OutOrStdout()

			res, err := idx.IndexProject(ctx, root, runCfg)
			if err != nil {
				return fmt.Errorf("reflection failed: %w", err)
			}
			printSummary(out, res)

			w, err := watcher.New(root, a.cfg.Index.Includes, a.cfg.Index.Excludes, debounce, func(paths []string) {
				res, err := idx.IndexProject(ctx, root, runCfg)
				if err != nil {
					slog.Error("reflection failed", "error", err)
					return
				}
				stats := res.Stats
				fmt.Fprintf(out, "%s  %d changed: %d reflected, %d deleted, %d failed, %d diagnostics\n",
					time.Now().Format("15:04:05"), len(paths),
					stats.FilesReflected, stats.FilesDeleted, stats.FilesFailed, stats.DiagnosticsCount)
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nWatching %s (Ctrl+C to stop)\n", root)
			return w.Run(ctx)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "quiet period before re-reflecting")
	return cmd
}
