package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dshills/phpdoc-mcp/internal/indexer"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

func newReflectCmd(a *app) *cobra.Command {
	var (
		force       bool
		quiet       bool
		minSeverity string
	)

	cmd := &cobra.Command{
		Use:   "reflect [dir]",
		Short: "Reflect the PHP files of a project into the index",
		Long: `Reflect discovers the PHP files of a project, parses the ones that changed
since the last run and stores the resulting model. Files that disappeared are
removed from the index.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReflect(cmd, args, force, quiet, minSeverity)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "re-reflect files whose content is unchanged")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show a progress bar")
	cmd.Flags().StringVar(&minSeverity, "min-severity", string(types.SeverityError), "lowest diagnostic severity to report")
	return cmd
}

func (a *app) runReflect(cmd *cobra.Command, args []string, force, quiet bool, minSeverity string) error {
	threshold, err := types.ParseSeverity(minSeverity)
	if err != nil {
		return err
	}
	root, err := a.projectDir(args)
	if err != nil {
		return err
	}

	st, err := a.openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	runCfg := indexer.FromConfig(a.cfg)
	runCfg.Force = force

	if !quiet {
		paths, err := indexer.Discover(root, a.cfg.Index.Includes, a.cfg.Index.Excludes)
		if err != nil {
			return fmt.Errorf("failed to discover files: %w", err)
		}
		bar := newProgressBar(cmd.ErrOrStderr(), len(paths))
		runCfg.OnProgress = func(string) { _ = bar.Add(1) }
	}

	res, err := indexer.New(st).IndexProject(cmd.Context(), root, runCfg)
	if err != nil {
		return fmt.Errorf("reflection failed: %w", err)
	}

	out := cmd.OutOrStdout()
	printSummary(out, res)
	printDiagnostics(out, res.Diagnostics(), threshold)

	fmt.Fprintf(out, "\nIndex stored at: %s\n", a.cfg.Storage.DBPath)
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Reflecting[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

func printSummary(w io.Writer, res *indexer.Result) {
	stats := res.Stats
	fmt.Fprintf(w, "\nReflection complete:\n")
	fmt.Fprintf(w, "  Files reflected: %d\n", stats.FilesReflected)
	fmt.Fprintf(w, "  Files skipped:   %d (unchanged)\n", stats.FilesSkipped)
	fmt.Fprintf(w, "  Files failed:    %d\n", stats.FilesFailed)
	fmt.Fprintf(w, "  Files deleted:   %d (removed)\n", stats.FilesDeleted)
	fmt.Fprintf(w, "  Elements:        %s\n", humanize.Comma(int64(stats.ElementsIndexed)))
	fmt.Fprintf(w, "  Diagnostics:     %d\n", stats.DiagnosticsCount)
	fmt.Fprintf(w, "  Duration:        %s\n", stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Run:             %s\n", stats.RunID)

	if len(stats.ErrorMessages) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range stats.ErrorMessages {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}

// printDiagnostics lists the diagnostics at or above threshold
func printDiagnostics(w io.Writer, diags []types.Diagnostic, threshold types.Severity) {
	var shown []types.Diagnostic
	for _, d := range diags {
		if d.Severity.Rank() <= threshold.Rank() {
			shown = append(shown, d)
		}
	}
	if len(shown) == 0 {
		return
	}

	fmt.Fprintf(w, "\nDiagnostics (%s and above):\n", threshold)
	for _, d := range shown {
		fmt.Fprintf(w, "  %s\n", d.Error())
	}
}
