package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/phpdoc-mcp/internal/config"
	"github.com/dshills/phpdoc-mcp/internal/indexer"
	"github.com/dshills/phpdoc-mcp/internal/storage"
)

// app holds the state shared by the subcommands of one invocation
type app struct {
	cfgFile string
	rootDir string
	dbPath  string
	cfg     *config.Config
}

// NewRootCmd builds the phpdoc command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "phpdoc",
		Short: "Reflect PHP sources into a documentation model",
		Long: `phpdoc reflects the PHP files of a project into a cross-referenced model of
namespaces, classes, functions and their docblocks, and stores it for the
phpdoc-mcp server and later commands.

Example usage:
  phpdoc reflect .                     # Reflect the current directory
  phpdoc markers --term FIXME          # List FIXME comments
  phpdoc inspect '\App\Models\User'    # Show a class with inherited members
  phpdoc search getName                # Find elements by name
  phpdoc watch                         # Re-reflect while files change`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./phpdoc.yaml)")
	rootCmd.PersistentFlags().StringVarP(&a.rootDir, "dir", "d", "", "project root (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "index database (overrides storage.db_path)")

	rootCmd.AddCommand(
		newReflectCmd(a),
		newMarkersCmd(a),
		newInspectCmd(a),
		newSearchCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) load() error {
	var err error
	if a.rootDir == "" {
		a.rootDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	if a.cfgFile != "" {
		a.cfg, err = config.Load(a.cfgFile)
	} else {
		a.cfg, err = config.LoadFromDir(a.rootDir)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.dbPath != "" {
		a.cfg.Storage.DBPath = a.dbPath
	}

	level, _ := a.cfg.LogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// projectDir resolves an optional directory argument against --dir
func (a *app) projectDir(args []string) (string, error) {
	path := a.rootDir
	if len(args) > 0 {
		path = args[0]
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}
	return path, nil
}

// openStorage opens the configured index database
func (a *app) openStorage() (*storage.SQLiteStorage, error) {
	dbPath := a.cfg.Storage.DBPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	st, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	return st, nil
}

// loadProject rebuilds the stored model of the project under --dir
func (a *app) loadProject(cmd *cobra.Command, st storage.Storage) (*indexer.Result, error) {
	root, err := a.projectDir(nil)
	if err != nil {
		return nil, err
	}
	res, err := indexer.New(st).LoadProject(cmd.Context(), root)
	if err != nil {
		return nil, fmt.Errorf("project %s is not reflected, run 'phpdoc reflect' first: %w", root, err)
	}
	return res, nil
}
