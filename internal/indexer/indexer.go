package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/phpdoc-mcp/internal/config"
	"github.com/dshills/phpdoc-mcp/internal/index"
	"github.com/dshills/phpdoc-mcp/internal/marker"
	"github.com/dshills/phpdoc-mcp/internal/observability"
	"github.com/dshills/phpdoc-mcp/internal/reflector"
	"github.com/dshills/phpdoc-mcp/internal/storage"
	"github.com/dshills/phpdoc-mcp/pkg/types"
)

// ErrNoStorage is returned by operations that need a database when the
// indexer was created without one
var ErrNoStorage = errors.New("indexer has no storage")

// Indexer coordinates the reflection pipeline: decode -> reflect -> index -> store
type Indexer struct {
	storage storage.Storage
	logger  *slog.Logger
}

// Config contains configuration for a run
type Config struct {
	Workers     int      // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize   int      // Number of files to commit per transaction (default: 20)
	Encoding    string   // Source charset label (default: utf-8)
	MarkerTerms []string // Comment markers to collect (default: TODO, FIXME)
	Includes    []string // Doublestar globs selecting files for IndexProject
	Excludes    []string // Doublestar globs pruning files and directories
	Force       bool     // Re-reflect files whose content hash is unchanged

	// Cache supplies earlier results to Reflect. IndexProject uses storage.
	Cache Cache

	// OnProgress is called once per source after it is handled; calls are serialized
	OnProgress func(path string)
}

// FromConfig derives a run configuration from the loaded settings
func FromConfig(c *config.Config) *Config {
	return &Config{
		Workers:     c.Index.Workers,
		BatchSize:   c.Index.BatchSize,
		Encoding:    c.Index.Encoding,
		MarkerTerms: c.Markers.Terms,
		Includes:    c.Index.Includes,
		Excludes:    c.Index.Excludes,
	}
}

// withDefaults returns a copy of c with unset fields filled in
func (c *Config) withDefaults() *Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 20
	}
	if out.Encoding == "" {
		out.Encoding = "utf-8"
	}
	if len(out.Includes) == 0 {
		out.Includes = config.DefaultConfig().Index.Includes
	}
	return &out
}

// Statistics contains statistics about a run
type Statistics struct {
	RunID            string
	FilesReflected   int
	FilesSkipped     int
	FilesFailed      int
	FilesDeleted     int
	ElementsIndexed  int
	DiagnosticsCount int
	Duration         time.Duration
	ErrorMessages    []string
}

func newStatistics() *Statistics {
	return &Statistics{
		RunID:         uuid.NewString(),
		ErrorMessages: make([]string, 0),
	}
}

// Result is the outcome of a run. Files are sorted by path and Index is
// read-only once the run returns.
type Result struct {
	Project *storage.Project // nil for in-memory runs
	Files   []*types.File
	Index   *index.Index
	Markers map[string][]types.Marker
	Stats   *Statistics
}

// Diagnostics flattens parse errors and element validation errors of every
// file, in path order
func (r *Result) Diagnostics() []types.Diagnostic {
	var out []types.Diagnostic
	for _, f := range r.Files {
		out = append(out, f.Diagnostics()...)
	}
	return out
}

// File returns the reflected file with the given path
func (r *Result) File(path string) (*types.File, bool) {
	i := sort.Search(len(r.Files), func(i int) bool { return r.Files[i].Path >= path })
	if i < len(r.Files) && r.Files[i].Path == path {
		return r.Files[i], true
	}
	return nil, false
}

// fileResult is one source after the reflect phase
type fileResult struct {
	file    *types.File
	changed bool // reflected in this run rather than restored from a cache
	modTime time.Time
	size    int64
}

// New creates a new Indexer. store may be nil for purely in-memory use.
func New(store storage.Storage) *Indexer {
	return &Indexer{
		storage: store,
		logger:  slog.Default(),
	}
}

// SetLogger replaces the logger used for per-file warnings
func (idx *Indexer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		idx.logger = logger
	}
}

// Reflect runs the pipeline over in-memory sources without touching storage
func (idx *Indexer) Reflect(ctx context.Context, sources []Source, cfg *Config) (*Result, error) {
	startTime := time.Now()
	cfg = cfg.withDefaults()
	stats := newStatistics()

	results, err := idx.reflectSources(ctx, sources, cfg, cfg.Cache, stats)
	if err != nil {
		return nil, err
	}

	res := idx.finish(results, stats)
	stats.Duration = time.Since(startTime)
	return res, nil
}

// reflectSources reflects every source on a bounded worker pool. Workers
// never fail the group: a broken file becomes a File carrying a critical
// diagnostic. Cancellation stops new files from starting.
func (idx *Indexer) reflectSources(ctx context.Context, sources []Source, cfg *Config, cache Cache, stats *Statistics) ([]fileResult, error) {
	phaseStart := time.Now()
	defer func() {
		observability.RunDuration.WithLabelValues("reflect").Observe(time.Since(phaseStart).Seconds())
	}()

	dec, err := newDecoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	markers := marker.New(cfg.MarkerTerms)

	results := make([]fileResult, len(sources))
	semaphore := make(chan struct{}, cfg.Workers)

	var (
		reflected int32
		skipped   int32
		failed    int32
		mu        sync.Mutex // Protect stats.ErrorMessages and OnProgress
	)

	g, gctx := errgroup.WithContext(ctx)
launch:
	for i := range sources {
		select {
		case <-gctx.Done():
			break launch
		case semaphore <- struct{}{}:
		}

		g.Go(func() error {
			defer func() { <-semaphore }()

			src := &sources[i]
			fileStart := time.Now()
			res, outcome, err := idx.reflectOne(src, dec, markers, cache, cfg.Force)
			results[i] = res

			observability.FilesTotal.WithLabelValues(outcome).Inc()
			switch outcome {
			case observability.OutcomeSkipped:
				atomic.AddInt32(&skipped, 1)
			case observability.OutcomeFailed:
				atomic.AddInt32(&failed, 1)
			default:
				atomic.AddInt32(&reflected, 1)
				observability.ReflectDuration.Observe(time.Since(fileStart).Seconds())
			}
			if res.changed {
				for _, d := range res.file.Diagnostics() {
					observability.DiagnosticsTotal.WithLabelValues(string(d.Severity)).Inc()
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				idx.logger.Warn("failed to reflect file", "path", src.Path, "error", err)
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", src.Path, err))
			}
			if cfg.OnProgress != nil {
				cfg.OnProgress(src.Path)
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats.FilesReflected = int(reflected)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	return results, nil
}

// reflectOne loads, normalizes and reflects a single source, or restores it
// from cache when its hash is unchanged
func (idx *Indexer) reflectOne(src *Source, dec *decoder, markers *marker.Scanner, cache Cache, force bool) (fileResult, string, error) {
	content, modTime, err := src.load()
	if err != nil {
		f := types.NewFile(src.Path, types.ComputeContentHash(nil))
		f.AddParseError(0, types.SeverityCritical, err.Error())
		return fileResult{file: f, changed: true, modTime: modTime}, observability.OutcomeFailed, err
	}
	res := fileResult{modTime: modTime, size: int64(len(content))}

	useCache := cache != nil && !force
	if useCache && src.Hash != "" {
		if f, ok := cache.Lookup(src.Path, src.Hash); ok {
			res.file = f
			return res, observability.OutcomeSkipped, nil
		}
	}

	text, err := dec.decode(content)
	if err != nil {
		res.file = undecodable(src.Path, content, err)
		res.changed = true
		return res, observability.OutcomeFailed, err
	}

	if useCache {
		if f, ok := cache.Lookup(src.Path, types.ComputeContentHash(text)); ok {
			res.file = f
			return res, observability.OutcomeSkipped, nil
		}
	}

	f := reflector.ReflectFile(src.Path, text)
	f.Markers = markers.Scan(src.Path, text)
	res.file = f
	res.changed = true
	return res, observability.OutcomeReflected, nil
}

// finish sorts the files, builds the symbol index and the marker table
func (idx *Indexer) finish(results []fileResult, stats *Statistics) *Result {
	files := make([]*types.File, 0, len(results))
	for _, r := range results {
		if r.file != nil {
			files = append(files, r.file)
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	indexStart := time.Now()
	ix := index.Build(files)
	observability.RunDuration.WithLabelValues("index").Observe(time.Since(indexStart).Seconds())
	observability.IndexedElements.Set(float64(ix.Len()))

	res := &Result{
		Files:   files,
		Index:   ix,
		Markers: marker.Table(files),
		Stats:   stats,
	}
	stats.ElementsIndexed = ix.Len()
	stats.DiagnosticsCount = len(res.Diagnostics())
	return res
}

// IndexProject discovers the PHP files under rootPath, reflects those that
// changed since the stored run, persists them and removes files that
// disappeared. Per-file problems are reported in the result; an error is
// returned only when the run itself cannot proceed.
func (idx *Indexer) IndexProject(ctx context.Context, rootPath string, cfg *Config) (*Result, error) {
	if idx.storage == nil {
		return nil, ErrNoStorage
	}
	startTime := time.Now()
	cfg = cfg.withDefaults()

	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	project, err := idx.getOrCreateProject(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create project: %w", err)
	}

	paths, err := Discover(rootPath, cfg.Includes, cfg.Excludes)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	stored, err := idx.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored files: %w", err)
	}

	sources := make([]Source, len(paths))
	for i, p := range paths {
		sources[i] = NewFileSource(p, filepath.Join(rootPath, filepath.FromSlash(p)))
	}

	stats := newStatistics()
	results, err := idx.reflectSources(ctx, sources, cfg, newStoredCache(stored), stats)
	if err != nil {
		return nil, err
	}

	persistStart := time.Now()
	if err := idx.persist(ctx, project, results, cfg.BatchSize, stats); err != nil {
		return nil, fmt.Errorf("failed to store files: %w", err)
	}
	if err := idx.deleteStale(ctx, stored, paths, stats); err != nil {
		return nil, fmt.Errorf("failed to delete stale files: %w", err)
	}
	observability.RunDuration.WithLabelValues("persist").Observe(time.Since(persistStart).Seconds())

	res := idx.finish(results, stats)
	res.Project = project

	if err := idx.updateProjectStats(ctx, project, res); err != nil {
		return nil, fmt.Errorf("failed to update project stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return res, nil
}

// LoadProject rebuilds a Result from the payloads stored by the last run,
// without reading any source file
func (idx *Indexer) LoadProject(ctx context.Context, rootPath string) (*Result, error) {
	if idx.storage == nil {
		return nil, ErrNoStorage
	}
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	project, err := idx.storage.GetProject(ctx, rootPath)
	if err != nil {
		return nil, err
	}
	stored, err := idx.storage.ListFiles(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{RunID: project.LastRunID, ErrorMessages: make([]string, 0)}
	results := make([]fileResult, 0, len(stored))
	for _, row := range stored {
		f, err := row.DecodePayload()
		if err != nil {
			idx.logger.Warn("failed to restore file", "path", row.FilePath, "error", err)
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", row.FilePath, err))
			stats.FilesFailed++
			continue
		}
		results = append(results, fileResult{file: f, modTime: row.ModTime, size: row.SizeBytes})
		stats.FilesSkipped++
	}

	res := idx.finish(results, stats)
	res.Project = project
	return res, nil
}
