// Package indexer coordinates the reflection pipeline for PHP projects.
//
// A run turns source files into reflected files, a symbol index and a marker
// table. Files are reflected concurrently on a bounded worker pool; the index
// is built only after every worker has finished, so cross-file lookups never
// observe a partial run.
//
// # Basic Usage
//
//	idx := indexer.New(store)
//
//	res, err := idx.IndexProject(ctx, "/path/to/project", indexer.FromConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d reflected, %d skipped\n", res.Stats.FilesReflected, res.Stats.FilesSkipped)
//
// Reflect runs the same pipeline over in-memory sources and does not need
// storage:
//
//	res, err := indexer.New(nil).Reflect(ctx, []indexer.Source{
//	    {Path: "src/User.php", Content: content},
//	}, nil)
//
// # Pipeline
//
//  1. Discovery: walk the root, apply include and exclude globs
//  2. Normalize: decode the configured charset to UTF-8, strip a BOM
//  3. Reflect: skip files whose content hash is unchanged, reflect the rest
//  4. Index: build the FQSEN index and the marker table from every file
//  5. Store: persist changed files in batched transactions, drop removed ones
//
// # Failure Isolation
//
// A file that cannot be read or decoded still appears in the result, with no
// elements and one critical diagnostic. It is counted in FilesFailed and never
// aborts the run. Only cancellation and storage failures return an error.
//
// # Incremental Runs
//
// IndexProject stores each reflected file as a payload keyed by the SHA-256 of
// its normalized content. The next run restores unchanged files from those
// payloads instead of reflecting them again; Config.Force disables this.
package indexer
