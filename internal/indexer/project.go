package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/phpdoc-mcp/internal/storage"
)

// getOrCreateProject retrieves an existing project or creates a new one
func (idx *Indexer) getOrCreateProject(ctx context.Context, rootPath string) (*storage.Project, error) {
	packageName := ""
	if info, err := parseComposer(filepath.Join(rootPath, "composer.json")); err == nil {
		packageName = info.Name
	}

	project, err := idx.storage.GetProject(ctx, rootPath)
	if err == nil {
		project.PackageName = packageName
		return project, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	project = &storage.Project{
		RootPath:     rootPath,
		PackageName:  packageName,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// composerInfo contains the parts of composer.json kept on the project
type composerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// parseComposer reads the package name from a composer.json file
func parseComposer(path string) (*composerInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info composerInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &info, nil
}

// persist stores the files reflected in this run, BatchSize files per
// transaction. Files restored from the cache are already stored.
func (idx *Indexer) persist(ctx context.Context, project *storage.Project, results []fileResult, batchSize int, stats *Statistics) error {
	changed := make([]fileResult, 0, len(results))
	for _, r := range results {
		if r.changed {
			changed = append(changed, r)
		}
	}

	for i := 0; i < len(changed); i += batchSize {
		end := min(i+batchSize, len(changed))
		if err := idx.persistBatch(ctx, project, changed[i:end], stats); err != nil {
			return err
		}
	}
	return nil
}

// persistBatch stores a batch of files within a transaction
func (idx *Indexer) persistBatch(ctx context.Context, project *storage.Project, batch []fileResult, stats *Statistics) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := storeFile(ctx, tx, project.ID, r); err != nil {
			idx.logger.Warn("failed to store file", "path", r.file.Path, "error", err)
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", r.file.Path, err))
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// storeFile writes one reflected file with its elements, diagnostics and markers
func storeFile(ctx context.Context, store storage.Storage, projectID int64, r fileResult) error {
	f := r.file
	payload, err := storage.EncodePayload(f)
	if err != nil {
		return err
	}
	hash, err := storage.ParseHash(f.ContentHash)
	if err != nil {
		return err
	}

	row := &storage.File{
		ProjectID:   projectID,
		FilePath:    f.Path,
		ContentHash: hash,
		ModTime:     r.modTime,
		SizeBytes:   r.size,
		Payload:     payload,
	}
	if len(f.ParseErrors) > 0 {
		msg := f.ParseErrors[0].Message
		row.ParseError = &msg
	}

	if err := store.UpsertFile(ctx, row); err != nil {
		return err
	}
	if err := store.ReplaceElements(ctx, row.ID, storage.FromTypesFile(f)); err != nil {
		return err
	}
	if err := store.ReplaceDiagnostics(ctx, row.ID, f.Diagnostics()); err != nil {
		return err
	}
	return store.ReplaceMarkers(ctx, row.ID, f.Markers)
}

// deleteStale removes stored files that discovery no longer finds
func (idx *Indexer) deleteStale(ctx context.Context, stored []*storage.File, paths []string, stats *Statistics) error {
	present := make(map[string]bool, len(paths))
	for _, p := range paths {
		present[p] = true
	}
	for _, f := range stored {
		if present[f.FilePath] {
			continue
		}
		if err := idx.storage.DeleteFile(ctx, f.ID); err != nil {
			return err
		}
		stats.FilesDeleted++
	}
	return nil
}

// updateProjectStats records the totals and run id of the finished run
func (idx *Indexer) updateProjectStats(ctx context.Context, project *storage.Project, res *Result) error {
	project.TotalFiles = len(res.Files)
	project.TotalElements = res.Index.Len()
	project.IndexVersion = storage.CurrentSchemaVersion
	project.LastRunID = res.Stats.RunID
	project.LastIndexedAt = time.Now()
	return idx.storage.UpdateProject(ctx, project)
}
