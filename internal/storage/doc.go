// Package storage persists reflection results in SQLite.
//
// Each project row owns its files. A file row carries the content hash and
// the JSON-encoded reflection result, so an unchanged file can be restored
// without reflecting it again. Elements, diagnostics and markers hang off
// their file and are replaced wholesale whenever the file is re-reflected.
//
// # Database Schema
//
// Tables:
//   - projects: root path, composer package name, run bookkeeping
//   - files: relative path, SHA-256 content hash, cached payload
//   - elements: one row per class-like, member, function and constant
//   - elements_fts: FTS5 index over element name, FQSEN, summary and signature
//   - diagnostics: parse and validation problems with a severity rank
//   - markers: TODO/FIXME style annotations
//
// # Transactions
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer func() { _ = tx.Rollback() }()
//
//	if err := tx.UpsertFile(ctx, file); err != nil {
//	    return err
//	}
//	if err := tx.ReplaceElements(ctx, file.ID, storage.FromTypesFile(reflected)); err != nil {
//	    return err
//	}
//	return tx.Commit()
//
// # Build Tags
//
// The default build uses modernc.org/sqlite and needs no C compiler. Building
// with the sqlite_cgo tag switches to github.com/mattn/go-sqlite3, which also
// needs sqlite_fts5 for the search index.
package storage
