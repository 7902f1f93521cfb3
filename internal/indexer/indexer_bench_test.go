package indexer

import (
	"context"
	"fmt"
	"testing"

	"github.com/dshills/phpdoc-mcp/internal/storage"
)

const benchFiles = 200

// benchClass renders a class with a parent so the index has inheritance to resolve
func benchClass(i int) string {
	parent := ""
	if i > 0 {
		parent = fmt.Sprintf(" extends Model%d", i-1)
	}
	return fmt.Sprintf(`<?php
namespace App\Models;

/**
 * Model number %[1]d.
 *
 * @property string $label
 */
class Model%[1]d%[2]s
{
    const VERSION = %[1]d;

    /** @var int */
    protected $id;

    /**
     * Returns the identifier.
     *
     * @param bool $strict
     * @return int
     */
    public function id(bool $strict = false): int
    {
        // TODO: cache
        return $this->id;
    }
}
`, i, parent)
}

func benchSources() []Source {
	sources := make([]Source, benchFiles)
	for i := range sources {
		sources[i] = Source{
			Path:    fmt.Sprintf("src/Models/Model%d.php", i),
			Content: []byte(benchClass(i)),
		}
	}
	return sources
}

func benchProject(b *testing.B) string {
	dir := b.TempDir()
	for i := 0; i < benchFiles; i++ {
		createTestFile(b, dir, fmt.Sprintf("src/Models/Model%d.php", i), benchClass(i))
	}
	createTestFile(b, dir, "vendor/acme/lib/Lib.php", benchClass(0))
	return dir
}

// BenchmarkReflect benchmarks the in-memory pipeline without storage
func BenchmarkReflect(b *testing.B) {
	sources := benchSources()
	idx := New(nil)
	config := &Config{Workers: 4}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := idx.Reflect(context.Background(), sources, config); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkIndexProject benchmarks a full run into a fresh database
func BenchmarkIndexProject(b *testing.B) {
	dir := benchProject(b)
	config := &Config{Workers: 4, BatchSize: 20}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		store, err := storage.NewSQLiteStorage(":memory:")
		if err != nil {
			b.Fatal(err)
		}
		idx := New(store)
		b.StartTimer()

		if _, err := idx.IndexProject(context.Background(), dir, config); err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		_ = store.Close()
		b.StartTimer()
	}
}

// BenchmarkIncrementalIndex benchmarks a run where every file is unchanged
func BenchmarkIncrementalIndex(b *testing.B) {
	dir := benchProject(b)
	store := setupTestStorage(b)
	idx := New(store)
	config := &Config{Workers: 4, BatchSize: 20}

	if _, err := idx.IndexProject(context.Background(), dir, config); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := idx.IndexProject(context.Background(), dir, config); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDiscover benchmarks file discovery only
func BenchmarkDiscover(b *testing.B) {
	dir := benchProject(b)
	cfg := (&Config{Excludes: []string{"**/vendor/**"}}).withDefaults()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := Discover(dir, cfg.Includes, cfg.Excludes); err != nil {
			b.Fatal(err)
		}
	}
}
