package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/tbidash/internal/source"
	"github.com/theirongolddev/tbidash/internal/store"
)

func BenchmarkLoad(b *testing.B) {
	dir := writeLargeFixtures(b, 2000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := Load(context.Background(), dir, source.FileSet{}, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkParseFile(b *testing.B) {
	dir := writeLargeFixtures(b, 2000)

	files, err := source.ScanDir(dir, source.FileSet{})
	if err != nil {
		b.Fatal(err)
	}

	// Find the largest file for worst-case benchmarking
	var biggest source.DiscoveredFile
	for _, f := range files {
		if f.Size > biggest.Size {
			biggest = f
		}
	}

	b.Logf("Benchmarking largest file: %s (%.1f KB)", biggest.Path, float64(biggest.Size)/1024)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		result := source.ParseFile(biggest)
		if result.Err != nil {
			b.Fatal(result.Err)
		}
	}
}

func BenchmarkLoadWithCache(b *testing.B) {
	dir := writeLargeFixtures(b, 2000)

	cache, err := store.Open(filepath.Join(b.TempDir(), "tables.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cr, err := LoadWithCache(context.Background(), dir, source.FileSet{}, cache, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = cr
	}
}

func BenchmarkAgeTypeProportions(b *testing.B) {
	dir := writeLargeFixtures(b, 2000)
	result, err := Load(context.Background(), dir, source.FileSet{}, nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AgeTypeProportions(result.Dataset.Age)
	}
}
