package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/source"
	"github.com/theirongolddev/tbidash/internal/store"
)

func TestLoad(t *testing.T) {
	dir := writeFixtures(t)

	var calls atomic.Int64
	result, err := Load(context.Background(), dir, source.FileSet{}, func(current, total int) {
		calls.Add(1)
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ds := result.Dataset
	if len(ds.Age) != 7 || len(ds.Year) != 6 || len(ds.Military) != 6 {
		t.Errorf("rows = %d/%d/%d, want 7/6/6", len(ds.Age), len(ds.Year), len(ds.Military))
	}
	if result.ParsedFiles != 3 || result.FileErrors != 0 {
		t.Errorf("ParsedFiles = %d, FileErrors = %d", result.ParsedFiles, result.FileErrors)
	}
	if calls.Load() != 3 {
		t.Errorf("progress calls = %d, want 3", calls.Load())
	}
	if info := ds.Tables[model.KindYear]; info.Rows != 6 || info.Path != filepath.Join(dir, "tbi_year.csv") {
		t.Errorf("year table info = %+v", info)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := writeFixtures(t)
	if err := os.Remove(filepath.Join(dir, "tbi_military.csv")); err != nil {
		t.Fatal(err)
	}

	_, err := Load(context.Background(), dir, source.FileSet{}, nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), "tbi_military.csv") || !strings.Contains(err.Error(), "1 of 3 tables missing") {
		t.Errorf("err = %q, want file name and missing count", err)
	}

	cache, err := store.Open(filepath.Join(t.TempDir(), "tables.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()
	if _, err := LoadWithCache(context.Background(), dir, source.FileSet{}, cache, nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cached load err = %v, want ErrNotExist", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := writeFixtures(t)
	if err := os.WriteFile(filepath.Join(dir, "tbi_age.csv"), []byte("foo,bar\n1,2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Load(context.Background(), dir, source.FileSet{}, nil)
	if !errors.Is(err, source.ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, writeFixtures(t), source.FileSet{}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLoadWithCache(t *testing.T) {
	dir := writeFixtures(t)
	cache, err := store.Open(filepath.Join(t.TempDir(), "tables.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	first, err := LoadWithCache(context.Background(), dir, source.FileSet{}, cache, nil)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if first.CacheHits != 0 || first.Reparsed != 3 {
		t.Errorf("first: hits = %d, reparsed = %d; want 0, 3", first.CacheHits, first.Reparsed)
	}

	second, err := LoadWithCache(context.Background(), dir, source.FileSet{}, cache, nil)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.CacheHits != 3 || second.Reparsed != 0 {
		t.Errorf("second: hits = %d, reparsed = %d; want 3, 0", second.CacheHits, second.Reparsed)
	}
	if got, want := TableTotal(second.Dataset, model.KindMilitary), TableTotal(first.Dataset, model.KindMilitary); got != want {
		t.Errorf("cached military total = %v, want %v", got, want)
	}
	if len(second.Dataset.Age) != len(first.Dataset.Age) {
		t.Errorf("cached age rows = %d, want %d", len(second.Dataset.Age), len(first.Dataset.Age))
	}
	if second.Dataset.Age[3].NumberEst != nil {
		t.Error("NA survives cache round trip as nil")
	}
	if !second.Dataset.Tables[model.KindAge].FromCache {
		t.Error("age table should be marked FromCache")
	}

	// Touch one file so it is reparsed.
	path := filepath.Join(dir, "tbi_year.csv")
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	third, err := LoadWithCache(context.Background(), dir, source.FileSet{}, cache, nil)
	if err != nil {
		t.Fatalf("third load: %v", err)
	}
	if third.CacheHits != 2 || third.Reparsed != 1 {
		t.Errorf("third: hits = %d, reparsed = %d; want 2, 1", third.CacheHits, third.Reparsed)
	}
}

func TestLoadWithCache_WriteFailureCounted(t *testing.T) {
	dir := writeFixtures(t)
	dbPath := filepath.Join(t.TempDir(), "tables.db")
	cache, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DROP TABLE age_records"); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	result, err := LoadWithCache(context.Background(), dir, source.FileSet{}, cache, nil)
	if err != nil {
		t.Fatalf("LoadWithCache: %v", err)
	}
	if result.CacheWriteErrors != 1 {
		t.Errorf("CacheWriteErrors = %d, want 1", result.CacheWriteErrors)
	}
	if len(result.Dataset.Age) != 7 {
		t.Errorf("age rows = %d, want 7 despite cache failure", len(result.Dataset.Age))
	}
}
