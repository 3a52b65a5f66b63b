package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/source"
	"github.com/theirongolddev/tbidash/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

// CachedLoadResult extends LoadResult with cache metadata.
type CachedLoadResult struct {
	LoadResult
	CacheHits int
	Reparsed  int
	// CacheWriteErrors counts reparsed tables that could not be re-cached.
	// The dataset is still complete; the next load reparses them again.
	CacheWriteErrors int
}

// LoadWithCache discovers the tables, reuses cached rows for files whose
// mtime and size are unchanged, and reparses and re-caches the rest.
func LoadWithCache(ctx context.Context, dataDir string, names source.FileSet, cache *store.Cache, progressFn ProgressFunc) (*CachedLoadResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.LoadWithCache")
	defer span.End()

	files, err := source.ScanDir(dataDir, names)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}
	if err := missingError(files); err != nil {
		return nil, err
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{
			Dataset:    newDataset(),
			Files:      files,
			TotalFiles: len(files),
		},
	}

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	// Diff: partition into changed and unchanged
	var toReparse []source.DiscoveredFile
	for _, f := range files {
		cached, ok := tracked[f.Kind]
		if !ok || cached.Path != f.Path || cached.MtimeNs != f.ModTimeNs || cached.SizeBytes != f.Size {
			toReparse = append(toReparse, f)
			continue
		}

		pr, err := loadCached(cache, f.Kind)
		if err != nil {
			toReparse = append(toReparse, f)
			continue
		}
		pr.ParseErrors = cached.ParseErrors
		result.CacheHits++
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		apply(result.Dataset, f, pr, true)
		if progressFn != nil {
			progressFn(result.CacheHits, result.TotalFiles)
		}
	}

	result.Reparsed = len(toReparse)

	parsed, err := parseAll(ctx, toReparse, progressFn, result.CacheHits, result.TotalFiles)
	if err != nil {
		return nil, err
	}
	for i, pr := range parsed {
		f := toReparse[i]
		if err := result.collect(f, pr); err != nil {
			return nil, err
		}
		fi := store.FileInfo{Path: f.Path, MtimeNs: f.ModTimeNs, SizeBytes: f.Size, ParseErrors: pr.ParseErrors}
		if err := saveCached(cache, fi, pr); err != nil {
			result.CacheWriteErrors++
		}
	}

	span.SetAttributes(
		attribute.Int("tbidash.cache_hits", result.CacheHits),
		attribute.Int("tbidash.reparsed", result.Reparsed),
		attribute.Int("tbidash.cache_write_errors", result.CacheWriteErrors),
	)
	return result, nil
}

func loadCached(cache *store.Cache, kind model.Kind) (source.ParseResult, error) {
	pr := source.ParseResult{Kind: kind}
	var err error
	switch kind {
	case model.KindAge:
		pr.Age, err = cache.LoadAge()
	case model.KindYear:
		pr.Year, err = cache.LoadYear()
	case model.KindMilitary:
		pr.Military, err = cache.LoadMilitary()
	default:
		err = fmt.Errorf("%w: %q", source.ErrUnknownKind, kind)
	}
	return pr, err
}

func saveCached(cache *store.Cache, fi store.FileInfo, pr source.ParseResult) error {
	switch pr.Kind {
	case model.KindAge:
		return cache.SaveAge(fi, pr.Age)
	case model.KindYear:
		return cache.SaveYear(fi, pr.Year)
	case model.KindMilitary:
		return cache.SaveMilitary(fi, pr.Military)
	}
	return fmt.Errorf("%w: %q", source.ErrUnknownKind, pr.Kind)
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "tbidash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "tbidash")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "tables.db")
}

// MirrorDir returns the directory remote tables are downloaded into.
func MirrorDir() string {
	return filepath.Join(CacheDir(), "mirror")
}
