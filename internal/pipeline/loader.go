package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/source"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("github.com/theirongolddev/tbidash/internal/pipeline")

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Dataset     *model.Dataset
	Files       []source.DiscoveredFile
	TotalFiles  int
	ParsedFiles int
	ParseErrors int
	FileErrors  int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load discovers and parses the three tables in dataDir.
// Files are parsed in parallel with a bounded worker pool. A missing or
// malformed file fails the load with an error naming the file.
func Load(ctx context.Context, dataDir string, names source.FileSet, progressFn ProgressFunc) (*LoadResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Load")
	defer span.End()

	files, err := source.ScanDir(dataDir, names)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}
	if err := missingError(files); err != nil {
		return nil, err
	}

	result := &LoadResult{
		Dataset:    newDataset(),
		Files:      files,
		TotalFiles: len(files),
	}

	parsed, err := parseAll(ctx, files, progressFn, 0, len(files))
	if err != nil {
		return nil, err
	}
	for i, pr := range parsed {
		if err := result.collect(files[i], pr); err != nil {
			return result, err
		}
	}

	span.SetAttributes(
		attribute.Int("tbidash.files", result.ParsedFiles),
		attribute.Int("tbidash.parse_errors", result.ParseErrors),
	)
	return result, nil
}

// parseAll parses files concurrently. Results are positional; progress is
// reported as offset+n out of total.
func parseAll(ctx context.Context, files []source.DiscoveredFile, progressFn ProgressFunc, offset, total int) ([]source.ParseResult, error) {
	results := make([]source.ParseResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					return
				}
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+offset, total)
				}
			}
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// missingError names the first absent table file, or returns nil when all
// tables are present.
func missingError(files []source.DiscoveredFile) error {
	n := source.CountMissing(files)
	if n == 0 {
		return nil
	}
	for _, f := range files {
		if f.Missing {
			return fmt.Errorf("loading %s: %w (%d of %d tables missing)", f.Path, os.ErrNotExist, n, len(files))
		}
	}
	return nil
}

// collect folds one parse result into the load result.
func (r *LoadResult) collect(df source.DiscoveredFile, pr source.ParseResult) error {
	if pr.Err != nil {
		r.FileErrors++
		return fmt.Errorf("loading %s: %w", df.Path, pr.Err)
	}
	r.ParsedFiles++
	r.ParseErrors += pr.ParseErrors
	apply(r.Dataset, df, pr, false)
	return nil
}

func newDataset() *model.Dataset {
	return &model.Dataset{Tables: make(map[model.Kind]model.TableInfo, len(model.Kinds))}
}

// apply stores a table's rows and metadata in ds.
func apply(ds *model.Dataset, df source.DiscoveredFile, pr source.ParseResult, fromCache bool) {
	switch df.Kind {
	case model.KindAge:
		ds.Age = pr.Age
	case model.KindYear:
		ds.Year = pr.Year
	case model.KindMilitary:
		ds.Military = pr.Military
	}
	ds.Tables[df.Kind] = model.TableInfo{
		Kind:        df.Kind,
		Path:        df.Path,
		Rows:        pr.Rows(),
		ParseErrors: pr.ParseErrors,
		FromCache:   fromCache,
	}
}
