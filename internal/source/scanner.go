package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/tbidash/internal/model"
)

// ScanDir locates the three table files inside dataDir.
// Every kind is returned; files that do not exist are marked Missing so the
// caller can decide how to report them. Paths are absolute.
func ScanDir(dataDir string, names FileSet) ([]DiscoveredFile, error) {
	dataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dataDir)
	}

	names = names.withDefaults()
	files := make([]DiscoveredFile, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		df := DiscoveredFile{
			Kind: k,
			Path: filepath.Join(dataDir, names.Name(k)),
		}
		fi, err := os.Stat(df.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			df.Missing = true
		case err != nil:
			return nil, err
		default:
			df.ModTimeNs = fi.ModTime().UnixNano()
			df.Size = fi.Size()
		}
		files = append(files, df)
	}
	return files, nil
}

// Changed reports whether any file differs between two scans of the same directory.
func Changed(prev, curr []DiscoveredFile) bool {
	if len(prev) != len(curr) {
		return true
	}
	seen := make(map[string]DiscoveredFile, len(prev))
	for _, f := range prev {
		seen[f.Path] = f
	}
	for _, f := range curr {
		p, ok := seen[f.Path]
		if !ok || p.Missing != f.Missing || p.ModTimeNs != f.ModTimeNs || p.Size != f.Size {
			return true
		}
	}
	return false
}

// CountMissing returns the number of files that were not found.
func CountMissing(files []DiscoveredFile) int {
	n := 0
	for _, f := range files {
		if f.Missing {
			n++
		}
	}
	return n
}
