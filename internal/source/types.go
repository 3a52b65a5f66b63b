package source

import "github.com/theirongolddev/tbidash/internal/model"

// FileSet names the CSV file for each table inside a data directory.
type FileSet struct {
	Age      string
	Year     string
	Military string
}

// DefaultFileSet returns the file names the dataset is published with.
func DefaultFileSet() FileSet {
	return FileSet{
		Age:      "tbi_age.csv",
		Year:     "tbi_year.csv",
		Military: "tbi_military.csv",
	}
}

// Name returns the file name configured for kind.
func (fs FileSet) Name(k model.Kind) string {
	switch k {
	case model.KindAge:
		return fs.Age
	case model.KindYear:
		return fs.Year
	case model.KindMilitary:
		return fs.Military
	}
	return ""
}

// withDefaults fills empty names from DefaultFileSet.
func (fs FileSet) withDefaults() FileSet {
	def := DefaultFileSet()
	if fs.Age == "" {
		fs.Age = def.Age
	}
	if fs.Year == "" {
		fs.Year = def.Year
	}
	if fs.Military == "" {
		fs.Military = def.Military
	}
	return fs
}

// DiscoveredFile represents one table's CSV found during directory scanning.
type DiscoveredFile struct {
	Kind      model.Kind
	Path      string
	Missing   bool
	ModTimeNs int64
	Size      int64
}

// ParseResult holds the output of parsing a single CSV file.
// Only the slice matching Kind is populated.
type ParseResult struct {
	Kind        model.Kind
	Age         []model.AgeRecord
	Year        []model.YearRecord
	Military    []model.MilitaryRecord
	ParseErrors int
	Err         error
}

// Rows returns the number of parsed records.
func (pr ParseResult) Rows() int {
	return len(pr.Age) + len(pr.Year) + len(pr.Military)
}
