// Package model defines domain types for the TBI datasets and derived statistics.
package model

// Kind identifies one of the three TBI tables.
type Kind string

// The three tables shipped with the dataset.
const (
	KindAge      Kind = "age"
	KindYear     Kind = "year"
	KindMilitary Kind = "military"
)

// Kinds lists every table in display order.
var Kinds = []Kind{KindAge, KindMilitary, KindYear}

// DisplayName returns the dashboard label for a table.
func (k Kind) DisplayName() string {
	switch k {
	case KindAge:
		return "Civilian Data"
	case KindMilitary:
		return "Military Data"
	case KindYear:
		return "Yearly Combined Data"
	}
	return string(k)
}

// Valid reports whether k names a known table.
func (k Kind) Valid() bool {
	switch k {
	case KindAge, KindYear, KindMilitary:
		return true
	}
	return false
}

// AgeRecord is one row of tbi_age.csv: 2014 civilian estimates by age group.
type AgeRecord struct {
	AgeGroup        string   `json:"age_group"`
	Type            string   `json:"type"`
	InjuryMechanism string   `json:"injury_mechanism"`
	NumberEst       *float64 `json:"number_est"`
	RateEst         *float64 `json:"rate_est"`
}

// YearRecord is one row of tbi_year.csv: national estimates per year.
type YearRecord struct {
	InjuryMechanism string   `json:"injury_mechanism"`
	Type            string   `json:"type"`
	Year            int      `json:"year"`
	RateEst         *float64 `json:"rate_est"`
	NumberEst       *float64 `json:"number_est"`
}

// MilitaryRecord is one row of tbi_military.csv: diagnosed TBIs in the armed forces.
type MilitaryRecord struct {
	Service   string   `json:"service"`
	Component string   `json:"component"`
	Severity  string   `json:"severity"`
	Diagnosed *float64 `json:"diagnosed"`
	Year      int      `json:"year"`
}

// TableInfo holds load metadata for one table.
type TableInfo struct {
	Kind        Kind
	Path        string
	Rows        int
	ParseErrors int
	FromCache   bool
}

// Dataset bundles the three tables. It is never mutated after load; a reload
// produces a new Dataset.
type Dataset struct {
	Age      []AgeRecord
	Year     []YearRecord
	Military []MilitaryRecord

	Tables map[Kind]TableInfo
}

// Rows returns the row count of a table.
func (d *Dataset) Rows(k Kind) int {
	if d == nil {
		return 0
	}
	switch k {
	case KindAge:
		return len(d.Age)
	case KindYear:
		return len(d.Year)
	case KindMilitary:
		return len(d.Military)
	}
	return 0
}

// Empty reports whether no table has rows.
func (d *Dataset) Empty() bool {
	return d.Rows(KindAge) == 0 && d.Rows(KindYear) == 0 && d.Rows(KindMilitary) == 0
}

// Float returns a pointer to v, for building optional estimates.
func Float(v float64) *float64 {
	return &v
}
