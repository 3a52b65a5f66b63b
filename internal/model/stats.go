package model

// CategoryTotal holds a summed estimate for one category value.
type CategoryTotal struct {
	Category string
	Total    float64
	Rows     int
}

// ProportionTable holds percentages of each column category within each row group.
// Values[i][j] is the share of Columns[j] in Groups[i]; each row sums to 100
// when the group total is positive.
type ProportionTable struct {
	Groups  []string
	Columns []string
	Values  [][]float64
	Totals  []float64
}

// Distribution summarizes a sample of rates.
type Distribution struct {
	Category string
	Count    int
	Min      float64
	Q1       float64
	Median   float64
	Q3       float64
	Max      float64
	Mean     float64
}

// ServiceStats holds diagnosed totals for one service branch normalized by recruitment.
type ServiceStats struct {
	Service      string
	Diagnosed    float64
	Recruited    int64
	PerThousand  float64
	SharePercent float64
}

// ScatterPoint is one military observation for the diagnosed-by-year scatter.
type ScatterPoint struct {
	Year      int
	Diagnosed float64
	Severity  string
	Service   string
}

// TableSummary describes one loaded table.
type TableSummary struct {
	Kind     Kind
	Rows     int
	Columns  []string
	MinYear  int
	MaxYear  int
	Total    float64
	Missing  int
	Distinct map[string]int
}
