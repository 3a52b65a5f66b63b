// Package pipeline orchestrates table loading, caching, filtering and aggregation.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/source"
)

// ErrUnknownColumn is returned when grouping by a column the table does not have.
var ErrUnknownColumn = errors.New("unknown column")

// Filter narrows a table. Zero values match everything. String fields match
// case-insensitively and exactly. Fields a table does not carry are ignored
// for that table.
type Filter struct {
	Year      int
	Type      string
	Mechanism string
	AgeGroup  string
	Service   string
	Severity  string
	Component string
}

// IsZero reports whether f matches every row.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

func matches(want, got string) bool {
	return want == "" || strings.EqualFold(strings.TrimSpace(want), got)
}

// FilterRows returns the rows for which keep reports true.
func FilterRows[T any](rows []T, keep func(T) bool) []T {
	var out []T
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// FilterAge applies f to civilian rows. The age table has no year column, so
// f.Year is ignored.
func FilterAge(rows []model.AgeRecord, f Filter) []model.AgeRecord {
	if f.IsZero() {
		return rows
	}
	return FilterRows(rows, func(r model.AgeRecord) bool {
		return matches(f.Type, r.Type) &&
			matches(f.Mechanism, r.InjuryMechanism) &&
			matches(f.AgeGroup, r.AgeGroup)
	})
}

// FilterYear applies f to yearly rows.
func FilterYear(rows []model.YearRecord, f Filter) []model.YearRecord {
	if f.IsZero() {
		return rows
	}
	return FilterRows(rows, func(r model.YearRecord) bool {
		return (f.Year == 0 || r.Year == f.Year) &&
			matches(f.Type, r.Type) &&
			matches(f.Mechanism, r.InjuryMechanism)
	})
}

// FilterMilitary applies f to military rows.
func FilterMilitary(rows []model.MilitaryRecord, f Filter) []model.MilitaryRecord {
	if f.IsZero() {
		return rows
	}
	return FilterRows(rows, func(r model.MilitaryRecord) bool {
		return (f.Year == 0 || r.Year == f.Year) &&
			matches(f.Service, r.Service) &&
			matches(f.Severity, r.Severity) &&
			matches(f.Component, r.Component)
	})
}

// FilterDataset returns a new dataset with f applied to every table.
func FilterDataset(ds *model.Dataset, f Filter) *model.Dataset {
	if ds == nil || f.IsZero() {
		return ds
	}
	return &model.Dataset{
		Age:      FilterAge(ds.Age, f),
		Year:     FilterYear(ds.Year, f),
		Military: FilterMilitary(ds.Military, f),
		Tables:   ds.Tables,
	}
}

// GroupSum sums value per key. Rows whose value is nil are skipped. Groups are
// returned in first-appearance order.
func GroupSum[T any](rows []T, key func(T) string, value func(T) *float64) []model.CategoryTotal {
	idx := make(map[string]int)
	var out []model.CategoryTotal
	for _, r := range rows {
		v := value(r)
		if v == nil {
			continue
		}
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, model.CategoryTotal{Category: k})
		}
		out[i].Total += *v
		out[i].Rows++
	}
	return out
}

// Sum adds up the non-nil values of rows.
func Sum[T any](rows []T, value func(T) *float64) float64 {
	var total float64
	for _, r := range rows {
		if v := value(r); v != nil {
			total += *v
		}
	}
	return total
}

// Columns the CLI and API may group by, per table.
var groupColumns = map[model.Kind][]string{
	model.KindAge:      {"age_group", "type", "injury_mechanism"},
	model.KindYear:     {"year", "type", "injury_mechanism"},
	model.KindMilitary: {"service", "component", "severity", "year"},
}

// GroupColumns returns the columns a table can be grouped by.
func GroupColumns(k model.Kind) []string {
	return append([]string(nil), groupColumns[k]...)
}

func unknownColumn(kind model.Kind, column string) error {
	return fmt.Errorf("%w %q for %s; want one of %s",
		ErrUnknownColumn, column, kind, strings.Join(GroupColumns(kind), ", "))
}

// TotalsBy sums the count column of a table (number_est or diagnosed) per
// value of column. Category totals always add up to the table total.
func TotalsBy(ds *model.Dataset, kind model.Kind, column string) ([]model.CategoryTotal, error) {
	if ds == nil {
		return nil, nil
	}
	column = strings.ToLower(strings.TrimSpace(column))

	var totals []model.CategoryTotal
	switch kind {
	case model.KindAge:
		key, ok := ageKey(column)
		if !ok {
			return nil, unknownColumn(kind, column)
		}
		totals = GroupSum(ds.Age, key, func(r model.AgeRecord) *float64 { return r.NumberEst })
	case model.KindYear:
		key, ok := yearKey(column)
		if !ok {
			return nil, unknownColumn(kind, column)
		}
		totals = GroupSum(ds.Year, key, func(r model.YearRecord) *float64 { return r.NumberEst })
	case model.KindMilitary:
		key, ok := militaryKey(column)
		if !ok {
			return nil, unknownColumn(kind, column)
		}
		totals = GroupSum(ds.Military, key, func(r model.MilitaryRecord) *float64 { return r.Diagnosed })
	default:
		return nil, fmt.Errorf("%w: %q", source.ErrUnknownKind, kind)
	}

	less := categoryLess(column)
	sort.SliceStable(totals, func(i, j int) bool {
		return less(totals[i].Category, totals[j].Category)
	})
	return totals, nil
}

// TableTotal returns the summed count column of a table.
func TableTotal(ds *model.Dataset, kind model.Kind) float64 {
	if ds == nil {
		return 0
	}
	switch kind {
	case model.KindAge:
		return Sum(ds.Age, func(r model.AgeRecord) *float64 { return r.NumberEst })
	case model.KindYear:
		return Sum(ds.Year, func(r model.YearRecord) *float64 { return r.NumberEst })
	case model.KindMilitary:
		return Sum(ds.Military, func(r model.MilitaryRecord) *float64 { return r.Diagnosed })
	}
	return 0
}

func ageKey(column string) (func(model.AgeRecord) string, bool) {
	switch column {
	case "age_group":
		return func(r model.AgeRecord) string { return r.AgeGroup }, true
	case "type":
		return func(r model.AgeRecord) string { return r.Type }, true
	case "injury_mechanism":
		return func(r model.AgeRecord) string { return r.InjuryMechanism }, true
	}
	return nil, false
}

func yearKey(column string) (func(model.YearRecord) string, bool) {
	switch column {
	case "year":
		return func(r model.YearRecord) string { return strconv.Itoa(r.Year) }, true
	case "type":
		return func(r model.YearRecord) string { return r.Type }, true
	case "injury_mechanism":
		return func(r model.YearRecord) string { return r.InjuryMechanism }, true
	}
	return nil, false
}

func militaryKey(column string) (func(model.MilitaryRecord) string, bool) {
	switch column {
	case "service":
		return func(r model.MilitaryRecord) string { return r.Service }, true
	case "component":
		return func(r model.MilitaryRecord) string { return r.Component }, true
	case "severity":
		return func(r model.MilitaryRecord) string { return r.Severity }, true
	case "year":
		return func(r model.MilitaryRecord) string { return strconv.Itoa(r.Year) }, true
	}
	return nil, false
}

// categoryLess returns the display ordering for values of column.
func categoryLess(column string) func(a, b string) bool {
	switch column {
	case "age_group":
		return AgeGroupLess
	case "year":
		return func(a, b string) bool {
			ai, _ := strconv.Atoi(a)
			bi, _ := strconv.Atoi(b)
			return ai < bi
		}
	}
	return func(a, b string) bool { return a < b }
}

// AgeGroupLess orders age bands by lower bound, then upper bound, with open
// ended bands ("75+") after closed ones and "Total" last.
func AgeGroupLess(a, b string) bool {
	alo, ahi := ageBounds(a)
	blo, bhi := ageBounds(b)
	if alo != blo {
		return alo < blo
	}
	if ahi != bhi {
		return ahi < bhi
	}
	return a < b
}

func ageBounds(s string) (lo, hi int) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "+") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
		if err == nil {
			return n, math.MaxInt32
		}
	}
	if l, h, ok := strings.Cut(s, "-"); ok {
		ln, err1 := strconv.Atoi(strings.TrimSpace(l))
		hn, err2 := strconv.Atoi(strings.TrimSpace(h))
		if err1 == nil && err2 == nil {
			return ln, hn
		}
	}
	// Non-numeric labels such as "Total" sort after every band.
	return math.MaxInt32, math.MaxInt32
}

// proportions builds a row-normalized percentage table. Each group's share is
// taken against the group's total over all rows, as a stacked 100% bar shows.
func proportions(groups []string, columns []string, cell map[[2]string]float64, groupTotal map[string]float64) model.ProportionTable {
	pt := model.ProportionTable{
		Groups:  groups,
		Columns: columns,
		Values:  make([][]float64, len(groups)),
		Totals:  make([]float64, len(groups)),
	}
	for i, g := range groups {
		pt.Totals[i] = groupTotal[g]
		pt.Values[i] = make([]float64, len(columns))
		if groupTotal[g] <= 0 {
			continue
		}
		for j, c := range columns {
			pt.Values[i][j] = cell[[2]string{g, c}] / groupTotal[g] * 100
		}
	}
	return pt
}

// AgeTypeProportions returns, for each age group, each outcome type's share of
// the group's summed number_est.
func AgeTypeProportions(rows []model.AgeRecord) model.ProportionTable {
	cell := make(map[[2]string]float64)
	groupTotal := make(map[string]float64)
	groupSet := make(map[string]struct{})
	colSet := make(map[string]struct{})

	for _, r := range rows {
		if r.NumberEst == nil {
			continue
		}
		groupSet[r.AgeGroup] = struct{}{}
		colSet[r.Type] = struct{}{}
		cell[[2]string{r.AgeGroup, r.Type}] += *r.NumberEst
		groupTotal[r.AgeGroup] += *r.NumberEst
	}

	groups := sortedKeys(groupSet, AgeGroupLess)
	columns := sortedKeys(colSet, func(a, b string) bool { return a < b })
	return proportions(groups, columns, cell, groupTotal)
}

// YearTypeProportions returns, for each year, each outcome type's share of the
// year's summed number_est.
func YearTypeProportions(rows []model.YearRecord) model.ProportionTable {
	cell := make(map[[2]string]float64)
	groupTotal := make(map[string]float64)
	groupSet := make(map[string]struct{})
	colSet := make(map[string]struct{})

	for _, r := range rows {
		if r.NumberEst == nil {
			continue
		}
		y := strconv.Itoa(r.Year)
		groupSet[y] = struct{}{}
		colSet[r.Type] = struct{}{}
		cell[[2]string{y, r.Type}] += *r.NumberEst
		groupTotal[y] += *r.NumberEst
	}

	groups := sortedKeys(groupSet, categoryLess("year"))
	columns := sortedKeys(colSet, func(a, b string) bool { return a < b })
	return proportions(groups, columns, cell, groupTotal)
}

func sortedKeys(set map[string]struct{}, less func(a, b string) bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// MechanismRateDistributions summarizes rate_est per injury mechanism.
// Mechanisms keep the order they first appear in; rows without a rate are
// skipped and mechanisms with no rates are omitted.
func MechanismRateDistributions(rows []model.AgeRecord) []model.Distribution {
	var order []string
	samples := make(map[string][]float64)
	for _, r := range rows {
		if r.RateEst == nil {
			continue
		}
		if _, ok := samples[r.InjuryMechanism]; !ok {
			order = append(order, r.InjuryMechanism)
		}
		samples[r.InjuryMechanism] = append(samples[r.InjuryMechanism], *r.RateEst)
	}

	out := make([]model.Distribution, 0, len(order))
	for _, m := range order {
		d := Describe(samples[m])
		d.Category = m
		out = append(out, d)
	}
	return out
}

// Describe computes count, extremes, mean and quartiles of values.
// Quartiles use linear interpolation between closest ranks.
func Describe(values []float64) model.Distribution {
	if len(values) == 0 {
		return model.Distribution{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return model.Distribution{
		Count:  len(sorted),
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Mean:   sum / float64(len(sorted)),
	}
}

// Quantile returns the q-th quantile of an ascending sample using linear
// interpolation. sorted must be non-empty.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// ServiceNormalized sums diagnosed cases per service branch, sorted ascending
// by diagnosed, and normalizes them by recruitment. Services missing from
// recruitment are kept with Recruited 0 and do not contribute to shares.
func ServiceNormalized(rows []model.MilitaryRecord, recruitment map[string]int64) []model.ServiceStats {
	totals := GroupSum(rows,
		func(r model.MilitaryRecord) string { return r.Service },
		func(r model.MilitaryRecord) *float64 { return r.Diagnosed },
	)

	out := make([]model.ServiceStats, 0, len(totals))
	var perThousandSum float64
	for _, t := range totals {
		s := model.ServiceStats{Service: t.Category, Diagnosed: t.Total}
		if n, ok := lookupRecruitment(recruitment, t.Category); ok && n > 0 {
			s.Recruited = n
			s.PerThousand = t.Total / float64(n) * 1000
			perThousandSum += s.PerThousand
		}
		out = append(out, s)
	}

	if perThousandSum > 0 {
		for i := range out {
			if out[i].Recruited > 0 {
				out[i].SharePercent = out[i].PerThousand / perThousandSum * 100
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Diagnosed != out[j].Diagnosed {
			return out[i].Diagnosed < out[j].Diagnosed
		}
		return out[i].Service < out[j].Service
	})
	return out
}

// lookupRecruitment prefers an exact key. Otherwise the lexically smallest
// case-insensitive match wins so repeated runs agree.
func lookupRecruitment(recruitment map[string]int64, service string) (int64, bool) {
	if n, ok := recruitment[service]; ok {
		return n, true
	}
	var (
		best  string
		n     int64
		found bool
	)
	for k, v := range recruitment {
		if strings.EqualFold(k, service) && (!found || k < best) {
			best, n, found = k, v, true
		}
	}
	return n, found
}

// DiagnosedScatter returns one point per military row with a diagnosed value.
func DiagnosedScatter(rows []model.MilitaryRecord) []model.ScatterPoint {
	out := make([]model.ScatterPoint, 0, len(rows))
	for _, r := range rows {
		if r.Diagnosed == nil {
			continue
		}
		out = append(out, model.ScatterPoint{
			Year:      r.Year,
			Diagnosed: *r.Diagnosed,
			Severity:  r.Severity,
			Service:   r.Service,
		})
	}
	return out
}

// Head returns the first n rows. n <= 0 returns nil.
func Head[T any](rows []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}

// Preview renders the first n rows of a table as display strings, with
// headers in file column order. Missing estimates render as "NA".
func Preview(ds *model.Dataset, kind model.Kind, n int) ([]string, [][]string, error) {
	if !kind.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", source.ErrUnknownKind, kind)
	}
	headers := source.Columns(kind)
	var rows [][]string
	if ds == nil {
		return headers, rows, nil
	}

	switch kind {
	case model.KindAge:
		for _, r := range Head(ds.Age, n) {
			rows = append(rows, []string{r.AgeGroup, r.Type, r.InjuryMechanism, formatEstimate(r.NumberEst), formatEstimate(r.RateEst)})
		}
	case model.KindYear:
		for _, r := range Head(ds.Year, n) {
			rows = append(rows, []string{r.InjuryMechanism, r.Type, strconv.Itoa(r.Year), formatEstimate(r.RateEst), formatEstimate(r.NumberEst)})
		}
	case model.KindMilitary:
		for _, r := range Head(ds.Military, n) {
			rows = append(rows, []string{r.Service, r.Component, r.Severity, formatEstimate(r.Diagnosed), strconv.Itoa(r.Year)})
		}
	}
	return headers, rows, nil
}

func formatEstimate(v *float64) string {
	if v == nil {
		return "NA"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Summarize describes every loaded table.
func Summarize(ds *model.Dataset) []model.TableSummary {
	out := make([]model.TableSummary, 0, len(model.Kinds))
	for _, k := range model.Kinds {
		s := model.TableSummary{
			Kind:     k,
			Rows:     ds.Rows(k),
			Columns:  source.Columns(k),
			Total:    TableTotal(ds, k),
			Distinct: make(map[string]int),
		}
		if ds == nil {
			out = append(out, s)
			continue
		}

		switch k {
		case model.KindAge:
			for _, r := range ds.Age {
				s.Missing += countNil(r.NumberEst, r.RateEst)
			}
			s.Distinct["age_group"] = distinct(ds.Age, func(r model.AgeRecord) string { return r.AgeGroup })
			s.Distinct["type"] = distinct(ds.Age, func(r model.AgeRecord) string { return r.Type })
			s.Distinct["injury_mechanism"] = distinct(ds.Age, func(r model.AgeRecord) string { return r.InjuryMechanism })
		case model.KindYear:
			for i, r := range ds.Year {
				s.Missing += countNil(r.NumberEst, r.RateEst)
				s.MinYear, s.MaxYear = yearSpan(i, r.Year, s.MinYear, s.MaxYear)
			}
			s.Distinct["type"] = distinct(ds.Year, func(r model.YearRecord) string { return r.Type })
			s.Distinct["injury_mechanism"] = distinct(ds.Year, func(r model.YearRecord) string { return r.InjuryMechanism })
		case model.KindMilitary:
			for i, r := range ds.Military {
				s.Missing += countNil(r.Diagnosed)
				s.MinYear, s.MaxYear = yearSpan(i, r.Year, s.MinYear, s.MaxYear)
			}
			s.Distinct["service"] = distinct(ds.Military, func(r model.MilitaryRecord) string { return r.Service })
			s.Distinct["component"] = distinct(ds.Military, func(r model.MilitaryRecord) string { return r.Component })
			s.Distinct["severity"] = distinct(ds.Military, func(r model.MilitaryRecord) string { return r.Severity })
		}
		out = append(out, s)
	}
	return out
}

func countNil(vals ...*float64) int {
	n := 0
	for _, v := range vals {
		if v == nil {
			n++
		}
	}
	return n
}

func yearSpan(i, year, lo, hi int) (int, int) {
	if i == 0 {
		return year, year
	}
	return min(lo, year), max(hi, year)
}

func distinct[T any](rows []T, key func(T) string) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[key(r)] = struct{}{}
	}
	return len(seen)
}

// Years returns the distinct years present in the yearly table, ascending.
func Years(rows []model.YearRecord) []int {
	seen := make(map[int]struct{})
	for _, r := range rows {
		seen[r.Year] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
