package charts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/theirongolddev/tbidash/internal/charts")

// ErrUnknownChart is returned when a chart name is not in the catalog.
var ErrUnknownChart = errors.New("unknown chart")

// Input is the data a catalog chart is drawn from.
type Input struct {
	Dataset     *model.Dataset
	Recruitment map[string]int64
}

// Chart describes one dashboard visualization.
type Chart struct {
	Name   string
	Title  string
	render func(w io.Writer, in Input, opts Options) error
	legend func(in Input) []LegendEntry
}

// Chart names.
const (
	AgeTypes        = "age-types"
	MechanismRates  = "mechanism-rates"
	YearTypes       = "year-types"
	ServiceShare    = "service-share"
	DiagnosedByYear = "diagnosed-scatter"
)

var catalog = []Chart{
	{
		Name:  AgeTypes,
		Title: "Proportions of TBI Types Across Age Groups",
		render: func(w io.Writer, in Input, opts Options) error {
			return StackedProportions(w, "Proportions of TBI Types Across Age Groups", pipeline.AgeTypeProportions(in.Dataset.Age), opts)
		},
		legend: func(in Input) []LegendEntry {
			return Legend(pipeline.AgeTypeProportions(in.Dataset.Age).Columns, SchemeDiverging)
		},
	},
	{
		Name:  MechanismRates,
		Title: "Distribution of TBI Rates by Injury Mechanism",
		render: func(w io.Writer, in Input, opts Options) error {
			return DistributionBoxes(w, "Distribution of TBI Rates by Injury Mechanism", pipeline.MechanismRateDistributions(in.Dataset.Age), opts)
		},
		legend: func(in Input) []LegendEntry {
			dists := pipeline.MechanismRateDistributions(in.Dataset.Age)
			cats := make([]string, len(dists))
			for i, d := range dists {
				cats[i] = d.Category
			}
			return Legend(cats, SchemeDiverging)
		},
	},
	{
		Name:  YearTypes,
		Title: "Proportions of TBI Types Over Time",
		render: func(w io.Writer, in Input, opts Options) error {
			return StackedProportions(w, "Proportions of TBI Types Over Time", pipeline.YearTypeProportions(in.Dataset.Year), opts)
		},
		legend: func(in Input) []LegendEntry {
			return Legend(pipeline.YearTypeProportions(in.Dataset.Year).Columns, SchemeDiverging)
		},
	},
	{
		Name:  ServiceShare,
		Title: "Normalized Diagnosed Injuries by Service Branch",
		render: func(w io.Writer, in Input, opts Options) error {
			return ServicePie(w, serviceTitle(in.Dataset), pipeline.ServiceNormalized(in.Dataset.Military, in.Recruitment), opts)
		},
		legend: func(in Input) []LegendEntry {
			var names []string
			for _, s := range pipeline.ServiceNormalized(in.Dataset.Military, in.Recruitment) {
				if s.Recruited > 0 && s.PerThousand > 0 {
					names = append(names, s.Service)
				}
			}
			return Legend(names, SchemePastel)
		},
	},
	{
		Name:  DiagnosedByYear,
		Title: "Correlation Between Diagnosed Cases and Year (By Severity and Service)",
		render: func(w io.Writer, in Input, opts Options) error {
			return DiagnosedScatter(w, "Correlation Between Diagnosed Cases and Year (By Severity and Service)", pipeline.DiagnosedScatter(in.Dataset.Military), opts)
		},
		legend: func(in Input) []LegendEntry {
			severities, _ := ScatterCategories(pipeline.DiagnosedScatter(in.Dataset.Military))
			return Legend(severities, SchemeQualitative)
		},
	},
}

// serviceTitle appends the year span of the military table.
func serviceTitle(ds *model.Dataset) string {
	const base = "Normalized Diagnosed Injuries by Service Branch"
	for _, s := range pipeline.Summarize(ds) {
		if s.Kind == model.KindMilitary && s.Rows > 0 {
			return fmt.Sprintf("%s (%d-%d)", base, s.MinYear, s.MaxYear)
		}
	}
	return base
}

// Catalog returns the visualizations in dashboard order.
func Catalog() []Chart {
	return append([]Chart(nil), catalog...)
}

// Lookup finds a chart by name.
func Lookup(name string) (Chart, bool) {
	for _, c := range catalog {
		if c.Name == name {
			return c, true
		}
	}
	return Chart{}, false
}

// Render draws the named chart to w.
func Render(ctx context.Context, name string, w io.Writer, in Input, opts Options) error {
	c, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	return c.Render(ctx, w, in, opts)
}

// Render draws c to w.
func (c Chart) Render(ctx context.Context, w io.Writer, in Input, opts Options) error {
	_, span := tracer.Start(ctx, "charts.Render")
	defer span.End()
	span.SetAttributes(
		attribute.String("tbidash.chart", c.Name),
		attribute.String("tbidash.format", string(opts.normalized().Format)),
	)

	if in.Dataset == nil {
		return ErrNoData
	}
	if err := c.render(w, in, opts); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("rendering %s: %w", c.Name, err)
	}
	return nil
}

// Legend returns the color key for c.
func (c Chart) Legend(in Input) []LegendEntry {
	if in.Dataset == nil {
		return nil
	}
	return c.legend(in)
}
