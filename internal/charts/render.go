// Package charts renders the dashboard visualizations as SVG or PNG.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/theirongolddev/tbidash/internal/model"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Sentinel errors returned by renderers.
var (
	ErrUnknownFormat = errors.New("unknown chart format")
	ErrNoData        = errors.New("no data to chart")
)

// Format is an output image format.
type Format string

// Supported formats.
const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates a format name. Empty means SVG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() (chart.RendererProvider, error) {
	switch f {
	case FormatSVG, "":
		return chart.SVG, nil
	case FormatPNG:
		return chart.PNG, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// Options sizes a rendered chart.
type Options struct {
	Width  int
	Height int
	Format Format
}

// DefaultOptions returns a 1024x600 SVG.
func DefaultOptions() Options {
	return Options{Width: 1024, Height: 600, Format: FormatSVG}
}

func (o Options) normalized() Options {
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
	return o
}

func padding() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}}
}

// StackedProportions draws one 100% stacked bar per group of pt.
func StackedProportions(w io.Writer, title string, pt model.ProportionTable, opts Options) error {
	opts = opts.normalized()
	rp, err := opts.Format.provider()
	if err != nil {
		return err
	}

	colors := Palette(pt.Columns, SchemeDiverging)
	var bars []chart.StackedBar
	for i, g := range pt.Groups {
		if pt.Totals[i] <= 0 {
			continue
		}
		values := make([]chart.Value, 0, len(pt.Columns))
		for j, c := range pt.Columns {
			if pt.Values[i][j] <= 0 {
				continue
			}
			values = append(values, chart.Value{
				Label: c,
				Value: pt.Values[i][j],
				Style: chart.Style{FillColor: colors[c], StrokeColor: outline, StrokeWidth: 1},
			})
		}
		bars = append(bars, chart.StackedBar{Name: g, Values: values})
	}
	if len(bars) == 0 {
		return ErrNoData
	}

	spacing := 10
	barWidth := (opts.Width-80)/len(bars) - spacing
	barWidth = max(barWidth, 8)
	for i := range bars {
		bars[i].Width = barWidth
	}

	sbc := chart.StackedBarChart{
		Title:      title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: padding(),
		BarSpacing: spacing,
		Bars:       bars,
	}
	return sbc.Render(rp, w)
}

// DistributionBoxes draws a box plot per distribution: a whisker from min to
// max, a box from Q1 to Q3 and a tick at the median.
func DistributionBoxes(w io.Writer, title string, dists []model.Distribution, opts Options) error {
	opts = opts.normalized()
	rp, err := opts.Format.provider()
	if err != nil {
		return err
	}

	var (
		series []chart.Series
		ticks  []chart.Tick
		top    float64
	)
	cats := make([]string, len(dists))
	for i, d := range dists {
		cats[i] = d.Category
	}
	colors := Palette(cats, SchemeDiverging)

	boxWidth := math.Max(4, float64(opts.Width-120)/float64(max(len(dists), 1))*0.5)
	for i, d := range dists {
		if d.Count == 0 {
			continue
		}
		x := float64(i + 1)
		top = math.Max(top, d.Max)
		ticks = append(ticks, chart.Tick{Value: x, Label: shorten(d.Category, 28)})
		series = append(series,
			chart.ContinuousSeries{
				Name:    d.Category + " range",
				XValues: []float64{x, x},
				YValues: []float64{d.Min, d.Max},
				Style:   chart.Style{StrokeColor: outline, StrokeWidth: 1.5},
			},
			chart.ContinuousSeries{
				Name:    d.Category + " IQR",
				XValues: []float64{x, x},
				YValues: []float64{d.Q1, d.Q3},
				Style:   chart.Style{StrokeColor: colors[d.Category], StrokeWidth: boxWidth},
			},
			chart.ContinuousSeries{
				Name:    d.Category + " median",
				XValues: []float64{x - 0.25, x + 0.25},
				YValues: []float64{d.Median, d.Median},
				Style:   chart.Style{StrokeColor: drawing.ColorBlack, StrokeWidth: 2},
			},
		)
	}
	if len(series) == 0 {
		return ErrNoData
	}
	if top <= 0 {
		top = 1
	}

	ch := chart.Chart{
		Title:      title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 120}},
		XAxis: chart.XAxis{
			Name:      "Injury Mechanism",
			Ticks:     ticks,
			Range:     &chart.ContinuousRange{Min: 0.5, Max: float64(len(dists)) + 0.5},
			TickStyle: chart.Style{TextRotationDegrees: 45},
		},
		YAxis: chart.YAxis{
			Name:  "Rate per 100,000",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.05},
		},
		Series: series,
	}
	return ch.Render(rp, w)
}

// ServicePie draws each service's share of diagnosed cases per 1,000 recruits.
// Services without a recruitment figure are left out.
func ServicePie(w io.Writer, title string, stats []model.ServiceStats, opts Options) error {
	opts = opts.normalized()
	rp, err := opts.Format.provider()
	if err != nil {
		return err
	}

	var names []string
	for _, s := range stats {
		if s.Recruited > 0 && s.PerThousand > 0 {
			names = append(names, s.Service)
		}
	}
	if len(names) == 0 {
		return ErrNoData
	}
	colors := Palette(names, SchemePastel)

	values := make([]chart.Value, 0, len(names))
	for _, s := range stats {
		if s.Recruited <= 0 || s.PerThousand <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", s.Service, s.SharePercent),
			Value: s.PerThousand,
			Style: chart.Style{FillColor: colors[s.Service], StrokeColor: drawing.ColorFromHex("a9a9a9"), StrokeWidth: 2},
		})
	}

	pie := chart.PieChart{
		Title:      title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: padding(),
		Values:     values,
	}
	return pie.Render(rp, w)
}

// Marker sizes distinguish services in the scatter.
var serviceDotWidth = []float64{6, 4.5, 7.5, 3.5, 5.5, 8.5}

// DiagnosedScatter plots diagnosed cases by year. Color encodes severity and
// marker size encodes service.
func DiagnosedScatter(w io.Writer, title string, pts []model.ScatterPoint, opts Options) error {
	opts = opts.normalized()
	rp, err := opts.Format.provider()
	if err != nil {
		return err
	}
	if len(pts) == 0 {
		return ErrNoData
	}

	severities, services := ScatterCategories(pts)
	sevColors := Palette(severities, SchemeQualitative)
	svcIndex := make(map[string]int, len(services))
	for i, s := range services {
		svcIndex[s] = i
	}

	type key struct{ severity, service string }
	grouped := make(map[key]*chart.ContinuousSeries)
	var order []key
	minYear, maxYear := pts[0].Year, pts[0].Year
	var top float64
	for _, p := range pts {
		k := key{p.Severity, p.Service}
		s, ok := grouped[k]
		if !ok {
			c := sevColors[p.Severity]
			s = &chart.ContinuousSeries{
				Name: p.Severity + " / " + p.Service,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    serviceDotWidth[svcIndex[p.Service]%len(serviceDotWidth)],
					DotColor:    c.WithAlpha(204),
				},
			}
			grouped[k] = s
			order = append(order, k)
		}
		s.XValues = append(s.XValues, float64(p.Year))
		s.YValues = append(s.YValues, p.Diagnosed)
		minYear = min(minYear, p.Year)
		maxYear = max(maxYear, p.Year)
		top = math.Max(top, p.Diagnosed)
	}
	if top <= 0 {
		top = 1
	}

	series := make([]chart.Series, 0, len(order))
	for _, k := range order {
		series = append(series, *grouped[k])
	}

	var ticks []chart.Tick
	for y := minYear; y <= maxYear; y++ {
		ticks = append(ticks, chart.Tick{Value: float64(y), Label: strconv.Itoa(y)})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: padding(),
		XAxis: chart.XAxis{
			Name:  "Year",
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: float64(minYear) - 0.5, Max: float64(maxYear) + 0.5},
		},
		YAxis: chart.YAxis{
			Name:  "Number of Diagnosed Cases",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.05},
		},
		Series: series,
	}
	return ch.Render(rp, w)
}

// ScatterCategories returns the distinct severities and services in
// first-appearance order.
func ScatterCategories(pts []model.ScatterPoint) (severities, services []string) {
	seenSev := make(map[string]bool)
	seenSvc := make(map[string]bool)
	for _, p := range pts {
		if !seenSev[p.Severity] {
			seenSev[p.Severity] = true
			severities = append(severities, p.Severity)
		}
		if !seenSvc[p.Service] {
			seenSvc[p.Service] = true
			services = append(services, p.Service)
		}
	}
	return severities, services
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
