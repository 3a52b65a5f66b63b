package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/tbidash/internal/charts"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/narrative"
	"github.com/theirongolddev/tbidash/internal/pipeline"
)

const (
	defaultPreviewRows = 5
	maxPreviewRows     = 100
)

// pageData is shared by every page template.
type pageData struct {
	Title      string
	Heading    string
	Sections   []narrative.Section
	Section    string
	RowsLoaded int
	LoadedAt   string
}

type introductionPage struct {
	pageData
	Tagline []string
	Intro   []string
}

type datasetOption struct {
	Kind model.Kind
	Name string
}

type explorePage struct {
	pageData
	Datasets     []datasetOption
	Selected     model.Kind
	SelectedName string
	Limit        int
	MaxRows      int
	RowCount     int
	Headers      []string
	Rows         [][]string
}

type chartView struct {
	Name   string
	Title  string
	URL    string
	Legend []charts.LegendEntry
	Notes  []narrative.Note
}

type visualizationsPage struct {
	pageData
	Years  []int
	Filter pipeline.Filter
	Charts []chartView
}

type conclusionsPage struct {
	pageData
	Findings []narrative.Point
	Future   []string
}

func (s *Service) basePage(section, heading string) pageData {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	return pageData{
		Title:      narrative.Title,
		Heading:    heading,
		Sections:   narrative.Sections,
		Section:    section,
		RowsLoaded: snap.AgeRows + snap.YearRows + snap.MilitaryRows,
		LoadedAt:   snap.At.Format(time.DateTime),
	}
}

func (s *Service) handleIntroduction(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, r, "introduction", introductionPage{
		pageData: s.basePage("introduction", narrative.Title),
		Tagline:  narrative.Tagline,
		Intro:    narrative.Introduction,
	})
}

func (s *Service) handleExplore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := model.KindAge
	if v := q.Get("dataset"); v != "" {
		kind = model.Kind(v)
		if !kind.Valid() {
			http.Error(w, fmt.Sprintf("unknown dataset %q", v), http.StatusNotFound)
			return
		}
	}

	limit, err := intParam(q, "rows", defaultPreviewRows)
	if err != nil || limit < 1 || limit > maxPreviewRows {
		http.Error(w, fmt.Sprintf("rows must be between 1 and %d", maxPreviewRows), http.StatusBadRequest)
		return
	}

	ds := s.Dataset()
	headers, rows, err := pipeline.Preview(ds, kind, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	options := make([]datasetOption, len(model.Kinds))
	for i, k := range model.Kinds {
		options[i] = datasetOption{Kind: k, Name: k.DisplayName()}
	}

	s.pages.render(w, r, "explore", explorePage{
		pageData:     s.basePage("explore", narrative.Title),
		Datasets:     options,
		Selected:     kind,
		SelectedName: kind.DisplayName(),
		Limit:        limit,
		MaxRows:      maxPreviewRows,
		RowCount:     ds.Rows(kind),
		Headers:      headers,
		Rows:         rows,
	})
}

func (s *Service) handleVisualizations(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query(), s.cfg.Filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ds := s.Dataset()
	in := charts.Input{Dataset: pipeline.FilterDataset(ds, f), Recruitment: s.cfg.Recruitment}

	query := filterQuery(f, s.cfg.Filter)
	var views []chartView
	for _, c := range charts.Catalog() {
		u := "/charts/" + c.Name
		if query != "" {
			u += "?" + query
		}
		views = append(views, chartView{
			Name:   c.Name,
			Title:  c.Title,
			URL:    u,
			Legend: c.Legend(in),
			Notes:  narrative.NotesFor(c.Name),
		})
	}

	var years []int
	if ds != nil {
		years = pipeline.Years(ds.Year)
	}

	s.pages.render(w, r, "visualizations", visualizationsPage{
		pageData: s.basePage("visualizations", narrative.Title),
		Years:    years,
		Filter:   f,
		Charts:   views,
	})
}

func (s *Service) handleConclusions(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, r, "conclusions", conclusionsPage{
		pageData: s.basePage("conclusions", narrative.Title),
		Findings: narrative.KeyFindings,
		Future:   narrative.FutureWork,
	})
}

func (s *Service) handleChart(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	c, ok := charts.Lookup(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown chart %q", name), http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	f, err := parseFilter(q, s.cfg.Filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := s.cfg.Chart
	if v := q.Get("format"); v != "" {
		format, err := charts.ParseFormat(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opts.Format = format
	}
	if opts.Format == "" {
		opts.Format = charts.FormatSVG
	}

	in := charts.Input{
		Dataset:     pipeline.FilterDataset(s.Dataset(), f),
		Recruitment: s.cfg.Recruitment,
	}

	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf, in, opts); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, charts.ErrNoData) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", opts.Format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

// datasetResponse is served at /api/datasets/{kind}.
type datasetResponse struct {
	Kind     model.Kind             `json:"kind"`
	Total    int                    `json:"total"`
	Returned int                    `json:"returned"`
	Age      []model.AgeRecord      `json:"age,omitempty"`
	Year     []model.YearRecord     `json:"year,omitempty"`
	Military []model.MilitaryRecord `json:"military,omitempty"`
}

func (s *Service) handleDatasetAPI(w http.ResponseWriter, r *http.Request) {
	kind := model.Kind(r.PathValue("kind"))
	if !kind.Valid() {
		http.Error(w, fmt.Sprintf("unknown dataset %q", kind), http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	f, err := parseFilter(q, s.cfg.Filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit, err := intParam(q, "limit", 0)
	if err != nil || limit < 0 {
		http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return
	}

	ds := pipeline.FilterDataset(s.Dataset(), f)
	resp := datasetResponse{Kind: kind, Total: ds.Rows(kind)}
	if ds != nil {
		switch kind {
		case model.KindAge:
			resp.Age = capRows(ds.Age, limit)
			resp.Returned = len(resp.Age)
		case model.KindYear:
			resp.Year = capRows(ds.Year, limit)
			resp.Returned = len(resp.Year)
		case model.KindMilitary:
			resp.Military = capRows(ds.Military, limit)
			resp.Returned = len(resp.Military)
		}
	}
	writeJSON(w, resp)
}

// totalsResponse is served at /api/totals/{kind}.
type totalsResponse struct {
	Kind   model.Kind            `json:"kind"`
	By     string                `json:"by"`
	Totals []model.CategoryTotal `json:"totals"`
}

func (s *Service) handleTotalsAPI(w http.ResponseWriter, r *http.Request) {
	kind := model.Kind(r.PathValue("kind"))
	if !kind.Valid() {
		http.Error(w, fmt.Sprintf("unknown dataset %q", kind), http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	by := q.Get("by")
	if by == "" {
		http.Error(w, "missing by parameter; want one of "+strings.Join(pipeline.GroupColumns(kind), ", "),
			http.StatusBadRequest)
		return
	}
	f, err := parseFilter(q, s.cfg.Filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	totals, err := pipeline.TotalsBy(pipeline.FilterDataset(s.Dataset(), f), kind, by)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrUnknownColumn) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, totalsResponse{Kind: kind, By: by, Totals: totals})
}

// parseFilter reads the row filters shared by pages, charts and the API.
// Parameters absent from q keep their value from base; a present but empty
// parameter clears it.
func parseFilter(q url.Values, base pipeline.Filter) (pipeline.Filter, error) {
	f := base
	if q.Has("year") {
		f.Year = 0
		if v := q.Get("year"); v != "" {
			year, err := strconv.Atoi(v)
			if err != nil || year < 0 {
				return f, fmt.Errorf("invalid year %q", v)
			}
			f.Year = year
		}
	}
	for name, dst := range map[string]*string{
		"type":      &f.Type,
		"mechanism": &f.Mechanism,
		"age_group": &f.AgeGroup,
		"service":   &f.Service,
		"severity":  &f.Severity,
		"component": &f.Component,
	} {
		if q.Has(name) {
			*dst = q.Get(name)
		}
	}
	return f, nil
}

// filterQuery encodes the fields of f that differ from base, so links keep
// a cleared default cleared.
func filterQuery(f, base pipeline.Filter) string {
	q := url.Values{}
	switch {
	case f.Year == base.Year:
	case f.Year == 0:
		q.Set("year", "")
	default:
		q.Set("year", strconv.Itoa(f.Year))
	}
	for key, v := range map[string][2]string{
		"type":      {f.Type, base.Type},
		"mechanism": {f.Mechanism, base.Mechanism},
		"age_group": {f.AgeGroup, base.AgeGroup},
		"service":   {f.Service, base.Service},
		"severity":  {f.Severity, base.Severity},
		"component": {f.Component, base.Component},
	} {
		if v[0] != v[1] {
			q.Set(key, v[0])
		}
	}
	return q.Encode()
}

func intParam(q url.Values, key string, def int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// capRows returns at most limit rows; limit 0 means all.
func capRows[T any](rows []T, limit int) []T {
	if limit == 0 {
		return rows
	}
	return pipeline.Head(rows, limit)
}
