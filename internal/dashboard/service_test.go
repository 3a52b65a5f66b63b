package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/narrative"
	"github.com/theirongolddev/tbidash/internal/pipeline"
	"github.com/theirongolddev/tbidash/internal/source"
)

func testDataset() *model.Dataset {
	return &model.Dataset{
		Age: []model.AgeRecord{
			{AgeGroup: "0-17", Type: "Emergency Department Visit", InjuryMechanism: "Unintentional Falls", NumberEst: model.Float(397190), RateEst: model.Float(540.2)},
			{AgeGroup: "0-17", Type: "Deaths", InjuryMechanism: "Assault", NumberEst: model.Float(100), RateEst: model.Float(0.1)},
			{AgeGroup: "75+", Type: "Emergency Department Visit", InjuryMechanism: "Unintentional Falls", NumberEst: model.Float(600), RateEst: model.Float(100)},
			{AgeGroup: "75+", Type: "Deaths", InjuryMechanism: "Unintentional Falls", NumberEst: model.Float(400), RateEst: model.Float(60)},
		},
		Year: []model.YearRecord{
			{InjuryMechanism: "Unintentional Falls", Type: "Emergency Department Visit", Year: 2006, RateEst: model.Float(200), NumberEst: model.Float(600000)},
			{InjuryMechanism: "Assault", Type: "Deaths", Year: 2006, RateEst: model.Float(1), NumberEst: model.Float(3000)},
			{InjuryMechanism: "Unintentional Falls", Type: "Emergency Department Visit", Year: 2014, RateEst: model.Float(300), NumberEst: model.Float(900000)},
		},
		Military: []model.MilitaryRecord{
			{Service: "Army", Component: "Active", Severity: "Mild", Diagnosed: model.Float(10000), Year: 2006},
			{Service: "Navy", Component: "Active", Severity: "Moderate", Diagnosed: model.Float(3000), Year: 2007},
		},
		Tables: map[model.Kind]model.TableInfo{},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(Config{
		DataDir:      t.TempDir(),
		EventsBuffer: 10,
		Recruitment:  map[string]int64{"Army": 4849638, "Navy": 3010086},
	}, testDataset(), nil)
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{AgeRows: 10, YearRows: 20, MilitaryRows: 5, ParseErrors: 1, DiagnosedTotal: 100.5}
	curr := Snapshot{AgeRows: 12, YearRows: 20, MilitaryRows: 7, ParseErrors: 0, DiagnosedTotal: 103.1}

	delta := diffSnapshots(prev, curr)
	if delta.AgeRows != 2 {
		t.Fatalf("AgeRows delta = %d, want 2", delta.AgeRows)
	}
	if delta.YearRows != 0 {
		t.Fatalf("YearRows delta = %d, want 0", delta.YearRows)
	}
	if delta.MilitaryRows != 2 {
		t.Fatalf("MilitaryRows delta = %d, want 2", delta.MilitaryRows)
	}
	if delta.ParseErrors != -1 {
		t.Fatalf("ParseErrors delta = %d, want -1", delta.ParseErrors)
	}
	if math.Abs(delta.DiagnosedTotal-2.6) > 1e-9 {
		t.Fatalf("DiagnosedTotal delta = %.2f, want 2.60", delta.DiagnosedTotal)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{DataDir: ".", Interval: 10 * time.Second, EventsBuffer: 2}, testDataset(), nil)

	s.publishEvent(Event{ID: 100})
	s.publishEvent(Event{ID: 101})
	s.publishEvent(Event{ID: 102})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 101 || s.events[1].ID != 102 {
		t.Fatalf("events ring contains IDs [%d, %d], want [101, 102]", s.events[0].ID, s.events[1].ID)
	}
}

func TestNewPublishesInitialSnapshot(t *testing.T) {
	s := newTestService(t)
	st := s.snapshotStatus()
	if st.EventCount != 1 {
		t.Fatalf("EventCount = %d, want 1", st.EventCount)
	}
	if st.Summary.AgeRows != 4 || st.Summary.YearRows != 3 || st.Summary.MilitaryRows != 2 {
		t.Fatalf("Summary rows = %+v", st.Summary)
	}
	if st.Summary.DiagnosedTotal != 13000 {
		t.Fatalf("DiagnosedTotal = %v, want 13000", st.Summary.DiagnosedTotal)
	}
}

func TestReloadSwapsDataset(t *testing.T) {
	s := newTestService(t)
	next := testDataset()
	next.Military = next.Military[:1]
	s.load = func(context.Context) (*model.Dataset, []source.DiscoveredFile, error) {
		return next, nil, nil
	}

	s.reload(context.Background())

	if s.Dataset() != next {
		t.Fatal("dataset was not swapped")
	}
	s.mu.RLock()
	last := s.events[len(s.events)-1]
	s.mu.RUnlock()
	if last.Type != EventReloaded {
		t.Fatalf("last event type = %q, want %q", last.Type, EventReloaded)
	}
	if last.Delta.MilitaryRows != -1 {
		t.Fatalf("MilitaryRows delta = %d, want -1", last.Delta.MilitaryRows)
	}
}

func TestReloadFailureKeepsDataset(t *testing.T) {
	s := newTestService(t)
	orig := s.Dataset()
	s.load = func(context.Context) (*model.Dataset, []source.DiscoveredFile, error) {
		return nil, nil, errors.New("boom")
	}

	s.reload(context.Background())
	s.reload(context.Background())

	if s.Dataset() != orig {
		t.Fatal("dataset replaced after failed reload")
	}
	st := s.snapshotStatus()
	if st.LastError != "boom" {
		t.Fatalf("LastError = %q, want boom", st.LastError)
	}
	// Repeated failures publish a single event.
	if st.EventCount != 2 {
		t.Fatalf("EventCount = %d, want 2", st.EventCount)
	}
}

func TestPollOnceReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"tbi_age.csv", "tbi_year.csv", "tbi_military.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	s := New(Config{DataDir: dir}, testDataset(), nil)
	calls := 0
	s.load = func(context.Context) (*model.Dataset, []source.DiscoveredFile, error) {
		calls++
		files, err := source.ScanDir(dir, source.DefaultFileSet())
		return testDataset(), files, err
	}

	s.pollOnce(context.Background())
	s.pollOnce(context.Background())

	if calls != 1 {
		t.Fatalf("load calls = %d, want 1", calls)
	}
	if st := s.snapshotStatus(); st.PollCount != 2 || st.ReloadCount != 1 {
		t.Fatalf("PollCount = %d ReloadCount = %d, want 2 and 1", st.PollCount, st.ReloadCount)
	}
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestService(t).Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "ok" {
		t.Fatalf("body = %q, want ok", rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	rec := get(t, newTestService(t).Handler(), "/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Summary.AgeRows != 4 {
		t.Fatalf("AgeRows = %d, want 4", st.Summary.AgeRows)
	}
}

func TestPages(t *testing.T) {
	h := newTestService(t).Handler()
	tests := []struct {
		target string
		want   string
	}{
		{"/", narrative.Title},
		{"/explore", "Civilian Data"},
		{"/explore?dataset=military&rows=2", "Military Data"},
		{"/visualizations", "/charts/age-types"},
		{"/visualizations?year=2014", "/charts/age-types?year=2014"},
		{"/conclusions", "Future Work"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, h, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Fatalf("body missing %q", tt.want)
			}
		})
	}
}

func TestErrorStatuses(t *testing.T) {
	h := newTestService(t).Handler()
	tests := []struct {
		target string
		want   int
	}{
		{"/charts/nope", http.StatusNotFound},
		{"/charts/age-types?format=gif", http.StatusBadRequest},
		{"/charts/age-types?year=abc", http.StatusBadRequest},
		{"/explore?dataset=nope", http.StatusNotFound},
		{"/explore?rows=0", http.StatusBadRequest},
		{"/api/datasets/nope", http.StatusNotFound},
		{"/api/datasets/year?limit=-1", http.StatusBadRequest},
		{"/api/totals/age", http.StatusBadRequest},
		{"/api/totals/age?by=year", http.StatusBadRequest},
		{"/api/totals/nope?by=type", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if rec := get(t, h, tt.target); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestTotalsAPI_ListsColumns(t *testing.T) {
	h := newTestService(t).Handler()
	for _, target := range []string{"/api/totals/military", "/api/totals/military?by=age_group"} {
		rec := get(t, h, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "service, component, severity, year") {
			t.Errorf("%s: body = %q, want accepted columns", target, rec.Body.String())
		}
	}
}

func TestChartSVG(t *testing.T) {
	rec := get(t, newTestService(t).Handler(), "/charts/age-types")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Fatal("body is not an svg document")
	}
}

func TestDatasetAPIFilter(t *testing.T) {
	rec := get(t, newTestService(t).Handler(), "/api/datasets/year?year=2006&limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp datasetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	if resp.Returned != 1 || len(resp.Year) != 1 {
		t.Fatalf("Returned = %d len = %d, want 1", resp.Returned, len(resp.Year))
	}
	if resp.Year[0].Year != 2006 {
		t.Fatalf("Year = %d, want 2006", resp.Year[0].Year)
	}
}

func TestTotalsAPI(t *testing.T) {
	rec := get(t, newTestService(t).Handler(), "/api/totals/military?by=service")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp totalsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Totals) != 2 {
		t.Fatalf("totals = %+v, want 2 services", resp.Totals)
	}
	if resp.Totals[0].Category != "Army" || resp.Totals[0].Total != 10000 {
		t.Fatalf("first total = %+v, want Army 10000", resp.Totals[0])
	}
}

func TestFilterQueryRoundTrip(t *testing.T) {
	f, err := parseFilter(map[string][]string{"year": {"2014"}, "service": {"Army"}}, pipeline.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if got := filterQuery(f, pipeline.Filter{}); got != "service=Army&year=2014" {
		t.Fatalf("filterQuery = %q", got)
	}

	base := pipeline.Filter{Year: 2006, Type: "Deaths"}
	cleared, err := parseFilter(map[string][]string{"year": {""}}, base)
	if err != nil {
		t.Fatal(err)
	}
	if cleared.Year != 0 || cleared.Type != "Deaths" {
		t.Fatalf("cleared = %+v, want year cleared and type kept", cleared)
	}
	if got := filterQuery(cleared, base); got != "year=" {
		t.Fatalf("filterQuery relative to base = %q, want %q", got, "year=")
	}
}

func TestDefaultFilter(t *testing.T) {
	svc := New(Config{DataDir: t.TempDir(), Filter: pipeline.Filter{Year: 2014}}, testDataset(), nil)
	h := svc.Handler()

	decode := func(target string) totalsResponse {
		t.Helper()
		rec := get(t, h, target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d: %s", target, rec.Code, rec.Body.String())
		}
		var resp totalsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		return resp
	}

	if resp := decode("/api/totals/year?by=year"); len(resp.Totals) != 1 || resp.Totals[0].Category != "2014" {
		t.Errorf("default filter totals = %+v, want only 2014", resp.Totals)
	}
	if resp := decode("/api/totals/year?by=year&year=2006"); len(resp.Totals) != 1 || resp.Totals[0].Category != "2006" {
		t.Errorf("explicit year totals = %+v, want only 2006", resp.Totals)
	}
	if resp := decode("/api/totals/year?by=year&year="); len(resp.Totals) != 2 {
		t.Errorf("cleared year totals = %+v, want both years", resp.Totals)
	}
}
