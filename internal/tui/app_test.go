package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/model"
	"github.com/theirongolddev/tbidash/internal/pipeline"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func testDataset() *model.Dataset {
	return &model.Dataset{
		Age: []model.AgeRecord{
			{AgeGroup: "0-17", Type: "Emergency Department Visit", InjuryMechanism: "Unintentional Falls", NumberEst: model.Float(397190), RateEst: model.Float(540.2)},
			{AgeGroup: "0-17", Type: "Deaths", InjuryMechanism: "Assault", NumberEst: model.Float(100), RateEst: model.Float(0.1)},
			{AgeGroup: "75+", Type: "Emergency Department Visit", InjuryMechanism: "Unintentional Falls", NumberEst: model.Float(600), RateEst: model.Float(100)},
			{AgeGroup: "75+", Type: "Deaths", InjuryMechanism: "Unintentional Falls", NumberEst: nil, RateEst: model.Float(60)},
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

// loadedApp returns an App that has received its window size and dataset.
func loadedApp(t *testing.T) App {
	t.Helper()
	a := NewApp(Options{Config: config.DefaultConfig()})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 200})
	m, _ = m.(App).Update(DataLoadedMsg{Dataset: testDataset()})
	return m.(App)
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	var m tea.Model = a
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.(App).Update(msg)
	}
	return m.(App)
}

func TestViewRendersEveryTab(t *testing.T) {
	a := loadedApp(t)
	want := map[int][]string{
		tabIntroduction: {"Civilian TBIs (2014)", "Rows Loaded"},
		tabExplore:      {"Civilian Data", "age_group", "Unintentional Falls"},
		tabAgeGroups:    {"Proportions of TBI Types Across Age Groups", "0-17", "Deaths"},
		tabMechanisms:   {"Distribution of TBI Rates by Injury Mechanism", "Median"},
		tabTrends:       {"Estimated TBIs per Year", "Proportions of TBI Types Across Years"},
		tabMilitary:     {"Diagnosed TBIs by Service", "Army", "Navy", "Mild"},
		tabConclusions:  {"Key Findings", "Future Work"},
	}
	for tab, fragments := range want {
		a.activeTab = tab
		out := a.View()
		for _, f := range fragments {
			if !strings.Contains(out, f) {
				t.Errorf("tab %d view missing %q", tab, f)
			}
		}
	}
}

func TestViewStates(t *testing.T) {
	a := NewApp(Options{Config: config.DefaultConfig()})
	if got := a.View(); got != "" {
		t.Errorf("view before size = %q, want empty", got)
	}

	m, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if out := m.(App).View(); !strings.Contains(out, "Terminal too narrow") {
		t.Errorf("narrow view = %q", out)
	}

	m, _ = m.(App).Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	if out := m.(App).View(); !strings.Contains(out, "tbidash") {
		t.Errorf("loading view missing logo: %q", out)
	}

	m, _ = m.(App).Update(DataLoadedMsg{Err: errors.New("tbi_age.csv: file does not exist")})
	if out := m.(App).View(); !strings.Contains(out, "Could not load data") {
		t.Errorf("error view missing message")
	}
}

func TestTabKeys(t *testing.T) {
	a := loadedApp(t)

	tests := []struct {
		keys []string
		want int
	}{
		{[]string{"y"}, tabMilitary},
		{[]string{"m"}, tabMechanisms},
		{[]string{"c", "tab"}, tabIntroduction},
		{[]string{"i", "left"}, tabConclusions},
		{[]string{"e", "d"}, tabExplore}, // d is an Explore key there
	}
	for _, tt := range tests {
		got := press(t, a, tt.keys...).activeTab
		if got != tt.want {
			t.Errorf("keys %v -> tab %d, want %d", tt.keys, got, tt.want)
		}
	}
}

func TestYearFilterCycles(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, "]")
	if a.filter.Year != 2006 {
		t.Fatalf("year = %d, want 2006", a.filter.Year)
	}
	if got := len(a.view.Year); got != 2 {
		t.Errorf("filtered year rows = %d, want 2", got)
	}

	a = press(t, a, "]", "]")
	if a.filter.Year != 0 {
		t.Errorf("year after wrap = %d, want 0", a.filter.Year)
	}
	a = press(t, a, "[")
	if a.filter.Year != 2014 {
		t.Errorf("year after [ = %d, want 2014", a.filter.Year)
	}
	a = press(t, a, "0")
	if a.filter.Year != 0 || len(a.view.Year) != 3 {
		t.Errorf("clear filter: year=%d rows=%d", a.filter.Year, len(a.view.Year))
	}
}

func TestZeroKeyKeepsTypeFilter(t *testing.T) {
	a := NewApp(Options{Config: config.DefaultConfig(), Filter: pipeline.Filter{Type: "Deaths", Service: "Army"}})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 200})
	m, _ = m.(App).Update(DataLoadedMsg{Dataset: testDataset()})
	a = press(t, m.(App), "]")
	if a.filter.Year == 0 {
		t.Fatal("] did not select a year")
	}

	a = press(t, a, "0")
	if a.filter.Year != 0 {
		t.Errorf("year = %d, want 0", a.filter.Year)
	}
	if a.filter.Type != "Deaths" || a.filter.Service != "Army" {
		t.Errorf("filter = %+v, want type and service kept", a.filter)
	}
	if got := len(a.view.Year); got != 1 {
		t.Errorf("year rows = %d, want the 1 Deaths row", got)
	}
}

func TestHelpToggle(t *testing.T) {
	a := press(t, loadedApp(t), "?")
	if !a.showHelp || !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("? did not open help")
	}
	a = press(t, a, "x")
	if a.showHelp {
		t.Error("any key should close help")
	}
}

func TestExploreState(t *testing.T) {
	ds := testDataset()
	e := newExploreState()
	if e.kind() != model.KindAge {
		t.Fatalf("initial kind = %s", e.kind())
	}

	e.rows = 2
	for range 5 {
		e.handleKey("j", ds)
	}
	if e.offset != 2 {
		t.Errorf("offset = %d, want 2 (4 rows, window 2)", e.offset)
	}

	e.handleKey("d", ds)
	if e.kind() != model.KindMilitary || e.offset != 0 {
		t.Errorf("after d: kind=%s offset=%d", e.kind(), e.offset)
	}
	e.handleKey("D", ds)
	e.handleKey("D", ds)
	if e.kind() != model.KindYear {
		t.Errorf("after D D: kind=%s, want year", e.kind())
	}

	e.rows = maxExploreRows
	e.handleKey("+", ds)
	if e.rows != maxExploreRows {
		t.Errorf("rows = %d, want cap %d", e.rows, maxExploreRows)
	}
	e.rows = 1
	e.handleKey("-", ds)
	if e.rows != 1 {
		t.Errorf("rows = %d, want floor 1", e.rows)
	}
	if e.handleKey("z", ds) {
		t.Error("z should not be handled")
	}
}
