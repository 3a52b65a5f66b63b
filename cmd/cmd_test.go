package cmd

import (
	"testing"
	"time"

	"github.com/theirongolddev/tbidash/internal/charts"
	"github.com/theirongolddev/tbidash/internal/config"
	"github.com/theirongolddev/tbidash/internal/model"
)

func TestDashboardConfig_FlagsOverrideConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Charts.Format = "png"

	flagServeAddr, flagServeInterval = "", 0
	dc, err := dashboardConfig(cfg, "/data")
	if err != nil {
		t.Fatalf("dashboardConfig: %v", err)
	}
	if dc.Addr != cfg.Server.Addr || dc.Interval != 5*time.Second {
		t.Errorf("defaults: addr=%q interval=%s", dc.Addr, dc.Interval)
	}
	if dc.Chart.Format != charts.FormatPNG || dc.DataDir != "/data" {
		t.Errorf("chart format = %q, data dir = %q", dc.Chart.Format, dc.DataDir)
	}
	if dc.Recruitment["Army"] == 0 {
		t.Error("default recruitment missing")
	}

	flagServeAddr, flagServeInterval = "127.0.0.1:9000", time.Minute
	defer func() { flagServeAddr, flagServeInterval = "", 0 }()
	dc, err = dashboardConfig(cfg, "/data")
	if err != nil {
		t.Fatalf("dashboardConfig: %v", err)
	}
	if dc.Addr != "127.0.0.1:9000" || dc.Interval != time.Minute {
		t.Errorf("overrides: addr=%q interval=%s", dc.Addr, dc.Interval)
	}
}

func TestDashboardConfig_DefaultFilter(t *testing.T) {
	defer func() { flagYear, flagType = 0, "" }()
	flagYear, flagType = 2012, "Deaths"

	dc, err := dashboardConfig(config.DefaultConfig(), "/data")
	if err != nil {
		t.Fatalf("dashboardConfig: %v", err)
	}
	if dc.Filter.Year != 2012 || dc.Filter.Type != "Deaths" {
		t.Errorf("Filter = %+v, want year 2012 type Deaths", dc.Filter)
	}
}

func TestDashboardConfig_BadFormat(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Charts.Format = "gif"
	if _, err := dashboardConfig(cfg, "."); err == nil {
		t.Fatal("expected error for gif format")
	}
}

func TestFilterLabel(t *testing.T) {
	defer func() { flagYear, flagType = 0, "" }()

	flagYear, flagType = 0, ""
	if got := filterLabel(); got != "" {
		t.Errorf("no filters: got %q", got)
	}
	flagYear, flagType = 2010, "Deaths"
	if got, want := filterLabel(), "  2010  Deaths"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if f := currentFilter(); f.Year != 2010 || f.Type != "Deaths" {
		t.Errorf("currentFilter = %+v", f)
	}
}

func TestDistinctSummary(t *testing.T) {
	got := distinctSummary(map[string]int{"severity": 5, "service": 3})
	if want := "service 3, severity 5"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestYearTrend(t *testing.T) {
	n := func(v float64) *float64 { return &v }
	ds := &model.Dataset{Year: []model.YearRecord{
		{Year: 2008, NumberEst: n(30)},
		{Year: 2006, NumberEst: n(10)},
		{Year: 2007, NumberEst: n(0)},
	}}
	if got, want := yearTrend(ds, model.KindYear), "▃▁█"; got != want {
		t.Errorf("yearTrend = %q, want %q", got, want)
	}
	ds.Year = ds.Year[:1]
	if got := yearTrend(ds, model.KindYear); got != "" {
		t.Errorf("single year trend = %q, want empty", got)
	}
}
