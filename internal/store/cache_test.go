package store

import (
	"path/filepath"
	"testing"

	"github.com/theirongolddev/tbidash/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "tbidash.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_AgeRoundTripKeepsNulls(t *testing.T) {
	c := openTestCache(t)

	recs := []model.AgeRecord{
		{AgeGroup: "0-4", Type: "Deaths", InjuryMechanism: "Assault", NumberEst: model.Float(10), RateEst: model.Float(0.5)},
		{AgeGroup: "5-14", Type: "Deaths", InjuryMechanism: "Assault"},
	}
	fi := FileInfo{Path: "/data/tbi_age.csv", MtimeNs: 42, SizeBytes: 100, ParseErrors: 1}
	if err := c.SaveAge(fi, recs); err != nil {
		t.Fatalf("SaveAge: %v", err)
	}

	got, err := c.LoadAge()
	if err != nil {
		t.Fatalf("LoadAge: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if got[0].AgeGroup != "0-4" || got[0].NumberEst == nil || *got[0].NumberEst != 10 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].NumberEst != nil || got[1].RateEst != nil {
		t.Error("null estimates should load as nil")
	}

	tracked, err := c.GetTrackedFiles()
	if err != nil {
		t.Fatalf("GetTrackedFiles: %v", err)
	}
	if tracked[model.KindAge] != fi {
		t.Errorf("tracked = %+v, want %+v", tracked[model.KindAge], fi)
	}
}

func TestCache_SaveReplacesTable(t *testing.T) {
	c := openTestCache(t)

	first := []model.YearRecord{
		{InjuryMechanism: "Assault", Type: "Deaths", Year: 2006},
		{InjuryMechanism: "Assault", Type: "Deaths", Year: 2007},
	}
	if err := c.SaveYear(FileInfo{Path: "a", MtimeNs: 1}, first); err != nil {
		t.Fatal(err)
	}
	second := []model.YearRecord{{InjuryMechanism: "Falls", Type: "Deaths", Year: 2014, RateEst: model.Float(3)}}
	if err := c.SaveYear(FileInfo{Path: "a", MtimeNs: 2}, second); err != nil {
		t.Fatal(err)
	}

	n, err := c.RecordCount(model.KindYear)
	if err != nil || n != 1 {
		t.Fatalf("RecordCount = %d, %v; want 1", n, err)
	}
	got, _ := c.LoadYear()
	if got[0].Year != 2014 || *got[0].RateEst != 3 {
		t.Errorf("got %+v", got[0])
	}
	tracked, _ := c.GetTrackedFiles()
	if tracked[model.KindYear].MtimeNs != 2 {
		t.Errorf("tracker mtime = %d, want 2", tracked[model.KindYear].MtimeNs)
	}
}

func TestCache_MilitaryAndDelete(t *testing.T) {
	c := openTestCache(t)

	recs := []model.MilitaryRecord{{Service: "Army", Component: "Active", Severity: "Mild", Diagnosed: model.Float(1500), Year: 2010}}
	if err := c.SaveMilitary(FileInfo{Path: "m"}, recs); err != nil {
		t.Fatal(err)
	}
	got, err := c.LoadMilitary()
	if err != nil || len(got) != 1 || got[0].Service != "Army" {
		t.Fatalf("LoadMilitary = %+v, %v", got, err)
	}

	if err := c.DeleteTable(model.KindMilitary); err != nil {
		t.Fatalf("DeleteTable: %v", err)
	}
	if n, _ := c.RecordCount(model.KindMilitary); n != 0 {
		t.Errorf("RecordCount after delete = %d", n)
	}
	tracked, _ := c.GetTrackedFiles()
	if _, ok := tracked[model.KindMilitary]; ok {
		t.Error("tracker entry should be removed")
	}
}

func TestCache_UnknownKind(t *testing.T) {
	c := openTestCache(t)
	if _, err := c.RecordCount(model.Kind("weekly")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
