package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	def := DefaultConfig()
	if cfg.Server.Addr != def.Server.Addr || cfg.Charts.Format != "svg" || cfg.General.DataDir != "." {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tbidash", "config.toml")

	cfg := DefaultConfig()
	cfg.General.DataDir = "/srv/tbi"
	cfg.Charts.Format = "png"
	cfg.Military.Recruitment = map[string]int64{"Navy": 100}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.DataDir != "/srv/tbi" || got.Charts.Format != "png" {
		t.Errorf("got = %+v", got)
	}
	if got.Military.Recruitment["Navy"] != 100 {
		t.Errorf("recruitment = %v", got.Military.Recruitment)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[general]\ndata_dir = \"/from/file\"\n\n[server]\naddr = \":9000\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TBIDASH_DATA_DIR", "/from/env")
	t.Setenv("TBIDASH_RELOAD_INTERVAL_SEC", "30")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.General.DataDir != "/from/env" {
		t.Errorf("DataDir = %q, want /from/env", cfg.General.DataDir)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Server.Addr)
	}
	if got := cfg.Server.ReloadInterval(); got != 30*time.Second {
		t.Errorf("ReloadInterval = %v, want 30s", got)
	}
}

func TestLoadFrom_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Charts.Format = "gif"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for gif format")
	}

	cfg = DefaultConfig()
	cfg.Charts.Width = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero width")
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got, want := ConfigPath(), filepath.Join("/tmp/xdg", "tbidash", "config.toml"); got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestRecruitment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Military.Recruitment = map[string]int64{"Navy": 10, "Marines": 0, "Coast Guard": 5}

	got := Recruitment(cfg)
	if got["Navy"] != 10 || got["Coast Guard"] != 5 || got["Army"] != 4849638 {
		t.Errorf("Recruitment = %v", got)
	}
	if _, ok := got["Marines"]; ok {
		t.Error("zero override should remove Marines")
	}
	if DefaultRecruitment()["Navy"] != 3010086 {
		t.Error("overrides must not mutate defaults")
	}
}

func TestRecruitment_CaseInsensitiveKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Military.Recruitment = map[string]int64{"army": 0, "NAVY": 7, " air force ": 9}

	got := Recruitment(cfg)
	if _, ok := got["Army"]; ok {
		t.Errorf("army = 0 should remove Army: %v", got)
	}
	if _, ok := got["army"]; ok {
		t.Errorf("lowercase key leaked into %v", got)
	}
	if got["Navy"] != 7 || got["Air Force"] != 9 {
		t.Errorf("overrides not applied to canonical keys: %v", got)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3: %v", len(got), got)
	}
}

func TestGeneralFiles(t *testing.T) {
	g := GeneralConfig{AgeFile: "a.csv"}
	fs := g.Files()
	if fs.Age != "a.csv" || fs.Year != "" {
		t.Errorf("Files = %+v", fs)
	}
}
