package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	body := "cycle:\n  top_targets: 3\n  harvest_fraction: 0.5\nmarket:\n  enabled: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tune, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tune.Cycle.TopTargets != 3 || tune.Cycle.HarvestFraction != 0.5 {
		t.Fatalf("overrides not applied: %+v", tune.Cycle)
	}
	if !tune.Market.Enabled {
		t.Fatal("market.enabled override not applied")
	}
	// Untouched keys stay at defaults.
	if tune.Cycle.MinWaitMs != 1000 || tune.Cycle.ResourceFraction != 0.9 {
		t.Fatalf("defaults clobbered: %+v", tune.Cycle)
	}
	if tune.Purchase.CostEscalator != 1.06 {
		t.Fatalf("purchase defaults clobbered: %+v", tune.Purchase)
	}
}

func TestLoad_MissingFileReturnsDefaultsAndError(t *testing.T) {
	tune, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("want os.IsNotExist error, got %v", err)
	}
	if tune.Cycle.TopTargets != Defaults().Cycle.TopTargets {
		t.Fatalf("missing file must still return defaults: %+v", tune)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("cycle: [not a map"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("want parse error")
	}
}
