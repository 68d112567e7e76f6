package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(Te *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Check(); err != nil {
		Te.Errorf("default settings fail the check: %v", err)
	}
	if cfg.Reduction.Method != "tica" || cfg.Model.NStates != DefaultNStates {
		Te.Error("unexpected defaults")
	}
}

func TestLoadOverridesDefaults(Te *testing.T) {
	y := []byte(`
topology: tau.pdb
trajs: [run1.dcd, run2.dcd.zst]
attempt: 3
model:
  nstates: 50
  lag: 20
  nsets: 3
`)
	path := filepath.Join(Te.TempDir(), "kinet.yaml")
	if err := os.WriteFile(path, y, 0644); err != nil {
		Te.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		Te.Fatal(err)
	}
	if cfg.Topology != "tau.pdb" || len(cfg.Trajs) != 2 {
		Te.Error("inputs not read from the file")
	}
	if cfg.Model.NStates != 50 || cfg.Model.Lag != 20 || cfg.Model.NSets != 3 {
		Te.Error("model settings not read from the file")
	}
	//untouched fields keep the defaults
	if cfg.Temp != DefaultTemp || cfg.Reduction.Method != "tica" {
		Te.Error("defaults lost on load")
	}
}

func TestLoadRejectsBadSettings(Te *testing.T) {
	y := []byte("reduction:\n  method: pca\n")
	path := filepath.Join(Te.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, y, 0644); err != nil {
		Te.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		Te.Error("expected an error for an unknown reduction method")
	}
}

func TestSaveLoadRoundTrip(Te *testing.T) {
	cfg := DefaultConfig()
	cfg.Topology = "x.pdb"
	path := filepath.Join(Te.TempDir(), "rt.yaml")
	if err := Save(path, cfg); err != nil {
		Te.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		Te.Fatal(err)
	}
	if back.Topology != "x.pdb" || back.Model.Lag != cfg.Model.Lag {
		Te.Error("round trip lost settings")
	}
}
