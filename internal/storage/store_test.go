package storage

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"mechdiff/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		States: []sim.State{
			{1.0, 0.5, 0.0, 0.0},
			{0.9, 0.4, -0.1, -0.2},
		},
		Times:       []float64{0.0, 0.01},
		Metrics:     map[string]float64{"energy_drift": 1.5e-9},
		EnergyDrift: 1.5e-9,
		StepsTaken:  2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(0.01, 1.0, "rk4", "gentle", sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Integrator != "rk4" {
		t.Errorf("expected integrator 'rk4', got '%s'", meta.Integrator)
	}
	if meta.Preset != "gentle" {
		t.Errorf("expected preset 'gentle', got '%s'", meta.Preset)
	}
	if meta.Metrics["energy_drift"] != 1.5e-9 {
		t.Errorf("expected drift metric 1.5e-9, got %g", meta.Metrics["energy_drift"])
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 2 || len(times) != 2 {
		t.Fatalf("expected 2 samples, got %d states, %d times", len(states), len(times))
	}
	// Full-precision round trip.
	if math.Abs(states[1][2]-(-0.1)) > 1e-15 {
		t.Errorf("state not preserved: got %v", states[1])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(0.01, 1.0, "rk4", "", sampleResult()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(0.01, 1.0, "rk4", "", sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "states.csv")); os.IsNotExist(err) {
		t.Error("states.csv not created")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")

	if err := ExportJSON(path, "rk4", "chaos", 0.01, 1.0, sampleResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if data.Steps != 2 {
		t.Errorf("expected 2 steps, got %d", data.Steps)
	}
	if data.Preset != "chaos" {
		t.Errorf("expected preset 'chaos', got '%s'", data.Preset)
	}
	if len(data.States) != 2 || len(data.States[0]) != 4 {
		t.Errorf("unexpected trajectory shape: %v", data.States)
	}
}
