package storage

import (
	"encoding/json"
	"io"
	"os"

	"mechdiff/internal/sim"
)

type ExportData struct {
	Integrator  string             `json:"integrator"`
	Preset      string             `json:"preset,omitempty"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Steps       int                `json:"steps"`
	EnergyDrift float64            `json:"energy_drift"`
	Times       []float64          `json:"times"`
	States      [][]float64        `json:"states"`
	Metrics     map[string]float64 `json:"metrics"`
}

func exportData(integrator, preset string, dt, duration float64, result *sim.Result) ExportData {
	data := ExportData{
		Integrator:  integrator,
		Preset:      preset,
		Dt:          dt,
		Duration:    duration,
		Steps:       len(result.Times),
		EnergyDrift: result.EnergyDrift,
		Times:       result.Times,
		States:      make([][]float64, len(result.States)),
		Metrics:     result.Metrics,
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	return data
}

// ExportJSON writes a full run, trajectory included, as indented JSON.
func ExportJSON(path string, integrator, preset string, dt, duration float64, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeJSON(file, exportData(integrator, preset, dt, duration, result))
}

func ExportJSONStdout(integrator, preset string, dt, duration float64, result *sim.Result) error {
	return writeJSON(os.Stdout, exportData(integrator, preset, dt, duration, result))
}

func writeJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
