// Package storage persists headless simulation runs as a directory of
// metadata plus a CSV sample log.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/krinkin/pid-simulation/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Params    sim.Params         `json:"params"`
	Metrics   map[string]float64 `json:"metrics"`
}

var sampleHeader = []string{"time", "error", "output", "p", "i", "d", "position", "velocity"}

func (s *Store) Save(params sim.Params, cfg sim.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Dt:        cfg.Dt,
		Duration:  cfg.Duration,
		Params:    params,
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(sampleHeader); err != nil {
		return "", err
	}

	for _, sample := range result.Samples {
		row := []string{
			fmtFloat(sample.Time),
			fmtFloat(sample.Error),
			fmtFloat(sample.Output),
			fmtFloat(sample.P),
			fmtFloat(sample.I),
			fmtFloat(sample.D),
			fmtFloat(sample.Position),
			fmtFloat(sample.Velocity),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(sampleHeader) {
			return nil, fmt.Errorf("run %s: malformed sample row with %d fields", runID, len(record))
		}

		vals := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: %w", runID, err)
			}
			vals[i] = v
		}

		samples = append(samples, sim.Sample{
			Time:     vals[0],
			Error:    vals[1],
			Output:   vals[2],
			P:        vals[3],
			I:        vals[4],
			D:        vals[5],
			Position: vals[6],
			Velocity: vals[7],
		})
	}

	return samples, nil
}
