package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pidtune/internal/control"
	"github.com/san-kum/pidtune/internal/optim"
	"github.com/san-kum/pidtune/internal/sim"
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
	ID               string             `json:"id"`
	Kind             string             `json:"kind"`
	Timestamp        time.Time          `json:"timestamp"`
	Seed             int64              `json:"seed"`
	Dt               float64            `json:"dt"`
	Duration         float64            `json:"duration"`
	Optimizer        string             `json:"optimizer,omitempty"`
	Gains            control.Gains      `json:"gains"`
	Fitness          float64            `json:"fitness"`
	Evals            int                `json:"evals,omitempty"`
	ElapsedSeconds   float64            `json:"elapsed_seconds,omitempty"`
	Tolerance        float64            `json:"tolerance"`
	SettlingTime     float64            `json:"settling_time"`
	Settled          bool               `json:"settled"`
	Overshoot        float64            `json:"overshoot"`
	SteadyStateError float64            `json:"steady_state_error"`
	Metrics          map[string]float64 `json:"metrics,omitempty"`
	History          []optim.GenStat    `json:"history,omitempty"`
}

// Save writes one run directory: metadata.json plus trajectory.csv.
// The run ID and timestamp are filled in here. JSON cannot carry
// non-finite numbers, so an infinite fitness is stored as MaxFloat64
// and non-finite metric values are dropped.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if meta.Kind == "" {
		meta.Kind = "run"
	}
	meta.ID = fmt.Sprintf("%s_%d", meta.Kind, time.Now().UnixMilli())
	meta.Timestamp = time.Now()

	if math.IsInf(meta.Fitness, 0) || math.IsNaN(meta.Fitness) {
		meta.Fitness = math.MaxFloat64
	}
	if len(meta.Metrics) > 0 {
		clean := make(map[string]float64, len(meta.Metrics))
		for name, v := range meta.Metrics {
			if !math.IsInf(v, 0) && !math.IsNaN(v) {
				clean[name] = v
			}
		}
		meta.Metrics = clean
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
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

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, result); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// WriteCSV writes the aligned sample columns of a run, including the
// per-step gain trace.
func WriteCSV(out io.Writer, result *sim.Result) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write([]string{"time", "setpoint", "pv", "control", "kp", "ki", "kd"}); err != nil {
		return err
	}

	for i := range result.Times {
		var g control.Gains
		if i < len(result.GainTrace) {
			g = result.GainTrace[i]
		}
		row := []string{
			strconv.FormatFloat(result.Times[i], 'f', 6, 64),
			strconv.FormatFloat(result.Setpoints[i], 'f', 6, 64),
			strconv.FormatFloat(result.Trajectory[i], 'f', 6, 64),
			strconv.FormatFloat(result.Controls[i], 'f', 6, 64),
			strconv.FormatFloat(g.Kp, 'f', 6, 64),
			strconv.FormatFloat(g.Ki, 'f', 6, 64),
			strconv.FormatFloat(g.Kd, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

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

// LoadResult reads back the trajectory columns written by Save.
func (s *Store) LoadResult(runID string) (*sim.Result, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	result := &sim.Result{Metrics: make(map[string]float64)}
	if len(records) < 2 {
		return result, nil
	}

	for _, record := range records[1:] {
		if len(record) < 7 {
			continue
		}

		vals := make([]float64, 7)
		ok := true
		for i := 0; i < 7; i++ {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		result.Times = append(result.Times, vals[0])
		result.Setpoints = append(result.Setpoints, vals[1])
		result.Trajectory = append(result.Trajectory, vals[2])
		result.Controls = append(result.Controls, vals[3])
		result.GainTrace = append(result.GainTrace, control.Gains{Kp: vals[4], Ki: vals[5], Kd: vals[6]})
	}

	return result, nil
}
