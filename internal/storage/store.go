package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vecmath"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	perfFile     = "perf.csv"
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
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Mode        string             `json:"mode"`
	Solver      string             `json:"solver"`
	Integrator  string             `json:"integrator"`
	Theta       float64            `json:"theta"`
	Seed        int64              `json:"seed"`
	DT          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	StepsTaken  int                `json:"steps_taken"`
	RecordEvery int                `json:"record_every"`
	Bodies      int                `json:"bodies"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

// StateRow is one body at one recorded tick in states.csv.
type StateRow struct {
	Tick int     `csv:"tick"`
	Time float64 `csv:"time"`
	ID   int     `csv:"id"`
	Name string  `csv:"name"`
	Mass float64 `csv:"mass"`
	X    float64 `csv:"x"`
	Y    float64 `csv:"y"`
	Z    float64 `csv:"z"`
	VX   float64 `csv:"vx"`
	VY   float64 `csv:"vy"`
	VZ   float64 `csv:"vz"`
}

// Save writes a run directory holding metadata.json, states.csv and
// perf.csv. ID, Timestamp and the result-derived fields of meta are filled
// in here.
func (s *Store) Save(meta RunMetadata, result *sim.Result, perf []metrics.PerfStatsCSV) (string, error) {
	meta.Timestamp = time.Now()
	runID, runDir, err := s.newRunDir(meta.Name, meta.Timestamp)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Solver = result.Solver
	meta.StepsTaken = result.StepsTaken
	meta.EnergyDrift = result.EnergyDrift
	meta.Metrics = result.Metrics
	if len(result.Frames) > 0 {
		meta.Bodies = len(result.Frames[0].Bodies)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	rows := make([]*StateRow, 0)
	for _, f := range result.Frames {
		for _, b := range f.Bodies {
			rows = append(rows, &StateRow{
				Tick: f.Tick, Time: f.Time, ID: b.ID, Name: b.Name, Mass: b.Mass,
				X: b.Position.X, Y: b.Position.Y, Z: b.Position.Z,
				VX: b.Velocity.X, VY: b.Velocity.Y, VZ: b.Velocity.Z,
			})
		}
	}
	if err := writeCSV(filepath.Join(runDir, statesFile), &rows); err != nil {
		return "", err
	}

	perfRows := make([]*metrics.PerfStatsCSV, len(perf))
	for i := range perf {
		perfRows[i] = &perf[i]
	}
	if err := writeCSV(filepath.Join(runDir, perfFile), &perfRows); err != nil {
		return "", err
	}

	return runID, nil
}

func (s *Store) newRunDir(name string, ts time.Time) (string, string, error) {
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%s", name, ts.Format("20060102-150405"))
	runID := base
	for i := 2; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.Marshal(rows, f); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// List returns the metadata of every run, newest first. Directories without
// readable metadata are skipped.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames reads states.csv back into frames, one per recorded tick.
func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	var rows []*StateRow
	if err := readCSV(filepath.Join(s.baseDir, runID, statesFile), &rows); err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for _, r := range rows {
		if len(frames) == 0 || frames[len(frames)-1].Tick != r.Tick {
			frames = append(frames, sim.Frame{Tick: r.Tick, Time: r.Time})
		}
		f := &frames[len(frames)-1]
		f.Bodies = append(f.Bodies, body.Body{
			ID:       r.ID,
			Name:     r.Name,
			Mass:     r.Mass,
			Position: vecmath.Vec{X: r.X, Y: r.Y, Z: r.Z},
			Velocity: vecmath.Vec{X: r.VX, Y: r.VY, Z: r.VZ},
		})
	}
	return frames, nil
}

func (s *Store) LoadPerf(runID string) ([]metrics.PerfStatsCSV, error) {
	var rows []*metrics.PerfStatsCSV
	if err := readCSV(filepath.Join(s.baseDir, runID, perfFile), &rows); err != nil {
		return nil, err
	}
	out := make([]metrics.PerfStatsCSV, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out, nil
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gocsv.Unmarshal(f, out); err != nil && !errors.Is(err, gocsv.ErrEmptyCSVFile) {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}
