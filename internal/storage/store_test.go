package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vecmath"
)

func testResult() *sim.Result {
	frame := func(tick int, x float64) sim.Frame {
		return sim.Frame{Tick: tick, Time: float64(tick) * 0.5, Bodies: []body.Body{
			{ID: 1, Name: "a", Mass: 5.972e24, Position: vecmath.Vec{X: x}, Velocity: vecmath.Vec{Y: 0.1}},
			{ID: 3, Name: "b, with comma", Mass: 2, Position: vecmath.Vec{Y: -1.25, Z: 1e-9}},
		}}
	}
	return &sim.Result{
		Frames:      []sim.Frame{frame(0, 0), frame(10, 1.0/3)},
		Times:       []float64{0, 5},
		Metrics:     map[string]float64{"energy_drift": 1.5e-7},
		EnergyDrift: 2e-7,
		StepsTaken:  10,
		Solver:      "brute-force",
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	perf := []metrics.PerfStatsCSV{{Tick: 4, AvgTickUS: 120, EvaluatePct: 80}}
	runID, err := st.Save(RunMetadata{Name: "test", Mode: "cpu", Seed: 42, DT: 0.5, Steps: 10}, testResult(), perf)
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
	if meta.Name != "test" || meta.Seed != 42 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Solver != "brute-force" || meta.StepsTaken != 10 || meta.Bodies != 2 {
		t.Errorf("result fields not recorded: %+v", meta)
	}
	if meta.Metrics["energy_drift"] != 1.5e-7 {
		t.Errorf("expected energy_drift 1.5e-7, got %g", meta.Metrics["energy_drift"])
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	want := testResult().Frames
	if len(frames) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(frames))
	}
	for i := range want {
		if frames[i].Tick != want[i].Tick || frames[i].Time != want[i].Time {
			t.Errorf("frame %d header mismatch: %+v", i, frames[i])
		}
		for j := range want[i].Bodies {
			if frames[i].Bodies[j] != want[i].Bodies[j] {
				t.Errorf("frame %d body %d: got %+v, want %+v", i, j, frames[i].Bodies[j], want[i].Bodies[j])
			}
		}
	}

	gotPerf, err := st.LoadPerf(runID)
	if err != nil {
		t.Fatalf("load perf failed: %v", err)
	}
	if len(gotPerf) != 1 || gotPerf[0] != perf[0] {
		t.Errorf("perf round trip: got %+v", gotPerf)
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

	ids := make(map[string]bool)
	for i := 0; i < 2; i++ {
		id, err := st.Save(RunMetadata{Name: "test"}, testResult(), nil)
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		ids[id] = true
	}
	if len(ids) != 2 {
		t.Error("runs saved in the same second should get distinct ids")
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Name: "empty"}, &sim.Result{Metrics: map[string]float64{}}, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "states.csv", "perf.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("expected no frames, got %d", len(frames))
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	res := testResult()
	if err := WriteJSON(&buf, RunMetadata{ID: "x"}, res.Frames); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Meta.ID != "x" || len(data.Frames) != 2 || len(data.Frames[1].Bodies) != 2 {
		t.Errorf("unexpected export %+v", data)
	}
	if data.Frames[1].Bodies[0].Position[0] != 1.0/3 {
		t.Errorf("position lost precision: %v", data.Frames[1].Bodies[0].Position)
	}
}
