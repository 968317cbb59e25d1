package sim

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/engine"
	"github.com/san-kum/gravsim/internal/vecmath"
)

func randomSet(seed int64) (*body.Set, error) {
	rng := rand.New(rand.NewSource(seed))
	set := body.NewSet()
	for i := 0; i < 20; i++ {
		set.Add(body.Body{
			Mass:     1 + rng.Float64()*99,
			Position: vecmath.Vec{X: rng.Float64() * 100, Y: rng.Float64() * 100, Z: rng.Float64() * 100},
		})
	}
	return set, nil
}

func TestEnsembleRun(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.Mode = engine.ModeBarnesHut
	ens := NewEnsemble(opts, "symplectic", 4, 100).WithParallelism(2)

	results, err := ens.Run(context.Background(), randomSet, Config{DT: 1, Steps: 5, RecordEvery: 5})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	for i, r := range results {
		if r.StepsTaken != 5 {
			t.Errorf("run %d took %d steps", i, r.StepsTaken)
		}
		if _, ok := r.Metrics["energy_drift"]; !ok {
			t.Errorf("run %d missing default metrics", i)
		}
	}

	// seeds differ, so initial frames differ
	a := results[0].Frames[0].Bodies[0].Position
	b := results[1].Frames[0].Bodies[0].Position
	if a == b {
		t.Error("ensemble members share an initial state")
	}

	again, err := ens.Run(context.Background(), randomSet, Config{DT: 1, Steps: 5, RecordEvery: 5})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if again[2].Final().Bodies[7] != results[2].Final().Bodies[7] {
		t.Error("same seed should reproduce the same run")
	}
}

func TestEnsembleFailure(t *testing.T) {
	boom := errors.New("boom")
	gen := func(seed int64) (*body.Set, error) {
		if seed == 3 {
			return nil, boom
		}
		return randomSet(seed)
	}

	_, err := NewEnsemble(engine.DefaultOptions(), "symplectic", 5, 0).Run(context.Background(), gen, Config{DT: 1, Steps: 2})
	if !errors.Is(err, boom) {
		t.Errorf("expected generator error, got %v", err)
	}

	_, err = NewEnsemble(engine.DefaultOptions(), "rk99", 1, 0).Run(context.Background(), randomSet, Config{DT: 1, Steps: 2})
	if err == nil {
		t.Error("expected unknown integrator error")
	}
}
