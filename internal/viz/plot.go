package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
)

// Plot draws data with asciigraph. Fewer than two points yield "".
func Plot(data []float64, caption string, width, height int) string {
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// EnergySeries returns the relative total-energy deviation of each frame from
// the first one.
func EnergySeries(frames []sim.Frame) []float64 {
	if len(frames) == 0 {
		return nil
	}
	ke, pe := physics.Energy(frames[0].Bodies)
	initial := ke + pe

	out := make([]float64, len(frames))
	for i, f := range frames {
		ke, pe := physics.Energy(f.Bodies)
		out[i] = relDrift(ke+pe, initial)
	}
	return out
}

// TickSeries returns the average tick duration in microseconds per perf window.
func TickSeries(rows []metrics.PerfStatsCSV) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = float64(r.AvgTickUS)
	}
	return out
}

func relDrift(e, initial float64) float64 {
	if initial == 0 {
		return 0
	}
	return math.Abs((e - initial) / initial)
}
