package engine

import (
	"fmt"
	"strings"

	"github.com/san-kum/gravsim/internal/barneshut"
)

// Mode selects the force solver.
type Mode int

const (
	// ModeAuto uses brute force up to GPUThreshold bodies and the parallel
	// kernel above it.
	ModeAuto Mode = iota
	ModeCPU
	ModeGPU
	ModeBarnesHut
)

var modeNames = map[Mode]string{
	ModeAuto:      "auto",
	ModeCPU:       "cpu",
	ModeGPU:       "gpu",
	ModeBarnesHut: "gpu-bh",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a mode name to a Mode. Matching ignores case; "barnes-hut"
// is accepted for gpu-bh.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "cpu":
		return ModeCPU, nil
	case "gpu":
		return ModeGPU, nil
	case "gpu-bh", "barnes-hut":
		return ModeBarnesHut, nil
	}
	return ModeAuto, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ModeNames lists the canonical mode names.
func ModeNames() []string {
	return []string{"auto", "cpu", "gpu", "gpu-bh"}
}

// DefaultGPUThreshold is the body count above which auto mode switches to
// the parallel kernel.
const DefaultGPUThreshold = 200

// Options configures an Engine. Zero GPUThreshold, MaxDepth and Workers take
// their defaults; a zero Theta means exact tree evaluation.
type Options struct {
	Mode         Mode
	Theta        float64
	GPUThreshold int
	MaxDepth     int
	Workers      int
}

func DefaultOptions() Options {
	return Options{
		Mode:         ModeAuto,
		Theta:        barneshut.DefaultTheta,
		GPUThreshold: DefaultGPUThreshold,
		MaxDepth:     barneshut.DefaultMaxDepth,
	}
}

func (o Options) withDefaults() (Options, error) {
	if _, ok := modeNames[o.Mode]; !ok {
		return o, fmt.Errorf("%w: %d", ErrUnknownMode, int(o.Mode))
	}
	if !barneshut.ValidTheta(o.Theta) {
		return o, fmt.Errorf("%w: %v", ErrInvalidTheta, o.Theta)
	}
	if o.GPUThreshold < 0 {
		return o, fmt.Errorf("%w: %d", ErrInvalidThreshold, o.GPUThreshold)
	}
	if o.GPUThreshold == 0 {
		o.GPUThreshold = DefaultGPUThreshold
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = barneshut.DefaultMaxDepth
	}
	if o.MaxDepth < 1 || o.MaxDepth > barneshut.MaxDepthLimit {
		return o, fmt.Errorf("%w: %d", barneshut.ErrInvalidDepth, o.MaxDepth)
	}
	return o, nil
}
