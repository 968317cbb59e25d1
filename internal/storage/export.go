package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/gravsim/internal/sim"
)

type ExportBody struct {
	ID       int        `json:"id"`
	Name     string     `json:"name,omitempty"`
	Mass     float64    `json:"mass"`
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

type ExportFrame struct {
	Tick   int          `json:"tick"`
	Time   float64      `json:"time"`
	Bodies []ExportBody `json:"bodies"`
}

type ExportData struct {
	Meta   RunMetadata   `json:"meta"`
	Frames []ExportFrame `json:"frames"`
}

func newExportData(meta RunMetadata, frames []sim.Frame) ExportData {
	data := ExportData{Meta: meta, Frames: make([]ExportFrame, len(frames))}
	for i, f := range frames {
		ef := ExportFrame{Tick: f.Tick, Time: f.Time, Bodies: make([]ExportBody, len(f.Bodies))}
		for j, b := range f.Bodies {
			ef.Bodies[j] = ExportBody{
				ID:       b.ID,
				Name:     b.Name,
				Mass:     b.Mass,
				Position: [3]float64{b.Position.X, b.Position.Y, b.Position.Z},
				Velocity: [3]float64{b.Velocity.X, b.Velocity.Y, b.Velocity.Z},
			}
		}
		data.Frames[i] = ef
	}
	return data
}

// ExportJSON writes a run's metadata and frames as one JSON document.
func ExportJSON(path string, meta RunMetadata, frames []sim.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, frames)
}

func WriteJSON(w io.Writer, meta RunMetadata, frames []sim.Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, frames))
}
