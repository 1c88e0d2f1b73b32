// Package report renders the outcome of a run as JSON, YAML, a terminal
// table or an HTML scatter plot.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/engine"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
	FormatHTML  = "html"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("report: unknown format")

// SeedRecord is a displayed seed with its class label.
type SeedRecord struct {
	ID    uint64  `json:"id"    yaml:"id"`
	X     float64 `json:"x"     yaml:"x"`
	Y     float64 `json:"y"     yaml:"y"`
	Class uint32  `json:"class" yaml:"class"`
	Label string  `json:"label" yaml:"label"`
}

// Report is the outcome of one run.
type Report struct {
	Session string               `json:"session" yaml:"session"`
	Dataset string               `json:"dataset" yaml:"dataset"`
	Frames  []engine.FrameReport `json:"frames"  yaml:"frames"`
	Seeds   []SeedRecord         `json:"seeds"   yaml:"seeds"`
}

// New assembles a report. labels maps class IDs to names; classes without a
// label are reported by number.
func New(session, dataset string, frames []engine.FrameReport, seeds []sampler.Seed, labels []string) Report {
	records := make([]SeedRecord, 0, len(seeds))

	for _, s := range seeds {
		label := fmt.Sprintf("class %d", s.Class)
		if int(s.Class) < len(labels) {
			label = labels[s.Class]
		}

		records = append(records, SeedRecord{ID: s.ID, X: s.X, Y: s.Y, Class: s.Class, Label: label})
	}

	return Report{Session: session, Dataset: dataset, Frames: frames, Seeds: records}
}

// Write renders r in the given format.
func Write(w io.Writer, format string, r Report, colored bool) error {
	switch format {
	case FormatJSON:
		return NewJSONCodec().Encode(w, r)
	case FormatYAML:
		return NewYAMLCodec().Encode(w, r)
	case FormatTable:
		return WriteTable(w, r, colored)
	case FormatHTML:
		return WriteScatter(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
