package report

import (
	"fmt"
	"io"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const seedSymbolSize = 4

// WriteScatter writes an HTML page plotting the displayed seeds, one series
// per class. Screen y grows downward, so it is negated for the plot.
func WriteScatter(w io.Writer, r Report) error {
	scatter := charts.NewScatter()

	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "seedpyramid " + r.Dataset,
			Width:     "100%",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    r.Dataset,
			Subtitle: fmt.Sprintf("%d seeds after %d frames", len(r.Seeds), len(r.Frames)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y", Type: "value"}),
	)

	series := map[uint32][]opts.ScatterData{}
	names := map[uint32]string{}

	for _, s := range r.Seeds {
		series[s.Class] = append(series[s.Class], opts.ScatterData{
			Name:       fmt.Sprintf("%d", s.ID),
			Value:      []any{s.X, -s.Y},
			SymbolSize: seedSymbolSize,
		})
		names[s.Class] = s.Label
	}

	classes := make([]uint32, 0, len(series))
	for c := range series {
		classes = append(classes, c)
	}

	slices.Sort(classes)

	for _, c := range classes {
		scatter.AddSeries(names[c], series[c])
	}

	err := scatter.Render(w)
	if err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}

	return nil
}
