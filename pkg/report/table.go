package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteTable writes one row per frame followed by totals.
func WriteTable(w io.Writer, r Report, colored bool) error {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	if colored {
		added.EnableColor()
		removed.EnableColor()
	} else {
		added.DisableColor()
		removed.DisableColor()
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.SetTitle("%s  session %s", r.Dataset, r.Session)
	tbl.AppendHeader(table.Row{"Frame", "Date", "Points", "Dropped", "Added", "Removed", "Inspected", "Evicted", "Displayed", "Time"})

	var points, dropped, plus, minus int64

	var elapsed time.Duration

	for _, f := range r.Frames {
		date := ""
		if !f.Date.IsZero() {
			date = f.Date.Format(time.DateOnly)
		}

		tbl.AppendRow(table.Row{
			f.Index,
			date,
			humanize.Comma(int64(f.Points)),
			humanize.Comma(int64(f.Dropped)),
			added.Sprintf("+%d", f.Added),
			removed.Sprintf("-%d", f.Removed),
			humanize.Comma(int64(f.Inspected)),
			f.Evicted,
			humanize.Comma(int64(f.Displayed)),
			f.Duration.Round(time.Microsecond),
		})

		points += int64(f.Points)
		dropped += int64(f.Dropped)
		plus += int64(f.Added)
		minus += int64(f.Removed)
		elapsed += f.Duration
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("%d frames", len(r.Frames)),
		"",
		humanize.Comma(points),
		humanize.Comma(dropped),
		added.Sprintf("+%d", plus),
		removed.Sprintf("-%d", minus),
		"",
		"",
		humanize.Comma(int64(len(r.Seeds))),
		elapsed.Round(time.Microsecond),
	})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}
