package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/engine"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/report"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"
)

func sample() report.Report {
	frames := []engine.FrameReport{
		{Index: 0, Points: 1200, Added: 40, Displayed: 40, Duration: time.Millisecond},
		{Index: 1, Points: 300, Dropped: 2, Added: 5, Removed: 3, Inspected: 16, Displayed: 42,
			Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	seeds := []sampler.Seed{
		{ID: 7, X: 10, Y: 20, Class: 0},
		{ID: 9, X: 30, Y: 40, Class: 1},
		{ID: 11, X: 50, Y: 60, Class: 4},
	}

	return report.New("sess", "points.csv", frames, seeds, []string{"cats", "dogs"})
}

func TestNew_LabelsSeeds(t *testing.T) {
	t.Parallel()

	r := sample()

	require.Len(t, r.Seeds, 3)
	assert.Equal(t, "cats", r.Seeds[0].Label)
	assert.Equal(t, "dogs", r.Seeds[1].Label)
	assert.Equal(t, "class 4", r.Seeds[2].Label)
}

func TestCodecs_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, codec := range []report.Codec{report.NewJSONCodec(), report.NewYAMLCodec()} {
		t.Run(codec.Extension(), func(t *testing.T) {
			t.Parallel()

			want := sample()

			var buf bytes.Buffer

			require.NoError(t, codec.Encode(&buf, want))

			var got report.Report

			require.NoError(t, codec.Decode(&buf, &got))

			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrite_Formats(t *testing.T) {
	t.Parallel()

	r := sample()

	tests := []struct {
		format string
		want   []string
	}{
		{report.FormatJSON, []string{`"session": "sess"`, `"label": "dogs"`}},
		{report.FormatYAML, []string{"session: sess", "label: dogs"}},
		{report.FormatTable, []string{"points.csv", "1,200", "2024-01-02", "+45", "-3", "2 frames"}},
		{report.FormatHTML, []string{"echarts", "seedpyramid points.csv", "cats"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			require.NoError(t, report.Write(&buf, tt.format, r, false))

			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestWriteTable_Colored(t *testing.T) {
	t.Parallel()

	var plain, colored bytes.Buffer

	require.NoError(t, report.WriteTable(&plain, sample(), false))
	require.NoError(t, report.WriteTable(&colored, sample(), true))

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[32m")
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := report.Write(&strings.Builder{}, "csv", sample(), false)
	require.ErrorIs(t, err, report.ErrUnknownFormat)
}
