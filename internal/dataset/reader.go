// Package dataset reads scatterplot CSV files in frame-sized chunks and
// scales them onto the sampler's canvas.
//
// Plain rows are "x,y,label". Dated rows, used for streaming, are
// "yyyy-MM-dd,x,y,label". A leading UTF-8 byte order mark is skipped.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/safeconv"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/window"
)

// DateLayout is the date format of dated rows.
const DateLayout = "2006-01-02"

const bom = "\ufeff"

// Sentinel errors.
var (
	ErrMalformedRow = errors.New("dataset: malformed row")
	ErrChunkSize    = errors.New("dataset: chunk size must be positive")
	ErrTimeStep     = errors.New("dataset: time step must be at least one day")
)

// Record is one parsed row.
type Record struct {
	// ID is the zero-based ordinal of the row in the file.
	ID    uint64
	X, Y  float64
	Class uint32
	Date  time.Time
}

// ReaderOptions configures chunking.
type ReaderOptions struct {
	// Dated selects the "date,x,y,label" layout and splits chunks by day.
	Dated bool
	// ChunkSize is the number of rows per chunk for plain input.
	ChunkSize int
	// TimeStep ends a dated chunk at the first row at least this many days
	// after the previous row.
	TimeStep int
}

// Reader yields chunks of records. It is not safe for concurrent use.
type Reader struct {
	csv     *csv.Reader
	opts    ReaderOptions
	classes map[string]uint32
	labels  []string
	nextID  uint64
	pending *Record
	started bool
}

// NewReader wraps r.
func NewReader(r io.Reader, opts ReaderOptions) (*Reader, error) {
	if !opts.Dated && opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrChunkSize, opts.ChunkSize)
	}

	if opts.Dated && opts.TimeStep < 1 {
		return nil, fmt.Errorf("%w: %d", ErrTimeStep, opts.TimeStep)
	}

	cr := csv.NewReader(bufio.NewReader(r))
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	cr.FieldsPerRecord = 3
	if opts.Dated {
		cr.FieldsPerRecord = 4
	}

	return &Reader{
		csv:     cr,
		opts:    opts,
		classes: map[string]uint32{},
	}, nil
}

// Next returns the next chunk, or io.EOF once the input is exhausted.
func (r *Reader) Next() ([]Record, error) {
	var chunk []Record

	if r.pending != nil {
		chunk = append(chunk, *r.pending)
		r.pending = nil
	}

	for r.opts.Dated || len(chunk) < r.opts.ChunkSize {
		rec, err := r.read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		if r.opts.Dated && len(chunk) > 0 {
			last := window.Day(chunk[len(chunk)-1].Date)
			if window.Day(rec.Date)-last >= r.opts.TimeStep {
				r.pending = &rec

				break
			}
		}

		chunk = append(chunk, rec)
	}

	if len(chunk) == 0 {
		return nil, io.EOF
	}

	return chunk, nil
}

// Labels returns the class labels in class ID order.
func (r *Reader) Labels() []string {
	return append([]string(nil), r.labels...)
}

func (r *Reader) read() (Record, error) {
	fields, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}

		return Record{}, fmt.Errorf("%w: %w", ErrMalformedRow, err)
	}

	if !r.started {
		fields[0] = strings.TrimPrefix(fields[0], bom)
		r.started = true
	}

	line, _ := r.csv.FieldPos(0)
	rec := Record{ID: r.nextID}

	if r.opts.Dated {
		rec.Date, err = time.Parse(DateLayout, fields[0])
		if err != nil {
			return Record{}, fmt.Errorf("%w: line %d: date %q", ErrMalformedRow, line, fields[0])
		}

		fields = fields[1:]
	}

	rec.X, err = strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: line %d: x %q", ErrMalformedRow, line, fields[0])
	}

	rec.Y, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: line %d: y %q", ErrMalformedRow, line, fields[1])
	}

	rec.Class = r.classOf(fields[2])
	r.nextID++

	return rec, nil
}

func (r *Reader) classOf(label string) uint32 {
	if class, ok := r.classes[label]; ok {
		return class
	}

	class := safeconv.MustIntToUint32(len(r.labels))
	r.classes[label] = class
	r.labels = append(r.labels, label)

	return class
}
