package dataset

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
)

// ErrFileTooLarge is returned by Open when the file exceeds the size limit.
var ErrFileTooLarge = errors.New("dataset: file too large")

// Open opens path for reading. A positive maxBytes rejects larger files.
func Open(path string, maxBytes uint64) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	if maxBytes == 0 {
		return f, nil
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	if uint64(info.Size()) > maxBytes {
		f.Close()

		return nil, fmt.Errorf("%w: %s is %s, limit %s", ErrFileTooLarge,
			path, humanize.IBytes(uint64(info.Size())), humanize.IBytes(maxBytes))
	}

	return f, nil
}
