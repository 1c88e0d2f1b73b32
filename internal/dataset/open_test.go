package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/seedpyramid/internal/dataset"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "points.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,2,a\n3,4,b\n"), 0o600))

	f, err := dataset.Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = dataset.Open(path, 1024)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = dataset.Open(path, 4)
	require.ErrorIs(t, err, dataset.ErrFileTooLarge)

	_, err = dataset.Open(filepath.Join(t.TempDir(), "missing.csv"), 0)
	require.ErrorIs(t, err, os.ErrNotExist)
}
