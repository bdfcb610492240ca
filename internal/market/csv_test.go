package market

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCSVWithHeader(t *testing.T) {
	path := writeTempCSV(t, "date,close\n2024-01-02,100.5\n2024-01-03,101.25\n")

	s, err := LoadCSV(path)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	v, ok := s.At(d(1)) // 2024-01-02
	require.True(t, ok)
	assert.Equal(t, 100.5, v)
}

func TestLoadCSVWithoutHeader(t *testing.T) {
	path := writeTempCSV(t, "2024-01-02,100.5\n2024-01-03,101.25\n")

	s, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestLoadCSVTimestampFormats(t *testing.T) {
	path := writeTempCSV(t, "2024-01-02T00:00:00Z,1\n2024-01-03 15:30:00,2\n")

	s, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = LoadCSV(writeTempCSV(t, "date,close\n"))
	assert.Error(t, err) // header only, no data rows

	_, err = LoadCSV(writeTempCSV(t, "2024-01-02,100\nnot-a-date,101\n"))
	assert.Error(t, err)

	_, err = LoadCSV(writeTempCSV(t, "2024-01-02,100\n2024-01-03,abc\n"))
	assert.Error(t, err)
}
