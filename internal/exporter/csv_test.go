package exporter

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readReport(t *testing.T, path string) ([]byte, [][]string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return raw, records
}

func TestWriteSimpleCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testLogger())

	err := w.WriteSimpleCSV("out.csv", []string{"A", "B"}, [][]string{
		{"1", "x"},
		{"2", "y, with comma"},
	})
	require.NoError(t, err)

	raw, records := readReport(t, filepath.Join(dir, "out.csv"))
	assert.True(t, bytes.HasPrefix(raw, utf8BOM), "simple CSV carries a BOM")
	assert.Equal(t, [][]string{
		{"A", "B"},
		{"1", "x"},
		{"2", "y, with comma"},
	}, records)
}

func TestWriteCSVCreatesNestedDirs(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testLogger())

	err := w.WriteCSV(filepath.Join("nested", "deep", "out.csv"), WriteOptions{
		Headers: []string{"A"},
		Records: [][]string{{"1"}},
	})
	require.NoError(t, err)

	raw, records := readReport(t, filepath.Join(dir, "nested", "deep", "out.csv"))
	assert.False(t, bytes.HasPrefix(raw, utf8BOM), "BOM only when requested")
	assert.Equal(t, [][]string{{"A"}, {"1"}}, records)
}

func TestAppendToCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testLogger())

	require.NoError(t, w.WriteSimpleCSV("out.csv", []string{"A"}, [][]string{{"1"}}))
	require.NoError(t, w.AppendToCSV("out.csv", [][]string{{"2"}, {"3"}}))

	_, records := readReport(t, filepath.Join(dir, "out.csv"))
	assert.Equal(t, [][]string{{"A"}, {"1"}, {"2"}, {"3"}}, records)
}

func TestAbsolutePathBypassesReportsDir(t *testing.T) {
	reports := t.TempDir()
	elsewhere := t.TempDir()
	w := NewWriter(reports, testLogger())

	target := filepath.Join(elsewhere, "out.csv")
	require.NoError(t, w.WriteSimpleCSV(target, []string{"A"}, [][]string{{"1"}}))

	_, err := os.Stat(target)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(reports, "out.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestStreamWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testLogger())

	stream, err := w.CreateStreamWriter("stream.csv", []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, stream.WriteRecord([]string{"1", "x"}))
	require.NoError(t, stream.WriteRecord([]string{"2", "y"}))
	require.NoError(t, stream.Close())

	raw, records := readReport(t, filepath.Join(dir, "stream.csv"))
	assert.True(t, bytes.HasPrefix(raw, utf8BOM))
	assert.Equal(t, [][]string{
		{"A", "B"},
		{"1", "x"},
		{"2", "y"},
	}, records)
}
