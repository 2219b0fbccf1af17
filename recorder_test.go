package hypercube

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleResults = []FlowResult{
	{Flow: Flow{Src: 0, Dst: 1, Size: 2, Start: 0}, Completion: 4},
	{Flow: Flow{Src: 0, Dst: 1, Size: 2, Start: 0}, Completion: 4},
	{Flow: Flow{Src: 6, Dst: 3, Size: 9, Start: 5}, Completion: 17},
}

func TestTextResultSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextResultSink(&buf).WriteResults(sampleResults))
	assert.Equal(t, "0 1 2 0 4\n0 1 2 0 4\n6 3 9 5 17\n", buf.String())

	filename := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, WriteResultsFile(filename, sampleResults))
	contents, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(contents))
}

func TestSQLiteResultSink(t *testing.T) {
	sink, err := NewSQLiteResultSink(filepath.Join(t.TempDir(), "results.db"), "recorder-test")
	require.NoError(t, err)
	defer sink.Close()

	assert.Empty(t, sink.LastRunID())
	require.NoError(t, sink.WriteResults(sampleResults))
	firstRun := sink.LastRunID()
	require.NotEmpty(t, firstRun)

	got, err := sink.ReadRun(firstRun)
	require.NoError(t, err)
	assert.Equal(t, sampleResults, got)

	require.NoError(t, sink.WriteResults(sampleResults[2:]))
	secondRun := sink.LastRunID()
	assert.NotEqual(t, firstRun, secondRun)

	got, err = sink.ReadRun(secondRun)
	require.NoError(t, err)
	assert.Equal(t, sampleResults[2:], got)

	got, err = sink.ReadRun("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteResultSinkReopen(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "results.db")

	sink, err := NewSQLiteResultSink(filename, "first")
	require.NoError(t, err)
	require.NoError(t, sink.WriteResults(sampleResults))
	runID := sink.LastRunID()
	require.NoError(t, sink.Close())

	sink, err = NewSQLiteResultSink(filename, "second")
	require.NoError(t, err)
	defer sink.Close()
	got, err := sink.ReadRun(runID)
	require.NoError(t, err)
	assert.Equal(t, sampleResults, got)
}
