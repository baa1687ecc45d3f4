package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordAndHistory(t *testing.T) {
	dir := t.TempDir()

	rec, err := Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer rec.Close()

	run := Run{
		RunID:             "run-1",
		Formula:           "formula.opb",
		Proof:             "proof.pbp",
		InputClauses:      2,
		DerivedClauses:    1,
		TrimmedClauses:    3,
		PropagationRounds: 1,
		Elapsed:           5 * time.Millisecond,
		OutputBytes:       128,
	}

	require.NoError(t, rec.Record(run))

	history, err := rec.History("formula.opb", "proof.pbp")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "run-1", history[0].RunID)
	require.Equal(t, 3, history[0].TrimmedClauses)
}

func TestHistoryEmptyForUnknownPair(t *testing.T) {
	dir := t.TempDir()

	rec, err := Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer rec.Close()

	history, err := rec.History("nope.opb", "nope.pbp")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestSummaryFormatsHumanReadableBytes(t *testing.T) {
	s := Summary(Run{InputClauses: 1, OutputBytes: 1024})
	require.Contains(t, s, "1.0 kB")
}
