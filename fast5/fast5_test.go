package fast5

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/fixture"
)

func TestMain(m *testing.M) {
	fixture.RegisterVBZ()
	os.Exit(m.Run())
}

var testChannel = map[string]any{
	"channel_number": 1,
	"sampling_rate":  4000.0,
	"digitisation":   8192.0,
	"range":          819.2,
	"offset":         0.0,
}

func tempPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// newSingleRead creates a single-read file with channel info, tracking
// info for runID and one read carrying n ramp samples.
func newSingleRead(t *testing.T, path, readID, runID string, n int, comp Compression) {
	t.Helper()
	f, err := OpenSingle(path, ModeCreate)
	require.NoError(t, err)
	require.NoError(t, f.AddChannelInfo(testChannel, false))
	require.NoError(t, f.SetTrackingID(map[string]any{"run_id": runID, "exp_start_time": "2019-01-01T00:00:00Z"}, false))
	require.NoError(t, f.AddContextTags(map[string]any{"experiment_type": "genomic_dna"}, false))
	require.NoError(t, f.AddRead(7, readID, 100, int64(n), 1, 220.5))
	require.NoError(t, f.AddRawData(fixture.Ramp(n), nil, comp))
	require.NoError(t, f.AddAnalysis("basecall_1d", "Basecall_1D_000", map[string]any{"name": "guppy"}, nil))
	require.NoError(t, f.Close())
}

// newMultiFile creates a multi-read file holding one read per id, all of
// run runID, each with n ramp samples.
func newMultiFile(t *testing.T, path, runID string, ids []string, n int, comp Compression) {
	t.Helper()
	m, err := OpenMulti(path, ModeCreate)
	require.NoError(t, err)
	for _, id := range ids {
		r, err := m.CreateEmptyRead(id, runID)
		require.NoError(t, err)
		require.NoError(t, r.AddChannelInfo(testChannel, false))
		require.NoError(t, r.AddTrackingID(map[string]any{"run_id": runID}, false))
		require.NoError(t, r.AddContextTags(map[string]any{"sample_frequency": "4000"}, false))
		require.NoError(t, r.AddRawData(fixture.Ramp(n), map[string]any{
			"read_id":     id,
			"read_number": int32(3),
			"start_time":  uint64(500),
			"duration":    uint32(n),
		}, comp))
	}
	require.NoError(t, m.Close())
}

func TestParseVersion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   any
		want Version
	}{
		{"2.0", Version{2, 0}},
		{"0.6", Version{0, 6}},
		{"1.10", Version{1, 10}},
		{[]byte("1.1"), Version{1, 1}},
		{float64(0.5), Version{0, 5}},
		{"3", Version{3, 0}},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
	_, err := ParseVersion("two")
	require.Error(t, err)

	assert.True(t, Version{1, 0}.Less(Version{1, 1}))
	assert.True(t, Version{0, 6}.Less(Version{1, 0}))
	assert.False(t, Version{2, 0}.Less(Version{2, 0}))
	assert.Equal(t, "2.0", Version{2, 0}.String())
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	for s, want := range map[string]Mode{
		"r": ModeRead, "r+": ModeReadWrite, "w": ModeCreate,
		"w-": ModeCreateExclusive, "x": ModeCreateExclusive, "a": ModeAppend,
	} {
		got, err := ParseMode(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
	_, err := ParseMode("rw")
	require.ErrorIs(t, err, ErrUnsupportedMode)
}
