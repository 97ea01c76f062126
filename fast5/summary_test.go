package fast5

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSummaryData(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "summary.fast5")
	newSingleRead(t, path, "r1", "run-q", 10, Gzip)

	f, err := OpenSingle(path, ModeReadWrite)
	require.NoError(t, err)
	require.NoError(t, f.AddAnalysis("basecall_1d", "Basecall_1D_001", map[string]any{"version": "3.1"}, nil))
	require.NoError(t, f.SetSummaryData("Basecall_1D_001", "basecall_1d_template", map[string]any{"sequence_length": int64(4321)}))
	require.NoError(t, f.Close())

	s, err := ReadSummaryData(path, "basecall_1d")
	require.NoError(t, err)
	assert.Equal(t, "summary.fast5", s.Filename)
	assert.Equal(t, "run-q", s.TrackingID["run_id"])
	assert.Equal(t, 1, s.ChannelID["channel_number"])
	require.Len(t, s.Reads, 1)
	assert.Equal(t, ReadSummary{ReadNumber: 7, ReadID: "r1", StartTime: 100, Duration: 10, StartMux: 1}, s.Reads[0])
	assert.Equal(t, "Basecall_1D", s.Software["component"])
	assert.Equal(t, "3.1", s.Software["version"])
	assert.Equal(t, int64(4321), s.Data["basecall_1d_template"]["sequence_length"])

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"read_id":"r1"`)

	_, err = ReadSummaryData(path, "segmentation")
	require.ErrorIs(t, err, ErrNotFound)
}
