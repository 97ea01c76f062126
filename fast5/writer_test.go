package fast5

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/fixture"
)

func strand(channel int, number int64, withEvents bool) Strand {
	s := Strand{
		Channel:      channel,
		Offset:       10,
		Range:        1400,
		Digitisation: 8192,
		SamplingRate: 4000,
		Read: StrandRead{
			ReadNumber:   number,
			ReadID:       fixture.ReadID(),
			StartTime:    number * 1000,
			Duration:     100,
			StartMux:     1,
			MedianBefore: 200,
		},
		RawData: fixture.Ramp(100),
	}
	if withEvents {
		s.EventData, _ = dtype.NewTable(
			dtype.Column{Name: "mean", Data: []float64{1, 2}},
			dtype.Column{Name: "start", Data: []int64{0, 50}},
		)
	}
	return s
}

func TestWriterRollsFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, err := NewWriter(dir, "run", WithReadsPerFile(2), WithTrackingID(map[string]any{"version": "1.2"}),
		WithCompression(Gzip))
	require.NoError(t, err)

	strands := []Strand{strand(1, 10, true), strand(1, 11, true), strand(1, 12, false), strand(2, 13, false)}
	for _, s := range strands {
		require.NoError(t, w.WriteStrand(s))
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.ErrorIs(t, w.WriteStrand(strands[0]), ErrClosed)

	index, err := os.ReadFile(filepath.Join(dir, "run_index.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(index)), "\n")
	assert.Equal(t, []string{
		"channel\tread_number\tfile_number\tfilename",
		"1\t10\t10\trun_ch1_read10_strand.fast5",
		"1\t11\t10\trun_ch1_read10_strand.fast5",
		"1\t12\t12\trun_ch1_read12_strand.fast5",
		"2\t13\t13\trun_ch2_read13_strand.fast5",
	}, lines)

	f, err := OpenSingle(filepath.Join(dir, "run_ch1_read10_strand.fast5"), ModeRead)
	require.NoError(t, err)
	defer f.Close()
	status := f.Status()
	require.Len(t, status.Reads, 2)
	for i, ri := range status.Reads {
		assert.Equal(t, strands[i].Read.ReadID, ri.ReadID)
		assert.True(t, ri.HasRawData)
		assert.True(t, ri.HasEventData)
		assert.Equal(t, 2, ri.EventDataCount)
	}
	run, err := f.RunID()
	require.NoError(t, err)
	assert.NotEmpty(t, run)

	attrs, err := f.AnalysisAttributes("EventDetection_000")
	require.NoError(t, err)
	assert.Equal(t, "MinKNOW", attrs["name"])
	assert.Equal(t, "1.2", attrs["version"])
	info, err := f.ChannelInfo()
	require.NoError(t, err)
	assert.Equal(t, 1, info["channel_number"])
}

func TestWriterNeedsCodec(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := NewWriter(dir, "run", WithCompression(Compression{Name: "blosc2", ID: 32026}))
	require.ErrorIs(t, err, ErrMissingCodec)
	assert.NoFileExists(t, filepath.Join(dir, "run_index.txt"))
}

func TestWriterRemovesFileWhenSetupFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w, err := NewWriter(dir, "run", WithContextTags(map[string]any{"bad": struct{}{}}), WithCompression(Gzip))
	require.NoError(t, err)

	err = w.WriteStrand(strand(4, 20, false))
	require.ErrorIs(t, err, dtype.ErrUnsupportedType)
	assert.NoFileExists(t, filepath.Join(dir, "run_ch4_read20_strand.fast5"))
	assert.Nil(t, w.current)

	require.Error(t, w.WriteStrand(strand(4, 21, false)))
	require.NoError(t, w.Close())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "run_index.txt", entries[0].Name())
}
