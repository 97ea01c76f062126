package fast5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/fixture"
)

func TestSingleReadRawRoundTrip(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "single.fast5")

	f, err := OpenSingle(path, ModeCreate)
	require.NoError(t, err)
	require.NoError(t, f.AddChannelInfo(testChannel, false))
	require.NoError(t, f.AddRead(12, "unique_snowflake", 12345, 1000, 0, -1))
	require.NoError(t, f.AddRawData(fixture.Ramp(1000), nil, VBZ))
	assert.True(t, f.Status().Reads[0].HasRawData)
	require.NoError(t, f.Close())

	f, err = OpenSingle(path, ModeRead)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "unique_snowflake", f.ReadID())
	assert.Equal(t, []string{"unique_snowflake"}, must(f.ReadIDs()))

	raw, err := f.RawData()
	require.NoError(t, err)
	assert.Equal(t, fixture.Ramp(1000), raw)

	scaled, err := f.ScaledRawData()
	require.NoError(t, err)
	require.Len(t, scaled, 1000)
	for i, v := range scaled {
		assert.InDelta(t, float64(i)*0.1, float64(v), 1e-3)
	}

	part, err := f.RawData(WithRange(10, 20))
	require.NoError(t, err)
	assert.Equal(t, fixture.Ramp(20)[10:], part)

	tail, err := f.RawData(WithRange(-5, 1000))
	require.NoError(t, err)
	assert.Equal(t, []int16{995, 996, 997, 998, 999}, tail)

	from, err := f.RawData(WithStart(998))
	require.NoError(t, err)
	assert.Equal(t, []int16{998, 999}, from)

	info, err := f.ChannelInfo()
	require.NoError(t, err)
	assert.Equal(t, 1, info["channel_number"])
	assert.Equal(t, 819.2, info["range"])

	filters, err := f.RawCompression()
	require.NoError(t, err)
	assert.True(t, VBZ.Matches(filters))

	status := f.Status()
	require.Len(t, status.Reads, 1)
	assert.Equal(t, int64(12), status.Reads[0].ReadNumber)
	assert.Equal(t, int64(12345), status.Reads[0].StartTime)
	assert.Equal(t, int64(1000), status.Reads[0].Duration)
	assert.True(t, status.Reads[0].HasRawData)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func TestSingleReadPreconditions(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "pre.fast5")
	newSingleRead(t, path, "r1", "run", 10, Gzip)

	f, err := OpenSingle(path, ModeReadWrite)
	require.NoError(t, err)
	err = f.AddRawData([]int16{1}, nil, Gzip)
	require.ErrorIs(t, err, ErrRawDataExists)

	_, err = f.Read("other")
	require.ErrorIs(t, err, ErrNotFound)
	r, err := f.Read("r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ReadID())
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	assert.False(t, f.IsOpen())
	_, err = f.RawData()
	require.ErrorIs(t, err, ErrClosed)

	ro, err := OpenSingle(path, ModeRead)
	require.NoError(t, err)
	defer ro.Close()
	err = ro.AddTrackingID(map[string]any{"x": "y"}, false)
	require.ErrorIs(t, err, ErrReadOnly)

	_, err = OpenSingle(path, Mode(42))
	require.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestSingleReadNoRawData(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "noraw.fast5")
	f, err := OpenSingle(path, ModeCreate)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.AddRead(1, "r", 0, 0, 0, -1))
	assert.False(t, f.HasRawData())
	_, err = f.RawData()
	require.ErrorIs(t, err, ErrNoRawData)
}

func TestMetadataGroups(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "meta.fast5")
	newSingleRead(t, path, "r1", "run-a", 4, NoCompression)

	f, err := OpenSingle(path, ModeReadWrite)
	require.NoError(t, err)
	defer f.Close()

	tracking, err := f.TrackingID()
	require.NoError(t, err)
	assert.Equal(t, "run-a", tracking["run_id"])
	run, err := f.RunID()
	require.NoError(t, err)
	assert.Equal(t, "run-a", run)

	require.NoError(t, f.AddTrackingID(map[string]any{"device_id": "X1"}, true))
	tracking, err = f.TrackingID()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"device_id": "X1"}, tracking)

	assert.True(t, f.HasContextTags())
	tags, err := f.ContextTags()
	require.NoError(t, err)
	assert.Equal(t, "genomic_dna", tags["experiment_type"])

	raw, err := f.RawAttributes()
	require.NoError(t, err)
	assert.Equal(t, "r1", raw["read_id"])
}

func TestAnalyses(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "analyses.fast5")
	f, err := OpenSingle(path, ModeCreate)
	require.NoError(t, err)
	defer f.Close()

	latest, err := f.LatestAnalysis("Basecall_1D", false)
	require.NoError(t, err)
	assert.Empty(t, latest)
	latest, err = f.LatestAnalysis("Basecall_1D", true)
	require.NoError(t, err)
	assert.Equal(t, "Basecall_1D_000", latest)

	config := map[string]map[string]any{"general": {"model": "r9.4", "threshold": 2.5}}
	require.NoError(t, f.AddAnalysis("segmentation", "Segmentation_000", nil, nil))
	require.NoError(t, f.AddAnalysis("basecall_1d", "Basecall_1D_000", map[string]any{"name": "guppy"}, config))
	require.NoError(t, f.AddAnalysis("basecall_1d", "Basecall_1D_001", nil, nil))
	err = f.AddAnalysis("basecall_1d", "Basecall_1D_001", nil, nil)
	require.ErrorIs(t, err, ErrExists)

	latest, err = f.LatestAnalysis("Basecall_1D", false)
	require.NoError(t, err)
	assert.Equal(t, "Basecall_1D_001", latest)
	latest, err = f.LatestAnalysis("Basecall_1D", true)
	require.NoError(t, err)
	assert.Equal(t, "Basecall_1D_002", latest)

	list, err := f.ListAnalyses("basecall_1d")
	require.NoError(t, err)
	assert.Equal(t, []Analysis{
		{Component: "basecall_1d", Group: "Basecall_1D_000"},
		{Component: "basecall_1d", Group: "Basecall_1D_001"},
	}, list)

	attrs, err := f.AnalysisAttributes("Basecall_1D_000")
	require.NoError(t, err)
	assert.Equal(t, "guppy", attrs["name"])
	assert.Equal(t, "basecall_1d", attrs["component"])
	missing, err := f.AnalysisAttributes("Nope_000")
	require.NoError(t, err)
	assert.Nil(t, missing)

	got, err := f.AnalysisConfig("Basecall_1D_000")
	require.NoError(t, err)
	assert.Equal(t, config, got)
	require.NoError(t, f.SetAnalysisConfig("Basecall_1D_001", map[string]map[string]any{"split": {"on": true}}))
	err = f.SetAnalysisConfig("Basecall_1D_009", config)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.SetSummaryData("Basecall_1D_000", "basecall_1d_template", map[string]any{"mean_qscore": 11.5}))
	summary, err := f.SummaryData("Basecall_1D_000")
	require.NoError(t, err)
	assert.Equal(t, 11.5, summary["basecall_1d_template"]["mean_qscore"])

	require.NoError(t, f.AddAnalysisSubgroup("Basecall_1D_000", "BaseCalled_template", map[string]any{"kind": "template"}))
	require.NoError(t, f.AddAnalysisDataset("Basecall_1D_000/BaseCalled_template", "Fastq", "@read\nACGT\n+\n!!!!\n", nil))
	require.NoError(t, f.AddAnalysisDataset("Basecall_1D_000/BaseCalled_template", "Move", []int16{1, 0, 1, 1}, map[string]any{"stride": int32(5)}))
	err = f.AddAnalysisDataset("Missing_000", "x", []int16{1}, nil)
	require.ErrorIs(t, err, ErrNotFound)

	fastq, err := f.AnalysisDataset("Basecall_1D_000/BaseCalled_template", "Fastq")
	require.NoError(t, err)
	assert.Equal(t, "@read\nACGT\n+\n!!!!\n", fastq)
	move, err := f.AnalysisDataset("Basecall_1D_000/BaseCalled_template", "Move")
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 0, 1, 1}, move)
	none, err := f.AnalysisDataset("Basecall_1D_000", "Nope")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, f.AddChain("Basecall_1D_000", map[string]string{"segmentation": "Segmentation_000"}))
	chain, err := f.Chain("Basecall_1D_000")
	require.NoError(t, err)
	assert.Equal(t, []Analysis{
		{Component: "basecall_1d", Group: "Basecall_1D_000"},
		{Component: "segmentation", Group: "Segmentation_000"},
	}, chain)

	require.NoError(t, f.AddLog("Analyses/Basecall_1D_000/Logs", "log", "started\n"))
}

func TestChainReordersRevisitedGroups(t *testing.T) {
	t.Parallel()
	f, err := OpenSingle(tempPath(t, "chain.fast5"), ModeCreate)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AddAnalysis("event_detection", "EventDetection_000", nil, nil))
	require.NoError(t, f.AddAnalysis("segmentation", "Segmentation_000", nil, nil))
	require.NoError(t, f.AddAnalysis("basecall_1d", "Basecall_1D_000", nil, nil))
	require.NoError(t, f.AddChain("Segmentation_000", map[string]string{"event_detection": "Analyses/EventDetection_000"}))
	require.NoError(t, f.AddChain("Basecall_1D_000", map[string]string{
		"event_detection": "EventDetection_000",
		"segmentation":    "Segmentation_000",
	}))

	chain, err := f.Chain("Basecall_1D_000")
	require.NoError(t, err)
	assert.Equal(t, []Analysis{
		{Component: "basecall_1d", Group: "Basecall_1D_000"},
		{Component: "segmentation", Group: "Segmentation_000"},
		{Component: "event_detection", Group: "EventDetection_000"},
	}, chain)
}

func TestChainCycle(t *testing.T) {
	t.Parallel()
	f, err := OpenSingle(tempPath(t, "cycle.fast5"), ModeCreate)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.AddAnalysis("a", "A_000", nil, nil))
	require.NoError(t, f.AddAnalysis("b", "B_000", nil, nil))
	require.NoError(t, f.AddChain("A_000", map[string]string{"b": "B_000"}))
	require.NoError(t, f.AddChain("B_000", map[string]string{"a": "A_000"}))
	_, err = f.Chain("A_000")
	require.ErrorIs(t, err, ErrFormat)
}

func TestOpenEmpty(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "empty.fast5")
	f, err := OpenEmpty(path, ModeCreate)
	require.NoError(t, err)
	require.NoError(t, f.AddChannelInfo(testChannel, false))
	require.NoError(t, f.Close())

	_, err = OpenSingle(path, ModeRead)
	require.ErrorIs(t, err, ErrFormat)
}

func TestAddReadFailureLeavesCatalog(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "dup.fast5")
	f, err := OpenSingle(path, ModeCreate)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.AddRead(3, "first", 0, 10, 0, -1))

	require.Error(t, f.AddRead(3, "second", 5, 10, 0, -1))
	status := f.Status()
	require.Len(t, status.Reads, 1)
	assert.Equal(t, "first", status.Reads[0].ReadID)
	assert.Equal(t, []string{"first"}, must(f.ReadIDs()))
	_, err = f.Read("second")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddReadGroupRemovedOnAttrFailure(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "orphan.fast5")
	f, err := OpenSingle(path, ModeCreate)
	require.NoError(t, err)
	defer f.Close()

	attrs := append(readGroupAttrs(7, "r7", 0, 10, 0, -1), readAttr{"unstorable", make(chan int)})
	require.Error(t, f.addReadGroup(readGroupName(7), attrs))
	assert.False(t, f.exists(readGroupName(7)))
	assert.True(t, f.exists(rawReadsGroup))
	assert.Empty(t, f.Status().Reads)

	require.NoError(t, f.AddRead(7, "r7", 0, 10, 0, -1))
	assert.Equal(t, []string{"r7"}, must(f.ReadIDs()))
}
