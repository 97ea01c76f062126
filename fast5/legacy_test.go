package fast5

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/dtype"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

// writeLegacyFile lays out a version 0.6 file that only records event data
// for read 5, with the old variance column.
func writeLegacyFile(t *testing.T, path string) {
	t.Helper()
	f, err := store.Open(path, store.Create)
	require.NoError(t, err)
	root := f.Root()
	require.NoError(t, root.SetAttr("file_version", 0.6))
	ch, err := root.CreateGroup("UniqueGlobalKey/channel_id")
	require.NoError(t, err)
	require.NoError(t, ch.SetAttr("channel_number", "3"))

	rg, err := root.CreateGroup("Analyses/EventDetection_000/Reads/Read_5")
	require.NoError(t, err)
	require.NoError(t, rg.SetAttr("read_number", int32(5)))
	require.NoError(t, rg.SetAttr("start_time", uint64(9000)))
	require.NoError(t, rg.SetAttr("duration", uint32(400)))
	events, err := dtype.NewTable(
		dtype.Column{Name: "mean", Data: []float64{90.5, 101.25, 87}},
		dtype.Column{Name: "start", Data: []int64{0, 10, 25}},
		dtype.Column{Name: "length", Data: []int64{10, 15, 5}},
		dtype.Column{Name: "variance", Data: []float64{4, 9, 2.25}},
	)
	require.NoError(t, err)
	_, err = rg.CreateDataset("Events", events)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestScanLegacyFile(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "legacy.fast5")
	writeLegacyFile(t, path)

	info, err := Scan(path)
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.Equal(t, LayoutPreRaw, info.Layout)
	assert.Equal(t, Version{0, 6}, info.Version)
	assert.Equal(t, "3", info.Channel)
	require.Len(t, info.Reads, 1)
	ri := info.Reads[0]
	assert.Equal(t, filepath.Base(path), ri.ReadID)
	assert.True(t, ri.HasEventData)
	assert.Equal(t, 3, ri.EventDataCount)
	assert.False(t, ri.HasRawData)
}

func TestUpdateLegacyFile(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "legacy.fast5")
	writeLegacyFile(t, path)

	require.NoError(t, UpdateLegacyFile(path))

	info, err := Scan(path)
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.Equal(t, currentVersion, info.Version)
	require.Len(t, info.Reads, 1)
	ri := info.Reads[0]
	assert.Equal(t, int64(5), ri.ReadNumber)
	assert.Equal(t, filepath.Base(path), ri.ReadID)
	assert.Equal(t, int64(400), ri.Duration)
	assert.True(t, ri.HasEventData)

	f, err := store.Open(path, store.ReadOnly)
	require.NoError(t, err)
	defer f.Close()
	ds, err := f.Dataset("Analyses/EventDetection_000/Reads/Read_5/Events")
	require.NoError(t, err)
	events, err := ds.Table()
	require.NoError(t, err)
	assert.Equal(t, []string{"mean", "stdv", "start", "length"}, events.Names())
	stdv, err := events.Float64s("stdv")
	require.NoError(t, err)
	for i, v := range []float64{4, 9, 2.25} {
		assert.InDelta(t, math.Sqrt(v), stdv[i], 1e-12)
	}
	starts, err := events.Int64s("start")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 10, 25}, starts)
	assert.True(t, f.Root().Has("UniqueGlobalKey/tracking_id"))

	err = UpdateLegacyFile(path)
	require.ErrorIs(t, err, ErrAlreadyCurrent)
}

func TestScanRejectsBrokenFiles(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "broken.fast5")
	f, err := store.Open(path, store.Create)
	require.NoError(t, err)
	require.NoError(t, f.Root().SetAttr("file_version", "2.0"))
	require.NoError(t, f.Close())

	_, err = Scan(path)
	require.ErrorIs(t, err, ErrFormat)

	_, err = Scan(tempPath(t, "missing.fast5"))
	require.ErrorIs(t, err, ErrFormat)
}

func TestScanCurrentReadWithoutID(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "noid.fast5")
	f, err := store.Open(path, store.Create)
	require.NoError(t, err)
	root := f.Root()
	require.NoError(t, root.SetAttr("file_version", "2.0"))
	for _, g := range []string{"UniqueGlobalKey/channel_id", "UniqueGlobalKey/tracking_id"} {
		_, err := root.CreateGroup(g)
		require.NoError(t, err)
	}
	rg, err := root.CreateGroup("Raw/Reads/Read_1")
	require.NoError(t, err)
	require.NoError(t, rg.SetAttr("read_number", int32(1)))
	require.NoError(t, rg.SetAttr("start_time", uint64(0)))
	require.NoError(t, rg.SetAttr("duration", uint32(0)))
	require.NoError(t, f.Close())

	info, err := Scan(path)
	require.NoError(t, err)
	assert.False(t, info.Valid)
	assert.Len(t, info.Reads, 1)
}

func TestUpdateLegacyRawFile(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "legacy_raw.fast5")
	f, err := store.Open(path, store.Create)
	require.NoError(t, err)
	root := f.Root()
	require.NoError(t, root.SetAttr("file_version", 1.0))
	ch, err := root.CreateGroup("UniqueGlobalKey/channel_id")
	require.NoError(t, err)
	require.NoError(t, ch.SetAttr("channel_number", "12"))
	rg, err := root.CreateGroup("Raw/Reads/Read_7")
	require.NoError(t, err)
	require.NoError(t, rg.SetAttr("read_number", int32(7)))
	require.NoError(t, rg.SetAttr("start_time", uint64(100)))
	require.NoError(t, rg.SetAttr("duration", uint32(4)))
	_, err = rg.CreateDataset("Data", []int16{5, 6, 7, 8})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := Scan(path)
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.Equal(t, LayoutLegacyRaw, info.Layout)
	assert.Equal(t, "legacy-raw", info.Layout.String())
	require.Len(t, info.Reads, 1)
	assert.True(t, info.Reads[0].HasRawData)

	require.NoError(t, UpdateLegacyFile(path))

	info, err = Scan(path)
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.Equal(t, LayoutCurrent, info.Layout)

	f, err = store.Open(path, store.ReadOnly)
	require.NoError(t, err)
	defer f.Close()
	g, err := f.Root().Group("Raw/Reads/Read_7")
	require.NoError(t, err)
	assert.False(t, g.Has("Data"))
	ds, err := g.Dataset("Signal")
	require.NoError(t, err)
	samples, err := ds.ReadInt16()
	require.NoError(t, err)
	assert.Equal(t, []int16{5, 6, 7, 8}, samples)
}

func TestLayoutOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, LayoutPreRaw, layoutOf(Version{0, 6}, false))
	assert.Equal(t, LayoutLegacyRaw, layoutOf(Version{1, 0}, true))
	assert.Equal(t, LayoutCurrent, layoutOf(Version{1, 1}, false))
	assert.Equal(t, LayoutCurrent, layoutOf(Version{2, 0}, true))
	assert.Equal(t, "pre-raw", LayoutPreRaw.String())
	assert.Equal(t, "current", LayoutCurrent.String())
}
