package fast5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/fixture"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

func storedChunks(t *testing.T, path, dataset string) []store.RawChunk {
	t.Helper()
	f, err := store.Open(path, store.ReadOnly)
	require.NoError(t, err)
	defer f.Close()
	ds, err := f.Dataset(dataset)
	require.NoError(t, err)
	chunks, err := ds.StoredChunks()
	require.NoError(t, err)
	return chunks
}

func TestWriteSingle(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := dir + "/multi.fast5"
	newMultiFile(t, src, "run-w", []string{"a", "b"}, 40, VBZ)

	m, err := OpenMulti(src, ModeRead)
	require.NoError(t, err)
	r, err := m.MultiRead("b")
	require.NoError(t, err)
	out := dir + "/b.fast5"
	require.NoError(t, r.WriteSingle(out))
	require.NoError(t, m.Close())

	f, err := OpenSingle(out, ModeRead)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "b", f.ReadID())
	require.Len(t, f.Status().Reads, 1)
	assert.Equal(t, int64(3), f.Status().Reads[0].ReadNumber)
	raw, err := f.RawData()
	require.NoError(t, err)
	assert.Equal(t, fixture.Ramp(40), raw)
	filters, err := f.RawCompression()
	require.NoError(t, err)
	assert.True(t, VBZ.Matches(filters))

	run, err := f.RunID()
	require.NoError(t, err)
	assert.Equal(t, "run-w", run)
	tags, err := f.ContextTags()
	require.NoError(t, err)
	assert.Equal(t, "4000", tags["sample_frequency"])

	assert.Equal(t,
		storedChunks(t, src, "read_b/Raw/Signal"),
		storedChunks(t, out, "Raw/Reads/Read_3/Signal"))
}

func TestCopyTo(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := dir + "/single.fast5"
	newSingleRead(t, src, "r1", "run-c", 120, Gzip)

	in, err := OpenSingle(src, ModeRead)
	require.NoError(t, err)
	defer in.Close()

	t.Run("reencode and sanitize", func(t *testing.T) {
		out := dir + "/vbz.fast5"
		require.NoError(t, in.CopyTo(out, WithTargetCompression(VBZ), WithSanitize()))

		f, err := OpenSingle(out, ModeRead)
		require.NoError(t, err)
		defer f.Close()
		filters, err := f.RawCompression()
		require.NoError(t, err)
		assert.True(t, VBZ.Matches(filters))
		raw, err := f.RawData()
		require.NoError(t, err)
		assert.Equal(t, fixture.Ramp(120), raw)
		attrs, err := f.RawAttributes()
		require.NoError(t, err)
		assert.Equal(t, "r1", attrs["read_id"])
		assert.False(t, f.exists(analysesGroup))
	})

	t.Run("matching codec is copied verbatim", func(t *testing.T) {
		out := dir + "/gzip.fast5"
		require.NoError(t, in.CopyTo(out, WithTargetCompression(Gzip)))

		assert.Equal(t,
			storedChunks(t, src, "Raw/Reads/Read_7/Signal"),
			storedChunks(t, out, "Raw/Reads/Read_7/Signal"))
		f, err := OpenSingle(out, ModeRead)
		require.NoError(t, err)
		defer f.Close()
		assert.True(t, f.exists(analysesGroup))
		assert.Equal(t, "r1", f.ReadID())
	})
}
