package fast5

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/internal/filter"
	"github.com/robert-malhotra/go-fast5/internal/fixture"
	"github.com/robert-malhotra/go-fast5/internal/store"
)

// groupID returns the object id behind path so tests can tell hard links
// from copies.
func groupID(t *testing.T, path, group string) uint64 {
	t.Helper()
	f, err := store.Open(path, store.ReadOnly)
	require.NoError(t, err)
	defer f.Close()
	g, err := f.Group(group)
	require.NoError(t, err)
	return g.ID()
}

func TestMultiReadHardlinks(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "multi.fast5")
	ids := []string{"read-a", "read-b", "read-c"}

	m, err := OpenMulti(path, ModeCreate)
	require.NoError(t, err)
	first, err := m.CreateEmptyRead(ids[0], "run-1")
	require.NoError(t, err)
	require.NoError(t, first.AddTrackingID(map[string]any{"run_id": "run-1"}, false))
	require.NoError(t, first.AddContextTags(map[string]any{"package": "bream"}, false))
	_, err = m.CreateEmptyRead(ids[1], "run-1")
	require.NoError(t, err)
	other, err := m.CreateEmptyRead(ids[2], "run-2")
	require.NoError(t, err)
	require.NoError(t, other.AddTrackingID(map[string]any{"run_id": "run-2"}, false))

	_, err = m.CreateEmptyRead(ids[0], "run-1")
	require.ErrorIs(t, err, ErrExists)
	require.NoError(t, m.Close())

	for _, g := range HardlinkGroups {
		assert.Equal(t, groupID(t, path, "read_read-a/"+g), groupID(t, path, "read_read-b/"+g), g)
	}
	assert.NotEqual(t, groupID(t, path, "read_read-a/tracking_id"), groupID(t, path, "read_read-c/tracking_id"))

	m, err = OpenMulti(path, ModeRead)
	require.NoError(t, err)
	defer m.Close()
	got, err := m.ReadIDs()
	require.NoError(t, err)
	assert.Equal(t, ids, got)

	r, err := m.Read("read-b")
	require.NoError(t, err)
	run, err := r.RunID()
	require.NoError(t, err)
	assert.Equal(t, "run-1", run)
	tags, err := r.ContextTags()
	require.NoError(t, err)
	assert.Equal(t, "bream", tags["package"])

	_, err = m.Read("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMultiReadCreateStampsVersion(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "stamp.fast5")
	m, err := OpenMulti(path, ModeCreate)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	f, err := store.Open(path, store.ReadOnly)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.Root().AttrValue("file_version")
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, Clean(v))
	ft, err := f.Root().AttrValue("file_type")
	require.NoError(t, err)
	assert.Equal(t, "multi-read", Clean(ft))
}

func TestAddExistingReadFromMulti(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := dir + "/src.fast5"
	ids := fixture.ReadIDs(3)
	newMultiFile(t, src, "run-x", ids, 50, VBZ)

	in, err := OpenMulti(src, ModeRead)
	require.NoError(t, err)
	defer in.Close()
	out, err := OpenMulti(dir+"/out.fast5", ModeCreate)
	require.NoError(t, err)

	reads, err := in.Reads()
	require.NoError(t, err)
	for _, r := range reads {
		require.NoError(t, out.AddExistingRead(r, WithTargetCompression(VBZ)))
	}
	err = out.AddExistingRead(reads[0])
	require.ErrorIs(t, err, ErrExists)
	require.NoError(t, out.Close())

	out, err = OpenMulti(dir+"/out.fast5", ModeRead)
	require.NoError(t, err)
	defer out.Close()
	got, err := out.ReadIDs()
	require.NoError(t, err)
	assert.Equal(t, ids, got)
	for _, id := range ids {
		r, err := out.Read(id)
		require.NoError(t, err)
		raw, err := r.RawData()
		require.NoError(t, err)
		assert.Equal(t, fixture.Ramp(50), raw)
		attrs, err := r.RawAttributes()
		require.NoError(t, err)
		assert.Equal(t, id, attrs["read_id"])
	}
	outPath := dir + "/out.fast5"
	assert.Equal(t, groupID(t, outPath, "read_"+ids[0]+"/tracking_id"), groupID(t, outPath, "read_"+ids[2]+"/tracking_id"))
}

func TestAddExistingReadRecompresses(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := dir + "/src.fast5"
	ids := fixture.ReadIDs(2)
	newMultiFile(t, src, "run-y", ids, 300, Gzip)

	in, err := OpenMulti(src, ModeRead)
	require.NoError(t, err)
	defer in.Close()
	out, err := OpenMulti(dir+"/out.fast5", ModeCreate)
	require.NoError(t, err)
	defer out.Close()

	r, err := in.Read(ids[1])
	require.NoError(t, err)
	require.NoError(t, out.AddExistingRead(r, WithTargetCompression(VBZ)))

	copied, err := out.Read(ids[1])
	require.NoError(t, err)
	filters, err := copied.RawCompression()
	require.NoError(t, err)
	assert.True(t, VBZ.Matches(filters))
	assert.False(t, Gzip.Matches(filters))
	raw, err := copied.RawData()
	require.NoError(t, err)
	assert.Equal(t, fixture.Ramp(300), raw)
	attrs, err := copied.RawAttributes()
	require.NoError(t, err)
	assert.Equal(t, int64(3), must(asInt(attrs["read_number"])))
}

func TestAddExistingReadFromSingle(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for i, id := range []string{"s1", "s2"} {
		newSingleRead(t, dir+"/"+id+".fast5", id, "run-s", 20+i, VBZ)
	}

	out, err := OpenMulti(dir+"/out.fast5", ModeCreate)
	require.NoError(t, err)
	for _, id := range []string{"s1", "s2"} {
		in, err := OpenSingle(dir+"/"+id+".fast5", ModeRead)
		require.NoError(t, err)
		opts := []CopyOption{WithTargetCompression(VBZ)}
		if id == "s2" {
			opts = append(opts, WithSanitize())
		}
		require.NoError(t, out.AddExistingRead(in, opts...))
		require.NoError(t, in.Close())
	}
	require.NoError(t, out.Close())

	outPath := dir + "/out.fast5"
	assert.Equal(t, groupID(t, outPath, "read_s1/tracking_id"), groupID(t, outPath, "read_s2/tracking_id"))
	assert.Equal(t, groupID(t, outPath, "read_s1/context_tags"), groupID(t, outPath, "read_s2/context_tags"))
	assert.NotEqual(t, groupID(t, outPath, "read_s1/channel_id"), groupID(t, outPath, "read_s2/channel_id"))

	m, err := OpenMulti(outPath, ModeRead)
	require.NoError(t, err)
	defer m.Close()
	s1, err := m.Read("s1")
	require.NoError(t, err)
	raw, err := s1.RawData()
	require.NoError(t, err)
	assert.Equal(t, fixture.Ramp(20), raw)
	info, err := s1.ChannelInfo()
	require.NoError(t, err)
	assert.Equal(t, 1, info["channel_number"])
	list, err := s1.ListAnalyses("")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	s2, err := m.Read("s2")
	require.NoError(t, err)
	list, err = s2.ListAnalyses("")
	require.NoError(t, err)
	assert.Empty(t, list)
	raw, err = s2.RawData()
	require.NoError(t, err)
	assert.Equal(t, fixture.Ramp(21), raw)
}

func TestMissingCodec(t *testing.T) {
	path := tempPath(t, "codec.fast5")
	newSingleRead(t, path, "r1", "run", 10, VBZ)

	filter.Unregister(filter.IDVBZ)
	defer fixture.RegisterVBZ()

	f, err := OpenSingle(path, ModeRead)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.RawData()
	require.ErrorIs(t, err, ErrMissingCodec)
	var mce *MissingCodecError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, filter.IDVBZ, mce.ID)
	assert.Contains(t, err.Error(), "VBZ compression filter (id=32020) may be missing from expected path")

	w, err := OpenSingle(tempPath(t, "write.fast5"), ModeCreate)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.AddRead(1, "r", 0, 3, 0, -1))
	err = w.AddRawData([]int16{1, 2, 3}, nil, VBZ)
	require.ErrorIs(t, err, ErrMissingCodec)
}

func TestDeleteRead(t *testing.T) {
	t.Parallel()
	path := tempPath(t, "delete.fast5")
	newMultiFile(t, path, "run-d", []string{"a", "b"}, 5, NoCompression)

	m, err := OpenMulti(path, ModeReadWrite)
	require.NoError(t, err)
	defer m.Close()

	err = m.DeleteRead("a")
	require.ErrorIs(t, err, ErrHardlinkSource)
	require.NoError(t, m.DeleteRead("b"))
	require.NoError(t, m.DeleteRead("a"))
	err = m.DeleteRead("a")
	require.ErrorIs(t, err, ErrNotFound)

	ids, err := m.ReadIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)

	r, err := m.CreateEmptyRead("c", "run-d")
	require.NoError(t, err)
	assert.False(t, r.HasContextTags())
}
