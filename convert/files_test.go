package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestFindFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	in := filepath.Join(root, "in")
	touch(t, filepath.Join(in, "b.fast5"))
	touch(t, filepath.Join(in, "a.fast5"))
	touch(t, filepath.Join(in, "notes.txt"))
	touch(t, filepath.Join(in, "sub", "c.fast5"))
	touch(t, filepath.Join(root, "linked", "d.fast5"))
	require.NoError(t, os.Symlink(filepath.Join(root, "linked"), filepath.Join(in, "link")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(in, "dangling.fast5")))
	// A cycle back to the top must not loop.
	require.NoError(t, os.Symlink(in, filepath.Join(in, "sub", "loop")))

	tests := []struct {
		name      string
		recursive bool
		follow    bool
		want      []string
	}{
		{"flat", false, true, []string{"a.fast5", "b.fast5", "dangling.fast5"}},
		{"recursive", true, false, []string{"a.fast5", "b.fast5", "dangling.fast5", "sub/c.fast5"}},
		{"recursive following links", true, true, []string{"a.fast5", "b.fast5", "dangling.fast5", "link/d.fast5", "sub/c.fast5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFiles(in, tt.recursive, tt.follow)
			require.NoError(t, err)
			rel := make([]string, len(got))
			for i, p := range got {
				rel[i], err = filepath.Rel(in, p)
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, rel)
		})
	}

	file := filepath.Join(in, "notes.txt")
	got, err := FindFiles(file, true, true)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, got)

	_, err = FindFiles(filepath.Join(root, "nope"), false, false)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMappingLog(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, MappingFile), []byte("stale\tline\n"), 0o644))

	l, err := NewMappingLog(dir)
	require.NoError(t, err)
	require.NoError(t, l.Add("read-1", "batch0.fast5"))
	require.NoError(t, l.Add("read-2", "batch0.fast5"))
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	require.Error(t, l.Add("late", "x"))

	assert.Equal(t, "read-1\tbatch0.fast5\nread-2\tbatch0.fast5\n", readFile(t, l.Path()))
}
