package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/fast5"
)

func TestDemux(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	require.NoError(t, os.MkdirAll(in, 0o755))
	writeMulti(t, filepath.Join(in, "a.fast5"), "run", []string{"r1", "r2", "r3"}, fast5.Gzip)
	writeMulti(t, filepath.Join(in, "b.fast5"), "run", []string{"r4", "r5"}, fast5.Gzip)
	summary := filepath.Join(dir, "barcoding_summary.txt")
	writeText(t, summary, "read_id\tbarcode_arrangement\n"+
		"r1\tbarcode01\n"+
		"r2\tbarcode02\n"+
		"r3\tbarcode01\n"+
		"r5\tbarcode01\n"+
		"r6\tbarcode02\n")

	for _, threads := range []int{1, 4} {
		out := filepath.Join(dir, fmt.Sprintf("out%d", threads))
		rep, err := Demux(context.Background(), in, out, summary, DemuxOptions{
			BatchOptions: BatchOptions{BatchSize: 2, Options: Options{Threads: threads}},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, rep.Requested)
		assert.Equal(t, 4, rep.Extracted)
		assert.Equal(t, 1, rep.NotFound())

		var bc01 []string
		for _, f := range fast5Files(t, filepath.Join(out, "barcode01")) {
			bc01 = append(bc01, multiReadIDs(t, f)...)
		}
		assert.ElementsMatch(t, []string{"r1", "r3", "r5"}, bc01)
		bc02 := fast5Files(t, filepath.Join(out, "barcode02"))
		require.Len(t, bc02, 1)
		assert.Equal(t, []string{"r2"}, multiReadIDs(t, bc02[0]))
		_, err = os.Stat(filepath.Join(out, "barcode02", MappingFile))
		require.NoError(t, err)
	}
}

func TestDemuxCustomColumns(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := filepath.Join(dir, "reads.fast5")
	writeMulti(t, in, "run", []string{"r1", "r2"}, fast5.Gzip)
	summary := filepath.Join(dir, "summary.tsv")
	writeText(t, summary, "name\tsample\nr1\tx\nr2\ty\n")

	out := filepath.Join(dir, "out")
	_, err := Demux(context.Background(), in, out, summary, DemuxOptions{})
	require.ErrorContains(t, err, "read_id")

	rep, err := Demux(context.Background(), in, out, summary, DemuxOptions{ReadIDColumn: "name", BinColumn: "sample"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Extracted)
	assert.Equal(t, []string{"r1"}, multiReadIDs(t, filepath.Join(out, "x", "batch0.fast5")))
	assert.Equal(t, []string{"r2"}, multiReadIDs(t, filepath.Join(out, "y", "batch0.fast5")))
}

func TestDemuxRejectsUnsafeBins(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	in := filepath.Join(dir, "reads.fast5")
	writeMulti(t, in, "run", []string{"r1", "r2"}, fast5.Gzip)

	for i, bin := range []string{"..", ".", "", "../escape", "a/b", `a\b`, "/abs"} {
		summary := filepath.Join(dir, fmt.Sprintf("summary%d.tsv", i))
		writeText(t, summary, "read_id\tbarcode_arrangement\nr1\tbarcode01\nr2\t"+bin+"\n")
		out := filepath.Join(dir, fmt.Sprintf("out%d", i))
		_, err := Demux(context.Background(), in, out, summary, DemuxOptions{})
		require.ErrorIs(t, err, ErrBinName, "bin %q", bin)
		assert.NoDirExists(t, out)
	}
	assert.NoDirExists(t, filepath.Join(dir, "escape"))
}
