package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-fast5/fast5"
	"github.com/robert-malhotra/go-fast5/internal/fixture"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "multi.fast5")
	m, err := fast5.OpenMulti(path, fast5.ModeCreate)
	require.NoError(t, err)
	r, err := m.CreateEmptyRead("r1", "run-d")
	require.NoError(t, err)
	require.NoError(t, r.AddRawData(fixture.Ramp(16), map[string]any{"read_id": "r1", "read_number": int32(1)}, fast5.Gzip))
	require.NoError(t, m.Close())
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestDiagnoseText(t *testing.T) {
	t.Parallel()
	path := writeFixture(t)
	out := run(t, path)
	assert.Contains(t, out, "(multi-read)")
	assert.Contains(t, out, `Group "/read_r1"`)
	assert.Contains(t, out, `Dataset "/read_r1/Raw/Signal": shape [16]`)
	assert.Contains(t, out, "@read_id = r1")
}

func TestDiagnoseYAML(t *testing.T) {
	t.Parallel()
	path := writeFixture(t)
	var rep struct {
		Type string `yaml:"type"`
		Root struct {
			Attrs   map[string]any `yaml:"attrs"`
			Members []struct {
				Path string `yaml:"path"`
			} `yaml:"members"`
		} `yaml:"root"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(run(t, "--format", "yaml", path)), &rep))
	assert.Equal(t, "multi-read", rep.Type)
	assert.Equal(t, "multi-read", rep.Root.Attrs["file_type"])
	require.Len(t, rep.Root.Members, 1)
	assert.Equal(t, "/read_r1", rep.Root.Members[0].Path)
}

func TestDiagnoseUnknownFormat(t *testing.T) {
	t.Parallel()
	path := writeFixture(t)
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", path})
	require.Error(t, cmd.Execute())
}
