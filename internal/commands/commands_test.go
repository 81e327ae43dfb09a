package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/schemagraph/internal/config"
	"github.com/HendryAvila/schemagraph/internal/graph"
	"github.com/HendryAvila/schemagraph/internal/mapping"
)

const fixture = `[
	{"id": "R1", "label": "Root", "target_class": {"id": "C1", "label": "Root"},
	 "properties": [{"id": "p1", "order": 0, "max_count": 1, "path": {"id": "P1", "label": "part"}, "class": {"id": "C2", "label": "Part"}}]},
	{"id": "R2", "label": "Part", "target_class": {"id": "C2", "label": "Part"}, "properties": [
		{"id": "p2", "order": 0, "path": {"id": "P2", "label": "name"}, "datatype": {"id": "String", "label": "String"}}
	]}
]`

// setup writes the fixture and returns base args pointing at an isolated
// config path.
func setup(t *testing.T) (dir string, base []string) {
	t.Helper()
	dir = t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	t.Setenv(config.EnvCacheDir, filepath.Join(dir, "cache"))
	return dir, []string{"--config", filepath.Join(dir, "config.yaml"), "--fixture", path, "--log-level", "error"}
}

func execute(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "schemagraph v")
}

func TestGraphCmd(t *testing.T) {
	_, base := setup(t)
	out, err := execute(t, append(base, "graph", "R1")...)
	require.NoError(t, err)

	var g graph.Graph
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, "C1", g.RootID)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Edges, 1)
}

func TestFlowCmd(t *testing.T) {
	_, base := setup(t)
	out, err := execute(t, append(base, "flow", "R1")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"neighbors"`)
	assert.Contains(t, out, `"id": "R2"`)
}

func TestMappingCmd_Output(t *testing.T) {
	dir, base := setup(t)
	path := filepath.Join(dir, "out.json")

	_, err := execute(t, append(base, "mapping", "R1", "-o", path)...)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m mapping.Mapping
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "R2", m["P1"].SubtemplateID)
	assert.Contains(t, m["P1"].SubtemplateProperties, "P2")
}

func TestMappingCmd_Download(t *testing.T) {
	dir, base := setup(t)
	t.Chdir(dir)

	_, err := execute(t, append(base, "mapping", "R1", "--download")...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "R1-predicates-mapping.json"))
}

func TestPromptCmd(t *testing.T) {
	_, base := setup(t)
	out, err := execute(t, append(base, "prompt", "R1", "-q", "Which parts exist?")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Which parts exist?")
	assert.Contains(t, out, "orkgp:P1")
}

func TestExportCmd_Errors(t *testing.T) {
	_, base := setup(t)

	_, err := execute(t, append(base, "graph", "C1")...)
	assert.ErrorContains(t, err, "resource ID")

	_, err = execute(t, append(base, "graph")...)
	assert.Error(t, err)

	_, err = execute(t, append(base, "graph", "R404")...)
	assert.ErrorContains(t, err, "not found")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "--config", path, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "--log-level", "debug", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "level: debug")
}

func TestConfigShow_InvalidLevel(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "c.yaml"), "--log-level", "loud", "config", "show")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestCacheCmd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.EnvCacheDir, filepath.Join(dir, "cache"))
	base := []string{"--config", filepath.Join(dir, "config.yaml"), "--log-level", "error"}

	out, err := execute(t, append(base, "cache", "stats")...)
	require.NoError(t, err)
	assert.Contains(t, out, "templates:     0")

	out, err = execute(t, append(base, "cache", "clear")...)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 0 entries")

	_, err = execute(t, append(base, "--no-cache", "cache", "prune")...)
	assert.ErrorContains(t, err, "disabled")
}
