package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestDumpPrintsStatsAndTree(t *testing.T) {
	out := execute(t, "--grid", "2", "--lights", "1", "--panes", "1", "--frames", "2")
	assert.Contains(t, out, "frame 0: draws=")
	assert.Contains(t, out, "frame 1: draws=")
	assert.Contains(t, out, "Root")
	assert.Contains(t, out, "Program lit")
}

func TestDumpPrintsCalls(t *testing.T) {
	out := execute(t, "--grid", "1", "--lights", "0", "--panes", "0", "--tree=false", "--calls")
	assert.NotContains(t, out, "Root")
	assert.Contains(t, out, "Draw")
	assert.Contains(t, out, "BindProgram")
}

func TestDumpUsesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\nbackend = \"wgpu\"\nstages = [\"cluster\", \"geometry\"]\n"), 0o644))
	out := execute(t, "-c", path, "--grid", "1", "--panes", "0")
	assert.Contains(t, out, "frame 0:")
}

func TestDumpReportsClusterTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cluster.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\nstages = [\"cluster\", \"geometry\"]\n"), 0o644))
	out := execute(t, "-c", path, "--grid", "2", "--lights", "2", "--frames", "2", "--tree=false")
	assert.Contains(t, out, "clusters: grid=")
	assert.Contains(t, out, "rebuilds=1 ")
	assert.Regexp(t, `assigned=[1-9]\d* refused=\d+`, out)

	out = execute(t, "--grid", "1", "--lights", "0", "--tree=false")
	assert.NotContains(t, out, "clusters:")
}

func TestDumpRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\nbackend = \"dx12\"\n"), 0o644))
	cmd := newCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-c", path})
	assert.Error(t, cmd.Execute())
}
