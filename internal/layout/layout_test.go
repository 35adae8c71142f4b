// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for path conventions and run directories

package layout_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/pseudodata-runner/internal/layout"
)

func TestPaths(t *testing.T) {
	l := layout.New("/out", "/www", "ZMassDilepton", "hdf5", "/opt/WRemnants")

	assert.Equal(t, "/out/ZMassDilepton_ptll-yll", l.WorkspaceDir("ptll-yll"))
	assert.Equal(t, "/out/ZMassDilepton_ptll-yll/ZMassDilepton.hdf5", l.WorkspaceFile("ptll-yll"))
	assert.Equal(t, "/out/ZMassDilepton_ptll/fitresults_123456789_uncorr.hdf5", l.FitResultFile("ptll", "uncorr"))
	assert.Equal(t, "/www/ZMassDilepton_ptll", l.WebSubdir("ptll"))
	assert.Equal(t, "/www/ZMassDilepton_ptll/impacts", l.ImpactsDir("ptll"))
	assert.Equal(t, "/opt/WRemnants/scripts/combine/setupCombine.py", l.Script("scripts/combine/setupCombine.py"))
	assert.Equal(t, "/out/.pdr-runs", l.RunsDir())
}

func TestROOTResultName(t *testing.T) {
	l := layout.New("/out", "/www", "ZMassDilepton", "root", "/opt")
	assert.Equal(t, "fitresults_123456789_asimov.root", l.FitResultName("asimov"))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	assert.False(t, layout.Exists(path))
	require.NoError(t, os.WriteFile(path, nil, 0644))
	// an empty file still counts as a completed stage
	assert.True(t, layout.Exists(path))
}

func TestGenerateRunIDUnique(t *testing.T) {
	layout.ResetRunIDState()
	pattern := regexp.MustCompile(`^pdr-\d{8}-\d{4}-[0-9a-f]{3}$`)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id, err := layout.GenerateRunID()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate run ID %s", id)
		seen[id] = true
		assert.True(t, pattern.MatchString(id), "unexpected run ID format %s", id)
	}
}

func TestNewRunDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), layout.RunsDirName)

	rd, err := layout.NewRunDir(base)
	require.NoError(t, err)

	assert.DirExists(t, rd.LogsPath())
	assert.Equal(t, filepath.Join(rd.Path, "run-manifest.yaml"), rd.ManifestFile())
	assert.Equal(t, filepath.Join(rd.LogsPath(), "fit_ptll_asimov.log"), rd.StepLogFile("fit/ptll/asimov"))
}

func TestNewRunDirSkipsTakenID(t *testing.T) {
	layout.ResetRunIDState()
	base := t.TempDir()

	first, err := layout.NewRunDir(base)
	require.NoError(t, err)

	// the next ID in the same minute is the counter form; occupy it
	taken := first.RunID[:len(first.RunID)-3] + "001"
	if taken != first.RunID {
		require.NoError(t, os.Mkdir(filepath.Join(base, taken), 0755))
	}

	second, err := layout.NewRunDir(base)
	require.NoError(t, err)
	assert.NotEqual(t, taken, second.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.DirExists(t, second.LogsPath())
	if taken != first.RunID {
		assert.NoDirExists(t, filepath.Join(base, taken, layout.LogsSubdir))
	}
}

func TestCleanupStale(t *testing.T) {
	base := filepath.Join(t.TempDir(), layout.RunsDirName)

	old, err := layout.NewRunDir(base)
	require.NoError(t, err)
	fresh, err := layout.NewRunDir(base)
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old.Path, past, past))

	cleaned, err := layout.CleanupStale(base, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned)
	assert.NoDirExists(t, old.Path)
	assert.DirExists(t, fresh.Path)
}

func TestCleanupStaleMissingDir(t *testing.T) {
	cleaned, err := layout.CleanupStale(filepath.Join(t.TempDir(), "none"), 1)
	require.NoError(t, err)
	assert.Zero(t, cleaned)
}
