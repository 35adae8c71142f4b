// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for the run manifest and status report

package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sony-level/pseudodata-runner/internal/exec"
	"github.com/sony-level/pseudodata-runner/internal/pipeline"
	"github.com/sony-level/pseudodata-runner/internal/provenance"
)

func TestManifestRecordAndRoundTrip(t *testing.T) {
	steps := []exec.Step{
		{ID: "workspace/ptll", Stage: exec.StageWorkspace, Program: "python3", Creates: "/out/ws.hdf5"},
		{ID: "fit/ptll/asimov", Stage: exec.StageFit, Program: "singularity", Fatal: true},
		{ID: "plot/ptll/asimov/wide", Stage: exec.StagePlot, Program: "python3"},
	}

	result := exec.NewExecutionResult()
	result.AddStepResult(&exec.StepResult{StepID: "workspace/ptll", Skipped: true, Success: true})
	result.AddStepResult(&exec.StepResult{StepID: "fit/ptll/asimov", ExitCode: 2, Error: errors.New("fit failed"), Duration: time.Second})
	result.Aborted = true

	m := &pipeline.Manifest{
		RunID:    "pdr-20261019-1200-abc",
		Analysis: "ZMassDilepton",
		FitVars:  []string{"ptll"},
		Software: &provenance.Info{Root: "/opt/WRemnants", Commit: "deadbeef"},
	}
	m.Record(steps, result)

	require.Len(t, m.Steps, 3)
	assert.Equal(t, pipeline.StatusSkipped, m.Steps[0].Status)
	assert.Equal(t, pipeline.StatusFailed, m.Steps[1].Status)
	assert.Equal(t, 2, m.Steps[1].ExitCode)
	assert.Equal(t, "fit failed", m.Steps[1].Error)
	assert.Equal(t, pipeline.StatusNotRun, m.Steps[2].Status)
	assert.False(t, m.Success)
	assert.True(t, m.Aborted)

	path := filepath.Join(t.TempDir(), "run-manifest.yaml")
	require.NoError(t, m.Write(path))

	loaded, err := pipeline.ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, loaded.RunID)
	assert.Equal(t, m.Steps, loaded.Steps)
	assert.Equal(t, "deadbeef", loaded.Software.Commit)
}

func TestStatus(t *testing.T) {
	cfg := testConfig(t)
	cfg.FitVars = []string{"ptll"}
	b, _ := newBuilder(t, cfg)
	l := b.Layout()

	for _, path := range []string{l.WorkspaceFile("ptll"), l.FitResultFile("ptll", "asimov")} {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	statuses := pipeline.Status(cfg, l)
	require.Len(t, statuses, 1)

	vs := statuses[0]
	assert.True(t, vs.WorkspaceExists)
	assert.Len(t, vs.Results, len(cfg.Hypotheses()))
	assert.True(t, vs.Results[0].Exists)
	assert.Equal(t, len(cfg.Hypotheses())-1, vs.Pending())

	out := pipeline.FormatStatus(statuses)
	assert.Contains(t, out, "✓ ptll")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "missing")
}
