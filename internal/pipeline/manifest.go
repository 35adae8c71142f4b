// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Run manifest written next to the step logs

package pipeline

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sony-level/pseudodata-runner/internal/exec"
	"github.com/sony-level/pseudodata-runner/internal/provenance"
)

// Manifest records what a run did
type Manifest struct {
	RunID      string           `yaml:"runId"`
	StartedAt  time.Time        `yaml:"startedAt"`
	Duration   string           `yaml:"duration"`
	DryRun     bool             `yaml:"dryRun"`
	Input      string           `yaml:"input"`
	OutDir     string           `yaml:"outDir"`
	Analysis   string           `yaml:"analysis"`
	FitVars    []string         `yaml:"fitVars"`
	Hypotheses []string         `yaml:"hypotheses"`
	Software   *provenance.Info `yaml:"software,omitempty"`
	Success    bool             `yaml:"success"`
	Aborted    bool             `yaml:"aborted"`
	Steps      []ManifestStep   `yaml:"steps"`
}

// ManifestStep is one step entry of the manifest
type ManifestStep struct {
	ID       string `yaml:"id"`
	Stage    string `yaml:"stage"`
	Status   string `yaml:"status"`
	Command  string `yaml:"command"`
	Creates  string `yaml:"creates,omitempty"`
	ExitCode int    `yaml:"exitCode,omitempty"`
	Duration string `yaml:"duration,omitempty"`
	Log      string `yaml:"log,omitempty"`
	Error    string `yaml:"error,omitempty"`
}

// Step status values
const (
	StatusDone    = "done"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
	StatusNotRun  = "not-run"
)

// Record fills the step list and outcome from an execution result. Steps
// after an abort are listed as not-run.
func (m *Manifest) Record(steps []exec.Step, result *exec.ExecutionResult) {
	byID := make(map[string]*exec.StepResult, len(result.StepResults))
	for _, sr := range result.StepResults {
		byID[sr.StepID] = sr
	}

	m.Steps = make([]ManifestStep, 0, len(steps))
	for i := range steps {
		step := &steps[i]
		ms := ManifestStep{
			ID:      step.ID,
			Stage:   string(step.Stage),
			Status:  StatusNotRun,
			Command: step.CommandLine(),
			Creates: step.Creates,
		}
		if sr, ok := byID[step.ID]; ok {
			switch {
			case sr.Skipped:
				ms.Status = StatusSkipped
			case sr.Success:
				ms.Status = StatusDone
			default:
				ms.Status = StatusFailed
			}
			ms.ExitCode = sr.ExitCode
			ms.Log = sr.LogFile
			if sr.Duration > 0 {
				ms.Duration = sr.Duration.Round(time.Millisecond).String()
			}
			if sr.Error != nil {
				ms.Error = sr.Error.Error()
			}
		}
		m.Steps = append(m.Steps, ms)
	}

	m.Success = result.Success
	m.Aborted = result.Aborted
	m.Duration = result.TotalTime.Round(time.Millisecond).String()
}

// Write stores the manifest as YAML
func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a manifest written by Write
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}
