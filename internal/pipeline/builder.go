// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Ordered step list for the pseudodata study

package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sony-level/pseudodata-runner/internal/config"
	"github.com/sony-level/pseudodata-runner/internal/exec"
	"github.com/sony-level/pseudodata-runner/internal/layout"
)

// Builder assembles the steps of one run
type Builder struct {
	cfg    *config.Config
	layout *layout.Layout
	input  string
	logger *zap.Logger
}

// NewBuilder validates cfg and returns a builder for the given input
// histogram file and output directory
func NewBuilder(cfg *config.Config, input, outDir string, logger *zap.Logger) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if input == "" {
		return nil, fmt.Errorf("input histogram file is required")
	}
	if outDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Builder{
		cfg:    cfg,
		layout: layout.New(outDir, cfg.WebDir, cfg.Analysis, cfg.ResultExtension(), cfg.InstallRoot),
		input:  input,
		logger: logger,
	}, nil
}

// Layout returns the path conventions used by the builder
func (b *Builder) Layout() *layout.Layout {
	return b.layout
}

// Build returns every step of the run, fit variable by fit variable: the
// workspace, each fit followed by its plots, the impacts and, when enabled,
// the summary
func (b *Builder) Build() []exec.Step {
	var steps []exec.Step
	for _, fitVar := range b.cfg.FitVars {
		fvSteps := b.buildFitVar(fitVar)
		b.logger.Debug("Planned fit variable",
			zap.String("fitvar", fitVar),
			zap.String("workspace", b.layout.WorkspaceFile(fitVar)),
			zap.Int("steps", len(fvSteps)))
		steps = append(steps, fvSteps...)
	}
	return steps
}

func (b *Builder) buildFitVar(fitVar string) []exec.Step {
	hyps := b.cfg.Hypotheses()
	steps := make([]exec.Step, 0, 1+len(hyps)*(1+len(b.cfg.PlotRanges)+1)+1)

	steps = append(steps, exec.Step{
		ID:          StepID(exec.StageWorkspace, fitVar),
		Stage:       exec.StageWorkspace,
		Description: fmt.Sprintf("Build %s workspace for %s", b.cfg.Analysis, fitVar),
		Program:     b.cfg.Python,
		Args:        b.workspaceArgs(fitVar),
		Creates:     b.layout.WorkspaceFile(fitVar),
		Fatal:       true,
	})

	for _, hyp := range hyps {
		program, args := b.fitCommand(fitVar, hyp)
		steps = append(steps, exec.Step{
			ID:          StepID(exec.StageFit, fitVar, hyp),
			Stage:       exec.StageFit,
			Description: fmt.Sprintf("Fit %s to %s", fitVar, hyp),
			Program:     program,
			Args:        args,
			Creates:     b.layout.FitResultFile(fitVar, hyp),
			Fatal:       true,
		})

		for _, pr := range b.cfg.PlotRanges {
			steps = append(steps, exec.Step{
				ID:          StepID(exec.StagePlot, fitVar, hyp, pr.Name),
				Stage:       exec.StagePlot,
				Description: fmt.Sprintf("Pre/post-fit plots for %s (%s range)", hyp, pr.Name),
				Program:     b.cfg.Python,
				Args:        b.plotArgs(fitVar, hyp, pr),
			})
		}
	}

	for _, hyp := range hyps {
		if hyp == config.HypothesisAsimov {
			continue
		}
		steps = append(steps, exec.Step{
			ID:          StepID(exec.StageImpacts, fitVar, hyp),
			Stage:       exec.StageImpacts,
			Description: fmt.Sprintf("Impacts and pulls of %s against asimov", hyp),
			Program:     b.cfg.Python,
			Args:        b.impactsArgs(fitVar, hyp),
		})
	}

	if b.cfg.Summary.Enabled {
		steps = append(steps, exec.Step{
			ID:          StepID(exec.StageSummary, fitVar),
			Stage:       exec.StageSummary,
			Description: fmt.Sprintf("Summary tables for %s", fitVar),
			Program:     b.cfg.Python,
			Args:        b.summaryArgs(fitVar),
		})
	}

	return steps
}

// StepID joins a stage and its keys, e.g. fit/ptll/asimov
func StepID(stage exec.Stage, keys ...string) string {
	id := string(stage)
	for _, k := range keys {
		id += "/" + k
	}
	return id
}
