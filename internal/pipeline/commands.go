// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Command lines of the external analysis tools

package pipeline

import (
	"strconv"

	"github.com/sony-level/pseudodata-runner/internal/config"
)

// Tool scripts relative to the install root
const (
	SetupCombineScript = "scripts/combine/setupCombine.py"
	PostfitPlotsScript = "scripts/plotting/postfitPlots.py"
	ImpactsScript      = "scripts/combine/pullsAndImpacts.py"
)

// Scripts lists every tool script a run needs under the install root
func Scripts(cfg *config.Config) []string {
	scripts := []string{SetupCombineScript, PostfitPlotsScript, ImpactsScript}
	if cfg.Summary.Enabled {
		scripts = append(scripts, cfg.Summary.Script)
	}
	return scripts
}

func (b *Builder) workspaceArgs(fitVar string) []string {
	args := []string{
		b.layout.Script(SetupCombineScript),
		"-i", b.input,
		"-o", b.layout.OutDir,
		"--fitvar", fitVar,
		"--hdf5",
	}
	if len(b.cfg.Pseudodata) > 0 {
		args = append(args, "--pseudoData")
		args = append(args, b.cfg.Pseudodata...)
	}
	return args
}

// fitCommand returns the program and arguments of a fit, wrapped in the
// container runtime when an image is configured
func (b *Builder) fitCommand(fitVar, hypothesis string) (string, []string) {
	fitArgs := []string{
		b.cfg.Container.FitTool,
		b.layout.WorkspaceFile(fitVar),
		"-o", b.layout.FitResultFile(fitVar, hypothesis),
		"--binByBinStat",
		"--doImpacts",
		"--saveHists",
		"--computeHistErrors",
	}

	switch hypothesis {
	case config.HypothesisAsimov:
		fitArgs = append(fitArgs, "-t", "-1")
	case config.HypothesisData:
		fitArgs = append(fitArgs, "-t", "0")
	default:
		fitArgs = append(fitArgs, "-t", "0", "--pseudoData", hypothesis)
	}

	c := b.cfg.Container
	if c.Image == "" {
		return fitArgs[0], fitArgs[1:]
	}

	args := []string{"run"}
	for _, bind := range c.Binds {
		args = append(args, "--bind", bind)
	}
	args = append(args, c.Image)
	args = append(args, fitArgs...)
	return c.Runtime, args
}

func (b *Builder) plotArgs(fitVar, hypothesis string, pr config.PlotRange) []string {
	args := []string{
		b.layout.Script(PostfitPlotsScript),
		b.layout.FitResultFile(fitVar, hypothesis),
		"-f", b.layout.WebDir,
		"--subfolder", b.layout.Subfolder(fitVar),
		"--postfix", hypothesis + "_" + pr.Name,
	}
	return append(args, pr.Args...)
}

func (b *Builder) impactsArgs(fitVar, hypothesis string) []string {
	imp := b.cfg.Impacts
	args := []string{
		b.layout.Script(ImpactsScript),
		"-f", b.layout.FitResultFile(fitVar, hypothesis),
		"-r", b.layout.FitResultFile(fitVar, config.HypothesisAsimov),
	}
	if imp.Sort != "" {
		args = append(args, "-s", imp.Sort)
	}
	if imp.Mode != "" {
		args = append(args, "-m", imp.Mode)
	}
	if imp.Grouping != "" {
		args = append(args, "--grouping", imp.Grouping)
	}
	if imp.POI != "" {
		args = append(args, "--poi", imp.POI)
	}
	args = append(args, imp.ExtraArgs...)

	args = append(args,
		"output",
		"--outFolder", b.layout.ImpactsDir(fitVar),
		"-o", "impacts_"+hypothesis+".html",
	)
	if len(imp.Extensions) > 0 {
		args = append(args, "--otherExtensions")
		args = append(args, imp.Extensions...)
	}
	if imp.Num > 0 {
		args = append(args, "-n", strconv.Itoa(imp.Num))
	}
	if imp.NoPulls {
		args = append(args, "--noPulls")
	}
	if imp.EOSCopy {
		args = append(args, "--eoscp")
	}
	return args
}

func (b *Builder) summaryArgs(fitVar string) []string {
	args := []string{b.layout.Script(b.cfg.Summary.Script), "-i"}
	for _, hyp := range b.cfg.Hypotheses() {
		args = append(args, b.layout.FitResultFile(fitVar, hyp))
	}
	return append(args, "-o", b.layout.SummaryDir(fitVar))
}
