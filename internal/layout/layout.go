// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Path conventions shared by every pipeline stage

package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// New returns a layout rooted at outDir
func New(outDir, webDir, analysis, resultExt, installRoot string) *Layout {
	return &Layout{
		OutDir:      outDir,
		WebDir:      webDir,
		Analysis:    analysis,
		ResultExt:   resultExt,
		InstallRoot: installRoot,
	}
}

// Subfolder is the <analysis>_<fitvar> name used under both outdir and webdir
func (l *Layout) Subfolder(fitVar string) string {
	return l.Analysis + "_" + fitVar
}

// WorkspaceDir returns <outdir>/<analysis>_<fitvar>
func (l *Layout) WorkspaceDir(fitVar string) string {
	return filepath.Join(l.OutDir, l.Subfolder(fitVar))
}

// WorkspaceFile returns the combined workspace written by the workspace builder
func (l *Layout) WorkspaceFile(fitVar string) string {
	return filepath.Join(l.WorkspaceDir(fitVar), l.Analysis+".hdf5")
}

// FitResultName returns fitresults_<seed>_<hypothesis>.<ext>
func (l *Layout) FitResultName(hypothesis string) string {
	return fmt.Sprintf("fitresults_%s_%s.%s", FitSeed, hypothesis, l.ResultExt)
}

// FitResultFile returns the fit result path for a hypothesis, next to its workspace
func (l *Layout) FitResultFile(fitVar, hypothesis string) string {
	return filepath.Join(l.WorkspaceDir(fitVar), l.FitResultName(hypothesis))
}

// WebSubdir returns <webdir>/<analysis>_<fitvar>
func (l *Layout) WebSubdir(fitVar string) string {
	return filepath.Join(l.WebDir, l.Subfolder(fitVar))
}

// ImpactsDir returns the output folder of impact/pull plots
func (l *Layout) ImpactsDir(fitVar string) string {
	return filepath.Join(l.WebSubdir(fitVar), ImpactsSubdir)
}

// SummaryDir returns the output folder of summary tables
func (l *Layout) SummaryDir(fitVar string) string {
	return filepath.Join(l.WebSubdir(fitVar), SummarySubdir)
}

// Script returns the absolute path of a tool script under the install root
func (l *Layout) Script(rel string) string {
	return filepath.Join(l.InstallRoot, rel)
}

// RunsDir returns <outdir>/.pdr-runs
func (l *Layout) RunsDir() string {
	return filepath.Join(l.OutDir, RunsDirName)
}

// Exists reports whether path is present. Presence is the only completion
// marker: no size, checksum or age check.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
