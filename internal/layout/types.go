// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// layout types/constants

package layout

const (
	// FitSeed is the fixed toy seed the fit tool embeds in result file names
	FitSeed = "123456789"

	RunsDirName  = ".pdr-runs"
	RunIDPrefix  = "pdr"
	LogsSubdir   = "logs"
	ManifestName = "run-manifest.yaml"

	ImpactsSubdir = "impacts"
	SummarySubdir = "summary"
)

// Layout resolves every path the pipeline reads or writes for one analysis
type Layout struct {
	OutDir      string
	WebDir      string
	Analysis    string
	ResultExt   string
	InstallRoot string
}

// RunDir is the per-invocation directory holding step logs and the manifest
type RunDir struct {
	RunID   string
	Path    string
	BaseDir string
}
