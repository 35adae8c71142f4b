// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Prerequisite types and tool definitions

package prereq

// Tool represents a prerequisite executable
type Tool struct {
	Name         string   // Tool name
	Command      string   // Command to check existence
	VersionArgs  []string // Arguments printing the version
	Alternatives []string // Alternative command names
	InstallGuide string   // Installation instructions
}

// DefaultTools returns the executables the pipeline knows how to find
func DefaultTools() map[string]*Tool {
	return map[string]*Tool{
		"python3": {
			Name:         "python3",
			Command:      "python3",
			VersionArgs:  []string{"--version"},
			Alternatives: []string{"python"},
			InstallGuide: `Set up the analysis environment first:
  source $WREM_BASE/setup.sh
or point "python" in the config at the interpreter of the analysis environment.`,
		},
		"singularity": {
			Name:         "singularity",
			Command:      "singularity",
			VersionArgs:  []string{"--version"},
			Alternatives: []string{"apptainer"},
			InstallGuide: `The fit runs inside a container image from /cvmfs.
  lxplus:  singularity is available by default
  Other:   https://apptainer.org/docs/admin/main/installation.html
Or leave container.image empty to run the fit tool directly.`,
		},
		"apptainer": {
			Name:         "apptainer",
			Command:      "apptainer",
			VersionArgs:  []string{"--version"},
			Alternatives: []string{"singularity"},
			InstallGuide: `Install apptainer:
  https://apptainer.org/docs/admin/main/installation.html`,
		},
	}
}

// CheckResult contains the result of checking a tool or script
type CheckResult struct {
	Name    string // Tool name or script path
	Found   bool   // Whether it was found
	Version string // Detected version (if found)
	Path    string // Resolved path (if found)
	IsFile  bool   // A script under the install root rather than a PATH tool

	Alternative     string // Alternative command that matched instead of Name
	AlternativePath string // Where the alternative lives when it does not count as found
}

// CheckSummary contains results for all checks
type CheckSummary struct {
	Results      []CheckResult // Individual results
	AllFound     bool          // Whether everything was found
	MissingTools []string      // Names of missing tools and scripts
}

// NewCheckSummary creates a new check summary
func NewCheckSummary() *CheckSummary {
	return &CheckSummary{
		Results:      []CheckResult{},
		AllFound:     true,
		MissingTools: []string{},
	}
}

// AddResult adds a check result to the summary
func (s *CheckSummary) AddResult(result CheckResult) {
	s.Results = append(s.Results, result)
	if !result.Found {
		s.AllFound = false
		s.MissingTools = append(s.MissingTools, result.Name)
	}
}
