// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Configuration validation

package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ValidationError collects every problem found in a configuration
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks the configuration and returns a *ValidationError listing
// every problem, or nil
func (c *Config) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(c.Analysis) == "" {
		verr.add("analysis must not be empty")
	}
	if strings.ContainsAny(c.Analysis, "/ ") {
		verr.add("analysis %q must not contain spaces or slashes", c.Analysis)
	}

	if len(c.FitVars) == 0 {
		verr.add("at least one fit variable is required")
	}
	seen := make(map[string]bool)
	for _, fv := range c.FitVars {
		if strings.TrimSpace(fv) == "" {
			verr.add("fit variable must not be empty")
			continue
		}
		if seen[fv] {
			verr.add("duplicate fit variable %q", fv)
		}
		seen[fv] = true
	}

	seen = make(map[string]bool)
	for _, label := range c.Pseudodata {
		switch {
		case strings.TrimSpace(label) == "":
			verr.add("pseudodata label must not be empty")
		case label == HypothesisAsimov || label == HypothesisData:
			verr.add("pseudodata label %q is reserved", label)
		case seen[label]:
			verr.add("duplicate pseudodata label %q", label)
		}
		seen[label] = true
	}

	if c.ResultFormat != ResultFormatHDF5 && c.ResultFormat != ResultFormatROOT {
		verr.add("resultFormat must be %q or %q, got %q", ResultFormatHDF5, ResultFormatROOT, c.ResultFormat)
	}

	if len(c.PlotRanges) != 2 {
		verr.add("exactly two plot ranges are required, got %d", len(c.PlotRanges))
	}
	for _, pr := range c.PlotRanges {
		if pr.Name == "" {
			verr.add("plot range name must not be empty")
		}
	}
	if len(c.PlotRanges) == 2 && c.PlotRanges[0].Name == c.PlotRanges[1].Name {
		verr.add("plot range names must differ")
	}

	if c.InstallRoot == "" || !filepath.IsAbs(c.InstallRoot) {
		verr.add("installRoot must be an absolute path, got %q", c.InstallRoot)
	}
	if c.WebDir == "" {
		verr.add("webDir must not be empty")
	}
	if c.Python == "" {
		verr.add("python must not be empty")
	}
	if c.Container.Image != "" && c.Container.Runtime == "" {
		verr.add("container.runtime is required when container.image is set")
	}
	if c.Container.FitTool == "" {
		verr.add("container.fitTool must not be empty")
	}
	if c.Impacts.Num < 0 {
		verr.add("impacts.num must not be negative")
	}
	if c.Impacts.Mode != "" && !slices.Contains(ImpactModes, c.Impacts.Mode) {
		verr.add("impacts.mode must be one of %s, got %q", strings.Join(ImpactModes, ", "), c.Impacts.Mode)
	}
	if c.Impacts.Sort != "" && !slices.Contains(ImpactSortModes(), c.Impacts.Sort) {
		verr.add("impacts.sort %q is not a sort mode of the impacts tool", c.Impacts.Sort)
	}
	if c.Summary.Enabled && c.Summary.Script == "" {
		verr.add("summary.script is required when summary is enabled")
	}

	if _, err := c.Timeout(); err != nil {
		verr.add("%v", err)
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}
