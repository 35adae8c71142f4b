// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Completion status derived from the output files on disk

package pipeline

import (
	"fmt"
	"strings"

	"github.com/sony-level/pseudodata-runner/internal/config"
	"github.com/sony-level/pseudodata-runner/internal/layout"
)

// ResultStatus tells whether one fit result is present
type ResultStatus struct {
	Hypothesis string
	Path       string
	Exists     bool
}

// VariableStatus is the completion state of one fit variable
type VariableStatus struct {
	FitVar          string
	Workspace       string
	WorkspaceExists bool
	Results         []ResultStatus
}

// Pending counts the fits that would run on the next invocation
func (v VariableStatus) Pending() int {
	n := 0
	for _, r := range v.Results {
		if !r.Exists {
			n++
		}
	}
	return n
}

// Status inspects the output directory for every configured fit variable
func Status(cfg *config.Config, l *layout.Layout) []VariableStatus {
	statuses := make([]VariableStatus, 0, len(cfg.FitVars))
	for _, fv := range cfg.FitVars {
		vs := VariableStatus{
			FitVar:          fv,
			Workspace:       l.WorkspaceFile(fv),
			WorkspaceExists: layout.Exists(l.WorkspaceFile(fv)),
		}
		for _, hyp := range cfg.Hypotheses() {
			path := l.FitResultFile(fv, hyp)
			vs.Results = append(vs.Results, ResultStatus{
				Hypothesis: hyp,
				Path:       path,
				Exists:     layout.Exists(path),
			})
		}
		statuses = append(statuses, vs)
	}
	return statuses
}

// FormatStatus renders the status table printed by `pdr status`
func FormatStatus(statuses []VariableStatus) string {
	var sb strings.Builder
	for _, vs := range statuses {
		mark := "✗"
		if vs.WorkspaceExists {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, vs.FitVar))
		sb.WriteString(fmt.Sprintf("    workspace: %s\n", vs.Workspace))

		width := 0
		for _, r := range vs.Results {
			if len(r.Hypothesis) > width {
				width = len(r.Hypothesis)
			}
		}
		for _, r := range vs.Results {
			state := "missing"
			if r.Exists {
				state = "done"
			}
			sb.WriteString(fmt.Sprintf("    %-*s  %s\n", width, r.Hypothesis, state))
		}
		sb.WriteString(fmt.Sprintf("    pending fits: %d/%d\n", vs.Pending(), len(vs.Results)))
	}
	return sb.String()
}
