// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Prerequisite checker for tools and analysis scripts

package prereq

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sony-level/pseudodata-runner/internal/config"
)

// Checker verifies tool existence
type Checker struct {
	tools map[string]*Tool
}

// NewChecker creates a new prerequisite checker
func NewChecker() *Checker {
	return &Checker{
		tools: DefaultTools(),
	}
}

// NewCheckerWithTools creates a checker with custom tools
func NewCheckerWithTools(tools map[string]*Tool) *Checker {
	return &Checker{
		tools: tools,
	}
}

// CheckPipeline verifies every program the steps launch and every script
// under the install root. The fit tool is a program of its own only when no
// container image wraps it.
func (c *Checker) CheckPipeline(cfg *config.Config, scripts []string) *CheckSummary {
	summary := NewCheckSummary()

	summary.AddResult(c.checkLaunched(cfg.Python))
	if cfg.Container.Image != "" {
		summary.AddResult(c.checkLaunched(cfg.Container.Runtime))
	} else {
		summary.AddResult(c.checkLaunched(cfg.Container.FitTool))
	}

	for _, script := range scripts {
		summary.AddResult(c.CheckScript(filepath.Join(cfg.InstallRoot, script)))
	}

	return summary
}

// CheckTool checks if a specific tool exists
func (c *Checker) CheckTool(name string) CheckResult {
	result := CheckResult{Name: name}

	tool, ok := c.tools[strings.ToLower(filepath.Base(name))]
	if !ok {
		// Unknown tool - try direct command check
		if path := c.whichCommand(name); path != "" {
			result.Found = true
			result.Path = path
		}
		return result
	}

	command := tool.Command
	if filepath.IsAbs(name) {
		command = name
	}
	if path := c.whichCommand(command); path != "" {
		result.Found = true
		result.Path = path
		result.Version = c.getVersion(path, tool.VersionArgs)
		return result
	}

	for _, alt := range tool.Alternatives {
		if path := c.whichCommand(alt); path != "" {
			result.Found = true
			result.Path = path
			result.Version = c.getVersion(path, tool.VersionArgs)
			result.Alternative = alt
			return result
		}
	}

	return result
}

// checkLaunched checks a program the steps start by its configured name. An
// alternative on PATH does not satisfy it since the steps never run that one.
func (c *Checker) checkLaunched(name string) CheckResult {
	result := c.CheckTool(name)
	if result.Alternative == "" {
		return result
	}
	result.Found = false
	result.AlternativePath = result.Path
	result.Path = ""
	result.Version = ""
	return result
}

// CheckScript checks that a tool script exists as a regular file
func (c *Checker) CheckScript(path string) CheckResult {
	result := CheckResult{Name: path, IsFile: true}
	info, err := os.Stat(path)
	if err == nil && info.Mode().IsRegular() {
		result.Found = true
		result.Path = path
	}
	return result
}

// GetTool returns a tool definition by name
func (c *Checker) GetTool(name string) *Tool {
	return c.tools[strings.ToLower(filepath.Base(name))]
}

// GetInstallGuide returns installation instructions for a tool
func (c *Checker) GetInstallGuide(name string) string {
	tool := c.GetTool(name)
	if tool == nil {
		return "No installation guide available for " + name
	}
	return tool.InstallGuide
}

// whichCommand returns the full path to a command
func (c *Checker) whichCommand(cmd string) string {
	path, err := exec.LookPath(cmd)
	if err != nil {
		return ""
	}
	return path
}

// getVersion runs the tool with its version arguments and returns the first line
func (c *Checker) getVersion(path string, args []string) string {
	if len(args) == 0 {
		return ""
	}

	out, err := exec.Command(path, args...).CombinedOutput()
	if err != nil {
		return ""
	}

	output := strings.TrimSpace(string(out))
	if idx := strings.Index(output, "\n"); idx > 0 {
		output = output[:idx]
	}

	return output
}

// FormatMissing returns a formatted string of missing tools with install guides
func (c *Checker) FormatMissing(summary *CheckSummary) string {
	if summary.AllFound {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing prerequisites:\n\n")

	for _, result := range summary.Results {
		if result.Found {
			continue
		}
		sb.WriteString("─────────────────────────────────\n")
		sb.WriteString(result.Name + "\n")
		sb.WriteString("─────────────────────────────────\n")
		if result.IsFile {
			sb.WriteString("Script not found. Check installRoot (or $" + config.EnvInstallRoot + ").")
		} else if result.Alternative != "" {
			sb.WriteString(fmt.Sprintf("Not on PATH, but %s is at %s.\n", result.Alternative, result.AlternativePath))
			sb.WriteString("Set the configured program to " + result.Alternative + " to use it.")
		} else {
			sb.WriteString(c.GetInstallGuide(result.Name))
		}
		sb.WriteString("\n\n")
	}

	return sb.String()
}
