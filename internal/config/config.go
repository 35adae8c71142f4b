// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Pipeline configuration with precedence: CLI > ENV > config file > defaults

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HypothesisAsimov is the nominal fit against the expected (Asimov) dataset
	HypothesisAsimov = "asimov"
	// HypothesisData is the fit against observed data
	HypothesisData = "data"

	ResultFormatHDF5 = "hdf5"
	ResultFormatROOT = "root"
)

// Environment variables consulted after the config file
const (
	EnvInstallRoot    = "WREM_BASE"
	EnvWebDir         = "PDR_WEBDIR"
	EnvContainerImage = "PDR_CONTAINER_IMAGE"
)

// Config represents the pipeline configuration
type Config struct {
	Analysis     string          `json:"analysis" yaml:"analysis"`
	FitVars      []string        `json:"fitVars" yaml:"fitVars"`
	Pseudodata   []string        `json:"pseudodata" yaml:"pseudodata"`
	WebDir       string          `json:"webDir" yaml:"webDir"`
	InstallRoot  string          `json:"installRoot" yaml:"installRoot"`
	Python       string          `json:"python" yaml:"python"`
	ResultFormat string          `json:"resultFormat" yaml:"resultFormat"`
	StepTimeout  string          `json:"stepTimeout" yaml:"stepTimeout"` // e.g. "2h", empty means no limit
	Container    ContainerConfig `json:"container" yaml:"container"`
	PlotRanges   []PlotRange     `json:"plotRanges" yaml:"plotRanges"`
	Impacts      ImpactsConfig   `json:"impacts" yaml:"impacts"`
	Summary      SummaryConfig   `json:"summary" yaml:"summary"`
}

// ContainerConfig describes the wrapper used to run the fit tool
type ContainerConfig struct {
	Runtime string   `json:"runtime" yaml:"runtime"` // singularity, apptainer
	Image   string   `json:"image" yaml:"image"`     // empty runs the fit tool directly
	Binds   []string `json:"binds" yaml:"binds"`
	FitTool string   `json:"fitTool" yaml:"fitTool"`
}

// PlotRange is one axis-range configuration for the pre/post-fit plots
type PlotRange struct {
	Name string   `json:"name" yaml:"name"`
	Args []string `json:"args" yaml:"args"`
}

// ImpactsConfig holds options forwarded to the impacts/pulls tool
type ImpactsConfig struct {
	Sort       string   `json:"sort" yaml:"sort"`
	Mode       string   `json:"mode" yaml:"mode"`
	Num        int      `json:"num" yaml:"num"`
	Extensions []string `json:"extensions" yaml:"extensions"`
	Grouping   string   `json:"grouping" yaml:"grouping"`
	POI        string   `json:"poi" yaml:"poi"`
	NoPulls    bool     `json:"noPulls" yaml:"noPulls"`
	EOSCopy    bool     `json:"eoscp" yaml:"eoscp"` // write to /eos with xrdcp instead of the mount

	// ExtraArgs are passed before the output subcommand, so only the tool's
	// global options belong here
	ExtraArgs []string `json:"extraArgs" yaml:"extraArgs"`
}

// ImpactModes lists the values the impacts tool accepts for -m
var ImpactModes = []string{"group", "ungrouped", "both"}

// ImpactSortModes returns the values the impacts tool accepts for -s
func ImpactSortModes() []string {
	base := []string{"label", "pull", "abspull", "constraint", "absimpact"}
	modes := append([]string{}, base...)
	for _, suffix := range []string{"_diff", "_ref", "_both"} {
		for _, b := range base {
			modes = append(modes, b+suffix)
		}
	}
	return modes
}

// SummaryConfig controls the summary table step, off unless enabled
type SummaryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Script  string `json:"script" yaml:"script"`
}

// Default returns the fixed constants of the Z dilepton pseudodata study
func Default() *Config {
	return &Config{
		Analysis: "ZMassDilepton",
		FitVars:  []string{"ptll", "ptll-yll"},
		Pseudodata: []string{
			"uncorr",
			"scetlib_dyturboCorr",
			"scetlib_dyturboN3LLpCorr",
			"dyturboCorr",
			"matrix_radishCorr",
			"scetlib_nnlojetCorr",
		},
		WebDir:       "/eos/user/w/wmass/www/WMassAnalysis/pseudodata",
		InstallRoot:  "/home/wmass/WRemnants",
		Python:       "python3",
		ResultFormat: ResultFormatHDF5,
		Container: ContainerConfig{
			Runtime: "singularity",
			Image:   "/cvmfs/unpacked.cern.ch/gitlab-registry.cern.ch/bendavid/cmswmassdocker/wmassdevrolling:latest",
			Binds:   []string{"/scratch", "/eos", "/home"},
			FitTool: "combinetf2.py",
		},
		PlotRanges: []PlotRange{
			{Name: "wide", Args: []string{"--rrange", "0.90", "1.10", "--yscale", "1.2"}},
			{Name: "narrow", Args: []string{"--rrange", "0.98", "1.02", "--yscale", "1.2"}},
		},
		Impacts: ImpactsConfig{
			Sort:       "absimpact",
			Mode:       "ungrouped",
			Num:        50,
			Extensions: []string{"pdf", "png"},
		},
		Summary: SummaryConfig{
			Enabled: false,
			Script:  "scripts/combine/pseudodataTable.py",
		},
	}
}

// ConfigPaths returns the paths to check for config files in order
func ConfigPaths() []string {
	paths := []string{".pdr.yaml", ".pdr.yml", ".pdr.json"}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths,
			filepath.Join(xdg, "pdr", "config.yaml"),
			filepath.Join(xdg, "pdr", "config.yml"),
		)
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "pdr", "config.yaml"),
			filepath.Join(home, ".config", "pdr", "config.yml"),
		)
	}

	return paths
}

// Load builds the configuration from defaults, an optional config file and
// the environment. An explicit path must exist; otherwise the first file found
// in ConfigPaths is used, and finding none is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromPath(path, cfg); err != nil {
			return nil, err
		}
	} else {
		for _, candidate := range ConfigPaths() {
			err := loadFromPath(candidate, cfg)
			if err == nil {
				break
			}
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

func loadFromPath(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvInstallRoot); v != "" {
		c.InstallRoot = v
	}
	if v := os.Getenv(EnvWebDir); v != "" {
		c.WebDir = v
	}
	if v := os.Getenv(EnvContainerImage); v != "" {
		c.Container.Image = v
	}
}

// Hypotheses returns the fit hypotheses in run order: asimov, data, then
// every pseudodata label
func (c *Config) Hypotheses() []string {
	hyps := make([]string, 0, len(c.Pseudodata)+2)
	hyps = append(hyps, HypothesisAsimov, HypothesisData)
	hyps = append(hyps, c.Pseudodata...)
	return hyps
}

// Timeout parses StepTimeout. Zero means no limit.
func (c *Config) Timeout() (time.Duration, error) {
	if c.StepTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.StepTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid stepTimeout %q: %w", c.StepTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid stepTimeout %q: must not be negative", c.StepTimeout)
	}
	return d, nil
}

// ResultExtension returns the file extension of fit results
func (c *Config) ResultExtension() string {
	return c.ResultFormat
}
