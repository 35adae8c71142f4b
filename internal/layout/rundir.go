// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Run log directories

package layout

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var (
	// mutex ensures thread-safe run ID generation
	idMutex sync.Mutex
	// lastTimestamp prevents duplicate IDs in the same minute
	lastTimestamp string
	lastCounter   int
)

// ResetRunIDState resets the global run ID generation state (for testing)
func ResetRunIDState() {
	idMutex.Lock()
	defer idMutex.Unlock()
	lastTimestamp = ""
	lastCounter = 0
}

// GenerateRunID creates a unique run ID with format: pdr-YYYYMMDD-HHMM-3hexchars
// or pdr-YYYYMMDD-HHMM-NNN for successive calls within the same minute
func GenerateRunID() (string, error) {
	idMutex.Lock()
	defer idMutex.Unlock()

	timestamp := time.Now().Format("20060102-1504")

	if timestamp == lastTimestamp {
		lastCounter++
		return fmt.Sprintf("%s-%s-%03d", RunIDPrefix, timestamp, lastCounter), nil
	}

	randomBytes := make([]byte, 2)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	randomHex := hex.EncodeToString(randomBytes)[:3]

	lastTimestamp = timestamp
	lastCounter = 0

	return fmt.Sprintf("%s-%s-%s", RunIDPrefix, timestamp, randomHex), nil
}

// maxRunIDAttempts bounds the retries when a generated run ID is taken
const maxRunIDAttempts = 10

// NewRunDir creates <baseDir>/<run-id>/logs. The run directory itself is
// created exclusively, so a run never shares another run's logs.
func NewRunDir(baseDir string) (*RunDir, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", baseDir, err)
	}

	for attempt := 0; attempt < maxRunIDAttempts; attempt++ {
		runID, err := GenerateRunID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate run ID: %w", err)
		}

		path := filepath.Join(baseDir, runID)
		if err := os.Mkdir(path, 0755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return nil, fmt.Errorf("failed to create run directory %s: %w", path, err)
		}
		if err := os.Mkdir(filepath.Join(path, LogsSubdir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create run directory %s: %w", path, err)
		}

		return &RunDir{
			RunID:   runID,
			Path:    path,
			BaseDir: baseDir,
		}, nil
	}

	return nil, fmt.Errorf("no free run ID in %s after %d attempts", baseDir, maxRunIDAttempts)
}

// LogsPath returns the directory holding per-step logs
func (r *RunDir) LogsPath() string {
	return filepath.Join(r.Path, LogsSubdir)
}

// StepLogFile returns the log file for a step, with path separators flattened
func (r *RunDir) StepLogFile(stepID string) string {
	name := strings.NewReplacer("/", "_", string(os.PathSeparator), "_", " ", "_").Replace(stepID)
	return filepath.Join(r.LogsPath(), name+".log")
}

// ManifestFile returns the path of the run manifest
func (r *RunDir) ManifestFile() string {
	return filepath.Join(r.Path, ManifestName)
}

// String returns a string representation of the run directory
func (r *RunDir) String() string {
	return fmt.Sprintf("RunDir{RunID: %s, Path: %s}", r.RunID, r.Path)
}

// CleanupStale removes run directories under runsDir older than maxAgeHours
// and returns how many were removed
func CleanupStale(runsDir string, maxAgeHours int) (int, error) {
	info, err := os.Stat(runsDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat runs directory %s: %w", runsDir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", runsDir)
	}

	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read runs directory: %w", err)
	}

	now := time.Now()
	cleaned := 0

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), RunIDPrefix+"-") {
			continue
		}

		entryInfo, err := entry.Info()
		if err != nil {
			continue
		}

		ageInHours := int(now.Sub(entryInfo.ModTime()).Hours())
		if ageInHours >= maxAgeHours {
			if err := os.RemoveAll(filepath.Join(runsDir, entry.Name())); err == nil {
				cleaned++
			}
		}
	}

	// Try to remove the parent directory if empty
	_ = os.Remove(runsDir)

	return cleaned, nil
}
