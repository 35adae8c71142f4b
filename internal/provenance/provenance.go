// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Version information of the analysis software used by a run

package provenance

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Info identifies the checkout of the analysis software
type Info struct {
	Root   string `yaml:"root"`
	Commit string `yaml:"commit,omitempty"`
	Branch string `yaml:"branch,omitempty"`
	Dirty  bool   `yaml:"dirty"`
	// Unknown is set when the root is not inside a git repository
	Unknown bool `yaml:"unknown,omitempty"`
}

// Inspect reads HEAD and worktree state of the repository containing root.
// A root outside any repository yields Info{Unknown: true} and no error.
func Inspect(root string) (*Info, error) {
	info := &Info{Root: root}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		info.Unknown = true
		return info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", root, err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// repository without commits
		info.Unknown = true
		return info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	info.Commit = head.Hash().String()
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()

	return info, nil
}

// Short returns a one-line description such as main@1a2b3c4d (dirty)
func (i *Info) Short() string {
	if i.Unknown {
		return "unknown (not a git checkout)"
	}
	commit := i.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	s := commit
	if i.Branch != "" {
		s = i.Branch + "@" + commit
	}
	if i.Dirty {
		s += " (dirty)"
	}
	return s
}
