// Package models holds the value types shared by the planning core and its shell.
// Values are built fresh on every observation and never mutated in place.
package models

// ConflictType classifies a conflicted path for resolution strategies.
type ConflictType string

const (
	ConflictText   ConflictType = "text"
	ConflictJSON   ConflictType = "json"
	ConflictYAML   ConflictType = "yaml"
	ConflictLock   ConflictType = "lock"
	ConflictBinary ConflictType = "binary"
)

// RepoRef identifies the checked-out branch, its upstream and commit.
type RepoRef struct {
	Branch   string `json:"branch"`
	Tracking string `json:"tracking,omitempty"` // "remote/branch", empty when no upstream
	SHA      string `json:"sha"`
}

// HasTracking reports whether the branch has an upstream.
func (r RepoRef) HasTracking() bool {
	return r.Tracking != ""
}

// ConflictDetail describes one unmerged path.
type ConflictDetail struct {
	Path      string       `json:"path"`
	HunkCount int          `json:"hunk_count"`
	Type      ConflictType `json:"ctype"`
}

// RepoState is a snapshot of a repository as seen by the observer.
type RepoState struct {
	RepoPath           string           `json:"repo_path"`
	Ref                RepoRef          `json:"ref"`
	DivergedLocal      int              `json:"diverged_local"`
	DivergedRemote     int              `json:"diverged_remote"`
	HasUnpushedCommits bool             `json:"has_unpushed_commits"`
	WorkingTreeClean   bool             `json:"working_tree_clean"`
	OngoingRebase      bool             `json:"ongoing_rebase"`
	OngoingMerge       bool             `json:"ongoing_merge"`
	Conflicts          []ConflictDetail `json:"conflicts"`
}

// Busy reports whether a rebase or merge is in progress.
func (s RepoState) Busy() bool {
	return s.OngoingRebase || s.OngoingMerge
}

// HasConflicts reports whether any path is unmerged.
func (s RepoState) HasConflicts() bool {
	return len(s.Conflicts) > 0
}

// ConflictPaths returns the conflicted paths in observation order.
func (s RepoState) ConflictPaths() []string {
	paths := make([]string, 0, len(s.Conflicts))
	for _, c := range s.Conflicts {
		paths = append(paths, c.Path)
	}
	return paths
}
