package action

import (
	"strconv"
	"time"
)

// Params is the typed parameter payload of an action.
// Fields flattens it into the string map used for presentation and persistence.
type Params interface {
	Fields() map[string]string
}

// NoParams is carried by kinds that take no parameters.
type NoParams struct{}

func (NoParams) Fields() map[string]string { return map[string]string{} }

// PreviewParams names the two sides of a simulated merge.
type PreviewParams struct {
	Ours   string
	Theirs string
}

func (p PreviewParams) Fields() map[string]string {
	return map[string]string{"ours": p.Ours, "theirs": p.Theirs}
}

// StrategyParams records how many strategy rules are configured.
type StrategyParams struct {
	RuleCount int
}

func (p StrategyParams) Fields() map[string]string {
	return map[string]string{"rules": strconv.Itoa(p.RuleCount)}
}

// FetchParams names the remote to fetch.
type FetchParams struct {
	Remote string
}

func (p FetchParams) Fields() map[string]string {
	return map[string]string{"remote": p.Remote}
}

// RebaseOntoParams configures a rebase onto the upstream.
type RebaseOntoParams struct {
	Upstream   string
	UpdateRefs bool
	Onto       string // optional
}

func (p RebaseOntoParams) Fields() map[string]string {
	f := map[string]string{
		"upstream":    p.Upstream,
		"update_refs": strconv.FormatBool(p.UpdateRefs),
	}
	if p.Onto != "" {
		f["onto"] = p.Onto
	}
	return f
}

// ContinueOrAbortParams optionally pins the backup ref used to restore HEAD.
type ContinueOrAbortParams struct {
	BackupRef string
}

func (p ContinueOrAbortParams) Fields() map[string]string {
	f := map[string]string{}
	if p.BackupRef != "" {
		f["backup_ref"] = p.BackupRef
	}
	return f
}

// PushParams describes the refspec pushed with a lease.
type PushParams struct {
	Remote       string
	RemoteBranch string
	LocalBranch  string
}

// Refspec returns "local:remote_branch", or "" when either side is unknown.
func (p PushParams) Refspec() string {
	if p.LocalBranch == "" || p.RemoteBranch == "" {
		return ""
	}
	return p.LocalBranch + ":" + p.RemoteBranch
}

func (p PushParams) Fields() map[string]string {
	return map[string]string{
		"remote":        p.Remote,
		"remote_branch": p.RemoteBranch,
		"local_branch":  p.LocalBranch,
	}
}

// TestParams bounds the test command runtime. Zero means unbounded.
type TestParams struct {
	Timeout time.Duration
}

func (p TestParams) Fields() map[string]string {
	return map[string]string{"timeout_sec": strconv.Itoa(int(p.Timeout / time.Second))}
}

// RangeDiffParams names the upstream compared against HEAD.
type RangeDiffParams struct {
	Tracking string
}

func (p RangeDiffParams) Fields() map[string]string {
	return map[string]string{"tracking": p.Tracking}
}
