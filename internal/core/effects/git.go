package effects

import "time"

// BackupRefPrefix is the namespace holding safety snapshots.
const BackupRefPrefix = "refs/backup/goap"

// BackupTimestampLayout names backup refs and stash messages; nanoseconds keep names unique.
const BackupTimestampLayout = "20060102T150405.000000000Z"

// BackupRefName returns the ref a snapshot taken at now is stored under.
func BackupRefName(now time.Time) string {
	return BackupRefPrefix + "/" + now.UTC().Format(BackupTimestampLayout)
}

// CreateBackupRef stores sha under ref, refusing to overwrite an existing ref.
func CreateBackupRef(ref, sha string) GitEffect {
	return GitEffect{Operation: "update_ref", Args: []string{"update-ref", ref, sha, ""}}
}

// StashPush stashes tracked and untracked changes.
func StashPush(now time.Time) GitEffect {
	msg := "goapgit-autostash-" + now.UTC().Format(BackupTimestampLayout)
	return GitEffect{Operation: "stash_push", Args: []string{"stash", "push", "--include-untracked", "-m", msg}}
}

// EnableRerere turns on recorded resolution reuse for the repository.
func EnableRerere() GitEffect {
	return GitEffect{Operation: "config_set", Args: []string{"config", "rerere.enabled", "true"}}
}

// Rerere replays recorded resolutions into the working tree.
func Rerere() GitEffect {
	return GitEffect{Operation: "rerere", Args: []string{"rerere"}}
}

// Add stages paths. The separator keeps dash-prefixed names from being read as options.
func Add(paths ...string) GitEffect {
	args := append([]string{"add", "--"}, paths...)
	return GitEffect{Operation: "add", Args: args}
}

// CheckoutSide takes one side of a conflict for path; side is "ours" or "theirs".
func CheckoutSide(side, path string) GitEffect {
	return GitEffect{Operation: "checkout_" + side, Args: []string{"checkout", "--" + side, "--", path}}
}

// ResolveWithSide checks out one side of a conflict and stages the result.
func ResolveWithSide(side, path string) CompositeEffect {
	return CompositeEffect{Effects: []Effect{CheckoutSide(side, path), Add(path)}}
}

// Fetch updates remote-tracking refs and prunes deleted branches.
func Fetch(remote string) GitEffect {
	return GitEffect{Operation: "fetch", Args: []string{"fetch", "--prune", remote}}
}

// RebaseOnto replays local commits onto upstream with the given conflict style.
func RebaseOnto(upstream, onto, conflictStyle string, updateRefs bool) GitEffect {
	var args []string
	if conflictStyle != "" {
		args = append(args, "-c", "merge.conflictStyle="+conflictStyle)
	}
	args = append(args, "rebase")
	if updateRefs {
		args = append(args, "--update-refs")
	}
	if onto != "" {
		args = append(args, "--onto", onto)
	}
	args = append(args, upstream)
	return GitEffect{Operation: "rebase", Args: args}
}

// RebaseContinue continues a rebase without opening an editor.
func RebaseContinue() GitEffect {
	return GitEffect{Operation: "rebase_continue", Args: []string{"-c", "core.editor=true", "rebase", "--continue"}}
}

// RebaseAbort abandons the rebase in progress.
func RebaseAbort() GitEffect {
	return GitEffect{Operation: "rebase_abort", Args: []string{"rebase", "--abort"}}
}

// ResetHard moves HEAD and the working tree to ref.
func ResetHard(ref string) GitEffect {
	return GitEffect{Operation: "reset_hard", Args: []string{"reset", "--hard", ref}}
}

// Push publishes refspec with a lease; force replaces the lease with --force.
func Push(remote, refspec string, force bool) GitEffect {
	flag := "--force-with-lease"
	if force {
		flag = "--force"
	}
	args := []string{"push", flag, remote}
	if refspec != "" {
		args = append(args, refspec)
	}
	return GitEffect{Operation: "push", Args: args}
}

// RunCommand wraps a test command with its deadline.
func RunCommand(argv []string, timeout time.Duration) CommandEffect {
	return CommandEffect{Argv: append([]string(nil), argv...), Timeout: timeout}
}
