// Package action contains the pure maintenance action catalogue.
// Kinds, typed parameters and preconditions live here; execution lives in the app layer.
package action

import "strings"

// Category groups kinds by the concern they address.
type Category string

const (
	CategorySafety   Category = "Safety"
	CategoryConflict Category = "Conflict"
	CategorySync     Category = "Sync"
	CategoryRebase   Category = "Rebase"
	CategoryQuality  Category = "Quality"
)

// Kind identifies one maintenance action.
// The numeric order is the catalogue priority order.
type Kind int

const (
	KindUnknown Kind = iota
	KindCreateBackupRef
	KindEnsureCleanOrStash
	KindAutoTrivialResolve
	KindPreviewMergeConflicts
	KindApplyPathStrategy
	KindFetchAll
	KindRebaseOntoUpstream
	KindRebaseContinueOrAbort
	KindPushWithLease
	KindRunTests
	KindExplainRangeDiff
)

var kindNames = map[Kind]string{
	KindCreateBackupRef:       "Safety:CreateBackupRef",
	KindEnsureCleanOrStash:    "Safety:EnsureCleanOrStash",
	KindAutoTrivialResolve:    "Conflict:AutoTrivialResolve",
	KindPreviewMergeConflicts: "Conflict:PreviewMergeConflicts",
	KindApplyPathStrategy:     "Conflict:ApplyPathStrategy",
	KindFetchAll:              "Sync:FetchAll",
	KindRebaseOntoUpstream:    "Rebase:OntoUpstream",
	KindRebaseContinueOrAbort: "Rebase:ContinueOrAbort",
	KindPushWithLease:         "Sync:PushWithLease",
	KindRunTests:              "Quality:RunTests",
	KindExplainRangeDiff:      "Quality:ExplainRangeDiff",
}

// String returns the stable "Category:Verb" name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Category returns the part of the name before the colon.
func (k Kind) Category() Category {
	name, ok := kindNames[k]
	if !ok {
		return ""
	}
	cat, _, _ := strings.Cut(name, ":")
	return Category(cat)
}

// Repeatable reports whether a kind may run again after a replan that found
// conflicts or an operation in progress. A stopped rebase needs the conflict
// kinds a second time to stage what rerere or path rules resolved.
func (k Kind) Repeatable() bool {
	switch k {
	case KindAutoTrivialResolve, KindApplyPathStrategy, KindRebaseContinueOrAbort:
		return true
	}
	return false
}

// ParseKind resolves a stable name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
