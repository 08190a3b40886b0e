package gitexec

import (
	"path/filepath"
	"strings"
)

// readOnlySubcommands never touch refs, the index or the working tree.
var readOnlySubcommands = map[string]bool{
	"status":       true,
	"rev-list":     true,
	"rev-parse":    true,
	"merge-base":   true,
	"merge-tree":   true,
	"for-each-ref": true,
	"show-ref":     true,
	"symbolic-ref": true,
	"log":          true,
	"diff":         true,
	"range-diff":   true,
	"ls-files":     true,
	"cat-file":     true,
	"version":      true,
}

// globalOptionsWithValue consume the following argument.
var globalOptionsWithValue = map[string]bool{
	"-C":          true,
	"-c":          true,
	"--git-dir":   true,
	"--work-tree": true,
}

// IsReadOnly reports whether argv is a git invocation that only reads repository state.
// Anything that is not git is treated as mutating.
func IsReadOnly(argv []string) bool {
	if len(argv) == 0 || strings.TrimSuffix(filepath.Base(argv[0]), ".exe") != "git" {
		return false
	}
	sub, rest := subcommand(argv[1:])
	switch {
	case sub == "":
		return false
	case sub == "config":
		return configReadsOnly(rest)
	case sub == "symbolic-ref":
		// symbolic-ref with two operands rewrites HEAD.
		return len(operands(rest)) <= 1
	}
	return readOnlySubcommands[sub]
}

func subcommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if globalOptionsWithValue[a] {
			i++
			continue
		}
		if strings.HasPrefix(a, "-") {
			continue
		}
		return a, args[i+1:]
	}
	return "", nil
}

func configReadsOnly(args []string) bool {
	for _, a := range args {
		switch a {
		case "--get", "--get-all", "--get-regexp", "--list", "-l":
			return true
		case "--unset", "--unset-all", "--add", "--replace-all", "--remove-section", "--rename-section":
			return false
		}
	}
	return len(operands(args)) == 1
}

func operands(args []string) []string {
	var out []string
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			out = append(out, a)
		}
	}
	return out
}
