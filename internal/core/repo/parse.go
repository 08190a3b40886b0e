// Package repo contains pure parsers for git plumbing output.
// This is part of the Functional Core - no I/O, only pure functions.
package repo

import (
	"fmt"
	"strconv"
	"strings"
)

// unmergedCodes are the porcelain XY pairs git reports for unmerged paths.
var unmergedCodes = map[string]bool{
	"DD": true,
	"AU": true,
	"UD": true,
	"UA": true,
	"DU": true,
	"AA": true,
	"UU": true,
}

// StatusEntry is one path from `git status --porcelain=v1 -z`.
type StatusEntry struct {
	XY       string
	Path     string
	OrigPath string // set for renames and copies
}

// Unmerged reports whether the entry is a conflict.
func (e StatusEntry) Unmerged() bool { return unmergedCodes[e.XY] }

// Ignored reports whether the entry is an ignored path.
func (e StatusEntry) Ignored() bool { return e.XY == "!!" }

// ParsePorcelainZ parses NUL-separated porcelain v1 output.
func ParsePorcelainZ(out string) ([]StatusEntry, error) {
	var entries []StatusEntry
	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if f == "" {
			continue
		}
		if len(f) < 4 || f[2] != ' ' {
			return nil, fmt.Errorf("malformed porcelain entry %q", f)
		}
		e := StatusEntry{XY: f[:2], Path: f[3:]}
		if e.XY[0] == 'R' || e.XY[0] == 'C' {
			if i+1 < len(fields) {
				i++
				e.OrigPath = fields[i]
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// StatusSummary splits entries into cleanliness and conflict paths.
// Ignored entries never make the tree dirty.
func StatusSummary(entries []StatusEntry) (clean bool, conflicts []string) {
	clean = true
	for _, e := range entries {
		if e.Ignored() {
			continue
		}
		clean = false
		if e.Unmerged() {
			conflicts = append(conflicts, e.Path)
		}
	}
	return clean, conflicts
}

// ParseAheadBehind parses `git rev-list --left-right --count upstream...HEAD`.
// The left column counts upstream-only commits (behind), the right local-only (ahead).
func ParseAheadBehind(out string) (ahead, behind int, err error) {
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", strings.TrimSpace(out))
	}
	behind, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse behind count: %w", err)
	}
	ahead, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse ahead count: %w", err)
	}
	return ahead, behind, nil
}

// ParseCount parses a single integer such as `git rev-list --count` output.
func ParseCount(out string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("failed to parse count: %w", err)
	}
	return n, nil
}

// ParseMergeTreeNames extracts conflicted paths from
// `git merge-tree --write-tree --name-only --no-messages` output.
// The first line is the tree id; names follow until a blank line.
func ParseMergeTreeNames(out string) []string {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")
	if len(lines) <= 1 {
		return nil
	}
	var paths []string
	seen := map[string]bool{}
	for _, line := range lines[1:] {
		if line == "" {
			break
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}
	return paths
}

// ParseLines splits newline-separated output, dropping blanks.
func ParseLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if l = strings.TrimRight(l, "\r"); strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
