// Package detection classifies conflicted files and inspects them for conflict markers.
// Everything here is pure: callers supply the file content.
package detection

import (
	"bytes"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/example/goapgit/internal/models"
)

// SniffLimit is how many leading bytes are inspected for binary content.
const SniffLimit = 8 << 10

// Conflict marker prefixes as written by git.
const (
	markerOurs   = "<<<<<<< "
	markerSplit  = "======="
	markerTheirs = ">>>>>>> "
)

// suffixTypes maps file extensions to conflict types.
var suffixTypes = map[string]models.ConflictType{
	".json": models.ConflictJSON,
	".yaml": models.ConflictYAML,
	".yml":  models.ConflictYAML,
	".lock": models.ConflictLock,
}

// Classify returns the conflict type of p.
// Priority order: known suffix > binary sniff > text
func Classify(p string, content []byte) models.ConflictType {
	ext := strings.ToLower(path.Ext(p))
	if ctype, ok := suffixTypes[ext]; ok {
		return ctype
	}
	if IsBinary(content) {
		return models.ConflictBinary
	}
	return models.ConflictText
}

// IsBinary reports whether the leading bytes look like binary data.
func IsBinary(content []byte) bool {
	head := content
	if len(head) > SniffLimit {
		head = head[:SniffLimit]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	// A multi-byte rune cut at the sniff boundary is still text.
	for len(head) > 0 {
		r, size := utf8.DecodeRune(head)
		if r == utf8.RuneError && size == 1 {
			return len(head) >= utf8.UTFMax || len(content) <= SniffLimit
		}
		head = head[size:]
	}
	return false
}

// CountHunks returns the number of conflict hunks (opening markers at line start).
func CountHunks(content []byte) int {
	count := 0
	for _, line := range bytes.Split(content, []byte("\n")) {
		if bytes.HasPrefix(line, []byte(markerOurs)) || bytes.Equal(line, []byte(strings.TrimSpace(markerOurs))) {
			count++
		}
	}
	return count
}

// HasConflictMarkers reports whether any complete marker set remains.
// A file is still conflicted when it has an opening marker, a separator and a closing marker.
func HasConflictMarkers(content []byte) bool {
	var open, split, closing bool
	for _, raw := range bytes.Split(content, []byte("\n")) {
		line := string(bytes.TrimRight(raw, "\r"))
		switch {
		case strings.HasPrefix(line, markerOurs) || line == strings.TrimSpace(markerOurs):
			open = true
		case open && line == markerSplit:
			split = true
		case split && (strings.HasPrefix(line, markerTheirs) || line == strings.TrimSpace(markerTheirs)):
			closing = true
		}
		if closing {
			return true
		}
	}
	return false
}
