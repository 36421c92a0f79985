package scanner

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Match targets for sequence lookup.
const (
	// MatchFile matches the number against each file's base name.
	MatchFile = "file"
	// MatchFolder matches the number against the top-level folder under the
	// share root and takes the first clip inside it.
	MatchFolder = "folder"
)

// SequenceMatcher matches one zero-padded number, optionally together with a
// keyword, against names.
type SequenceMatcher struct {
	pattern *regexp.Regexp
	keyword string
}

// NewSequenceMatcher compiles the matcher for number padded to width digits.
// A negative number matches nothing.
func NewSequenceMatcher(number, width int, keyword string) SequenceMatcher {
	m := SequenceMatcher{keyword: strings.ToLower(strings.TrimSpace(keyword))}
	if number >= 0 {
		m.pattern = regexp.MustCompile(`(?:^|\D)` + regexp.QuoteMeta(FormatSequence(number, width)) + `(?:\D|$)`)
	}
	return m
}

// Match reports whether name carries the keyword (any case) and the number
// with no digit immediately before or after it.
func (m SequenceMatcher) Match(name string) bool {
	if m.pattern == nil {
		return false
	}
	if m.keyword != "" && !strings.Contains(strings.ToLower(name), m.keyword) {
		return false
	}
	return m.pattern.MatchString(name)
}

// MatchesSequence reports whether a file name carries keyword (any case) and
// the zero-padded number with no digit immediately before or after it, so 013
// matches "Spidey 013.mp4" but not "Spidey 0130.mp4" or "1013".
func MatchesSequence(name string, number, width int, keyword string) bool {
	return NewSequenceMatcher(number, width, keyword).Match(filepath.Base(name))
}

// FindSequence returns the first path whose base name matches the sequence.
// Paths are checked in the order given.
func FindSequence(paths []string, number, width int, keyword string) (string, bool) {
	m := NewSequenceMatcher(number, width, keyword)
	for _, p := range paths {
		if m.Match(filepath.Base(p)) {
			return p, true
		}
	}
	return "", false
}

// FindSequenceFolder returns the first path that lives below a top-level
// folder of root whose name matches the sequence. Clips directly in root are
// ignored.
func FindSequenceFolder(root string, paths []string, number, width int, keyword string) (string, bool) {
	absRoot, err := filepath.Abs(strings.TrimSpace(root))
	if err != nil {
		return "", false
	}
	m := NewSequenceMatcher(number, width, keyword)
	for _, p := range paths {
		rel, err := filepath.Rel(absRoot, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		folder, _, nested := strings.Cut(filepath.ToSlash(rel), "/")
		if nested && m.Match(folder) {
			return p, true
		}
	}
	return "", false
}

// FormatSequence zero-pads number to width digits.
func FormatSequence(number, width int) string {
	if width < 1 {
		width = 1
	}
	return fmt.Sprintf("%0*d", width, number)
}
