// File: internal/pathfilter/filter.go
package pathfilter

import (
	"path"
	"strings"
)

// Filter decides inclusion and exclusion of repo-relative paths against two
// independent pattern sets. It is the single predicate shared by discovery
// and force-reparse matching, so both walk call sites agree on scope.
type Filter struct {
	exclude []string
	include []string
}

// New builds a filter from exclude and include pattern lists. A nil or empty
// include list admits every non-excluded file.
func New(exclude, include []string) *Filter {
	return &Filter{exclude: exclude, include: include}
}

// Excluded reports whether the relative path or bare filename matches any
// exclude pattern. Supported forms: glob against the full path or the
// filename, trailing-slash directory prefixes, and exact whole-segment
// containment anywhere in the path.
func (f *Filter) Excluded(relPath, name string) bool {
	for _, pattern := range f.exclude {
		if matchPattern(pattern, relPath, name) {
			return true
		}
	}
	return false
}

// Included reports whether the file passes the include pattern set.
func (f *Filter) Included(relPath, name string) bool {
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if globMatch(pattern, relPath) || globMatch(pattern, name) {
			return true
		}
	}
	return false
}

// Match is the combined decision: not excluded and included.
func (f *Filter) Match(relPath, name string) bool {
	return !f.Excluded(relPath, name) && f.Included(relPath, name)
}

// MatchGlob exposes bare glob matching for force-reparse patterns.
func MatchGlob(pattern, relPath string) bool {
	return globMatch(pattern, relPath)
}

func matchPattern(pattern, relPath, name string) bool {
	if globMatch(pattern, relPath) || globMatch(pattern, name) {
		return true
	}

	if strings.HasSuffix(pattern, "/") {
		trimmed := strings.TrimSuffix(pattern, "/")
		return relPath == trimmed || strings.HasPrefix(relPath, pattern)
	}

	if relPath == pattern || strings.HasPrefix(relPath, pattern+"/") {
		return true
	}
	for _, segment := range strings.Split(relPath, "/") {
		if segment == pattern {
			return true
		}
	}
	return false
}

// globMatch wraps path.Match, treating a malformed pattern as a non-match
// rather than an error so one bad configured pattern cannot abort a walk.
func globMatch(pattern, s string) bool {
	ok, err := path.Match(pattern, s)
	return err == nil && ok
}
