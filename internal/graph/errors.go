// File: internal/graph/errors.go
package graph

import (
	"fmt"
	"strings"
)

const maxCandidates = 10

// NotFoundError reports a node or file absent from merged state, carrying a
// bounded candidate list so callers can correct their query.
type NotFoundError struct {
	Kind       string // "node" or "file"
	Name       string
	Scope      string // file the node was searched in, if any
	Candidates []string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	if e.Scope != "" {
		fmt.Fprintf(&b, "%s '%s' not found in '%s'", e.Kind, e.Name, e.Scope)
	} else {
		fmt.Fprintf(&b, "%s '%s' not found in graph", e.Kind, e.Name)
	}
	if len(e.Candidates) > 0 {
		shown := e.Candidates
		suffix := ""
		if len(shown) > maxCandidates {
			shown = shown[:maxCandidates]
			suffix = "..."
		}
		fmt.Fprintf(&b, ". Available: %s%s", strings.Join(shown, ", "), suffix)
	}
	return b.String()
}
