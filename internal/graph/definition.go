// File: internal/graph/definition.go
// Definition queries: locate a named node within a file and report what it
// depends on and what depends on it.
package graph

import (
	"path"
	"sort"
	"strings"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

// Related pairs a neighboring node with the edge types connecting it to the
// definition under analysis.
type Related struct {
	Node      *schemas.Node
	EdgeTypes []string
}

// DefinitionAnalysis is the full picture of one node: the node itself, the
// nodes it depends on (outgoing), and the nodes depending on it (incoming).
type DefinitionAnalysis struct {
	Node         *schemas.Node
	Dependencies []Related
	Dependents   []Related
}

// Definition finds a node by name within a file and assembles its dependency
// analysis. Absolute paths resolve repo-relatively; one outside the repository
// root is an error. Name matching accepts the file-level id or any id ending
// in ".name". File lookup falls back to basename and suffix matches when the
// exact path holds no nodes.
func (s *Store) Definition(relPath, nodeName string) (*DefinitionAnalysis, error) {
	normalized, err := s.normalizeQueryPath(relPath)
	if err != nil {
		return nil, err
	}

	nodes, resolvedPath := s.resolveFileNodes(normalized)
	if len(nodes) == 0 {
		return nil, &NotFoundError{Kind: "file", Name: relPath, Candidates: s.Files()}
	}

	target := findByName(nodes, nodeName)
	if target == nil {
		candidates := make([]string, 0, len(nodes))
		for _, n := range nodes {
			candidates = append(candidates, n.FileLevelID())
		}
		return nil, &NotFoundError{Kind: "node", Name: nodeName, Scope: resolvedPath, Candidates: candidates}
	}

	analysis := &DefinitionAnalysis{Node: target}
	analysis.Dependencies = s.related(target.ID, s.forward[target.ID], false)
	analysis.Dependents = s.related(target.ID, s.reverse[target.ID], true)
	return analysis, nil
}

// related resolves neighbor ids to nodes with their connecting edge types.
// Neighbors without a node entry (dangling edge endpoints) are skipped.
func (s *Store) related(targetID string, neighbors map[string]struct{}, incoming bool) []Related {
	ids := make([]string, 0, len(neighbors))
	for id := range neighbors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Related
	for _, id := range ids {
		node := s.nodes[id]
		if node == nil {
			continue
		}
		var types []string
		if incoming {
			types = s.EdgeTypesBetween(id, targetID)
		} else {
			types = s.EdgeTypesBetween(targetID, id)
		}
		out = append(out, Related{Node: node, EdgeTypes: types})
	}
	return out
}

func findByName(nodes []*schemas.Node, name string) *schemas.Node {
	for _, n := range nodes {
		if n.FileLevelID() == name {
			return n
		}
		if strings.HasSuffix(n.ID, "."+name) || strings.HasSuffix(n.ID, name) {
			return n
		}
	}
	return nil
}

// resolveFileNodes looks up a file's nodes, retrying with basename and
// suffix matches against the known file list.
func (s *Store) resolveFileNodes(relPath string) ([]*schemas.Node, string) {
	relPath = strings.TrimPrefix(relPath, "/")
	if nodes := s.fileNodes[relPath]; len(nodes) > 0 {
		return nodes, relPath
	}
	for _, candidate := range s.candidatePaths(relPath) {
		if nodes := s.fileNodes[candidate]; len(nodes) > 0 {
			return nodes, candidate
		}
	}
	return nil, relPath
}

func (s *Store) candidatePaths(relPath string) []string {
	search := strings.TrimPrefix(relPath, "/")
	base := path.Base(search)

	var candidates []string
	for _, known := range s.Files() {
		switch {
		case known == search:
			candidates = append(candidates, known)
		case path.Base(known) == base:
			candidates = append(candidates, known)
		case strings.HasSuffix(known, search):
			candidates = append(candidates, known)
		}
	}
	return candidates
}
