// File: internal/graph/format.go
// Human renderings for query results. Stored line numbers are zero-based;
// every rendering shifts them to one-based for display.
package graph

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

const divider = "============================================================"
const subDivider = "----------------------------------------"

// nodeRef renders a node as a one-line reference.
func (s *Store) nodeRef(n *schemas.Node) string {
	abs := n.ImplementationFile
	if s.repository.Path != "" {
		abs = filepath.Join(s.repository.Path, filepath.FromSlash(n.ImplementationFile))
	}
	return fmt.Sprintf("* Node: %s in File: %s (Line %d to %d)",
		n.FileLevelID(), abs, n.StartLine+1, n.EndLine+1)
}

// FormatKHop renders a k-hop result grouped by hop level, optionally with a
// bounded code preview per node.
func (s *Store) FormatKHop(result *KHopResult, includeCode bool, maxCodeLines int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "K-hop Dependency Analysis (k=%d)\n", result.K)
	fmt.Fprintf(&b, "Starting Node: %s\n", result.StartNodeID)
	fmt.Fprintf(&b, "Total Nodes Found: %d\n", result.TotalNodes())
	fmt.Fprintf(&b, "Total Edges in Subgraph: %d\n", len(result.Edges))
	b.WriteString(divider + "\n")

	for _, hop := range result.HopLevels() {
		nodes := result.NodesByHop[hop]
		fmt.Fprintf(&b, "\nHop Level %d (%d nodes):\n", hop, len(nodes))
		b.WriteString(subDivider + "\n")

		for _, id := range nodes {
			node := s.Node(id)
			if node == nil {
				continue
			}
			fmt.Fprintf(&b, "  - %s\n", id)
			fmt.Fprintf(&b, "    Type: %s\n", node.Type)
			fmt.Fprintf(&b, "    File: %s:%d-%d\n", node.ImplementationFile, node.StartLine+1, node.EndLine+1)

			if includeCode {
				writeCodePreview(&b, node.CodeSnippet, maxCodeLines)
			}
			b.WriteString("\n")
		}
	}

	if len(result.Edges) > 0 {
		fmt.Fprintf(&b, "\nEdges in Subgraph (%d):\n", len(result.Edges))
		b.WriteString(subDivider + "\n")

		byType := make(map[string][]schemas.Edge)
		for _, e := range result.Edges {
			byType[e.Type] = append(byType[e.Type], e)
		}
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)

		for _, t := range types {
			fmt.Fprintf(&b, "\n  %s (%d):\n", t, len(byType[t]))
			for _, e := range byType[t] {
				fmt.Fprintf(&b, "    %s -> %s\n", e.SubjectID, e.ObjectID)
			}
		}
	}
	return b.String()
}

func writeCodePreview(b *strings.Builder, snippet string, maxCodeLines int) {
	lines := strings.Split(strings.TrimSpace(snippet), "\n")
	shown := lines
	if len(lines) > maxCodeLines {
		shown = lines[:maxCodeLines]
	}
	for _, line := range shown {
		fmt.Fprintf(b, "    | %s\n", line)
	}
	if remaining := len(lines) - maxCodeLines; remaining > 0 {
		fmt.Fprintf(b, "    | ... eliding %d more lines ...\n", remaining)
	}
}

// FormatDefinition renders a definition analysis: metadata, numbered code
// snippet, then dependency and dependent listings.
func (s *Store) FormatDefinition(analysis *DefinitionAnalysis) string {
	var b strings.Builder
	node := analysis.Node

	b.WriteString("## Node Metadata:\n")
	b.WriteString(s.nodeRef(node) + "\n\n")

	b.WriteString("## Code Snippet:\n```\n")
	for i, line := range strings.Split(strings.TrimSpace(node.CodeSnippet), "\n") {
		fmt.Fprintf(&b, "%6d\t%s\n", node.StartLine+i+1, line)
	}
	b.WriteString("```\n\n")

	if len(analysis.Dependencies) > 0 {
		fmt.Fprintf(&b, "## This node (%s) depends on:\n", node.FileLevelID())
		for _, dep := range analysis.Dependencies {
			fmt.Fprintf(&b, "  %s [dependency type: %s]\n", s.nodeRef(dep.Node), edgeTypesLabel(dep.EdgeTypes))
		}
		b.WriteString("\n")
	}

	if len(analysis.Dependents) > 0 {
		fmt.Fprintf(&b, "## Nodes depend on this node (%s):\n", node.FileLevelID())
		for _, dep := range analysis.Dependents {
			fmt.Fprintf(&b, "  %s [dependent type: %s]\n", s.nodeRef(dep.Node), edgeTypesLabel(dep.EdgeTypes))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func edgeTypesLabel(types []string) string {
	if len(types) == 0 {
		return "unknown"
	}
	return strings.Join(types, ", ")
}

// FormatFileSummary renders a file skeleton: each node's first snippetLines
// source lines with its location and type, remaining node lines elided, plus
// trailing-line elision when the on-disk file extends past the last node.
func (s *Store) FormatFileSummary(summary *FileSummary, snippetLines int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File Summary: %s\n", summary.FilePath)
	fmt.Fprintf(&b, "Total Nodes: %d\n", len(summary.Nodes))
	if summary.TotalLines > 0 {
		fmt.Fprintf(&b, "Total File Lines: %d\n", summary.TotalLines)
	}
	b.WriteString(divider + "\n")

	if len(summary.Nodes) == 0 {
		b.WriteString("No nodes found in this file.\n")
		return b.String()
	}

	if snippetLines < 1 {
		snippetLines = 1
	}

	currentLine := 1
	for _, node := range summary.Nodes {
		if node.StartLine == node.EndLine {
			fmt.Fprintf(&b, "L%d [%s] (%s)\n", node.StartLine+1, node.Type, node.ID)
		} else {
			fmt.Fprintf(&b, "L%d-%d [%s] (%s)\n", node.StartLine+1, node.EndLine+1, node.Type, node.ID)
		}

		shown := snippetHead(node.CodeSnippet, snippetLines)
		for _, line := range shown {
			b.WriteString(line + "\n")
		}
		span := node.EndLine - node.StartLine + 1
		if elided := span - len(shown); elided > 0 {
			fmt.Fprintf(&b, "... eliding %d more lines ...\n", elided)
		}
		b.WriteString("\n")

		currentLine = node.EndLine + 2
	}

	if summary.TotalLines > 0 && currentLine <= summary.TotalLines {
		fmt.Fprintf(&b, "... eliding lines %d-%d ...\n", currentLine, summary.TotalLines)
	}
	return strings.TrimRight(b.String(), "\n")
}

// snippetHead returns up to max leading lines of a snippet, trailing newlines
// trimmed so an elision count never includes empty padding.
func snippetHead(snippet string, max int) []string {
	lines := strings.Split(strings.TrimRight(snippet, "\n"), "\n")
	if len(lines) > max {
		lines = lines[:max]
	}
	return lines
}
