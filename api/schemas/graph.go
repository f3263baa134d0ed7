// api/schemas/graph.go
package schemas

import "strings"

// Node is a single extracted code entity. The ID is a dotted path derived
// from the implementation file plus the entity name, unique within one
// aggregate. Line numbers are zero-based, as reported by the syntax tree.
type Node struct {
	ID                 string `json:"id"`
	ImplementationFile string `json:"implementation_file"`
	StartLine          int    `json:"start_line"`
	EndLine            int    `json:"end_line"`
	Type               string `json:"type"`
	CodeSnippet        string `json:"code_snippet"`
}

// FileLevelID strips the module-path prefix from the node ID, leaving the
// identifier as it appears inside its own file (e.g. "HelperClass.method"
// for id "utils.helper.HelperClass.method" in "utils/helper.py").
func (n Node) FileLevelID() string {
	prefix := n.ImplementationFile
	if i := strings.LastIndex(prefix, "."); i > 0 {
		prefix = prefix[:i]
	}
	prefix = strings.ReplaceAll(prefix, "/", ".")
	id := strings.Replace(n.ID, prefix, "", 1)
	return strings.TrimPrefix(id, ".")
}

// Edge is a directed, typed relationship between two node identifiers.
// Duplicate endpoints are allowed as long as the type differs.
type Edge struct {
	SubjectID                 string `json:"subject_id"`
	SubjectImplementationFile string `json:"subject_implementation_file"`
	ObjectID                  string `json:"object_id"`
	ObjectImplementationFile  string `json:"object_implementation_file"`
	Type                      string `json:"type"`
}

// FileResult is the per-file cache artifact written next to each processed
// source file under the output directory.
type FileResult struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// RepositoryInfo summarizes the run that produced an aggregate.
type RepositoryInfo struct {
	Name                string   `json:"name"`
	Path                string   `json:"path"`
	TotalFilesProcessed int      `json:"total_files_processed"`
	TotalFilesFailed    int      `json:"total_files_failed"`
	FailedFiles         []string `json:"failed_files"`
}

// Statistics are always recomputed in full from the current node and edge
// lists, never patched incrementally.
type Statistics struct {
	TotalNodes      int            `json:"total_nodes"`
	TotalEdges      int            `json:"total_edges"`
	NodesByType     map[string]int `json:"nodes_by_type"`
	EdgesByType     map[string]int `json:"edges_by_type"`
	FilesByLanguage map[string]int `json:"files_by_language"`
}

// AggregatedGraph is the canonical persisted result for one repository.
type AggregatedGraph struct {
	Repository RepositoryInfo `json:"repository"`
	Nodes      []Node         `json:"nodes"`
	Edges      []Edge         `json:"edges"`
	Statistics Statistics     `json:"statistics"`
}
