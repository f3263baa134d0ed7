// internal/extractor/prompt.go
package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// extractionPromptTemplate instructs the model to emit the node/edge payload
// for one formatted syntax tree. Placeholders: project structure, formatted
// tree.
const extractionPromptTemplate = `
Extract nodes and edges from the following formatted AST and project structure context.

Project Structure:
%s

Formatted AST:
%s

Output schema:
{
    "nodes": [
        # Internal nodes only, DO NOT include nodes that are not defined in the file; e.g. "utils.helper.HelperClass" is implemented in "utils/helper.py"
        {
            "id": <relative_path_to_node>,# ignore file extension; e.g. "utils.helper.HelperClass"
            "implementation_file": <relative_path_to_implementation_file>,# e.g. "utils/helper.py"
            "start_line": <start_line>,# int
            "end_line": <end_line>,# int
            "type": <brief_description_of_the_node_type>
        },
        ...
    ],
    "edges": [
        # DO include all kinds of edges; e.g. "utils.helper.HelperClass" depends on "utils.helper.HelperClass.helper_method", "utils.helper.HelperClass.helper_method" depends on "llms.ChatLLM", ...
        {
            "subject_id": <relative_path_to_node>,# e.g. "utils.helper.HelperClass"
            "subject_implementation_file": <relative_path_to_subject_implementation_file>,# e.g. "utils/helper.py"
            "object_id": <relative_path_to_node>,# e.g. "utils.helper.HelperClass.helper_method"
            "object_implementation_file": <relative_path_to_object_implementation_file>,# e.g. "utils/helper.py"
            "type": <brief_description_of_the_edge_type>
        },
        ...
    ]
}

IMPORTANT INSTRUCTIONS:
- Use the EXACT file path shown at the beginning of the formatted AST as the base for all relative paths
- For node IDs: Convert the file path to dot notation and append the node name (e.g., if file is "autorag/autorag/chunker.py", use "autorag.autorag.chunker.ClassName")
- For implementation_file: Use the EXACT file path as shown (e.g., "autorag/autorag/chunker.py")
- IGNORE built-in, third-party packages, and standard library dependencies
- IGNORE global variable nodes
- Use the provided project structure to understand the context and relationships between files
`

// buildPrompt assembles the final extraction prompt for one chunk.
func buildPrompt(fileTree, formattedChunk string) string {
	return fmt.Sprintf(extractionPromptTemplate, fileTree, formattedChunk)
}

const fileTreeMaxDepth = 3

// FileTree renders project structure context around a file: everything under
// the parent of the file's directory, up to a bounded depth, with deeper
// directories elided as "dir/...". Gives the model enough neighborhood to
// resolve cross-file references without shipping the whole repository.
func FileTree(projectRoot, relPath string) string {
	parent := filepath.Dir(filepath.Dir(filepath.Join(projectRoot, filepath.FromSlash(relPath))))
	if rel, err := filepath.Rel(projectRoot, parent); err != nil || strings.HasPrefix(rel, "..") {
		parent = projectRoot
	}

	entries := make(map[string]struct{})
	collectTree(projectRoot, parent, 0, entries)

	sorted := make([]string, 0, len(entries))
	for e := range entries {
		sorted = append(sorted, e)
	}
	sort.Strings(sorted)

	return fmt.Sprintf("Files at level-1 from '%s' and their children (max depth: %d):\n  %s",
		relPath, fileTreeMaxDepth, strings.Join(sorted, "\n  "))
}

func collectTree(projectRoot, dir string, depth int, entries map[string]struct{}) {
	if depth >= fileTreeMaxDepth {
		return
	}
	items, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, item := range items {
		if strings.HasPrefix(item.Name(), ".") {
			continue
		}
		abs := filepath.Join(dir, item.Name())
		rel, err := filepath.Rel(projectRoot, abs)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)

		if item.IsDir() {
			if depth == fileTreeMaxDepth-1 {
				entries[rel+"/..."] = struct{}{}
				continue
			}
			collectTree(projectRoot, abs, depth+1, entries)
		} else {
			entries[rel] = struct{}{}
		}
	}
}
