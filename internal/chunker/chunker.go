// File: internal/chunker/chunker.go
// Splits a formatted syntax-tree rendering into bounded chunks without
// breaking inside a node block.
package chunker

import "strings"

const nodeMarker = "Node type: "

// Chunker splits formatted syntax trees at node boundaries so each chunk
// stays near targetLines while never cutting a node block in half.
type Chunker struct {
	targetLines int
}

// New creates a chunker targeting the given chunk size in lines.
func New(targetLines int) *Chunker {
	return &Chunker{targetLines: targetLines}
}

// Split partitions formatted into chunks, each prefixed with fileHeader so
// every chunk independently names its source file. Node blocks (a
// "Node type:" line through the line before the next one) are kept whole:
// a chunk may exceed the target by up to one block. A formatted input with
// no node markers comes back as a single chunk.
func (c *Chunker) Split(formatted, fileHeader string) []string {
	if strings.TrimSpace(formatted) == "" {
		return nil
	}
	lines := strings.Split(formatted, "\n")

	var chunks []string
	current := []string{fileHeader}

	i := 0
	for i < len(lines) {
		line := lines[i]

		// Tolerate input already carrying the header.
		if i == 0 && strings.HasPrefix(line, "File: ") {
			i++
			continue
		}

		if strings.HasPrefix(strings.TrimSpace(line), nodeMarker) {
			if len(current) > c.targetLines {
				chunks = append(chunks, strings.Join(current, "\n"))
				current = []string{fileHeader}
			}

			// Pull in the whole node block.
			current = append(current, line)
			j := i + 1
			for j < len(lines) {
				next := lines[j]
				if strings.HasPrefix(strings.TrimSpace(next), nodeMarker) {
					break
				}
				current = append(current, next)
				j++
			}
			i = j
		} else {
			current = append(current, line)
			i++
		}
	}

	if len(current) > 1 {
		chunks = append(chunks, strings.Join(current, "\n"))
	}
	if len(chunks) == 0 && strings.TrimSpace(formatted) != "" {
		chunks = append(chunks, formatted)
	}
	return chunks
}
