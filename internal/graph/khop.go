// File: internal/graph/khop.go
// Breadth-first k-hop neighborhood queries over the graph store.
package graph

import (
	"fmt"
	"sort"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

// Direction selects which edges a traversal follows.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// ParseDirection validates a user-supplied direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionOutgoing, DirectionIncoming, DirectionBoth:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("direction must be '%s', '%s', or '%s'",
			DirectionOutgoing, DirectionIncoming, DirectionBoth)
	}
}

// KHopResult is a k-hop neighborhood: nodes labeled with the hop level at
// which BFS first reached them, plus every edge of the induced subgraph.
type KHopResult struct {
	StartNodeID string
	K           int
	NodesByHop  map[int][]string
	Edges       []schemas.Edge
}

// TotalNodes counts all nodes across hop levels.
func (r *KHopResult) TotalNodes() int {
	total := 0
	for _, nodes := range r.NodesByHop {
		total += len(nodes)
	}
	return total
}

// HopLevels returns the populated hop levels in ascending order.
func (r *KHopResult) HopLevels() []int {
	levels := make([]int, 0, len(r.NodesByHop))
	for hop := range r.NodesByHop {
		levels = append(levels, hop)
	}
	sort.Ints(levels)
	return levels
}

// KHop traverses up to k hops from startID in the given direction. Each node
// appears once, at its minimum hop distance. Edges are those of the aggregate
// whose endpoints both fall inside the discovered set, regardless of
// traversal direction.
func (s *Store) KHop(startID string, k int, direction Direction) (*KHopResult, error) {
	if !s.HasNode(startID) {
		return nil, &NotFoundError{Kind: "node", Name: startID}
	}
	if k < 0 {
		return nil, fmt.Errorf("k must be non-negative, got %d", k)
	}
	if _, err := ParseDirection(string(direction)); err != nil {
		return nil, err
	}

	result := &KHopResult{
		StartNodeID: startID,
		K:           k,
		NodesByHop:  map[int][]string{0: {startID}},
	}

	visited := map[string]struct{}{startID: {}}
	currentLevel := []string{startID}

	for hop := 1; hop <= k && len(currentLevel) > 0; hop++ {
		var nextLevel []string
		for _, id := range currentLevel {
			for neighbor := range s.neighborsFor(id, direction) {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}
				nextLevel = append(nextLevel, neighbor)
			}
		}
		if len(nextLevel) > 0 {
			sort.Strings(nextLevel)
			result.NodesByHop[hop] = nextLevel
		}
		currentLevel = nextLevel
	}

	// Induced subgraph: every aggregate edge with both endpoints discovered.
	for _, e := range s.edges {
		_, subjIn := visited[e.SubjectID]
		_, objIn := visited[e.ObjectID]
		if subjIn && objIn {
			result.Edges = append(result.Edges, e)
		}
	}
	return result, nil
}

func (s *Store) neighborsFor(id string, direction Direction) map[string]struct{} {
	switch direction {
	case DirectionOutgoing:
		return s.forward[id]
	case DirectionIncoming:
		return s.reverse[id]
	default:
		return s.Neighbors(id)
	}
}
