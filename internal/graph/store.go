// File: internal/graph/store.go
// In-memory read model over one aggregated graph: id and file indices plus
// forward and reverse adjacency for traversal.
package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/xkilldash9x/codegraph-cli/api/schemas"
)

// Store holds the immutable indices for one aggregate snapshot. Queries are
// read-only and safe for concurrent use once built.
type Store struct {
	repository schemas.RepositoryInfo
	statistics schemas.Statistics

	nodes     map[string]*schemas.Node
	fileNodes map[string][]*schemas.Node
	edges     []schemas.Edge
	forward   map[string]map[string]struct{}
	reverse   map[string]map[string]struct{}
}

// Load reads an aggregate artifact and builds the query indices. Unlike the
// aggregator's tolerant load, a query against a missing or corrupt aggregate
// is an error the caller must see.
func Load(path string, logger *zap.Logger) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate %s: %w", path, err)
	}
	var agg schemas.AggregatedGraph
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("invalid aggregate %s: %w", path, err)
	}
	store := Build(&agg)
	logger.Debug("Built graph store",
		zap.Int("nodes", len(store.nodes)),
		zap.Int("edges", len(store.edges)),
	)
	return store, nil
}

// Build constructs the indices from an in-memory aggregate.
func Build(agg *schemas.AggregatedGraph) *Store {
	s := &Store{
		repository: agg.Repository,
		statistics: agg.Statistics,
		nodes:      make(map[string]*schemas.Node, len(agg.Nodes)),
		fileNodes:  make(map[string][]*schemas.Node),
		edges:      agg.Edges,
		forward:    make(map[string]map[string]struct{}),
		reverse:    make(map[string]map[string]struct{}),
	}

	for i := range agg.Nodes {
		n := &agg.Nodes[i]
		s.nodes[n.ID] = n
		s.fileNodes[n.ImplementationFile] = append(s.fileNodes[n.ImplementationFile], n)
	}

	for _, e := range agg.Edges {
		addAdjacency(s.forward, e.SubjectID, e.ObjectID)
		addAdjacency(s.reverse, e.ObjectID, e.SubjectID)
	}

	// Nodes within a file read top to bottom.
	for _, nodes := range s.fileNodes {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].StartLine < nodes[j].StartLine })
	}
	return s
}

func addAdjacency(adj map[string]map[string]struct{}, from, to string) {
	if adj[from] == nil {
		adj[from] = make(map[string]struct{})
	}
	adj[from][to] = struct{}{}
}

// Node returns the node with the given id, or nil.
func (s *Store) Node(id string) *schemas.Node { return s.nodes[id] }

// HasNode reports whether an id exists in the graph.
func (s *Store) HasNode(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// NodesInFile returns a file's nodes ordered by start line.
func (s *Store) NodesInFile(rel string) []*schemas.Node { return s.fileNodes[rel] }

// Files returns every implementation file that contains nodes, sorted.
func (s *Store) Files() []string {
	files := make([]string, 0, len(s.fileNodes))
	for f := range s.fileNodes {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Outgoing returns ids this node points to.
func (s *Store) Outgoing(id string) map[string]struct{} { return s.forward[id] }

// Incoming returns ids pointing to this node.
func (s *Store) Incoming(id string) map[string]struct{} { return s.reverse[id] }

// Neighbors returns the union of incoming and outgoing ids.
func (s *Store) Neighbors(id string) map[string]struct{} {
	out := make(map[string]struct{})
	for n := range s.forward[id] {
		out[n] = struct{}{}
	}
	for n := range s.reverse[id] {
		out[n] = struct{}{}
	}
	return out
}

// EdgeTypesBetween returns the types of all edges from subject to object,
// in aggregate order.
func (s *Store) EdgeTypesBetween(subjectID, objectID string) []string {
	var types []string
	for _, e := range s.edges {
		if e.SubjectID == subjectID && e.ObjectID == objectID {
			types = append(types, e.Type)
		}
	}
	return types
}

// Edges returns the full edge list.
func (s *Store) Edges() []schemas.Edge { return s.edges }

// Repository returns the aggregate's repository info.
func (s *Store) Repository() schemas.RepositoryInfo { return s.repository }

// Statistics returns the aggregate's statistics block.
func (s *Store) Statistics() schemas.Statistics { return s.statistics }
