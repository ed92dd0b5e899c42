// Package graph implements the dependency graph used by the plan compiler.
// It provides depth-first traversal with cycle detection and post-order
// (topological) emission keyed by node identity.
package graph

import (
	"reflect"
	"sort"
	"sync"
)

// Key uniquely identifies a node in the graph. Two declarations producing the
// same type are the same node, so a dependency shared by several parents is
// represented exactly once.
type Key struct {
	Type reflect.Type
}

// String returns a readable representation of the key.
func (k Key) String() string {
	if k.Type == nil {
		return "<nil>"
	}
	return k.Type.String()
}

// Graph holds dependency edges between nodes. Edges point from a node to the
// nodes it depends on. Safe for concurrent reads once populated; writes are
// serialized by the embedded mutex.
type Graph struct {
	mu    sync.RWMutex
	edges map[Key][]Key
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{
		edges: make(map[Key][]Key),
	}
}

// Add records a node and the nodes it depends on. Adding the same node again
// replaces its edge list.
func (g *Graph) Add(node Key, deps []Key) {
	g.mu.Lock()
	defer g.mu.Unlock()

	copied := make([]Key, len(deps))
	copy(copied, deps)
	g.edges[node] = copied

	// Dependencies without their own entry are leaves until registered.
	for _, dep := range deps {
		if _, ok := g.edges[dep]; !ok {
			g.edges[dep] = nil
		}
	}
}

// Dependencies returns the direct dependencies of a node.
func (g *Graph) Dependencies(node Key) []Key {
	g.mu.RLock()
	defer g.mu.RUnlock()

	deps := g.edges[node]
	out := make([]Key, len(deps))
	copy(out, deps)
	return out
}

// Size returns the number of nodes in the graph.
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Validate checks the whole graph for cycles. It returns a CycleError naming
// the members of the first cycle found, or nil if the graph is acyclic.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Deterministic iteration so repeated validation reports the same cycle.
	nodes := make([]Key, 0, len(g.edges))
	for node := range g.edges {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].String() < nodes[j].String() })

	visited := make(map[Key]bool, len(g.edges))
	for _, node := range nodes {
		if visited[node] {
			continue
		}
		if _, err := g.walk(node, visited, make(map[Key]bool), nil, nil); err != nil {
			return err
		}
	}
	return nil
}

// Sort emits the subgraph reachable from root in topological order: every
// node appears after all of its dependencies and exactly once. A cycle on the
// traversal path is reported as a CycleError with the members in encounter
// order.
func (g *Graph) Sort(root Key) ([]Key, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.walk(root, make(map[Key]bool), make(map[Key]bool), nil, nil)
}

// SortAll emits the union of the subgraphs reachable from roots, in
// topological order with duplicates collapsed: a node reachable from several
// roots appears exactly once, before every dependent. Root order is
// preserved, so compilation is deterministic.
func (g *Graph) SortAll(roots []Key) ([]Key, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[Key]bool, len(g.edges))
	var out []Key
	var err error

	for _, root := range roots {
		if out, err = g.walk(root, visited, make(map[Key]bool), nil, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// walk performs the DFS. visited survives across calls for dedup, onPath
// tracks the current traversal path for cycle detection, path keeps encounter
// order for error reporting. Post-order append yields the topological order.
func (g *Graph) walk(node Key, visited, onPath map[Key]bool, path []Key, out []Key) ([]Key, error) {
	if onPath[node] {
		return nil, &CycleError{Members: cycleMembers(path, node)}
	}
	if visited[node] {
		return out, nil
	}

	onPath[node] = true
	path = append(path, node)

	var err error
	for _, dep := range g.edges[node] {
		if out, err = g.walk(dep, visited, onPath, path, out); err != nil {
			return nil, err
		}
	}

	delete(onPath, node)
	visited[node] = true
	return append(out, node), nil
}

// cycleMembers trims the path prefix that is not part of the cycle.
func cycleMembers(path []Key, repeat Key) []Key {
	for i, k := range path {
		if k == repeat {
			members := make([]Key, len(path)-i)
			copy(members, path[i:])
			return members
		}
	}
	return []Key{repeat}
}

// CycleError reports a self-referential dependency chain. Members are listed
// in encounter order; the first member is also the node the traversal
// revisited.
type CycleError struct {
	Members []Key
}

func (e *CycleError) Error() string {
	if len(e.Members) == 0 {
		return "circular dependency detected"
	}

	msg := "circular dependency detected: "
	for _, k := range e.Members {
		msg += k.String() + " -> "
	}
	return msg + e.Members[0].String()
}

// Is reports whether target is a CycleError, so errors.Is works on values
// wrapped by the compiler.
func (e *CycleError) Is(target error) bool {
	_, ok := target.(*CycleError)
	return ok
}

var _ error = (*CycleError)(nil)
