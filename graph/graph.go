package graph

import (
	"fmt"

	"github.com/biogo/store/llrb"
	"github.com/vad-babushkin/contrail/sequence"
)

// nodeKey is a node id ordered lexicographically, for use in llrb.
type nodeKey string

// Compare implements llrb.Comparable.
func (k nodeKey) Compare(c llrb.Comparable) int {
	k2 := c.(nodeKey)
	switch {
	case k < k2:
		return -1
	case k > k2:
		return 1
	}
	return 0
}

// Graph is an id-indexed arena of nodes. Nodes refer to each other only by
// id, never by pointer, so merges and deletions cannot leave dangling
// references. Alongside the id map, the graph keeps an ordered id index so
// that iteration order is deterministic for a given node set.
type Graph struct {
	nodes map[string]*Node
	index llrb.Tree
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// Add inserts or replaces the node under its id.
func (g *Graph) Add(n *Node) {
	if _, ok := g.nodes[n.ID]; !ok {
		g.index.Insert(nodeKey(n.ID))
	}
	g.nodes[n.ID] = n
}

// Get returns the node with the given id, or nil.
func (g *Graph) Get(id string) *Node {
	return g.nodes[id]
}

// Delete removes the node with the given id. Edges other nodes hold toward
// it are untouched; callers must drop those themselves.
func (g *Graph) Delete(id string) {
	if _, ok := g.nodes[id]; ok {
		delete(g.nodes, id)
		g.index.Delete(nodeKey(id))
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// IDs returns all node ids in ascending order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	g.index.Do(func(c llrb.Comparable) bool {
		ids = append(ids, string(c.(nodeKey)))
		return false
	})
	return ids
}

// AddEdge records an edge from one terminal to another, adding both stored
// halves so the reverse-complement mirror stays consistent. Both endpoints
// must already be in the graph.
func (g *Graph) AddEdge(from, to EdgeTerminal, coverage int64, tags []string) error {
	src := g.nodes[from.ID]
	dst := g.nodes[to.ID]
	if src == nil || dst == nil {
		return fmt.Errorf("graph: cannot add edge %s -> %s: missing endpoint", from, to)
	}
	src.AddOutgoingEdge(from.Strand, Edge{
		Terminal: to,
		Coverage: coverage,
		Tags:     append([]string(nil), tags...),
	})
	// The mirrored half. For a palindromic self-loop the mirror is the
	// same half-edge, so it must not be stored twice.
	mirrorFrom := to.Flip()
	mirrorTo := from.Flip()
	if mirrorFrom == from && mirrorTo == to {
		return nil
	}
	dst.AddOutgoingEdge(mirrorFrom.Strand, Edge{
		Terminal: mirrorTo,
		Coverage: coverage,
		Tags:     append([]string(nil), tags...),
	})
	return nil
}

// Clone returns a deep copy: an owned new generation of the graph.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.IDs() {
		c.Add(g.nodes[id].Clone())
	}
	return c
}

// Validate checks that every stored half-edge has its reverse-complement
// mirror in the destination node. It is intended for tests and for guarding
// externally loaded graphs.
func (g *Graph) Validate() error {
	for _, id := range g.IDs() {
		n := g.nodes[id]
		for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
			for _, e := range n.OutEdges(strand) {
				dst := g.nodes[e.Terminal.ID]
				if dst == nil {
					return fmt.Errorf("graph: node %s has edge to missing node %s",
						id, e.Terminal.ID)
				}
				mirror := EdgeTerminal{ID: id, Strand: strand.Flip()}
				found := false
				for _, me := range dst.OutEdges(e.Terminal.Strand.Flip()) {
					if me.Terminal == mirror {
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf(
						"graph: edge %s -> %s has no mirror in node %s",
						EdgeTerminal{ID: id, Strand: strand}, e.Terminal, e.Terminal.ID)
				}
			}
		}
	}
	return nil
}
