// Package graph implements the double-stranded assembly graph: an id-indexed
// store of nodes whose edges are recorded per strand. An edge from strand s
// of node A to strand t of node B is stored twice, once in each endpoint's
// record: A holds the outgoing half on strand s, and B holds the mirrored
// half from strand t.Flip() back to (A, s.Flip()). Incoming edges are never
// stored separately; they are derived from the mirrored halves, so the two
// directions of an edge cannot drift apart inside a node.
package graph

import (
	"fmt"
	"sort"

	"github.com/vad-babushkin/contrail/sequence"
)

// EdgeTerminal identifies one endpoint of a directed edge: a specific strand
// of a specific node. Terminals compare by value.
type EdgeTerminal struct {
	ID     string
	Strand sequence.Strand
}

// Flip returns the terminal for the opposite strand of the same node.
func (t EdgeTerminal) Flip() EdgeTerminal {
	return EdgeTerminal{ID: t.ID, Strand: t.Strand.Flip()}
}

func (t EdgeTerminal) String() string {
	return t.ID + ":" + t.Strand.String()
}

// Edge is one outgoing half-edge: the destination terminal plus the read
// support accumulated for the k-mer overlap it represents.
type Edge struct {
	Terminal EdgeTerminal
	// Coverage counts the reads spanning this edge.
	Coverage int64
	// Tags holds the identifiers of supporting reads.
	Tags []string
}

// Direction selects which side of a node's edges to consider.
type Direction uint8

const (
	Outgoing Direction = iota
	Incoming
)

// Node is a single sequence node. Seq is always the forward-strand sequence;
// the reverse strand is implied.
type Node struct {
	ID  string
	Seq string

	// out holds the outgoing half-edges, indexed by source strand.
	out [2][]Edge
}

// NewNode returns a node with no edges.
func NewNode(id, seq string) *Node {
	return &Node{ID: id, Seq: seq}
}

// AddOutgoingEdge records a single outgoing half-edge from the given strand.
// Callers are responsible for adding the mirrored half to the destination
// node; Graph.AddEdge does both.
func (n *Node) AddOutgoingEdge(strand sequence.Strand, e Edge) {
	n.out[strand] = append(n.out[strand], e)
}

// OutEdges returns the outgoing half-edges of the given strand. The returned
// slice is owned by the node.
func (n *Node) OutEdges(strand sequence.Strand) []Edge {
	return n.out[strand]
}

// Degree returns the number of edges of the given strand in the given
// direction.
func (n *Node) Degree(strand sequence.Strand, dir Direction) int {
	if dir == Outgoing {
		return len(n.out[strand])
	}
	return len(n.out[strand.Flip()])
}

// EdgeTerminals returns the terminals of the given strand's edges in the
// given direction. Incoming terminals are derived from the mirrored
// outgoing halves of the opposite strand.
func (n *Node) EdgeTerminals(strand sequence.Strand, dir Direction) []EdgeTerminal {
	var terminals []EdgeTerminal
	if dir == Outgoing {
		for _, e := range n.out[strand] {
			terminals = append(terminals, e.Terminal)
		}
		return terminals
	}
	for _, e := range n.out[strand.Flip()] {
		terminals = append(terminals, e.Terminal.Flip())
	}
	return terminals
}

// Tail returns the unique outgoing terminal of the given strand, if the
// strand's out-degree is exactly one. A node/strand with a tail is a
// candidate for merging along that direction.
func (n *Node) Tail(strand sequence.Strand) (EdgeTerminal, bool) {
	if len(n.out[strand]) != 1 {
		return EdgeTerminal{}, false
	}
	return n.out[strand][0].Terminal, true
}

// FindStrandWithEdgeTo returns the strand holding an edge to the given
// terminal in the given direction.
func (n *Node) FindStrandWithEdgeTo(terminal EdgeTerminal, dir Direction) (sequence.Strand, bool) {
	for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
		for _, t := range n.EdgeTerminals(strand, dir) {
			if t == terminal {
				return strand, true
			}
		}
	}
	return 0, false
}

// MoveOutgoingEdge retargets the outgoing edge of the given strand from the
// old terminal to the new one, preserving its coverage and tags. It is an
// error if no edge to old exists; per the round protocol that means the
// graph and the update stream have diverged.
func (n *Node) MoveOutgoingEdge(strand sequence.Strand, old, new EdgeTerminal) error {
	for i := range n.out[strand] {
		if n.out[strand][i].Terminal == old {
			n.out[strand][i].Terminal = new
			return nil
		}
	}
	return fmt.Errorf("graph: node %s has no outgoing edge %s -> %s to move to %s",
		n.ID, strand, old, new)
}

// RemoveEdgesTo drops every half-edge, on both strands, whose destination is
// the given node. It returns the number of halves removed.
func (n *Node) RemoveEdgesTo(id string) int {
	removed := 0
	for strand := range n.out {
		kept := n.out[strand][:0]
		for _, e := range n.out[strand] {
			if e.Terminal.ID == id {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		n.out[strand] = kept
	}
	return removed
}

// NeighborIDs returns the sorted ids of all distinct neighbors.
func (n *Node) NeighborIDs() []string {
	seen := make(map[string]bool)
	for strand := range n.out {
		for _, e := range n.out[strand] {
			seen[e.Terminal.ID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AvgCoverage returns the mean coverage over all of the node's half-edges,
// or zero for an isolated node.
func (n *Node) AvgCoverage() float64 {
	var sum int64
	count := 0
	for strand := range n.out {
		for _, e := range n.out[strand] {
			sum += e.Coverage
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := &Node{ID: n.ID, Seq: n.Seq}
	for strand := range n.out {
		if n.out[strand] == nil {
			continue
		}
		c.out[strand] = make([]Edge, len(n.out[strand]))
		for i, e := range n.out[strand] {
			c.out[strand][i] = Edge{
				Terminal: e.Terminal,
				Coverage: e.Coverage,
				Tags:     append([]string(nil), e.Tags...),
			}
		}
	}
	return c
}
