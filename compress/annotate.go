package compress

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

// CompressibleStrands records which strands of a node sit on an unambiguous
// linear chain: the strand has a unique outgoing edge, and the node it
// points at has a unique incoming edge back from this node. Annotations are
// recomputed every round; they are never carried across rounds.
type CompressibleStrands uint8

const (
	CompressibleNone CompressibleStrands = iota
	CompressibleForward
	CompressibleReverse
	CompressibleBoth
)

// CanCompress reports whether the given strand is compressible.
func (c CompressibleStrands) CanCompress(strand sequence.Strand) bool {
	switch c {
	case CompressibleBoth:
		return true
	case CompressibleForward:
		return strand == sequence.Forward
	case CompressibleReverse:
		return strand == sequence.Reverse
	}
	return false
}

func (c CompressibleStrands) String() string {
	switch c {
	case CompressibleForward:
		return "FORWARD"
	case CompressibleReverse:
		return "REVERSE"
	case CompressibleBoth:
		return "BOTH"
	}
	return "NONE"
}

func compressibleFromStrand(strand sequence.Strand) CompressibleStrands {
	if strand == sequence.Forward {
		return CompressibleForward
	}
	return CompressibleReverse
}

// markNode is pass one of compressibility marking: for each strand with a
// tail that is not a self-loop, tell the tail's target that this node is a
// predecessor along that edge. A palindromic sequence collapses both strands
// into a single check: it is a chain link only if it has exactly one
// neighbor, and the message is normalized to the forward strand so the
// outcome does not depend on local strand ordering.
func markNode(n *graph.Node, collector *predecessorCollector, stats *RoundStats) {
	stats.Nodes++
	if sequence.IsPalindrome(n.Seq) {
		stats.Palindromes++
		neighbors := n.NeighborIDs()
		if len(neighbors) != 1 || neighbors[0] == n.ID {
			return
		}
		other := neighbors[0]
		for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
			for _, e := range n.OutEdges(strand) {
				if e.Terminal.ID != other {
					continue
				}
				collector.add(other, predecessorMsg{
					FromID:  n.ID,
					Strands: sequence.Strands(sequence.Forward, e.Terminal.Strand),
				})
				return
			}
		}
		return
	}
	for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
		tail, ok := n.Tail(strand)
		if !ok || tail.ID == n.ID {
			continue
		}
		collector.add(tail.ID, predecessorMsg{
			FromID:  n.ID,
			Strands: sequence.Strands(strand, tail.Strand),
		})
	}
}

// annotateNode is pass two: decide per strand whether this node can merge
// along its tail, using the predecessor messages that arrived for it. A
// strand is compressible only when its tail target also named this node as
// its unique predecessor. More than one message for a tailed strand means
// the edge bookkeeping is duplicated somewhere, which is fatal.
func annotateNode(n *graph.Node, msgs []predecessorMsg) (CompressibleStrands, error) {
	// Messages describe the sender's outgoing edge; complement them to get
	// the matching outgoing edge of this node.
	var terminals [2][]graph.EdgeTerminal
	for _, m := range msgs {
		c := m.Strands.Complement()
		terminals[c.Src()] = append(terminals[c.Src()], graph.EdgeTerminal{
			ID:     m.FromID,
			Strand: c.Dst(),
		})
	}

	fCompressible, rCompressible := false, false
	for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
		tail, ok := n.Tail(strand)
		if !ok {
			continue
		}
		found := false
		for _, t := range terminals[strand] {
			if t == tail {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		if len(terminals[strand]) > 1 {
			return CompressibleNone, errors.E(fmt.Sprintf(
				"compress: node %s has a tail for strand %s but received %d predecessor messages for it",
				n.ID, strand, len(terminals[strand])))
		}
		if strand == sequence.Forward {
			fCompressible = true
		} else {
			rCompressible = true
		}
	}

	switch {
	case fCompressible && rCompressible:
		return CompressibleBoth, nil
	case fCompressible:
		return CompressibleForward, nil
	case rCompressible:
		return CompressibleReverse, nil
	}
	return CompressibleNone, nil
}

// MarkCompressible annotates every node in the graph with its compressible
// strands. The two passes each run node-parallel; messages flow through a
// sharded collector keyed by destination id.
func MarkCompressible(g *graph.Graph, parallelism int) (map[string]CompressibleStrands, RoundStats, error) {
	ids := g.IDs()
	chunks := chunkIDs(ids, parallelism)
	collector := newPredecessorCollector()
	workerStats := make([]RoundStats, len(chunks))

	err := traverse.Each(len(chunks), func(ci int) error {
		for _, id := range chunks[ci] {
			markNode(g.Get(id), collector, &workerStats[ci])
		}
		return nil
	})
	if err != nil {
		return nil, RoundStats{}, err
	}

	annChunks := make([]map[string]CompressibleStrands, len(chunks))
	err = traverse.Each(len(chunks), func(ci int) error {
		anns := make(map[string]CompressibleStrands, len(chunks[ci]))
		for _, id := range chunks[ci] {
			ann, err := annotateNode(g.Get(id), collector.get(id))
			if err != nil {
				return err
			}
			anns[id] = ann
			if ann != CompressibleNone {
				workerStats[ci].Compressible++
			}
		}
		annChunks[ci] = anns
		return nil
	})
	if err != nil {
		return nil, RoundStats{}, err
	}

	anns := make(map[string]CompressibleStrands, len(ids))
	stats := RoundStats{}
	for ci := range chunks {
		for id, ann := range annChunks[ci] {
			anns[id] = ann
		}
		stats = stats.Merge(workerStats[ci])
	}
	return anns, stats, nil
}
