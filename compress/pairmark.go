package compress

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

// EdgeUpdate tells a node holding an edge to (OldID, OldStrand) to retarget
// it to (NewID, NewStrand), because the old node is being absorbed into a
// merge this round. The new terminal is always the Down survivor, whose id
// and strand never change, which is why the update can be computed one hop
// ahead without re-deriving topology.
type EdgeUpdate struct {
	OldID     string
	OldStrand sequence.Strand
	NewID     string
	NewStrand sequence.Strand
}

// MergeInfo is a node record annotated with this round's merge decision.
// StrandToMerge is CompressibleNone when the node stays put; otherwise it
// names the single strand whose tail the node merges along.
type MergeInfo struct {
	Node          *graph.Node
	StrandToMerge CompressibleStrands
}

// edgeToCompress names the edge an Up node merges along: the Down neighbor's
// terminal, and the strand of this node connected to it.
type edgeToCompress struct {
	terminal graph.EdgeTerminal
	strand   sequence.Strand
}

// roundFlip binds a Flipper to one round.
type roundFlip struct {
	f     Flipper
	round int
}

func (r roundFlip) state(id string) CoinFlip { return r.f.Flip(r.round, id) }

// buddy returns the tail of the given strand if that strand is compressible.
func buddy(n *graph.Node, ann CompressibleStrands, strand sequence.Strand) (graph.EdgeTerminal, bool) {
	if !ann.CanCompress(strand) {
		return graph.EdgeTerminal{}, false
	}
	return n.Tail(strand)
}

// convertDownToUp decides whether a Down node promotes itself to Up. A run
// of adjacent Down nodes would otherwise never merge. The smallest-id rule
// guarantees that at most one node of any adjacent Down trio converts, so
// two neighbors can never both self-promote and collide. A node
// compressible on a single strand has only one potential conflict partner,
// so it compares its id against that neighbor alone.
func convertDownToUp(n *graph.Node, flip roundFlip, fbuddy, rbuddy *graph.EdgeTerminal) bool {
	if fbuddy != nil && rbuddy != nil {
		return flip.state(fbuddy.ID) == Down &&
			flip.state(rbuddy.ID) == Down &&
			n.ID < fbuddy.ID &&
			n.ID < rbuddy.ID
	}
	var neighbor string
	switch {
	case fbuddy != nil:
		neighbor = fbuddy.ID
	case rbuddy != nil:
		neighbor = rbuddy.ID
	default:
		return false
	}
	return flip.state(neighbor) == Down && n.ID < neighbor
}

// computeState returns the node's effective coin-flip state for this round.
func computeState(n *graph.Node, flip roundFlip, fbuddy, rbuddy *graph.EdgeTerminal) CoinFlip {
	if flip.state(n.ID) == Up {
		return Up
	}
	if convertDownToUp(n, flip, fbuddy, rbuddy) {
		return Up
	}
	return Down
}

// pickMerge chooses the Down neighbor an Up node merges into, preferring
// the forward-strand tail. The fixed priority keeps the decision identical
// on every worker. Returns nil when neither neighbor is Down; the node then
// waits for the graph to evolve.
func pickMerge(flip roundFlip, fbuddy, rbuddy *graph.EdgeTerminal) *edgeToCompress {
	if fbuddy != nil && flip.state(fbuddy.ID) == Down {
		return &edgeToCompress{terminal: *fbuddy, strand: sequence.Forward}
	}
	if rbuddy != nil && flip.state(rbuddy.ID) == Down {
		return &edgeToCompress{terminal: *rbuddy, strand: sequence.Reverse}
	}
	return nil
}

// pairMarkNode runs the per-node pair-marking decision and emits the node
// record plus any edge updates into the collector.
func pairMarkNode(n *graph.Node, ann CompressibleStrands, flip roundFlip,
	collector *pairMarkCollector, stats *RoundStats) {
	stats.Nodes++
	emitUnchanged := func() {
		collector.add(n.ID, pairMarkMsg{Info: &MergeInfo{
			Node:          n.Clone(),
			StrandToMerge: CompressibleNone,
		}})
	}

	var fbuddy, rbuddy *graph.EdgeTerminal
	if t, ok := buddy(n, ann, sequence.Forward); ok {
		fbuddy = &t
	}
	if t, ok := buddy(n, ann, sequence.Reverse); ok {
		rbuddy = &t
	}
	if fbuddy == nil && rbuddy == nil {
		emitUnchanged()
		return
	}
	stats.Compressible++

	if computeState(n, flip, fbuddy, rbuddy) == Down {
		// Down nodes never move; whatever merges into this node will be
		// delivered to it.
		emitUnchanged()
		return
	}

	edge := pickMerge(flip, fbuddy, rbuddy)
	if edge == nil {
		emitUnchanged()
		return
	}

	// Tell everyone holding an edge into the strand being merged away where
	// that strand now lives.
	update := EdgeUpdate{
		OldID:     n.ID,
		OldStrand: edge.strand,
		NewID:     edge.terminal.ID,
		NewStrand: edge.terminal.Strand,
	}
	for _, t := range n.EdgeTerminals(edge.strand, graph.Incoming) {
		u := update
		collector.add(t.ID, pairMarkMsg{Update: &u})
		stats.EdgeUpdates++
	}
	collector.add(n.ID, pairMarkMsg{Info: &MergeInfo{
		Node:          n.Clone(),
		StrandToMerge: compressibleFromStrand(edge.strand),
	}})
	stats.NodesToMerge++
}

// aggregatePairMark combines the messages delivered to one node id: exactly
// one node record, plus pending edge updates which are applied to it.
// Anything else means the partitioning or a prior round broke an invariant.
func aggregatePairMark(id string, msgs []pairMarkMsg) (*MergeInfo, error) {
	var info *MergeInfo
	var updates []*EdgeUpdate
	for _, m := range msgs {
		switch {
		case m.Info != nil && m.Update == nil:
			if info != nil {
				return nil, errors.E(fmt.Sprintf(
					"compress: two node records for id %s", id))
			}
			info = m.Info
		case m.Update != nil && m.Info == nil:
			updates = append(updates, m.Update)
		default:
			return nil, errors.E(fmt.Sprintf(
				"compress: malformed pair-mark message for id %s", id))
		}
	}
	if info == nil {
		return nil, errors.E(fmt.Sprintf(
			"compress: no node record for id %s", id))
	}
	for _, u := range updates {
		old := graph.EdgeTerminal{ID: u.OldID, Strand: u.OldStrand}
		strand, ok := info.Node.FindStrandWithEdgeTo(old, graph.Outgoing)
		if !ok {
			return nil, errors.E(fmt.Sprintf(
				"compress: node %s received an update for edge to %s but holds no such edge",
				id, old))
		}
		newTerminal := graph.EdgeTerminal{ID: u.NewID, Strand: u.NewStrand}
		if err := info.Node.MoveOutgoingEdge(strand, old, newTerminal); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// PairMark runs one round of pair marking over the whole graph: every node
// decides independently whether it merges into a neighbor this round, and
// edge updates are applied to the recipients. The result maps each node id
// to its decided record.
func PairMark(g *graph.Graph, anns map[string]CompressibleStrands, flipper Flipper,
	round, parallelism int) (map[string]*MergeInfo, RoundStats, error) {
	ids := g.IDs()
	chunks := chunkIDs(ids, parallelism)
	flip := roundFlip{f: flipper, round: round}
	collector := newPairMarkCollector()
	workerStats := make([]RoundStats, len(chunks))

	err := traverse.Each(len(chunks), func(ci int) error {
		for _, id := range chunks[ci] {
			pairMarkNode(g.Get(id), anns[id], flip, collector, &workerStats[ci])
		}
		return nil
	})
	if err != nil {
		return nil, RoundStats{}, err
	}

	// Messages addressed to ids absent from the graph mean records were
	// dropped somewhere upstream.
	for _, dest := range collector.destinations() {
		if g.Get(dest) == nil {
			return nil, RoundStats{}, errors.E(fmt.Sprintf(
				"compress: messages addressed to id %s, which has no node record", dest))
		}
	}

	infoChunks := make([]map[string]*MergeInfo, len(chunks))
	err = traverse.Each(len(chunks), func(ci int) error {
		infos := make(map[string]*MergeInfo, len(chunks[ci]))
		for _, id := range chunks[ci] {
			info, err := aggregatePairMark(id, collector.get(id))
			if err != nil {
				return err
			}
			infos[id] = info
		}
		infoChunks[ci] = infos
		return nil
	})
	if err != nil {
		return nil, RoundStats{}, err
	}

	infos := make(map[string]*MergeInfo, len(ids))
	stats := RoundStats{}
	for ci := range chunks {
		for id, info := range infoChunks[ci] {
			infos[id] = info
		}
		stats = stats.Merge(workerStats[ci])
	}
	return infos, stats, nil
}
