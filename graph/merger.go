package graph

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/vad-babushkin/contrail/sequence"
)

// Merger combines a node with the neighbor it is being merged into. K is the
// k-mer length of the graph; adjacent sequences overlap by K-1 bases.
type Merger struct {
	K int
}

// Merge absorbs the given node into survivor. absorbedStrand is the strand
// of the absorbed node that carries its unique outgoing edge to the
// survivor. The survivor keeps its id and strand orientation; only its
// sequence and edge sets change. Merge returns a new node and leaves both
// inputs untouched.
//
// The absorbed node's sequence, read along absorbedStrand, is prepended to
// the survivor's sequence as read along the strand the internal edge points
// at, with the K-1 overlap trimmed. The absorbed node's external half-edges
// (all on the opposite strand, since absorbedStrand's out-degree is one)
// move onto the corresponding strand of the survivor. The internal edge and
// its mirror are dropped.
func (m Merger) Merge(survivor, absorbed *Node, absorbedStrand sequence.Strand) (*Node, error) {
	tail, ok := absorbed.Tail(absorbedStrand)
	if !ok {
		return nil, errors.E(fmt.Sprintf(
			"graph: node %s strand %s has no unique outgoing edge to merge along",
			absorbed.ID, absorbedStrand))
	}
	if tail.ID != survivor.ID {
		return nil, errors.E(fmt.Sprintf(
			"graph: node %s merges into %s, not into %s",
			absorbed.ID, tail.ID, survivor.ID))
	}
	// t is the survivor strand the path continues on.
	t := tail.Strand

	absorbedSeq := sequence.StrandSeq(absorbed.Seq, absorbedStrand)
	survivorSeq := sequence.StrandSeq(survivor.Seq, t)
	mergedSeq, err := sequence.MergeOverlapping(absorbedSeq, survivorSeq, m.K-1)
	if err != nil {
		return nil, errors.E(err, fmt.Sprintf(
			"graph: merging node %s into %s", absorbed.ID, survivor.ID))
	}

	merged := survivor.Clone()
	if t == sequence.Forward {
		merged.Seq = mergedSeq
	} else {
		merged.Seq = sequence.ReverseComplement(mergedSeq)
	}

	// Drop the survivor's mirror of the internal edge: the half from
	// t.Flip() back to (absorbed, absorbedStrand.Flip()).
	internalMirror := EdgeTerminal{ID: absorbed.ID, Strand: absorbedStrand.Flip()}
	dropped := false
	kept := merged.out[t.Flip()][:0]
	for _, e := range merged.out[t.Flip()] {
		if !dropped && e.Terminal == internalMirror {
			dropped = true
			continue
		}
		kept = append(kept, e)
	}
	merged.out[t.Flip()] = kept
	if !dropped {
		return nil, errors.E(fmt.Sprintf(
			"graph: survivor %s holds no mirror edge to absorbed node %s",
			survivor.ID, absorbed.ID))
	}

	// The absorbed node's remaining half-edges all live on the opposite
	// strand; they become half-edges of the survivor strand the path enters
	// through. Edges to the same terminal combine: coverage sums, tags
	// union.
	for _, e := range absorbed.OutEdges(absorbedStrand.Flip()) {
		addCombining(merged, t.Flip(), e)
	}
	return merged, nil
}

// addCombining appends a half-edge, folding it into an existing edge to the
// same terminal if one is present.
func addCombining(n *Node, strand sequence.Strand, e Edge) {
	for i := range n.out[strand] {
		if n.out[strand][i].Terminal == e.Terminal {
			n.out[strand][i].Coverage += e.Coverage
			n.out[strand][i].Tags = unionTags(n.out[strand][i].Tags, e.Tags)
			return
		}
	}
	n.AddOutgoingEdge(strand, Edge{
		Terminal: e.Terminal,
		Coverage: e.Coverage,
		Tags:     append([]string(nil), e.Tags...),
	})
}

func unionTags(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		seen[t] = true
	}
	for _, t := range b {
		seen[t] = true
	}
	merged := make([]string, 0, len(seen))
	for t := range seen {
		merged = append(merged, t)
	}
	sort.Strings(merged)
	return merged
}
