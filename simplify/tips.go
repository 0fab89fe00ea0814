package simplify

import (
	"sort"

	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

// tipCandidate is a short node hanging off the graph by a single edge.
type tipCandidate struct {
	id string
	// seqLen orders competing tips; the longest one may be kept.
	seqLen int
	// attach is the terminal of the node the tip hangs from.
	attach graph.EdgeTerminal
}

// RemoveTips removes dead-end branches no longer than TipLength bases. A
// tip is attached by exactly one edge; tips competing for the same terminal
// are resolved together: when the terminal also carries a real (non-tip)
// edge every tip is an artifact and all of them go, otherwise the longest
// tip is the true continuation of the chain and only the others go. The
// number of nodes removed is returned.
func (c *Corrector) RemoveTips(g *graph.Graph) (int, error) {
	isTip := make(map[string]bool)
	var candidates []tipCandidate
	for _, id := range g.IDs() {
		n := g.Get(id)
		if len(n.Seq) > c.opts.TipLength {
			continue
		}
		fdeg := n.Degree(sequence.Forward, graph.Outgoing)
		rdeg := n.Degree(sequence.Reverse, graph.Outgoing)
		var live sequence.Strand
		switch {
		case fdeg == 0 && rdeg == 1:
			live = sequence.Reverse
		case rdeg == 0 && fdeg == 1:
			live = sequence.Forward
		default:
			continue
		}
		attach := n.OutEdges(live)[0].Terminal
		if attach.ID == id {
			continue
		}
		isTip[id] = true
		candidates = append(candidates, tipCandidate{
			id:     id,
			seqLen: len(n.Seq),
			attach: attach,
		})
	}

	groups := make(map[graph.EdgeTerminal][]tipCandidate)
	for _, cand := range candidates {
		groups[cand.attach] = append(groups[cand.attach], cand)
	}

	removed := 0
	// Sorted group iteration keeps runs reproducible.
	attaches := make([]graph.EdgeTerminal, 0, len(groups))
	for attach := range groups {
		attaches = append(attaches, attach)
	}
	sort.Slice(attaches, func(i, j int) bool {
		if attaches[i].ID != attaches[j].ID {
			return attaches[i].ID < attaches[j].ID
		}
		return attaches[i].Strand < attaches[j].Strand
	})
	for _, attach := range attaches {
		group := groups[attach]
		target := g.Get(attach.ID)
		if target == nil {
			continue
		}
		// Count the non-tip edges arriving where the tips attach: the
		// incoming side of attach.Strand.
		hasRealEdge := false
		for _, t := range target.EdgeTerminals(attach.Strand, graph.Incoming) {
			if !isTip[t.ID] {
				hasRealEdge = true
				break
			}
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].seqLen != group[j].seqLen {
				return group[i].seqLen > group[j].seqLen
			}
			return group[i].id < group[j].id
		})
		doomed := group
		if !hasRealEdge {
			// The longest tip carries the chain onward; keep it.
			doomed = group[1:]
		}
		for _, cand := range doomed {
			removeNode(g, cand.id)
			removed++
		}
	}
	return removed, nil
}
