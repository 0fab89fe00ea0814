package simplify

import (
	"sort"

	"github.com/antzucaro/matchr"
	"github.com/minio/highwayhash"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

type seqHash = [highwayhash.Size]uint8

var zeroHashKey seqHash

// bubbleCandidate is a short node forming the middle of a simple path
// major -> node -> minor. Candidates sharing the same (major, minor)
// terminals are the parallel sides of a potential bubble.
type bubbleCandidate struct {
	id string
	// seq is the node's sequence read along the canonical path
	// orientation, so same-bubble candidates compare directly.
	seq      string
	hash     seqHash
	coverage float64
	// entry and exit are the canonical path terminals; entry.Flip() and
	// exit address the edges held by the major and minor neighbors.
	entry graph.EdgeTerminal
	exit  graph.EdgeTerminal
}

// pathKey is the canonical (major, minor) grouping key of a candidate.
func (b bubbleCandidate) pathKey() string {
	return b.entry.String() + ">" + b.exit.String()
}

// findBubbles collects the bubble candidates, grouped by canonical path
// key. A path and its reverse complement describe the same bubble, so each
// candidate is normalized to whichever orientation has the smaller key.
func (c *Corrector) findBubbles(g *graph.Graph) map[string][]bubbleCandidate {
	groups := make(map[string][]bubbleCandidate)
	for _, id := range g.IDs() {
		n := g.Get(id)
		if len(n.Seq) > c.opts.BubbleLengthMax {
			continue
		}
		if n.Degree(sequence.Forward, graph.Outgoing) != 1 ||
			n.Degree(sequence.Reverse, graph.Outgoing) != 1 {
			continue
		}
		exit := n.OutEdges(sequence.Forward)[0].Terminal
		back := n.OutEdges(sequence.Reverse)[0].Terminal
		if exit.ID == id || back.ID == id || exit.ID == back.ID {
			continue
		}
		entry := back.Flip()

		cand := bubbleCandidate{
			id:       id,
			seq:      n.Seq,
			coverage: n.AvgCoverage(),
			entry:    entry,
			exit:     exit,
		}
		// The same path seen from the reverse strand runs
		// exit.Flip() -> node -> entry.Flip().
		flipped := bubbleCandidate{
			id:       id,
			seq:      sequence.ReverseComplement(n.Seq),
			coverage: cand.coverage,
			entry:    exit.Flip(),
			exit:     entry.Flip(),
		}
		if flipped.pathKey() < cand.pathKey() {
			cand = flipped
		}
		cand.hash = highwayhash.Sum([]byte(cand.seq), zeroHashKey[:])
		groups[cand.pathKey()] = append(groups[cand.pathKey()], cand)
	}
	return groups
}

// PopBubbles finds parallel near-duplicate paths and collapses each onto
// its highest-coverage side. Two candidates on the same (major, minor) path
// collapse when their sequences are identical or within
// BubbleEditRate x max(len) edits of each other. The popped node's edge
// coverage folds into the survivor so no read support is lost. Returns the
// number of bubble sides found similar and the number of nodes removed.
func (c *Corrector) PopBubbles(g *graph.Graph) (found, popped int, err error) {
	groups := c.findBubbles(g)

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		// Highest coverage first; it is the likeliest true sequence.
		sort.Slice(group, func(i, j int) bool {
			if group[i].coverage != group[j].coverage {
				return group[i].coverage > group[j].coverage
			}
			return group[i].id < group[j].id
		})
		var survivors []bubbleCandidate
		for _, cand := range group {
			absorbed := false
			for _, s := range survivors {
				if !c.similar(s, cand) {
					continue
				}
				found++
				c.pop(g, s, cand)
				popped++
				absorbed = true
				break
			}
			if !absorbed {
				survivors = append(survivors, cand)
			}
		}
	}
	return found, popped, nil
}

// similar reports whether two candidate sequences are near-duplicates.
func (c *Corrector) similar(a, b bubbleCandidate) bool {
	if a.hash == b.hash && a.seq == b.seq {
		return true
	}
	maxLen := len(a.seq)
	if len(b.seq) > maxLen {
		maxLen = len(b.seq)
	}
	limit := int(c.opts.BubbleEditRate * float64(maxLen))
	if limit == 0 {
		return false
	}
	return matchr.Levenshtein(a.seq, b.seq) <= limit
}

// pop removes the lower-coverage side of a bubble and folds its edge
// coverage into the survivor's corresponding edges.
func (c *Corrector) pop(g *graph.Graph, survivor, doomed bubbleCandidate) {
	doomedNode := g.Get(doomed.id)
	survivorNode := g.Get(survivor.id)
	if doomedNode == nil || survivorNode == nil {
		return
	}
	// Both candidates are oriented along the same path, so the doomed
	// node's entry-side support goes to the survivor's entry-side edge and
	// likewise for the exit side.
	var entryCov, exitCov int64
	for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
		for _, e := range doomedNode.OutEdges(strand) {
			if e.Terminal == doomed.exit || e.Terminal == survivor.exit {
				exitCov += e.Coverage
			} else {
				entryCov += e.Coverage
			}
		}
	}
	addCoverage(survivorNode, survivor.exit, exitCov)
	addCoverage(survivorNode, survivor.entry.Flip(), entryCov)
	removeNode(g, doomed.id)
}

// addCoverage adds cov onto the node's edges whose destination matches
// terminal, in either orientation of the node.
func addCoverage(n *graph.Node, terminal graph.EdgeTerminal, cov int64) {
	for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
		edges := n.OutEdges(strand)
		for i := range edges {
			if edges[i].Terminal == terminal || edges[i].Terminal == terminal.Flip() {
				edges[i].Coverage += cov
				return
			}
		}
	}
}
