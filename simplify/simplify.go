// Package simplify implements the error-correcting graph simplifications
// that run between compression passes: tip removal, bubble popping, and
// low-coverage pruning. Sequencing errors show up as short dead-end
// branches, as pairs of near-identical parallel paths, and as thinly
// covered nodes; each check removes one of those artifact classes, which in
// turn can expose new linear chains for the compressor.
package simplify

import "github.com/vad-babushkin/contrail/graph"

// Opts configures the simplification thresholds.
type Opts struct {
	// TipLength is the maximum sequence length of a removable dead-end
	// branch.
	TipLength int
	// BubbleLengthMax is the maximum sequence length of a node considered
	// as one side of a bubble.
	BubbleLengthMax int
	// BubbleEditRate bounds the edit distance between the two sides of a
	// bubble, as a fraction of the longer sequence.
	BubbleEditRate float64
	// MinCoverage is the average edge coverage below which a short node is
	// pruned.
	MinCoverage float64
	// LowCoverageLength is the maximum sequence length of a prunable
	// low-coverage node. Long nodes are kept regardless of coverage.
	LowCoverageLength int
}

// DefaultOpts holds the default thresholds.
var DefaultOpts = Opts{
	TipLength:         50,
	BubbleLengthMax:   100,
	BubbleEditRate:    0.05,
	MinCoverage:       1.0,
	LowCoverageLength: 100,
}

// Corrector applies the simplifications with a fixed set of thresholds. It
// satisfies the compress package's Corrector interface.
type Corrector struct {
	opts Opts
}

// NewCorrector returns a Corrector with the given thresholds.
func NewCorrector(opts Opts) *Corrector {
	return &Corrector{opts: opts}
}

// removeNode deletes a node and every edge other nodes hold toward it.
func removeNode(g *graph.Graph, id string) {
	n := g.Get(id)
	if n == nil {
		return
	}
	for _, neighbor := range n.NeighborIDs() {
		if neighbor == id {
			continue
		}
		if other := g.Get(neighbor); other != nil {
			other.RemoveEdgesTo(id)
		}
	}
	g.Delete(id)
}
