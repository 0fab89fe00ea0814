package simplify

import "github.com/vad-babushkin/contrail/graph"

// RemoveLowCoverage prunes short nodes whose average edge coverage falls
// below MinCoverage. Nodes at least LowCoverageLength long are kept
// regardless; at that length the sequence itself is evidence enough.
// Returns the number of nodes removed.
func (c *Corrector) RemoveLowCoverage(g *graph.Graph) (int, error) {
	var doomed []string
	for _, id := range g.IDs() {
		n := g.Get(id)
		if len(n.Seq) >= c.opts.LowCoverageLength {
			continue
		}
		if n.AvgCoverage() >= c.opts.MinCoverage {
			continue
		}
		doomed = append(doomed, id)
	}
	for _, id := range doomed {
		removeNode(g, id)
	}
	return len(doomed), nil
}
