package compress

// RoundStats counts what happened in a single compression round. Workers
// accumulate their own copy and the round driver folds them together with
// Merge.
type RoundStats struct {
	// Nodes is the number of node records seen.
	Nodes int
	// Palindromes is the number of nodes whose sequence equals its own
	// reverse complement.
	Palindromes int
	// Compressible is the number of nodes with at least one compressible
	// strand.
	Compressible int
	// NodesToMerge is the number of Up nodes that selected a Down neighbor
	// to merge into.
	NodesToMerge int
	// EdgeUpdates is the number of edge-retarget messages delivered.
	EdgeUpdates int
	// MergesApplied is the number of nodes absorbed into a survivor.
	MergesApplied int
}

// Merge adds the field values of the two RoundStats and returns the result.
func (s RoundStats) Merge(o RoundStats) RoundStats {
	s.Nodes += o.Nodes
	s.Palindromes += o.Palindromes
	s.Compressible += o.Compressible
	s.NodesToMerge += o.NodesToMerge
	s.EdgeUpdates += o.EdgeUpdates
	s.MergesApplied += o.MergesApplied
	return s
}

// RunStats aggregates a whole compress-and-correct run.
type RunStats struct {
	// Steps is the number of compress/tip/bubble steps driven by the
	// orchestrator.
	Steps int
	// Rounds is the total number of compression rounds across all steps.
	Rounds int
	// NodesMerged is the total number of nodes absorbed by chain merges.
	NodesMerged int
	// TipsRemoved counts dead-end branches removed.
	TipsRemoved int
	// BubblesFound and BubblesPopped count near-duplicate parallel paths
	// detected and collapsed.
	BubblesFound  int
	BubblesPopped int
	// LowCoverageRemoved counts nodes pruned for insufficient coverage.
	LowCoverageRemoved int
}

// Merge adds the field values of the two RunStats and returns the result.
func (s RunStats) Merge(o RunStats) RunStats {
	s.Steps += o.Steps
	s.Rounds += o.Rounds
	s.NodesMerged += o.NodesMerged
	s.TipsRemoved += o.TipsRemoved
	s.BubblesFound += o.BubblesFound
	s.BubblesPopped += o.BubblesPopped
	s.LowCoverageRemoved += o.LowCoverageRemoved
	return s
}

// Changed reports whether any check altered the graph.
func (s RunStats) Changed() bool {
	return s.NodesMerged > 0 || s.TipsRemoved > 0 || s.BubblesPopped > 0 ||
		s.LowCoverageRemoved > 0
}
