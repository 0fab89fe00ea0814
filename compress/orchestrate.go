package compress

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/vad-babushkin/contrail/graph"
)

// Corrector is the set of graph simplifications interleaved with
// compression. Implementations mutate the graph they are given and report
// how much of it changed; a zero count means the check found nothing.
type Corrector interface {
	// RemoveTips removes dead-end low-value branches and returns the
	// number of nodes removed.
	RemoveTips(g *graph.Graph) (int, error)
	// PopBubbles detects and collapses parallel near-duplicate paths. It
	// returns the number of bubbles found and the number popped.
	PopBubbles(g *graph.Graph) (found, popped int, err error)
	// RemoveLowCoverage prunes nodes below the coverage threshold and
	// returns the number removed.
	RemoveLowCoverage(g *graph.Graph) (int, error)
}

// Orchestrator interleaves chain compression with tip removal, bubble
// popping, and low-coverage pruning until one full cycle changes nothing.
// Each simplification can expose new opportunities for the others, so every
// check re-runs after every mutation; this is a convergence loop, not a
// single pass.
type Orchestrator struct {
	compressor *Compressor
	corrector  Corrector
}

// NewOrchestrator returns an orchestrator driving the given compressor and
// corrector.
func NewOrchestrator(c *Compressor, corrector Corrector) *Orchestrator {
	return &Orchestrator{compressor: c, corrector: corrector}
}

// Run compresses and corrects the graph to its global fixed point. It
// returns the final graph and the accumulated stats; RunStats.Changed
// reports whether anything changed at all, for an external driver deciding
// whether to schedule another cycle.
func (o *Orchestrator) Run(ctx context.Context, g *graph.Graph) (*graph.Graph, RunStats, error) {
	total := RunStats{}
	for {
		g2, stats, err := o.compressAsMuchAsPossible(ctx, g, &total)
		if err != nil {
			return nil, RunStats{}, err
		}
		g = g2
		total = total.Merge(stats)

		removed, err := o.corrector.RemoveLowCoverage(g)
		if err != nil {
			return nil, RunStats{}, err
		}
		log.Printf("compress: removed %d low coverage nodes", removed)
		if removed == 0 {
			return g, total, nil
		}
		total.LowCoverageRemoved += removed
	}
}

// compressAsMuchAsPossible repeats {compress to fixed point, remove tips,
// pop bubbles} until a step where neither tips nor bubbles change the
// graph.
func (o *Orchestrator) compressAsMuchAsPossible(ctx context.Context, g *graph.Graph,
	sofar *RunStats) (*graph.Graph, RunStats, error) {
	total := RunStats{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, RunStats{}, err
		}
		total.Steps++
		log.Printf("compress: step %02d", sofar.Steps+total.Steps)

		g2, roundStats, rounds, err := o.compressor.Compress(ctx, g)
		if err != nil {
			return nil, RunStats{}, err
		}
		g = g2
		total.Rounds += rounds
		total.NodesMerged += roundStats.MergesApplied
		log.Printf("compress: %d rounds, %d nodes merged, %d nodes remain",
			rounds, roundStats.MergesApplied, g.Len())

		tips, err := o.corrector.RemoveTips(g)
		if err != nil {
			return nil, RunStats{}, err
		}
		log.Printf("compress: removed %d tips", tips)
		if tips > 0 {
			total.TipsRemoved += tips
			// The graph needs recompressing before anything else.
			continue
		}

		found, popped, err := o.corrector.PopBubbles(g)
		if err != nil {
			return nil, RunStats{}, err
		}
		log.Printf("compress: found %d bubbles, popped %d", found, popped)
		total.BubblesFound += found
		total.BubblesPopped += popped
		if popped == 0 {
			return g, total, nil
		}
	}
}
