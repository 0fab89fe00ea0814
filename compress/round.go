package compress

import (
	"context"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/vad-babushkin/contrail/graph"
)

// Opts configures the compression engine.
type Opts struct {
	// K is the k-mer length of the graph. Adjacent node sequences overlap
	// by K-1 bases. Required.
	K int
	// Seed is the global seed for the coin flipper. It must be the same for
	// every worker and every round of a run.
	Seed uint64
	// Parallelism bounds the number of concurrent workers per stage.
	// Zero means one worker per CPU.
	Parallelism int
	// MaxRounds aborts a compression pass that fails to reach a fixed
	// point. Zero means no limit.
	MaxRounds int
}

// DefaultOpts holds the default values for Opts. K and Seed have no
// defaults; a run must set them explicitly.
var DefaultOpts = Opts{
	Parallelism: 0,
	MaxRounds:   0,
}

// Compressor drives compression rounds over graph generations.
type Compressor struct {
	opts    Opts
	flipper Flipper
	merger  graph.Merger
}

// New returns a Compressor for the given options. It refuses to run without
// a valid k-mer length.
func New(opts Opts) (*Compressor, error) {
	if opts.K < 2 {
		return nil, errors.E("compress: k-mer length must be at least 2")
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	return &Compressor{
		opts:    opts,
		flipper: NewCoinFlipper(opts.Seed),
		merger:  graph.Merger{K: opts.K},
	}, nil
}

// SetFlipper replaces the coin flipper. This is primarily intended for use
// by the unittests.
func (c *Compressor) SetFlipper(f Flipper) { c.flipper = f }

// RunRound executes one full round {mark-compressible, pair-mark, merge}
// and returns the next graph generation. The round number feeds the coin
// flipper. The input generation is never mutated; a round that fails has no
// observable effect.
func (c *Compressor) RunRound(g *graph.Graph, round int) (*graph.Graph, RoundStats, error) {
	anns, markStats, err := MarkCompressible(g, c.opts.Parallelism)
	if err != nil {
		return nil, RoundStats{}, err
	}
	infos, pairStats, err := PairMark(g, anns, c.flipper, round, c.opts.Parallelism)
	if err != nil {
		return nil, RoundStats{}, err
	}
	next, mergeStats, err := ApplyMerges(infos, c.merger, c.opts.Parallelism)
	if err != nil {
		return nil, RoundStats{}, err
	}
	return next, RoundStats{
		Nodes:         markStats.Nodes,
		Palindromes:   markStats.Palindromes,
		Compressible:  markStats.Compressible,
		NodesToMerge:  pairStats.NodesToMerge,
		EdgeUpdates:   pairStats.EdgeUpdates,
		MergesApplied: mergeStats.MergesApplied,
	}, nil
}

// Compress runs rounds until none of the remaining nodes is compressible:
// the fixed point for pure chain compression. A round may merge nothing yet
// leave compressible nodes behind when the flips come out wrong; those
// rounds do not end the loop, the next round flips fresh coins. Returns the
// compressed generation, the summed round stats, and the number of rounds
// run.
func (c *Compressor) Compress(ctx context.Context, g *graph.Graph) (*graph.Graph, RoundStats, int, error) {
	total := RoundStats{}
	rounds := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, RoundStats{}, rounds, err
		}
		next, stats, err := c.RunRound(g, rounds)
		if err != nil {
			return nil, RoundStats{}, rounds, err
		}
		rounds++
		total = total.Merge(stats)
		log.Debug.Printf(
			"compress: round %d: %d nodes, %d compressible, %d merged",
			rounds, stats.Nodes, stats.Compressible, stats.MergesApplied)
		g = next
		if stats.Compressible == 0 {
			return g, total, rounds, nil
		}
		if c.opts.MaxRounds > 0 && rounds >= c.opts.MaxRounds {
			return nil, RoundStats{}, rounds, errors.E(
				"compress: no fixed point reached within the round limit")
		}
	}
}

// chunkIDs splits ids into at most parallelism contiguous chunks.
func chunkIDs(ids []string, parallelism int) [][]string {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if len(ids) == 0 {
		return nil
	}
	if parallelism > len(ids) {
		parallelism = len(ids)
	}
	chunks := make([][]string, 0, parallelism)
	size := (len(ids) + parallelism - 1) / parallelism
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
