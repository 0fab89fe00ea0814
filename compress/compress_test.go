package compress

import (
	"context"
	"fmt"
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
	"github.com/vad-babushkin/contrail/simplify"
)

func TestNewRejectsShortK(t *testing.T) {
	_, err := New(Opts{K: 1})
	expect.True(t, err != nil)
}

func TestCompressChainFixedFlips(t *testing.T) {
	// With a and d Down and b and c Up, round one merges b into a and c
	// into d. Round two leaves a and d both Down; a converts itself to Up
	// as the smaller id and merges into d. Round three finds nothing
	// compressible and ends the run.
	g := chain(t, 3, []string{"a", "b", "c", "d"},
		[]string{"ACT", "CTG", "TGA", "GAC"})

	c, err := New(Opts{K: 3, Parallelism: 2})
	expect.NoError(t, err)
	c.SetFlipper(tableFlipper{"a": Down, "b": Up, "c": Up, "d": Down})

	got, stats, rounds, err := c.Compress(context.Background(), g)
	expect.NoError(t, err)
	expect.EQ(t, rounds, 3)
	expect.EQ(t, stats.MergesApplied, 3)
	expect.EQ(t, got.Len(), 1)

	n := got.Get("d")
	expect.True(t, n != nil)
	expect.EQ(t, n.Seq, "ACTGAC")
	expect.EQ(t, n.Degree(sequence.Forward, graph.Outgoing), 0)
	expect.EQ(t, n.Degree(sequence.Reverse, graph.Outgoing), 0)

	// The input generation is untouched.
	expect.EQ(t, g.Len(), 4)
	expect.NoError(t, g.Validate())
}

func genomeChain(t *testing.T, genome string, k int) *graph.Graph {
	t.Helper()
	g := graph.New()
	var prev string
	for i := 0; i+k <= len(genome); i++ {
		id := fmt.Sprintf("c%02d", i)
		g.Add(graph.NewNode(id, genome[i:i+k]))
		if prev != "" {
			expect.NoError(t, g.AddEdge(
				term(prev, sequence.Forward), term(id, sequence.Forward), 1, nil))
		}
		prev = id
	}
	expect.NoError(t, g.Validate())
	return g
}

func TestCompressReconstructsGenome(t *testing.T) {
	// A linear k-mer chain compresses to a single node spelling the
	// genome, up to reverse complement, for any seed.
	const genome = "ACTGACCTGAAGGCTTACGTTCAA"
	for _, seed := range []uint64{0, 1, 12345} {
		g := genomeChain(t, genome, 5)
		c, err := New(Opts{K: 5, Seed: seed, Parallelism: 4, MaxRounds: 1000})
		expect.NoError(t, err)
		got, _, _, err := c.Compress(context.Background(), g)
		expect.NoError(t, err)
		expect.EQ(t, got.Len(), 1)
		n := got.Get(got.IDs()[0])
		expect.EQ(t, sequence.Canonical(n.Seq), sequence.Canonical(genome))
	}
}

func TestCompressDeterminism(t *testing.T) {
	const genome = "ACTGACCTGAAGGCTTACGTTCAA"
	run := func() (*graph.Graph, int) {
		g := genomeChain(t, genome, 5)
		c, err := New(Opts{K: 5, Seed: 99, Parallelism: 3, MaxRounds: 1000})
		expect.NoError(t, err)
		got, _, rounds, err := c.Compress(context.Background(), g)
		expect.NoError(t, err)
		return got, rounds
	}
	g1, rounds1 := run()
	g2, rounds2 := run()
	expect.EQ(t, rounds1, rounds2)
	expect.EQ(t, g1.IDs(), g2.IDs())
	for _, id := range g1.IDs() {
		expect.EQ(t, g1.Get(id).Seq, g2.Get(id).Seq)
	}
}

func TestOrchestratorRemovesTipAndConverges(t *testing.T) {
	// A chain with a short spur: compression collapses the chain around
	// the junction, tip removal drops the spur, and the follow-up
	// compression folds the rest into one node.
	g := chain(t, 3, []string{"a", "b", "c", "d"},
		[]string{"ACT", "CTG", "TGA", "GAC"})
	g.Add(graph.NewNode("t", "CT"))
	expect.NoError(t, g.AddEdge(
		term("t", sequence.Forward), term("b", sequence.Forward), 1, nil))

	c, err := New(Opts{K: 3, Seed: 5, Parallelism: 2, MaxRounds: 1000})
	expect.NoError(t, err)
	corrector := simplify.NewCorrector(simplify.Opts{
		TipLength:       3,
		BubbleLengthMax: 0,
		MinCoverage:     0,
	})

	got, stats, err := NewOrchestrator(c, corrector).Run(context.Background(), g)
	expect.NoError(t, err)
	expect.EQ(t, got.Len(), 1)
	expect.EQ(t, stats.TipsRemoved, 1)
	expect.EQ(t, stats.NodesMerged, 3)
	n := got.Get(got.IDs()[0])
	expect.EQ(t, sequence.Canonical(n.Seq), sequence.Canonical("ACTGAC"))
}

func TestChunkIDs(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	chunks := chunkIDs(ids, 2)
	expect.EQ(t, len(chunks), 2)
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	expect.EQ(t, total, len(ids))
	expect.EQ(t, chunkIDs(nil, 4), [][]string(nil))
}
