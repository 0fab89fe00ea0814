package compress

import (
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

// tableFlipper returns fixed flips per node id regardless of round.
// Missing ids default to Down.
type tableFlipper map[string]CoinFlip

func (f tableFlipper) Flip(round int, nodeID string) CoinFlip { return f[nodeID] }

func term(id string, strand sequence.Strand) graph.EdgeTerminal {
	return graph.EdgeTerminal{ID: id, Strand: strand}
}

// chain builds nodes connected forward-to-forward in the given order, with
// consecutive sequences overlapping by k-1.
func chain(t *testing.T, k int, ids []string, seqs []string) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i, id := range ids {
		g.Add(graph.NewNode(id, seqs[i]))
	}
	for i := 0; i+1 < len(ids); i++ {
		expect.NoError(t, g.AddEdge(
			term(ids[i], sequence.Forward), term(ids[i+1], sequence.Forward), 1, nil))
	}
	expect.NoError(t, g.Validate())
	return g
}

func TestMarkCompressibleChain(t *testing.T) {
	g := chain(t, 3, []string{"a", "b", "c"}, []string{"ACT", "CTG", "TGA"})

	anns, stats, err := MarkCompressible(g, 2)
	expect.NoError(t, err)
	expect.EQ(t, stats.Nodes, 3)
	expect.EQ(t, stats.Compressible, 3)
	expect.EQ(t, anns["a"], CompressibleForward)
	expect.EQ(t, anns["b"], CompressibleBoth)
	expect.EQ(t, anns["c"], CompressibleReverse)
}

func TestMarkCompressibleBranch(t *testing.T) {
	// y and z both feed x, so neither side of that junction is a chain.
	// The x -> w edge is still unambiguous in both directions.
	g := graph.New()
	for _, id := range []string{"w", "x", "y", "z"} {
		g.Add(graph.NewNode(id, "ACT"))
	}
	expect.NoError(t, g.AddEdge(term("y", sequence.Forward), term("x", sequence.Forward), 1, nil))
	expect.NoError(t, g.AddEdge(term("z", sequence.Forward), term("x", sequence.Forward), 1, nil))
	expect.NoError(t, g.AddEdge(term("x", sequence.Forward), term("w", sequence.Forward), 1, nil))

	anns, _, err := MarkCompressible(g, 1)
	expect.NoError(t, err)
	expect.EQ(t, anns["y"], CompressibleNone)
	expect.EQ(t, anns["z"], CompressibleNone)
	expect.EQ(t, anns["x"], CompressibleForward)
	expect.EQ(t, anns["w"], CompressibleReverse)
}

func TestMarkCompressiblePalindrome(t *testing.T) {
	// ACGT is its own reverse complement; its two strands describe the
	// same sequence, so the mark must not be emitted once per strand.
	g := graph.New()
	g.Add(graph.NewNode("p", "ACGT"))
	g.Add(graph.NewNode("x", "CGTA"))
	expect.NoError(t, g.AddEdge(term("p", sequence.Forward), term("x", sequence.Forward), 1, nil))

	anns, stats, err := MarkCompressible(g, 1)
	expect.NoError(t, err)
	expect.EQ(t, stats.Palindromes, 1)
	expect.EQ(t, anns["p"], CompressibleForward)
	expect.EQ(t, anns["x"], CompressibleReverse)
}

func TestMarkCompressibleSelfLoop(t *testing.T) {
	g := graph.New()
	g.Add(graph.NewNode("s", "ACT"))
	expect.NoError(t, g.AddEdge(term("s", sequence.Forward), term("s", sequence.Forward), 1, nil))

	anns, _, err := MarkCompressible(g, 1)
	expect.NoError(t, err)
	expect.EQ(t, anns["s"], CompressibleNone)
}

func TestPairMarkDownRunConverts(t *testing.T) {
	// Every flip is Down. The middle node has the smallest id, so it alone
	// converts to Up and merges forward; its predecessor is told where the
	// merged strand went.
	g := chain(t, 3, []string{"b", "a", "c"}, []string{"ACT", "CTG", "TGA"})
	anns, _, err := MarkCompressible(g, 1)
	expect.NoError(t, err)

	infos, stats, err := PairMark(g, anns, tableFlipper{}, 0, 1)
	expect.NoError(t, err)
	expect.EQ(t, stats.NodesToMerge, 1)
	expect.EQ(t, stats.EdgeUpdates, 1)
	expect.EQ(t, infos["a"].StrandToMerge, CompressibleForward)
	expect.EQ(t, infos["b"].StrandToMerge, CompressibleNone)
	expect.EQ(t, infos["c"].StrandToMerge, CompressibleNone)

	// b's forward edge must now point past a, at the surviving node c.
	tail, ok := infos["b"].Node.Tail(sequence.Forward)
	expect.True(t, ok)
	expect.EQ(t, tail, term("c", sequence.Forward))
}

func TestPairMarkAllUpWaits(t *testing.T) {
	// Two Up neighbors cannot merge into each other; both wait for a
	// luckier round.
	g := chain(t, 3, []string{"a", "b"}, []string{"ACT", "CTG"})
	anns, _, err := MarkCompressible(g, 1)
	expect.NoError(t, err)

	infos, stats, err := PairMark(g, anns, tableFlipper{"a": Up, "b": Up}, 0, 1)
	expect.NoError(t, err)
	expect.EQ(t, stats.NodesToMerge, 0)
	expect.EQ(t, infos["a"].StrandToMerge, CompressibleNone)
	expect.EQ(t, infos["b"].StrandToMerge, CompressibleNone)
}

func TestPairMarkTwoSidedMerge(t *testing.T) {
	// Both ends are Up and the middle is Down: both ends merge into the
	// middle, from opposite sides.
	g := chain(t, 3, []string{"a", "b", "c"}, []string{"ACT", "CTG", "TGA"})
	anns, _, err := MarkCompressible(g, 1)
	expect.NoError(t, err)

	flips := tableFlipper{"a": Up, "b": Down, "c": Up}
	infos, stats, err := PairMark(g, anns, flips, 0, 1)
	expect.NoError(t, err)
	expect.EQ(t, stats.NodesToMerge, 2)
	expect.EQ(t, infos["a"].StrandToMerge, CompressibleForward)
	expect.EQ(t, infos["b"].StrandToMerge, CompressibleNone)
	expect.EQ(t, infos["c"].StrandToMerge, CompressibleReverse)
}

func TestApplyMergesTwoSided(t *testing.T) {
	g := chain(t, 3, []string{"a", "b", "c"}, []string{"ACT", "CTG", "TGA"})
	anns, _, err := MarkCompressible(g, 1)
	expect.NoError(t, err)
	infos, _, err := PairMark(g, anns, tableFlipper{"a": Up, "b": Down, "c": Up}, 0, 1)
	expect.NoError(t, err)

	next, stats, err := ApplyMerges(infos, graph.Merger{K: 3}, 1)
	expect.NoError(t, err)
	expect.EQ(t, stats.MergesApplied, 2)
	expect.EQ(t, next.Len(), 1)
	n := next.Get("b")
	expect.True(t, n != nil)
	expect.EQ(t, n.Seq, "ACTGA")
	expect.EQ(t, n.Degree(sequence.Forward, graph.Outgoing), 0)
	expect.EQ(t, n.Degree(sequence.Reverse, graph.Outgoing), 0)
}

func TestApplyMergesMissingSurvivor(t *testing.T) {
	g := chain(t, 3, []string{"a", "b"}, []string{"ACT", "CTG"})
	infos := map[string]*MergeInfo{
		"a": {Node: g.Get("a").Clone(), StrandToMerge: CompressibleForward},
	}
	_, _, err := ApplyMerges(infos, graph.Merger{K: 3}, 1)
	expect.True(t, err != nil)
	expect.HasSubstr(t, err.Error(), "no survivor record")
}
