package graph

import (
	"testing"

	"github.com/grailbio/testutil/expect"
	"github.com/vad-babushkin/contrail/sequence"
)

func TestMergeForward(t *testing.T) {
	// x -> a -> b: a merges forward into b; x's view of a is untouched
	// here, retargeting is the caller's job.
	g := New()
	g.Add(NewNode("x", "GAC"))
	g.Add(NewNode("a", "ACT"))
	g.Add(NewNode("b", "CTG"))
	expect.NoError(t, g.AddEdge(term("x", sequence.Forward), term("a", sequence.Forward), 2, []string{"r1"}))
	expect.NoError(t, g.AddEdge(term("a", sequence.Forward), term("b", sequence.Forward), 3, nil))

	m := Merger{K: 3}
	merged, err := m.Merge(g.Get("b"), g.Get("a"), sequence.Forward)
	expect.NoError(t, err)
	expect.EQ(t, merged.ID, "b")
	expect.EQ(t, merged.Seq, "ACTG")

	// The internal edge is gone; a's predecessor edge moved onto b's
	// reverse side with coverage and tags intact.
	expect.EQ(t, merged.OutEdges(sequence.Reverse), []Edge{
		{Terminal: term("x", sequence.Reverse), Coverage: 2, Tags: []string{"r1"}}})
	expect.EQ(t, merged.Degree(sequence.Forward, Outgoing), 0)

	// Inputs are untouched.
	expect.EQ(t, g.Get("a").Seq, "ACT")
	expect.EQ(t, g.Get("b").Degree(sequence.Reverse, Outgoing), 1)
}

func TestMergeIntoReverseStrand(t *testing.T) {
	// a's forward strand continues onto b's reverse strand. The merged
	// sequence is computed along the path and flipped back, since b keeps
	// its orientation.
	g := New()
	g.Add(NewNode("a", "ACT"))
	g.Add(NewNode("b", "CAG")) // reverse strand reads CTG
	expect.NoError(t, g.AddEdge(term("a", sequence.Forward), term("b", sequence.Reverse), 1, nil))

	m := Merger{K: 3}
	merged, err := m.Merge(g.Get("b"), g.Get("a"), sequence.Forward)
	expect.NoError(t, err)
	expect.EQ(t, merged.ID, "b")
	expect.EQ(t, merged.Seq, "CAGT") // reverse complement of ACTG
	expect.EQ(t, merged.Degree(sequence.Forward, Outgoing), 0)
	expect.EQ(t, merged.Degree(sequence.Reverse, Outgoing), 0)
}

func TestMergeCombinesParallelEdges(t *testing.T) {
	// After the merge, b inherits a's edge to x. b already has its own
	// edge to the same terminal, so the two combine instead of doubling.
	g := New()
	g.Add(NewNode("x", "TTA"))
	g.Add(NewNode("a", "ACT"))
	g.Add(NewNode("b", "CTG"))
	expect.NoError(t, g.AddEdge(term("a", sequence.Forward), term("b", sequence.Forward), 1, nil))
	expect.NoError(t, g.AddEdge(term("x", sequence.Forward), term("a", sequence.Forward), 2, []string{"r1"}))
	expect.NoError(t, g.AddEdge(term("b", sequence.Reverse), term("x", sequence.Reverse), 3, []string{"r2"}))

	m := Merger{K: 3}
	merged, err := m.Merge(g.Get("b"), g.Get("a"), sequence.Forward)
	expect.NoError(t, err)
	expect.EQ(t, merged.OutEdges(sequence.Reverse), []Edge{
		{Terminal: term("x", sequence.Reverse), Coverage: 5, Tags: []string{"r1", "r2"}}})
}

func TestMergeErrors(t *testing.T) {
	g := New()
	g.Add(NewNode("a", "ACT"))
	g.Add(NewNode("b", "CTG"))
	g.Add(NewNode("c", "TGA"))
	expect.NoError(t, g.AddEdge(term("a", sequence.Forward), term("b", sequence.Forward), 1, nil))

	m := Merger{K: 3}
	// No tail on the named strand.
	_, err := m.Merge(g.Get("b"), g.Get("a"), sequence.Reverse)
	expect.True(t, err != nil)
	// Tail points at b, not c.
	_, err = m.Merge(g.Get("c"), g.Get("a"), sequence.Forward)
	expect.True(t, err != nil)
}

func TestMergeRejectsBadOverlap(t *testing.T) {
	g := New()
	g.Add(NewNode("a", "AAA"))
	g.Add(NewNode("b", "CTG"))
	expect.NoError(t, g.AddEdge(term("a", sequence.Forward), term("b", sequence.Forward), 1, nil))

	m := Merger{K: 3}
	_, err := m.Merge(g.Get("b"), g.Get("a"), sequence.Forward)
	expect.True(t, err != nil)
}
