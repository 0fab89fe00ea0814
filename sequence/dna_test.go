package sequence

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestReverseComplement(t *testing.T) {
	expect.EQ(t, ReverseComplement("ACGT"), "ACGT")
	expect.EQ(t, ReverseComplement("AAAC"), "GTTT")
	expect.EQ(t, ReverseComplement("ACTG"), "CAGT")
	expect.EQ(t, ReverseComplement(""), "")
	expect.EQ(t, ReverseComplement("ANC"), "GNT")
}

func TestCanonical(t *testing.T) {
	// RC("TTTC") == "GAAA" < "TTTC".
	expect.EQ(t, Canonical("TTTC"), "GAAA")
	expect.EQ(t, Canonical("GAAA"), "GAAA")
	// Palindromes are their own canonical form.
	expect.EQ(t, Canonical("ACGT"), "ACGT")
}

func TestIsPalindrome(t *testing.T) {
	expect.True(t, IsPalindrome("ACGT"))
	expect.True(t, IsPalindrome("AATT"))
	expect.False(t, IsPalindrome("AACT"))
	// Odd-length sequences can never be palindromic.
	expect.False(t, IsPalindrome("ACT"))
}

func TestStrandSeq(t *testing.T) {
	expect.EQ(t, StrandSeq("ACTG", Forward), "ACTG")
	expect.EQ(t, StrandSeq("ACTG", Reverse), "CAGT")
}

func TestStrandPair(t *testing.T) {
	for _, src := range []Strand{Forward, Reverse} {
		for _, dst := range []Strand{Forward, Reverse} {
			p := Strands(src, dst)
			expect.EQ(t, p.Src(), src)
			expect.EQ(t, p.Dst(), dst)
			c := p.Complement()
			expect.EQ(t, c.Src(), dst.Flip())
			expect.EQ(t, c.Dst(), src.Flip())
		}
	}
	expect.EQ(t, Strands(Forward, Reverse).String(), "FR")
}

func TestMergeOverlapping(t *testing.T) {
	merged, err := MergeOverlapping("ACT", "CTG", 2)
	expect.NoError(t, err)
	expect.EQ(t, merged, "ACTG")

	merged, err = MergeOverlapping("ACTG", "TGAC", 2)
	expect.NoError(t, err)
	expect.EQ(t, merged, "ACTGAC")

	_, err = MergeOverlapping("ACT", "GGG", 2)
	expect.HasSubstr(t, err.Error(), "do not overlap")

	_, err = MergeOverlapping("A", "G", 2)
	expect.HasSubstr(t, err.Error(), "cannot overlap")
}
