package sequence

import "fmt"

// complementTable maps each base to its complement. Bases outside {A,C,G,T}
// map to 'N', matching the convention used for unvalidated reads.
var complementTable = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = 'N'
	}
	t['A'], t['C'], t['G'], t['T'] = 'T', 'G', 'C', 'A'
	t['a'], t['c'], t['g'], t['t'] = 'T', 'G', 'C', 'A'
	t['N'], t['n'] = 'N', 'N'
	return t
}()

// Complement returns the complementary base.
func Complement(base byte) byte { return complementTable[base] }

// ReverseComplement returns the reverse complement of seq.
func ReverseComplement(seq string) string {
	n := len(seq)
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = complementTable[seq[n-1-i]]
	}
	return string(buf)
}

// Canonical returns the lexicographically smaller of seq and its reverse
// complement. It is used for deduplication only; the compression engine
// itself always works with oriented sequences.
func Canonical(seq string) string {
	rc := ReverseComplement(seq)
	if rc < seq {
		return rc
	}
	return seq
}

// IsPalindrome reports whether seq equals its own reverse complement. For
// such sequences the two strands are indistinguishable, so per-strand logic
// collapses to a single check.
func IsPalindrome(seq string) bool {
	return seq == ReverseComplement(seq)
}

// StrandSeq returns the sequence as read along the given strand.
func StrandSeq(seq string, strand Strand) string {
	if strand == Forward {
		return seq
	}
	return ReverseComplement(seq)
}

// MergeOverlapping concatenates a and b, which must overlap by exactly
// overlap bases: the last overlap bases of a must equal the first overlap
// bases of b. The overlap is k-1 for a k-mer graph edge.
func MergeOverlapping(a, b string, overlap int) (string, error) {
	if overlap < 0 || len(a) < overlap || len(b) < overlap {
		return "", fmt.Errorf(
			"sequence: cannot overlap %d bases of sequences with lengths %d and %d",
			overlap, len(a), len(b))
	}
	if a[len(a)-overlap:] != b[:overlap] {
		return "", fmt.Errorf(
			"sequence: sequences do not overlap by %d bases: %q vs %q",
			overlap, a[len(a)-overlap:], b[:overlap])
	}
	return a + b[overlap:], nil
}
