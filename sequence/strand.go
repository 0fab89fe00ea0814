// Package sequence provides the strand and DNA sequence model for the
// assembly graph. Every node in the graph stores a single forward-strand
// sequence; the reverse strand is always derived by reverse complement.
package sequence

// Strand identifies one of the two strands of a node's sequence.
type Strand uint8

const (
	// Forward is the strand stored in the node record.
	Forward Strand = iota
	// Reverse is the reverse complement of the stored sequence.
	Reverse
)

// Flip returns the opposite strand.
func (s Strand) Flip() Strand {
	if s == Forward {
		return Reverse
	}
	return Forward
}

func (s Strand) String() string {
	if s == Forward {
		return "F"
	}
	return "R"
}

// StrandPair describes which strand of the source and destination node an
// edge attaches to. An edge from strand src of A to strand dst of B implies,
// by reverse-complement symmetry, an edge from dst.Flip() of B to src.Flip()
// of A; Complement returns that mirrored pair.
type StrandPair uint8

// Strands forms a StrandPair from the source and destination strands.
func Strands(src, dst Strand) StrandPair {
	return StrandPair(uint8(src)<<1 | uint8(dst))
}

// Src returns the source strand of the pair.
func (p StrandPair) Src() Strand { return Strand(p >> 1 & 1) }

// Dst returns the destination strand of the pair.
func (p StrandPair) Dst() Strand { return Strand(p & 1) }

// Complement returns the strands of the mirrored edge implied by
// reverse-complement symmetry.
func (p StrandPair) Complement() StrandPair {
	return Strands(p.Dst().Flip(), p.Src().Flip())
}

func (p StrandPair) String() string {
	return p.Src().String() + p.Dst().String()
}
