// Package compress implements randomized parallel chain compression of the
// assembly graph. The graph is simplified in synchronized rounds: every
// round annotates each node with the strands that sit on an unambiguous
// linear chain, assigns every node a deterministic coin-flip state, decides
// which adjacent pairs merge, and applies the merges to produce the next
// graph generation. No node ever negotiates with a neighbor inside a round;
// any worker can recompute any node's coin flip on its own, which is what
// makes the protocol conflict-free without locks or a coordinator.
package compress

import farm "github.com/dgryski/go-farm"

// CoinFlip is the per-round state of a node. Down nodes never move: they
// keep their id and strand orientation and act as merge targets. Up nodes
// try to merge themselves into a Down neighbor.
type CoinFlip uint8

const (
	Down CoinFlip = iota
	Up
)

func (c CoinFlip) String() string {
	if c == Down {
		return "Down"
	}
	return "Up"
}

// Flipper produces the coin-flip state for a node id in a given round.
// Implementations must be deterministic so that every worker computes
// identical states without communication. The round number participates so
// a node stuck with an unlucky flip gets a fresh one next round; with flips
// frozen for a whole run, a chain of all-Up nodes would never merge.
type Flipper interface {
	Flip(round int, nodeID string) CoinFlip
}

// CoinFlipper is the production Flipper: an unbiased, stateless hash of
// (seed, round, node id).
type CoinFlipper struct {
	seed uint64
}

// NewCoinFlipper returns a Flipper for the given run seed. The seed must be
// identical across every worker of a run.
func NewCoinFlipper(seed uint64) *CoinFlipper {
	return &CoinFlipper{seed: seed}
}

// Flip returns the state for the given node id in the given round.
func (f *CoinFlipper) Flip(round int, nodeID string) CoinFlip {
	h := farm.Hash64WithSeed([]byte(nodeID), f.seed+uint64(round))
	if h&1 == 0 {
		return Down
	}
	return Up
}
