package compress

import (
	"sync"

	"blainsmith.com/go/seahash"
	"github.com/vad-babushkin/contrail/sequence"
)

// The round stages run node-parallel and deliver messages keyed by
// destination node id. The collectors below stand in for the shuffle of a
// distributed substrate: writers append under a shard lock chosen by a hash
// of the destination id, and the aggregation pass reads each destination's
// bucket without further locking.

const numCollectorShards = 256

func collectorShard(dest string) int {
	return int(seahash.Sum64([]byte(dest)) % numCollectorShards)
}

// predecessorMsg tells a node that FromID has a unique outgoing edge to it.
// Strands describes the edge as stored at the sender.
type predecessorMsg struct {
	FromID  string
	Strands sequence.StrandPair
}

type predecessorShard struct {
	mu     sync.Mutex
	byDest map[string][]predecessorMsg
}

type predecessorCollector struct {
	shards [numCollectorShards]predecessorShard
}

func newPredecessorCollector() *predecessorCollector {
	c := &predecessorCollector{}
	for i := range c.shards {
		c.shards[i].byDest = make(map[string][]predecessorMsg)
	}
	return c
}

func (c *predecessorCollector) add(dest string, m predecessorMsg) {
	shard := &c.shards[collectorShard(dest)]
	shard.mu.Lock()
	shard.byDest[dest] = append(shard.byDest[dest], m)
	shard.mu.Unlock()
}

// get returns the messages for a destination. It must only be called after
// all writers are done.
func (c *predecessorCollector) get(dest string) []predecessorMsg {
	return c.shards[collectorShard(dest)].byDest[dest]
}

// pairMarkMsg is the tagged variant delivered during pair marking: either a
// node record annotated with its merge decision, or an edge-update notice.
// Exactly one payload field is set; anything else is a data-integrity
// violation at the aggregation step.
type pairMarkMsg struct {
	Info   *MergeInfo
	Update *EdgeUpdate
}

type pairMarkShard struct {
	mu     sync.Mutex
	byDest map[string][]pairMarkMsg
}

type pairMarkCollector struct {
	shards [numCollectorShards]pairMarkShard
}

func newPairMarkCollector() *pairMarkCollector {
	c := &pairMarkCollector{}
	for i := range c.shards {
		c.shards[i].byDest = make(map[string][]pairMarkMsg)
	}
	return c
}

func (c *pairMarkCollector) add(dest string, m pairMarkMsg) {
	shard := &c.shards[collectorShard(dest)]
	shard.mu.Lock()
	shard.byDest[dest] = append(shard.byDest[dest], m)
	shard.mu.Unlock()
}

func (c *pairMarkCollector) get(dest string) []pairMarkMsg {
	return c.shards[collectorShard(dest)].byDest[dest]
}

// destinations returns every key messages were sent to. Only valid after
// all writers are done.
func (c *pairMarkCollector) destinations() []string {
	var dests []string
	for i := range c.shards {
		for dest := range c.shards[i].byDest {
			dests = append(dests, dest)
		}
	}
	return dests
}
