package compress

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

// survivorKey returns the id of the node this record ends up stored under:
// its own id when it stays put, or the id of the Down neighbor it merges
// into.
func survivorKey(info *MergeInfo) (string, error) {
	if info.StrandToMerge == CompressibleNone {
		return info.Node.ID, nil
	}
	strand := sequence.Forward
	if info.StrandToMerge == CompressibleReverse {
		strand = sequence.Reverse
	}
	tail, ok := info.Node.Tail(strand)
	if !ok {
		return "", errors.E(fmt.Sprintf(
			"compress: node %s is marked to merge along strand %s but has no tail there",
			info.Node.ID, strand))
	}
	return tail.ID, nil
}

// ApplyMerges consumes a round's pair-marking output and produces the next
// graph generation. Records are grouped by surviving node id; each group
// holds the survivor's own record plus the records being absorbed into it,
// at most one per side. Exactly one record per group may carry the
// survivor's id; zero or several means a partitioning or key-collision bug.
func ApplyMerges(infos map[string]*MergeInfo, merger graph.Merger,
	parallelism int) (*graph.Graph, RoundStats, error) {
	groups := make(map[string][]*MergeInfo, len(infos))
	for _, info := range infos {
		key, err := survivorKey(info)
		if err != nil {
			return nil, RoundStats{}, err
		}
		groups[key] = append(groups[key], info)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	chunks := chunkIDs(keys, parallelism)
	workerStats := make([]RoundStats, len(chunks))
	nodeChunks := make([][]*graph.Node, len(chunks))
	err := traverse.Each(len(chunks), func(ci int) error {
		nodes := make([]*graph.Node, 0, len(chunks[ci]))
		for _, key := range chunks[ci] {
			merged, absorbed, err := mergeGroup(key, groups[key], merger)
			if err != nil {
				return err
			}
			workerStats[ci].MergesApplied += absorbed
			nodes = append(nodes, merged)
		}
		nodeChunks[ci] = nodes
		return nil
	})
	if err != nil {
		return nil, RoundStats{}, err
	}

	next := graph.New()
	stats := RoundStats{}
	for ci := range chunks {
		for _, n := range nodeChunks[ci] {
			next.Add(n)
		}
		stats = stats.Merge(workerStats[ci])
	}
	return next, stats, nil
}

// mergeGroup folds the absorbed records of one group into the survivor and
// returns the resulting node plus the number of nodes absorbed.
func mergeGroup(key string, group []*MergeInfo, merger graph.Merger) (*graph.Node, int, error) {
	var survivor *graph.Node
	var absorbed []*MergeInfo
	for _, info := range group {
		if info.Node.ID == key {
			if survivor != nil {
				return nil, 0, errors.E(fmt.Sprintf(
					"compress: two survivor records for id %s", key))
			}
			if info.StrandToMerge != CompressibleNone {
				return nil, 0, errors.E(fmt.Sprintf(
					"compress: node %s is both a merge target and marked to merge away", key))
			}
			survivor = info.Node
			continue
		}
		absorbed = append(absorbed, info)
	}
	if survivor == nil {
		return nil, 0, errors.E(fmt.Sprintf(
			"compress: no survivor record for id %s", key))
	}

	// Deterministic order; the two sides extend opposite ends, so order
	// does not change the result, but identical runs should do identical
	// work.
	sort.Slice(absorbed, func(i, j int) bool {
		return absorbed[i].Node.ID < absorbed[j].Node.ID
	})
	for _, info := range absorbed {
		strand := sequence.Forward
		if info.StrandToMerge == CompressibleReverse {
			strand = sequence.Reverse
		}
		merged, err := merger.Merge(survivor, info.Node, strand)
		if err != nil {
			return nil, 0, err
		}
		survivor = merged
	}
	return survivor, len(absorbed), nil
}
