package main

/*
contrail-compress collapses the unbranched chains of a De Bruijn assembly
graph into single nodes, then prunes tips, bubbles, and low-coverage nodes,
repeating until the graph stops changing. The input and output are graph
recordio files as written by the graphio package.
*/

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/vad-babushkin/contrail/compress"
	"github.com/vad-babushkin/contrail/encoding/graphio"
	"github.com/vad-babushkin/contrail/simplify"
)

var (
	k           = flag.Int("k", 0, "K-mer size the graph was built with; required")
	seed        = flag.Uint64("seed", 0, "Seed for the per-round coin flips. Runs with the same seed and input are bit-identical")
	parallelism = flag.Int("parallelism", 0, "Maximum number of simultaneous workers per round; 0 = runtime.NumCPU()")
	maxRounds   = flag.Int("max-rounds", compress.DefaultOpts.MaxRounds, "Upper bound on compression rounds per cycle; 0 = unlimited")
	dotOutput   = flag.String("dot-output", "", "Optional path for a Graphviz rendering of the final graph; .gz suffix gzips it")
	tsvOutput   = flag.String("tsv-output", "", "Optional path for a per-node TSV summary of the final graph")

	compressOnly = flag.Bool("compress-only", false, "Only collapse chains; skip tip, bubble, and low-coverage removal")

	tipLength         = flag.Int("tip-length", simplify.DefaultOpts.TipLength, "Maximum sequence length of a removable tip")
	bubbleLengthMax   = flag.Int("bubble-length-max", simplify.DefaultOpts.BubbleLengthMax, "Maximum sequence length of a poppable bubble side")
	bubbleEditRate    = flag.Float64("bubble-edit-rate", simplify.DefaultOpts.BubbleEditRate, "Edit distance budget for bubble popping, as a fraction of sequence length")
	minCoverage       = flag.Float64("min-coverage", simplify.DefaultOpts.MinCoverage, "Average edge coverage below which short nodes are pruned")
	lowCoverageLength = flag.Int("low-coverage-length", simplify.DefaultOpts.LowCoverageLength, "Nodes at least this long are kept regardless of coverage")
)

func usage() {
	fmt.Printf("Usage: %s [OPTIONS] inputpath outputpath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	args := flag.Args()
	if flag.NArg() != 2 {
		log.Fatalf("Expected exactly two positional arguments (inputpath and outputpath); please check flag syntax: '%s'", strings.Join(args, " "))
	}
	if *k < 2 {
		log.Fatalf("-k is required and must be at least 2 (got %d)", *k)
	}
	inputPath, outputPath := args[0], args[1]

	ctx := vcontext.Background()
	g, err := graphio.ReadFile(ctx, inputPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("loaded %d nodes from %s", g.Len(), inputPath)

	compressor, err := compress.New(compress.Opts{
		K:           *k,
		Seed:        *seed,
		Parallelism: *parallelism,
		MaxRounds:   *maxRounds,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	var stats compress.RunStats
	if *compressOnly {
		var rounds int
		var roundStats compress.RoundStats
		g, roundStats, rounds, err = compressor.Compress(ctx, g)
		stats.Rounds = rounds
		stats.NodesMerged = roundStats.MergesApplied
	} else {
		corrector := simplify.NewCorrector(simplify.Opts{
			TipLength:         *tipLength,
			BubbleLengthMax:   *bubbleLengthMax,
			BubbleEditRate:    *bubbleEditRate,
			MinCoverage:       *minCoverage,
			LowCoverageLength: *lowCoverageLength,
		})
		g, stats, err = compress.NewOrchestrator(compressor, corrector).Run(ctx, g)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("done: %d rounds, %d nodes merged, %d tips removed, %d bubbles popped, %d low-coverage nodes removed",
		stats.Rounds, stats.NodesMerged, stats.TipsRemoved, stats.BubblesPopped, stats.LowCoverageRemoved)

	if err := graphio.WriteFile(ctx, outputPath, g); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("wrote %d nodes to %s", g.Len(), outputPath)
	if *dotOutput != "" {
		if err := graphio.WriteDOTFile(ctx, *dotOutput, g); err != nil {
			log.Fatalf("%v", err)
		}
	}
	if *tsvOutput != "" {
		if err := graphio.WriteNodeTSVFile(ctx, *tsvOutput, g); err != nil {
			log.Fatalf("%v", err)
		}
	}
}
