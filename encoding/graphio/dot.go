package graphio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

// WriteDOT writes the graph in Graphviz DOT form, for inspecting small
// graphs by eye. Each edge is emitted once, under its lexically smaller
// orientation; the label records the strands it connects.
func WriteDOT(g *graph.Graph, out io.Writer) error {
	w := bufio.NewWriter(out)
	fmt.Fprintln(w, "digraph contrail {")
	fmt.Fprintln(w, "  node [shape=box];")
	for _, id := range g.IDs() {
		n := g.Get(id)
		fmt.Fprintf(w, "  %q [label=\"%s\\nlen=%d cov=%.1f\"];\n",
			id, id, len(n.Seq), n.AvgCoverage())
	}
	for _, id := range g.IDs() {
		n := g.Get(id)
		for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
			from := graph.EdgeTerminal{ID: id, Strand: strand}
			for _, e := range n.OutEdges(strand) {
				key := from.String() + ">" + e.Terminal.String()
				mirror := e.Terminal.Flip().String() + ">" + from.Flip().String()
				if key > mirror {
					continue
				}
				fmt.Fprintf(w, "  %q -> %q [label=\"%s>%s cov=%d\"];\n",
					from.ID, e.Terminal.ID, from.Strand, e.Terminal.Strand, e.Coverage)
			}
		}
	}
	fmt.Fprintln(w, "}")
	return errors.Wrap(w.Flush(), "couldn't write DOT output")
}

// WriteDOTFile writes the graph in DOT form to the given path, gzipping
// when the path ends in .gz.
func WriteDOTFile(ctx context.Context, path string, g *graph.Graph) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	w := io.Writer(out.Writer(ctx))
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(w)
		w = zw
	}
	if err := WriteDOT(g, w); err != nil {
		_ = out.Close(ctx)
		return errors.Wrapf(err, "write %s", path)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			_ = out.Close(ctx)
			return errors.Wrapf(err, "close gzip stream for %s", path)
		}
	}
	return errors.Wrapf(out.Close(ctx), "close %s", path)
}
