package graphio

import (
	"context"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

// WriteNodeTSV writes one row per node: id, sequence length, average edge
// coverage, and per-strand out-degrees. The contig sequences themselves
// stay in the recordio file; this is the summary to sort and eyeball.
func WriteNodeTSV(g *graph.Graph, w io.Writer) error {
	out := tsv.NewWriter(w)
	out.WriteString("ID\tLENGTH\tCOVERAGE\tOUT_F\tOUT_R")
	if err := out.EndLine(); err != nil {
		return err
	}
	for _, id := range g.IDs() {
		n := g.Get(id)
		out.WriteString(id)
		out.WriteUint32(uint32(len(n.Seq)))
		out.WriteString(strconv.FormatFloat(n.AvgCoverage(), 'f', 1, 64))
		out.WriteUint32(uint32(n.Degree(sequence.Forward, graph.Outgoing)))
		out.WriteUint32(uint32(n.Degree(sequence.Reverse, graph.Outgoing)))
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// WriteNodeTSVFile writes the node summary to the given path.
func WriteNodeTSVFile(ctx context.Context, path string, g *graph.Graph) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := WriteNodeTSV(g, out.Writer(ctx)); err != nil {
		_ = out.Close(ctx)
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(out.Close(ctx), "close %s", path)
}
