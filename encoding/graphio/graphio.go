// Package graphio reads and writes assembly graphs as recordio files, one
// node per record, zstd-compressed. The trailer records the node count so a
// truncated file is detected on load.
package graphio

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/pkg/errors"
	"github.com/vad-babushkin/contrail/graph"
	"github.com/vad-babushkin/contrail/sequence"
)

const (
	formatHeader   = "ContrailGraph"
	formatVersion  = "1"
	trailerVersion = 1
)

// Write writes the graph to out. Nodes are written in ascending id order.
func Write(g *graph.Graph, out io.Writer) error {
	recordiozstd.Init()
	w := recordio.NewWriter(out, recordio.WriterOpts{
		Marshal:      marshalNode,
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(formatHeader, formatVersion)
	w.AddHeader(recordio.KeyTrailer, true)
	for _, id := range g.IDs() {
		w.Append(g.Get(id))
	}
	w.SetTrailer(graphTrailer(g.Len()))
	return errors.Wrap(w.Finish(), "couldn't write graph records")
}

// Read reads a graph written by Write. The loaded graph is validated so a
// file with inconsistent edge mirrors is rejected here rather than deep
// inside a compression round.
func Read(rs io.ReadSeeker) (*graph.Graph, error) {
	recordiozstd.Init()
	scanner := recordio.NewScanner(rs, recordio.ScannerOpts{
		Unmarshal: unmarshalNode,
	})
	versionFound := false
	for _, kv := range scanner.Header() {
		switch kv.Key {
		case formatHeader:
			if v := kv.Value.(string); v != formatVersion {
				return nil, errors.Errorf("unrecognized graph file version: got %s, want %s",
					v, formatVersion)
			}
			versionFound = true
			// Cannot error out on unrecognized keys since recordio writes its own.
		}
	}
	if !versionFound {
		return nil, errors.Errorf("not a graph file: %s header missing", formatHeader)
	}
	wantNodes := int64(-1)
	if len(scanner.Trailer()) != 0 {
		var err error
		if wantNodes, err = parseGraphTrailer(scanner.Trailer()); err != nil {
			return nil, err
		}
	}
	g := graph.New()
	for scanner.Scan() {
		g.Add(scanner.Get().(*graph.Node))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read graph records")
	}
	if wantNodes >= 0 && int64(g.Len()) != wantNodes {
		return nil, errors.Errorf("truncated graph file: read %d nodes, trailer says %d",
			g.Len(), wantNodes)
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(err, "loaded graph is inconsistent")
	}
	return g, nil
}

// WriteFile writes the graph to the given path. The path may name any scheme
// the file package supports, including S3.
func WriteFile(ctx context.Context, path string, g *graph.Graph) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := Write(g, out.Writer(ctx)); err != nil {
		_ = out.Close(ctx) // the write error is the interesting one
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(out.Close(ctx), "close %s", path)
}

// ReadFile reads a graph from the given path.
func ReadFile(ctx context.Context, path string) (*graph.Graph, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer in.Close(ctx) // nolint: errcheck
	g, err := Read(in.Reader(ctx))
	return g, errors.Wrapf(err, "read %s", path)
}

func graphTrailer(numNodes int) []byte {
	var buffer bytes.Buffer
	if err := binary.Write(&buffer, binary.LittleEndian, int64(trailerVersion)); err != nil {
		panic("couldn't write trailer version")
	}
	if err := binary.Write(&buffer, binary.LittleEndian, int64(numNodes)); err != nil {
		panic("couldn't write node count to trailer")
	}
	return buffer.Bytes()
}

func parseGraphTrailer(trailer []byte) (int64, error) {
	r := bytes.NewReader(trailer)
	var version, numNodes int64
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, errors.Wrap(err, "couldn't read trailer")
	}
	if version != trailerVersion {
		return 0, errors.Errorf("unrecognized trailer version: got %d, want %d",
			version, trailerVersion)
	}
	if err := binary.Read(r, binary.LittleEndian, &numNodes); err != nil {
		return 0, errors.Wrap(err, "couldn't read trailer")
	}
	return numNodes, nil
}

// Record layout, all integers uvarint, strings length-prefixed:
//
//   id seq { nEdges { destID destStrand coverage nTags { tag } } }x2
//
// The two edge blocks are the forward and reverse strand halves, in that
// order. Both halves of every edge are stored, so loading never has to
// re-derive mirrors.

func marshalNode(scratch []byte, v interface{}) ([]byte, error) {
	n := v.(*graph.Node)
	t := scratch[:0]
	t = appendString(t, n.ID)
	t = appendString(t, n.Seq)
	for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
		edges := n.OutEdges(strand)
		t = appendUvarint(t, uint64(len(edges)))
		for _, e := range edges {
			t = appendString(t, e.Terminal.ID)
			t = append(t, byte(e.Terminal.Strand))
			t = appendUvarint(t, uint64(e.Coverage))
			t = appendUvarint(t, uint64(len(e.Tags)))
			for _, tag := range e.Tags {
				t = appendString(t, tag)
			}
		}
	}
	return t, nil
}

func unmarshalNode(in []byte) (interface{}, error) {
	d := decoder{buf: in}
	n := graph.NewNode(d.string(), d.string())
	for _, strand := range []sequence.Strand{sequence.Forward, sequence.Reverse} {
		nEdges := d.uvarint()
		for i := uint64(0); i < nEdges; i++ {
			e := graph.Edge{
				Terminal: graph.EdgeTerminal{
					ID:     d.string(),
					Strand: sequence.Strand(d.byte()),
				},
				Coverage: int64(d.uvarint()),
			}
			nTags := d.uvarint()
			for j := uint64(0); j < nTags; j++ {
				e.Tags = append(e.Tags, d.string())
			}
			n.AddOutgoingEdge(strand, e)
		}
	}
	if d.err != nil {
		return nil, errors.Wrapf(d.err, "malformed node record (id %q)", n.ID)
	}
	return n, nil
}

func appendUvarint(b []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(b, tmp[:n]...)
}

func appendString(b []byte, s string) []byte {
	b = appendUvarint(b, uint64(len(s)))
	return append(b, s...)
}

// decoder is a cursor over a record. The first malformed field sets err and
// every later read returns a zero value, so callers check err once at the
// end.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf)
	if n <= 0 {
		d.err = errors.New("truncated varint")
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) byte() byte {
	if d.err != nil {
		return 0
	}
	if len(d.buf) == 0 {
		d.err = errors.New("truncated record")
		return 0
	}
	b := d.buf[0]
	d.buf = d.buf[1:]
	return b
}

func (d *decoder) string() string {
	l := d.uvarint()
	if d.err != nil {
		return ""
	}
	if uint64(len(d.buf)) < l {
		d.err = errors.New("truncated string")
		return ""
	}
	s := string(d.buf[:l])
	d.buf = d.buf[l:]
	return s
}
