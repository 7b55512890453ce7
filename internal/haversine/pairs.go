package haversine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
	jsoniter "github.com/json-iterator/go"

	"github.com/getsentry/blockprof/internal/errorutil"
	"github.com/getsentry/blockprof/internal/profiler"
)

// Slots are looked up on first use so a caller that names them first decides
// where they sit in the report.
var slotParse = sync.OnceValue(func() profiler.SlotID {
	return profiler.SlotNamed("Parse")
})

type pairsFile struct {
	Pairs []Pair `json:"pairs"`
}

// ParsePairs decodes a pairs document already loaded in memory.
func ParsePairs(ctx context.Context, data []byte) ([]Pair, error) {
	defer profiler.FromContext(ctx).TimeBlock(slotParse()).End()

	var f pairsFile
	d := gojson.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	if err := d.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: malformed pairs file: %v", errorutil.ErrDataIntegrity, err)
	}
	if f.Pairs == nil {
		return nil, fmt.Errorf("%w: missing pairs array", errorutil.ErrDataIntegrity)
	}
	return f.Pairs, nil
}

// ReadPairs reads and decodes a whole pairs document from r.
func ReadPairs(ctx context.Context, r io.Reader) ([]Pair, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParsePairs(ctx, data)
}

// PairWriter streams pairs in the layout the generator has always used:
// one pair per line inside a top level "pairs" array.
type PairWriter struct {
	w      *bufio.Writer
	stream *jsoniter.Stream
	count  int
	closed bool
}

func NewPairWriter(w io.Writer) (*PairWriter, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("{\n  \"pairs\":[\n"); err != nil {
		return nil, err
	}
	return &PairWriter{
		w:      bw,
		stream: jsoniter.NewStream(jsoniter.ConfigFastest, nil, 128),
	}, nil
}

func (pw *PairWriter) Write(p Pair) error {
	s := pw.stream
	s.Reset(nil)
	if pw.count > 0 {
		s.WriteRaw(",\n")
	}
	s.WriteRaw("    ")
	s.WriteObjectStart()
	pw.field("x0", p.X0)
	s.WriteMore()
	pw.field("y0", p.Y0)
	s.WriteMore()
	pw.field("x1", p.X1)
	s.WriteMore()
	pw.field("y1", p.Y1)
	s.WriteObjectEnd()
	if s.Error != nil {
		return s.Error
	}
	pw.count++
	_, err := pw.w.Write(s.Buffer())
	return err
}

func (pw *PairWriter) field(name string, v float64) {
	pw.stream.WriteObjectField(name)
	pw.stream.WriteRaw(fmt.Sprintf("%.16f", v))
}

// Close terminates the document and flushes it. It does not close the
// underlying writer.
func (pw *PairWriter) Close() error {
	if pw.closed {
		return nil
	}
	pw.closed = true
	if pw.count > 0 {
		if _, err := pw.w.WriteString("\n"); err != nil {
			return err
		}
	}
	if _, err := pw.w.WriteString("  ]\n}\n"); err != nil {
		return err
	}
	return pw.w.Flush()
}

// WritePairs writes a complete pairs document.
func WritePairs(w io.Writer, pairs []Pair) error {
	pw, err := NewPairWriter(w)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := pw.Write(p); err != nil {
			return err
		}
	}
	return pw.Close()
}
