package transfer

import (
	"fmt"

	"github.com/sincaw/arraystream/pkg/chunk"
	"github.com/sincaw/arraystream/pkg/codec"
)

// DefaultMaxChunkBytes bounds a single wire message, below the 4MB grpc receive default.
const DefaultMaxChunkBytes = 3 << 20

// Payload is one logical vector or row-major matrix. Vectors have Cols == 1.
type Payload struct {
	Rows int
	Cols int
	Data codec.Array
}

// Vector wraps a as a vector payload.
func Vector(a codec.Array) Payload {
	return Payload{Rows: a.Len(), Cols: 1, Data: a}
}

// Matrix wraps the row-major data of a rows x cols matrix.
func Matrix(rows, cols int, data codec.Array) Payload {
	return Payload{Rows: rows, Cols: cols, Data: data}
}

func (p Payload) Valid() error {
	if err := p.Data.Type.Valid(); err != nil {
		return err
	}
	if p.Rows < 0 || p.Cols < 0 {
		return fmt.Errorf("invalid shape %dx%d", p.Rows, p.Cols)
	}
	if p.Rows*p.Cols != p.Data.Len() {
		return fmt.Errorf("shape %dx%d does not match %d elements", p.Rows, p.Cols, p.Data.Len())
	}
	return nil
}

// Frame is one chunk message independent of its wire shape.
type Frame struct {
	Type  codec.DataType
	Rows  int
	Cols  int
	Chunk []byte
}

type FrameWriter interface {
	WriteFrame(Frame) error
}

// FrameReader returns io.EOF once the stream is closed by the peer.
type FrameReader interface {
	ReadFrame() (Frame, error)
}

// Outgoing is a planned set of payloads ready to be streamed.
type Outgoing struct {
	kind     Kind
	payloads []Payload
	plans    [][]int
	header   *Header
}

// Plan computes the row plans of payloads for messages of at most maxChunkBytes.
func (k Kind) Plan(maxChunkBytes int, payloads ...Payload) (*Outgoing, error) {
	out := &Outgoing{
		kind:     k,
		payloads: payloads,
		plans:    make([][]int, len(payloads)),
		header:   &Header{Payloads: make([]PayloadHeader, len(payloads))},
	}
	for i, p := range payloads {
		if err := p.Valid(); err != nil {
			return nil, fmt.Errorf("%s: %w", k.Name(i), err)
		}
		maxElements := maxChunkBytes / p.Data.Type.Width()
		if maxElements < 1 {
			maxElements = 1
		}
		out.plans[i] = chunk.PlanRows(p.Rows, p.Cols, maxElements)
		ph := PayloadHeader{Messages: len(out.plans[i]), Type: p.Data.Type}
		if !k.vector && ph.Messages == 0 {
			ph.Rows, ph.Cols, ph.Shaped = p.Rows, p.Cols, true
		}
		out.header.Payloads[i] = ph
	}
	return out, nil
}

// Metadata returns the entries to attach before the first frame is written.
func (o *Outgoing) Metadata() Metadata {
	return o.kind.Metadata(o.header)
}

// Plans returns the row plan of every payload.
func (o *Outgoing) Plans() [][]int {
	return o.plans
}

// Send writes every payload in plan order.
func (o *Outgoing) Send(w FrameWriter) error {
	for i, p := range o.payloads {
		plan := o.plans[i]
		for m := range plan {
			start, end := chunk.Span(plan, m)
			f := Frame{
				Type:  p.Data.Type,
				Rows:  p.Rows,
				Cols:  p.Cols,
				Chunk: codec.Serialize(p.Data, start*p.Cols, end*p.Cols),
			}
			if err := w.WriteFrame(f); err != nil {
				return &TransportError{Op: fmt.Sprintf("send %s message %d", o.kind.Name(i), m+1), Err: err}
			}
		}
	}
	return nil
}
