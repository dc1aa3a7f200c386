package transfer

import (
	"errors"
	"fmt"
	"io"

	"github.com/sincaw/arraystream/pkg/codec"
)

// Receiver reassembles payloads from a frame stream. Accept must be called
// with the stream metadata before the first payload is read.
type Receiver struct {
	kind   Kind
	src    FrameReader
	header *Header
	next   int
}

func NewReceiver(k Kind, src FrameReader) *Receiver {
	return &Receiver{kind: k, src: src}
}

// Accept parses md and moves the receiver to the receiving state.
func (r *Receiver) Accept(md Metadata) error {
	h, err := r.kind.ParseHeader(md)
	if err != nil {
		return err
	}
	r.header = h
	return nil
}

// Header returns the accepted header, nil before Accept.
func (r *Receiver) Header() *Header {
	return r.header
}

// Next reads the next declared payload, io.EOF once all of them are assembled.
func (r *Receiver) Next() (Payload, error) {
	if r.header == nil {
		return Payload{}, ErrMetadataRequired
	}
	if r.next >= len(r.header.Payloads) {
		return Payload{}, io.EOF
	}
	i := r.next
	r.next++
	return r.receive(i, r.header.Payloads[i])
}

// All reads every remaining payload.
func (r *Receiver) All() ([]Payload, error) {
	if r.header == nil {
		return nil, ErrMetadataRequired
	}
	ret := make([]Payload, 0, len(r.header.Payloads)-r.next)
	for {
		p, err := r.Next()
		if err == io.EOF {
			return ret, nil
		}
		if err != nil {
			return nil, err
		}
		ret = append(ret, p)
	}
}

// Finish checks that the peer sent nothing after the declared payloads.
// It must be called once All or Next reported io.EOF.
func (r *Receiver) Finish() error {
	_, err := r.src.ReadFrame()
	if err == nil {
		return &codec.DecodeError{Msg: "message after the declared count"}
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return &TransportError{Op: "finish", Err: err}
}

func (r *Receiver) receive(i int, ph PayloadHeader) (Payload, error) {
	name := r.kind.Name(i)
	if ph.Messages == 0 {
		if err := ph.Type.Valid(); err != nil {
			return Payload{}, &codec.DecodeError{Msg: fmt.Sprintf("%s: empty payload without type", name)}
		}
		if r.kind.vector {
			return Payload{Cols: 1, Data: codec.Empty(ph.Type)}, nil
		}
		return Payload{Rows: ph.Rows, Cols: ph.Cols, Data: codec.Empty(ph.Type)}, nil
	}

	var (
		acc        codec.Array
		rows, cols int
	)
	for m := 0; m < ph.Messages; m++ {
		f, err := r.src.ReadFrame()
		if errors.Is(err, io.EOF) {
			return Payload{}, &TransportError{
				Op:  fmt.Sprintf("receive %s: got %d of %d messages", name, m, ph.Messages),
				Err: ErrShortStream,
			}
		}
		if err != nil {
			return Payload{}, &TransportError{Op: "receive " + name, Err: err}
		}

		if m == 0 {
			if err := f.Type.Valid(); err != nil {
				return Payload{}, &codec.DecodeError{Msg: fmt.Sprintf("%s: %v", name, err)}
			}
			if ph.Type != codec.Unknown && ph.Type != f.Type {
				return Payload{}, codec.MixedTypes(ph.Type, f.Type)
			}
			if f.Rows < 0 || f.Cols < 0 {
				return Payload{}, &codec.DecodeError{Msg: fmt.Sprintf("%s: invalid shape %dx%d", name, f.Rows, f.Cols)}
			}
			rows, cols = f.Rows, f.Cols
			acc = codec.Empty(f.Type)
		} else {
			if f.Type != acc.Type {
				return Payload{}, codec.MixedTypes(acc.Type, f.Type)
			}
			if f.Rows != rows || f.Cols != cols {
				return Payload{}, &codec.DecodeError{
					Msg: fmt.Sprintf("%s: message %d shape %dx%d, want %dx%d", name, m+1, f.Rows, f.Cols, rows, cols),
				}
			}
		}

		width := f.Type.Width()
		if len(f.Chunk)%width != 0 {
			return Payload{}, &codec.DecodeError{Msg: fmt.Sprintf("%s: chunk of %d bytes with width %d", name, len(f.Chunk), width)}
		}
		n := len(f.Chunk) / width
		if cols > 0 && n%cols != 0 {
			return Payload{}, &codec.DecodeError{Msg: fmt.Sprintf("%s: chunk of %d elements splits a row of %d", name, n, cols)}
		}
		if acc.Len()+n > rows*cols {
			return Payload{}, &codec.DecodeError{Msg: fmt.Sprintf("%s: more than %d elements", name, rows*cols)}
		}
		part, err := codec.Deserialize(f.Chunk, n, f.Type)
		if err != nil {
			return Payload{}, err
		}
		if acc, err = acc.Append(part); err != nil {
			return Payload{}, err
		}
	}

	if acc.Len() != rows*cols {
		return Payload{}, &codec.DecodeError{Msg: fmt.Sprintf("%s: assembled %d of %d elements", name, acc.Len(), rows*cols)}
	}
	return Payload{Rows: rows, Cols: cols, Data: acc}, nil
}
