// Package client talks to an arrayd grpc server. Every remote failure comes
// back as a *wire.RemoteError that matches the sentinels of the store,
// linalg, codec and transfer packages with errors.Is.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/linalg"
	"github.com/sincaw/arraystream/pkg/transfer"
	"github.com/sincaw/arraystream/pkg/wire"
)

type Client struct {
	conn          *grpc.ClientConn
	demo          wire.DemoClient
	maxChunkBytes int

	Int32s  *Arrays[int32]
	Doubles *Arrays[float64]
}

// New wraps an established connection. maxChunkBytes bounds the chunks the
// client streams to the demo service.
func New(cc grpc.ClientConnInterface, maxChunkBytes int) *Client {
	if maxChunkBytes <= 0 {
		maxChunkBytes = transfer.DefaultMaxChunkBytes
	}
	return &Client{
		demo:          wire.NewDemoClient(cc),
		maxChunkBytes: maxChunkBytes,
		Int32s:        NewArrays[int32](cc),
		Doubles:       NewArrays[float64](cc),
	}
}

// Dial connects to target without transport security unless opts say otherwise.
func Dial(target string, maxChunkBytes int, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	c := New(conn, maxChunkBytes)
	c.conn = conn
	return c, nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) SayHello(ctx context.Context, name string) (string, error) {
	reply, err := c.demo.SayHello(ctx, &wire.HelloRequest{Name: name})
	if err != nil {
		return "", wire.FromStatus(err)
	}
	return reply.Message, nil
}

// stream is the part of a typed bidi client stream the exchange needs.
type stream interface {
	Header() (metadata.MD, error)
	CloseSend() error
}

// exchange streams payloads with their metadata and reads back the reply payloads.
func exchange(ctx context.Context, k transfer.Kind, maxChunkBytes int, payloads []transfer.Payload,
	open func(context.Context) (stream, transfer.FrameWriter, transfer.FrameReader, error)) ([]transfer.Payload, error) {
	out, err := k.Plan(maxChunkBytes, payloads...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx = metadata.NewOutgoingContext(ctx, wire.ToMD(out.Metadata()))
	s, w, r, err := open(ctx)
	if err != nil {
		return nil, wire.FromStatus(err)
	}

	if err := out.Send(w); err != nil {
		// the server ended the call early, its status is read from the stream
		if errors.Is(err, io.EOF) {
			return nil, finish(r)
		}
		return nil, wire.FromStatus(err)
	}
	if err := s.CloseSend(); err != nil {
		return nil, wire.FromStatus(err)
	}

	md, err := s.Header()
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	if md == nil {
		return nil, finish(r)
	}
	recv := transfer.NewReceiver(k, r)
	if err := recv.Accept(wire.FromMD(md)); err != nil {
		return nil, err
	}
	ret, err := recv.All()
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	if _, err := r.ReadFrame(); err != io.EOF {
		if err == nil {
			return nil, &codec.DecodeError{Msg: "message after the declared count"}
		}
		return nil, wire.FromStatus(err)
	}
	return ret, nil
}

// finish reads the final status of a stream that ended without a reply header.
func finish(r transfer.FrameReader) error {
	_, err := r.ReadFrame()
	if err == nil || err == io.EOF {
		return transfer.ErrMetadataRequired
	}
	return wire.FromStatus(err)
}

func (c *Client) vectors(ctx context.Context, open func(context.Context, ...grpc.CallOption) (wire.VectorClientStream, error), vs []codec.Array) (codec.Array, error) {
	payloads := make([]transfer.Payload, len(vs))
	for i, v := range vs {
		payloads[i] = transfer.Vector(v)
	}
	ret, err := exchange(ctx, transfer.Vectors, c.maxChunkBytes, payloads,
		func(ctx context.Context) (stream, transfer.FrameWriter, transfer.FrameReader, error) {
			s, err := open(ctx)
			if err != nil {
				return nil, nil, nil, err
			}
			return s, wire.VectorWriter(s.Send), wire.VectorReader(s.Recv), nil
		})
	if err != nil {
		return codec.Array{}, err
	}
	if len(ret) != 1 {
		return codec.Array{}, fmt.Errorf("%w: got %d result vectors", transfer.ErrBadMetadata, len(ret))
	}
	return ret[0].Data, nil
}

func (c *Client) matrices(ctx context.Context, open func(context.Context, ...grpc.CallOption) (wire.MatrixClientStream, error), ms []linalg.Matrix) (linalg.Matrix, error) {
	payloads := make([]transfer.Payload, len(ms))
	for i, m := range ms {
		payloads[i] = transfer.Matrix(m.Rows, m.Cols, m.Data)
	}
	ret, err := exchange(ctx, transfer.Matrices, c.maxChunkBytes, payloads,
		func(ctx context.Context) (stream, transfer.FrameWriter, transfer.FrameReader, error) {
			s, err := open(ctx)
			if err != nil {
				return nil, nil, nil, err
			}
			return s, wire.MatrixWriter(s.Send), wire.MatrixReader(s.Recv), nil
		})
	if err != nil {
		return linalg.Matrix{}, err
	}
	if len(ret) != 1 {
		return linalg.Matrix{}, fmt.Errorf("%w: got %d result matrices", transfer.ErrBadMetadata, len(ret))
	}
	return linalg.Matrix{Rows: ret[0].Rows, Cols: ret[0].Cols, Data: ret[0].Data}, nil
}

func (c *Client) FlipVector(ctx context.Context, v codec.Array) (codec.Array, error) {
	return c.vectors(ctx, c.demo.FlipVector, []codec.Array{v})
}

func (c *Client) AddVectors(ctx context.Context, vs ...codec.Array) (codec.Array, error) {
	return c.vectors(ctx, c.demo.AddVectors, vs)
}

// MultiplyVectors returns the dot product as a one element array.
func (c *Client) MultiplyVectors(ctx context.Context, a, b codec.Array) (codec.Array, error) {
	return c.vectors(ctx, c.demo.MultiplyVectors, []codec.Array{a, b})
}

func (c *Client) AddMatrices(ctx context.Context, ms ...linalg.Matrix) (linalg.Matrix, error) {
	return c.matrices(ctx, c.demo.AddMatrices, ms)
}

func (c *Client) MultiplyMatrices(ctx context.Context, a, b linalg.Matrix) (linalg.Matrix, error) {
	return c.matrices(ctx, c.demo.MultiplyMatrices, []linalg.Matrix{a, b})
}
