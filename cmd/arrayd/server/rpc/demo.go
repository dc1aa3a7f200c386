package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/linalg"
	"github.com/sincaw/arraystream/pkg/transfer"
	"github.com/sincaw/arraystream/pkg/wire"
)

// operand count bounds, max < 0 means unbounded
type arity struct {
	min, max int
}

func (a arity) check(op string, n int) error {
	if n < a.min || (a.max >= 0 && n > a.max) {
		if a.min == a.max {
			return status.Errorf(codes.InvalidArgument, "%s takes %d operands, got %d", op, a.min, n)
		}
		return status.Errorf(codes.InvalidArgument, "%s takes at least %d operands, got %d", op, a.min, n)
	}
	return nil
}

var (
	unary    = arity{1, 1}
	binary   = arity{2, 2}
	variadic = arity{1, -1}
)

// Demo serves the vector and matrix operations.
type Demo struct {
	maxChunkBytes int
	logger        *utils.Log
}

var _ wire.DemoServer = (*Demo)(nil)

func NewDemo(maxChunkBytes int, logger *utils.Log) *Demo {
	if maxChunkBytes <= 0 {
		maxChunkBytes = transfer.DefaultMaxChunkBytes
	}
	return &Demo{maxChunkBytes: maxChunkBytes, logger: logger}
}

func (d *Demo) SayHello(_ context.Context, in *wire.HelloRequest) (*wire.HelloReply, error) {
	return &wire.HelloReply{Message: fmt.Sprintf("Hello, %s!", in.Name)}, nil
}

// receive checks the declared operand count, then reads every declared
// payload up to the end of the request stream.
func receive(stream grpc.ServerStream, k transfer.Kind, src transfer.FrameReader, op string, want arity) ([]transfer.Payload, error) {
	in, _ := metadata.FromIncomingContext(stream.Context())
	md := wire.FromMD(in)
	n, err := k.Count(md)
	if err != nil {
		return nil, err
	}
	if err := want.check(op, n); err != nil {
		return nil, err
	}
	r := transfer.NewReceiver(k, src)
	if err := r.Accept(md); err != nil {
		return nil, err
	}
	payloads, err := r.All()
	if err != nil {
		return nil, err
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return payloads, nil
}

// reply sends the result metadata and then every chunk of payloads.
func (d *Demo) reply(stream grpc.ServerStream, k transfer.Kind, dst transfer.FrameWriter, payloads ...transfer.Payload) error {
	out, err := k.Plan(d.maxChunkBytes, payloads...)
	if err != nil {
		return err
	}
	if err := stream.SendHeader(wire.ToMD(out.Metadata())); err != nil {
		return &transfer.TransportError{Op: "send header", Err: err}
	}
	return out.Send(dst)
}

func arraysOf(payloads []transfer.Payload) []codec.Array {
	ret := make([]codec.Array, len(payloads))
	for i, p := range payloads {
		ret[i] = p.Data
	}
	return ret
}

func (d *Demo) vectorOp(stream wire.VectorServerStream, op string, want arity, fn func(ps []transfer.Payload) (transfer.Payload, error)) error {
	l := d.logger.With("rpc", op)
	payloads, err := receive(stream, transfer.Vectors, wire.VectorReader(stream.Recv), op, want)
	if err != nil {
		l.Warnf("receive vectors fail %v", err)
		return wire.ToStatus(err)
	}
	res, err := fn(payloads)
	if err != nil {
		l.Infof("operation fail %v", err)
		return wire.ToStatus(err)
	}
	if err := d.reply(stream, transfer.Vectors, wire.VectorWriter(stream.Send), res); err != nil {
		l.Warnf("send result fail %v", err)
		return wire.ToStatus(err)
	}
	l.Debugf("served %d operands, result of %d elements", len(payloads), res.Data.Len())
	return nil
}

func (d *Demo) matrixOp(stream wire.MatrixServerStream, op string, want arity, fn func(ms []linalg.Matrix) (linalg.Matrix, error)) error {
	l := d.logger.With("rpc", op)
	payloads, err := receive(stream, transfer.Matrices, wire.MatrixReader(stream.Recv), op, want)
	if err != nil {
		l.Warnf("receive matrices fail %v", err)
		return wire.ToStatus(err)
	}
	ms := make([]linalg.Matrix, len(payloads))
	for i, p := range payloads {
		ms[i] = linalg.Matrix{Rows: p.Rows, Cols: p.Cols, Data: p.Data}
	}
	res, err := fn(ms)
	if err != nil {
		l.Infof("operation fail %v", err)
		return wire.ToStatus(err)
	}
	if err := d.reply(stream, transfer.Matrices, wire.MatrixWriter(stream.Send), transfer.Matrix(res.Rows, res.Cols, res.Data)); err != nil {
		l.Warnf("send result fail %v", err)
		return wire.ToStatus(err)
	}
	l.Debugf("served %d operands, result %dx%d", len(ms), res.Rows, res.Cols)
	return nil
}

func (d *Demo) FlipVector(stream wire.VectorServerStream) error {
	return d.vectorOp(stream, "FlipVector", unary, func(ps []transfer.Payload) (transfer.Payload, error) {
		v, err := linalg.FlipVector(ps[0].Data)
		return transfer.Vector(v), err
	})
}

func (d *Demo) AddVectors(stream wire.VectorServerStream) error {
	return d.vectorOp(stream, "AddVectors", variadic, func(ps []transfer.Payload) (transfer.Payload, error) {
		v, err := linalg.AddVectors(arraysOf(ps)...)
		return transfer.Vector(v), err
	})
}

func (d *Demo) MultiplyVectors(stream wire.VectorServerStream) error {
	return d.vectorOp(stream, "MultiplyVectors", binary, func(ps []transfer.Payload) (transfer.Payload, error) {
		v, err := linalg.MultiplyVectors(ps[0].Data, ps[1].Data)
		return transfer.Vector(v), err
	})
}

func (d *Demo) AddMatrices(stream wire.MatrixServerStream) error {
	return d.matrixOp(stream, "AddMatrices", variadic, func(ms []linalg.Matrix) (linalg.Matrix, error) {
		return linalg.AddMatrices(ms...)
	})
}

func (d *Demo) MultiplyMatrices(stream wire.MatrixServerStream) error {
	return d.matrixOp(stream, "MultiplyMatrices", binary, func(ms []linalg.Matrix) (linalg.Matrix, error) {
		return linalg.MultiplyMatrices(ms[0], ms[1])
	})
}
