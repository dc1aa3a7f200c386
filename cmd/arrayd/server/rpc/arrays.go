package rpc

import (
	"context"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
	"github.com/sincaw/arraystream/pkg/chunk"
	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/store"
	"github.com/sincaw/arraystream/pkg/wire"
)

// Arrays stores arrays of T in one namespace and serves them back.
type Arrays[T codec.Scalar] struct {
	store  store.Store
	logger *utils.Log
}

var (
	_ wire.ArrayServer[int32]   = (*Arrays[int32])(nil)
	_ wire.ArrayServer[float64] = (*Arrays[float64])(nil)
)

func NewArrays[T codec.Scalar](s store.Store, logger *utils.Log) *Arrays[T] {
	return &Arrays[T]{
		store:  s,
		logger: logger.With("rpc", wire.ArrayServiceName[T]()),
	}
}

func (a *Arrays[T]) load(id int64) ([]T, error) {
	rec, err := a.store.Get(id)
	if err != nil {
		return nil, err
	}
	return codec.Values[T](rec.Data)
}

func (a *Arrays[T]) PostArray(_ context.Context, in *wire.Repeated[T]) (*wire.ArrayID, error) {
	id, err := a.store.Post(store.VectorRecord(codec.FromSlice(in.Payload)))
	if err != nil {
		a.logger.Errorf("post array of %d elements fail %v", len(in.Payload), err)
		return nil, wire.ToStatus(err)
	}
	a.logger.Debugf("posted array %d of %d elements", id, len(in.Payload))
	return &wire.ArrayID{ID: id}, nil
}

func (a *Arrays[T]) DeleteArray(_ context.Context, in *wire.ArrayID) (*wire.Empty, error) {
	if err := a.store.Delete(in.ID); err != nil {
		a.logger.Errorf("delete array %d fail %v", in.ID, err)
		return nil, wire.ToStatus(err)
	}
	return &wire.Empty{}, nil
}

func (a *Arrays[T]) GetArray(_ context.Context, in *wire.ArrayID) (*wire.Repeated[T], error) {
	data, err := a.load(in.ID)
	if err != nil {
		return nil, wire.ToStatus(err)
	}
	return &wire.Repeated[T]{Payload: data}, nil
}

func (a *Arrays[T]) GetArrayStreaming(in *wire.ArrayID, stream grpc.ServerStreamingServer[wire.Single[T]]) error {
	data, err := a.load(in.ID)
	if err != nil {
		return wire.ToStatus(err)
	}
	for _, v := range data {
		if err := stream.Send(&wire.Single[T]{Payload: v}); err != nil {
			return err
		}
	}
	return nil
}

func (a *Arrays[T]) GetArrayChunked(in *wire.StreamRequest, stream grpc.ServerStreamingServer[wire.Repeated[T]]) error {
	if in.ChunkSize < 1 {
		return status.Errorf(codes.InvalidArgument, "invalid chunk size %d", in.ChunkSize)
	}
	data, err := a.load(in.ID)
	if err != nil {
		return wire.ToStatus(err)
	}
	plan := chunk.Plan(len(data), int(in.ChunkSize))
	for i := range plan {
		start, end := chunk.Span(plan, i)
		if err := stream.Send(&wire.Repeated[T]{Payload: data[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

func (a *Arrays[T]) GetArrayBinaryChunked(in *wire.StreamRequest, stream grpc.ServerStreamingServer[wire.BinaryChunk]) error {
	width := int64(codec.TypeOf[T]().Width())
	if in.ChunkSize < width || in.ChunkSize%width != 0 {
		return status.Errorf(codes.InvalidArgument, "chunk size %d is not a positive multiple of %d", in.ChunkSize, width)
	}
	data, err := a.load(in.ID)
	if err != nil {
		return wire.ToStatus(err)
	}

	plan := chunk.Plan(len(data), int(in.ChunkSize/width))
	md := metadata.Pairs(
		wire.ArraySizeKey, strconv.Itoa(len(data)),
		wire.ArrayMessagesKey, strconv.Itoa(len(plan)),
	)
	if err := stream.SendHeader(md); err != nil {
		return err
	}
	for i := range plan {
		start, end := chunk.Span(plan, i)
		b := make([]byte, (end-start)*int(width))
		codec.Encode(b, data[start:end])
		if err := stream.Send(&wire.BinaryChunk{Payload: b}); err != nil {
			return err
		}
	}
	return nil
}
