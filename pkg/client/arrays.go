package client

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/transfer"
	"github.com/sincaw/arraystream/pkg/wire"
)

// Strategy selects how an array is retrieved.
type Strategy int

const (
	// Full fetches the array in one response.
	Full Strategy = iota
	// Streaming fetches one element per message.
	Streaming
	// Chunked fetches runs of chunk elements as repeated values.
	Chunked
	// BinaryChunked fetches runs of chunk elements as raw bytes into a caller buffer.
	BinaryChunked
)

var strategyNames = []string{"full", "streaming", "chunked", "binary"}

// Strategies lists every strategy in method id order.
var Strategies = []Strategy{Full, Streaming, Chunked, BinaryChunked}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return "unknown"
	}
	return strategyNames[s]
}

// Chunked reports whether the strategy takes a chunk size.
func (s Strategy) Chunked() bool {
	return s == Chunked || s == BinaryChunked
}

func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("invalid strategy %q", name)
}

// Arrays is the client of the array service of T.
type Arrays[T codec.Scalar] struct {
	c wire.ArrayClient[T]
}

func NewArrays[T codec.Scalar](cc grpc.ClientConnInterface) *Arrays[T] {
	return &Arrays[T]{c: wire.NewArrayClient[T](cc)}
}

func (a *Arrays[T]) Post(ctx context.Context, data []T) (int64, error) {
	id, err := a.c.PostArray(ctx, &wire.Repeated[T]{Payload: data})
	if err != nil {
		return 0, wire.FromStatus(err)
	}
	return id.ID, nil
}

// Delete is idempotent, deleting an unknown id succeeds.
func (a *Arrays[T]) Delete(ctx context.Context, id int64) error {
	_, err := a.c.DeleteArray(ctx, &wire.ArrayID{ID: id})
	return wire.FromStatus(err)
}

func (a *Arrays[T]) Get(ctx context.Context, id int64) ([]T, error) {
	res, err := a.c.GetArray(ctx, &wire.ArrayID{ID: id})
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	if res.Payload == nil {
		return []T{}, nil
	}
	return res.Payload, nil
}

func (a *Arrays[T]) GetStreaming(ctx context.Context, id int64) ([]T, error) {
	stream, err := a.c.GetArrayStreaming(ctx, &wire.ArrayID{ID: id})
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	ret := []T{}
	for {
		m, err := stream.Recv()
		if err == io.EOF {
			return ret, nil
		}
		if err != nil {
			return nil, wire.FromStatus(err)
		}
		ret = append(ret, m.Payload)
	}
}

// GetChunked fetches the array in runs of chunk elements.
func (a *Arrays[T]) GetChunked(ctx context.Context, id int64, chunk int) ([]T, error) {
	stream, err := a.c.GetArrayChunked(ctx, &wire.StreamRequest{ID: id, ChunkSize: int64(chunk)})
	if err != nil {
		return nil, wire.FromStatus(err)
	}
	ret := []T{}
	for {
		m, err := stream.Recv()
		if err == io.EOF {
			return ret, nil
		}
		if err != nil {
			return nil, wire.FromStatus(err)
		}
		ret = append(ret, m.Payload...)
	}
}

// GetBinaryChunked allocates a buffer of the announced size and fills it in
// runs of chunk elements.
func (a *Arrays[T]) GetBinaryChunked(ctx context.Context, id int64, chunk int) ([]T, error) {
	var ret []T
	_, err := a.binaryChunked(ctx, id, chunk, func(size int) []T {
		ret = make([]T, size)
		return ret
	})
	return ret, err
}

// GetBinaryChunkedInto fills dst and returns the array length. dst is checked
// against the announced size before the first chunk is read, and nothing is
// written when it is too small.
func (a *Arrays[T]) GetBinaryChunkedInto(ctx context.Context, id int64, dst []T, chunk int) (int, error) {
	return a.binaryChunked(ctx, id, chunk, func(int) []T { return dst })
}

func headerInt(md metadata.MD, key string) (int, error) {
	v := md.Get(key)
	if len(v) == 0 {
		return 0, fmt.Errorf("%w: missing %q", transfer.ErrBadMetadata, key)
	}
	n, err := strconv.Atoi(v[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", transfer.ErrBadMetadata, key, v[0])
	}
	return n, nil
}

func (a *Arrays[T]) binaryChunked(ctx context.Context, id int64, chunk int, dst func(size int) []T) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	width := codec.TypeOf[T]().Width()
	stream, err := a.c.GetArrayBinaryChunked(ctx, &wire.StreamRequest{ID: id, ChunkSize: int64(chunk * width)})
	if err != nil {
		return 0, wire.FromStatus(err)
	}
	md, err := stream.Header()
	if err != nil {
		return 0, wire.FromStatus(err)
	}
	if md == nil {
		if _, err := stream.Recv(); err != nil && err != io.EOF {
			return 0, wire.FromStatus(err)
		}
		return 0, transfer.ErrMetadataRequired
	}
	size, err := headerInt(md, wire.ArraySizeKey)
	if err != nil {
		return 0, err
	}
	messages, err := headerInt(md, wire.ArrayMessagesKey)
	if err != nil {
		return 0, err
	}

	w, err := codec.NewSpanWriter(dst(size), size, chunk)
	if err != nil {
		return 0, err
	}
	for n := 0; ; n++ {
		m, err := stream.Recv()
		if err == io.EOF {
			if n != messages {
				return 0, &codec.DecodeError{Msg: fmt.Sprintf("got %d of %d messages", n, messages)}
			}
			break
		}
		if err != nil {
			return 0, wire.FromStatus(err)
		}
		if _, err := w.Write(m.Payload); err != nil {
			return 0, err
		}
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return size, nil
}

// Fetch retrieves array id with strategy s, chunk is ignored by the unchunked ones.
func (a *Arrays[T]) Fetch(ctx context.Context, id int64, s Strategy, chunk int) ([]T, error) {
	switch s {
	case Full:
		return a.Get(ctx, id)
	case Streaming:
		return a.GetStreaming(ctx, id)
	case Chunked:
		return a.GetChunked(ctx, id, chunk)
	case BinaryChunked:
		return a.GetBinaryChunked(ctx, id, chunk)
	}
	return nil, fmt.Errorf("invalid strategy %d", s)
}
