package rpc

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/sincaw/arraystream/cmd/arrayd/server/common"
	"github.com/sincaw/arraystream/cmd/arrayd/server/telemetry"
	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
	"github.com/sincaw/arraystream/pkg/client"
	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/linalg"
	"github.com/sincaw/arraystream/pkg/store"
	"github.com/sincaw/arraystream/pkg/transfer"
	"github.com/sincaw/arraystream/pkg/wire"
)

const testChunkBytes = 16

type testEnv struct {
	cli    *client.Client
	conn   *grpc.ClientConn
	reader *sdkmetric.ManualReader
}

func newTestEnv(t *testing.T) *testEnv {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	ins := telemetry.NewWithProviders("grpc", tracenoop.NewTracerProvider(), mp)

	config := common.Default()
	config.Transfer.MaxChunkBytes = testChunkBytes
	ctx, cancel := context.WithCancel(context.Background())
	srv, err := New(ctx, store.NewMemory(), &config, ins, utils.Wrap(zaptest.NewLogger(t)))
	require.Nil(t, err)

	lis := bufconn.Listen(1 << 20)
	done := make(chan error, 1)
	go func() {
		done <- srv.ServeListener(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.Nil(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		require.Nil(t, <-done)
	})
	return &testEnv{cli: client.New(conn, testChunkBytes), conn: conn, reader: reader}
}

func (e *testEnv) counter(t *testing.T, name string) int64 {
	rm := metricdata.ResourceMetrics{}
	require.Nil(t, e.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestSayHello(t *testing.T) {
	env := newTestEnv(t)
	msg, err := env.cli.SayHello(context.Background(), "arrays")
	require.Nil(t, err)
	require.Equal(t, "Hello, arrays!", msg)
	require.Equal(t, int64(1), env.counter(t, "rpc.server.requests"))
}

func TestFlipVector(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 16 byte chunks carry two doubles, five elements take three messages each way
	got, err := env.cli.FlipVector(ctx, codec.DoubleArray([]float64{1.3, 2.7, 3.3, 4.5, 6.7}))
	require.Nil(t, err)
	require.Equal(t, codec.DoubleArray([]float64{6.7, 4.5, 3.3, 2.7, 1.3}), got)
	require.Equal(t, int64(6), env.counter(t, "rpc.server.messages"))

	got, err = env.cli.FlipVector(ctx, codec.Empty(codec.Int32))
	require.Nil(t, err)
	require.Equal(t, codec.Int32, got.Type)
	require.Zero(t, got.Len())
}

func TestVectorOps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sum, err := env.cli.AddVectors(ctx,
		codec.Int32Array([]int32{1, 2, 3}),
		codec.Int32Array([]int32{4, 5, 6}),
		codec.Int32Array([]int32{10, 10, 10}),
	)
	require.Nil(t, err)
	require.Equal(t, []int32{15, 17, 19}, sum.Int32s)

	dot, err := env.cli.MultiplyVectors(ctx, codec.DoubleArray([]float64{1, 2, 3}), codec.DoubleArray([]float64{4, 5, 6}))
	require.Nil(t, err)
	require.Equal(t, []float64{32}, dot.Doubles)
}

func TestVectorSizeMismatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.cli.AddVectors(context.Background(),
		codec.DoubleArray([]float64{1, 2, 3}),
		codec.DoubleArray([]float64{4, 5}),
	)
	require.ErrorIs(t, err, linalg.ErrSizeMismatch)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestOperandCount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.cli.AddVectors(context.Background())
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestMissingMetadata(t *testing.T) {
	env := newTestEnv(t)
	stream, err := wire.NewDemoClient(env.conn).FlipVector(context.Background())
	require.Nil(t, err)
	require.Nil(t, stream.CloseSend())
	_, err = stream.Recv()
	err = wire.FromStatus(err)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))
	require.ErrorIs(t, err, transfer.ErrBadMetadata)
}

func TestOversizedCount(t *testing.T) {
	env := newTestEnv(t)
	for _, count := range []string{"9000000000000000000", strconv.Itoa(transfer.MaxPayloads + 1)} {
		ctx := metadata.NewOutgoingContext(context.Background(), metadata.Pairs("full-vectors", count))
		stream, err := wire.NewDemoClient(env.conn).AddVectors(ctx)
		require.Nil(t, err)
		require.Nil(t, stream.CloseSend())
		_, err = stream.Recv()
		err = wire.FromStatus(err)
		require.Equal(t, codes.FailedPrecondition, status.Code(err), count)
		require.ErrorIs(t, err, transfer.ErrBadMetadata)
	}

	// the operand count is checked before any payload key is read
	ctx := metadata.NewOutgoingContext(context.Background(), metadata.Pairs("full-vectors", "3"))
	stream, err := wire.NewDemoClient(env.conn).MultiplyVectors(ctx)
	require.Nil(t, err)
	require.Nil(t, stream.CloseSend())
	_, err = stream.Recv()
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestMessageAfterDeclaredCount(t *testing.T) {
	env := newTestEnv(t)
	md := transfer.Metadata{"full-vectors": "1", "vec1-messages": "1", "vec1-type": "INTEGER"}
	ctx := metadata.NewOutgoingContext(context.Background(), wire.ToMD(md))
	stream, err := wire.NewDemoClient(env.conn).FlipVector(ctx)
	require.Nil(t, err)

	msg := &wire.Vector{DataType: codec.Int32, VectorSize: 2, VectorAsChunk: codec.Serialize(codec.Int32Array([]int32{1, 2}), 0, 2)}
	require.Nil(t, stream.Send(msg))
	require.Nil(t, stream.Send(msg))
	require.Nil(t, stream.CloseSend())
	_, err = stream.Recv()
	err = wire.FromStatus(err)
	require.Equal(t, codes.DataLoss, status.Code(err))
	require.ErrorIs(t, err, codec.ErrDecode)
}

func TestEmptyMatrixOperands(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := linalg.Matrix{Rows: 3, Cols: 0, Data: codec.Empty(codec.Int32)}
	b := linalg.Matrix{Rows: 0, Cols: 2, Data: codec.Empty(codec.Int32)}

	prod, err := env.cli.MultiplyMatrices(ctx, a, b)
	require.Nil(t, err)
	require.Equal(t, 3, prod.Rows)
	require.Equal(t, 2, prod.Cols)
	require.Equal(t, []int32{0, 0, 0, 0, 0, 0}, prod.Data.Int32s)

	sum, err := env.cli.AddMatrices(ctx, b, b)
	require.Nil(t, err)
	require.Equal(t, 0, sum.Rows)
	require.Equal(t, 2, sum.Cols)
}

func TestMatrixOps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := linalg.Matrix{Rows: 2, Cols: 3, Data: codec.Int32Array([]int32{1, 2, 3, 4, 5, 6})}
	b := linalg.Matrix{Rows: 3, Cols: 2, Data: codec.Int32Array([]int32{7, 8, 9, 10, 11, 12})}

	prod, err := env.cli.MultiplyMatrices(ctx, a, b)
	require.Nil(t, err)
	require.Equal(t, 2, prod.Rows)
	require.Equal(t, 2, prod.Cols)
	require.Equal(t, []int32{58, 64, 139, 154}, prod.Data.Int32s)

	sum, err := env.cli.AddMatrices(ctx, a, a)
	require.Nil(t, err)
	require.Equal(t, []int32{2, 4, 6, 8, 10, 12}, sum.Data.Int32s)

	_, err = env.cli.AddMatrices(ctx, a, b)
	require.ErrorIs(t, err, linalg.ErrSizeMismatch)
	_, err = env.cli.MultiplyMatrices(ctx, a, a)
	require.ErrorIs(t, err, linalg.ErrSizeMismatch)
}

func TestRetrievalStrategies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	want := []float64{1.3, 2.7, 3.3, 4.5, 6.7}

	id, err := env.cli.Doubles.Post(ctx, want)
	require.Nil(t, err)
	for _, s := range client.Strategies {
		got, err := env.cli.Doubles.Fetch(ctx, id, s, 2)
		require.Nil(t, err, s.String())
		require.Equal(t, want, got, s.String())
	}
}

func TestShortLastChunk(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	want := []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	id, err := env.cli.Int32s.Post(ctx, want)
	require.Nil(t, err)

	got, err := env.cli.Int32s.GetChunked(ctx, id, 4)
	require.Nil(t, err)
	require.Equal(t, want, got)

	dst := make([]int32, 12)
	n, err := env.cli.Int32s.GetBinaryChunkedInto(ctx, id, dst, 4)
	require.Nil(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, want, dst[:n])
}

func TestDestinationTooSmall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, err := env.cli.Int32s.Post(ctx, []int32{1, 2, 3, 4})
	require.Nil(t, err)

	dst := make([]int32, 3)
	_, err = env.cli.Int32s.GetBinaryChunkedInto(ctx, id, dst, 2)
	require.ErrorIs(t, err, codec.ErrDestinationTooSmall)
	require.Equal(t, []int32{0, 0, 0}, dst)
}

func TestBadChunkSize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, err := env.cli.Doubles.Post(ctx, []float64{1})
	require.Nil(t, err)

	_, err = env.cli.Doubles.GetChunked(ctx, id, 0)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = env.cli.Doubles.GetBinaryChunked(ctx, id, 0)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDeleteTwice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, err := env.cli.Int32s.Post(ctx, []int32{7})
	require.Nil(t, err)

	require.Nil(t, env.cli.Int32s.Delete(ctx, id))
	require.Nil(t, env.cli.Int32s.Delete(ctx, id))
	for _, s := range client.Strategies {
		_, err = env.cli.Int32s.Fetch(ctx, id, s, 1)
		require.ErrorIs(t, err, store.ErrNotFound, s.String())
		require.Equal(t, codes.NotFound, status.Code(err))
	}
}

func TestNamespacesAreSeparate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ints, err := env.cli.Int32s.Post(ctx, []int32{1})
	require.Nil(t, err)
	doubles, err := env.cli.Doubles.Post(ctx, []float64{1})
	require.Nil(t, err)
	require.Equal(t, int64(0), ints)
	require.Equal(t, int64(0), doubles)
}
