package cmd

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/sincaw/arraystream/cmd/arrayd/server/api"
	"github.com/sincaw/arraystream/cmd/arrayd/server/common"
	"github.com/sincaw/arraystream/cmd/arrayd/server/rpc"
	"github.com/sincaw/arraystream/cmd/arrayd/server/telemetry"
	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
	"github.com/sincaw/arraystream/pkg/store"
)

type servers struct {
	grpc string
	rest string
}

func startServers(t *testing.T) servers {
	config := common.Default()
	logger := utils.Wrap(zaptest.NewLogger(t))
	ins := telemetry.NewWithProviders("test", tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	ctx, cancel := context.WithCancel(context.Background())

	srv, err := rpc.New(ctx, store.NewMemory(), &config, ins, logger)
	require.Nil(t, err)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.ServeListener(lis)
	}()

	rest := httptest.NewServer(api.New(ctx, store.NewMemoryStore(), &config, ins, logger).Handler())
	t.Cleanup(func() {
		rest.Close()
		cancel()
		<-done
	})
	return servers{grpc: lis.Addr().String(), rest: rest.URL}
}

func (s servers) run(t *testing.T, args ...string) string {
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--addr", s.grpc, "--rest", s.rest}, args...))
	require.Nil(t, root.Execute(), strings.Join(args, " "))
	return strings.TrimSpace(out.String())
}

func TestGrpcCommands(t *testing.T) {
	s := startServers(t)

	require.Equal(t, "Hello, tester!", s.run(t, "hello", "tester"))

	require.Equal(t, "0", s.run(t, "post", "-t", "int32", "1,2,3"))
	require.Equal(t, "1", s.run(t, "post", "-t", "int32", ""))
	for _, strategy := range []string{"full", "streaming", "chunked", "binary"} {
		require.Equal(t, "[1,2,3]", s.run(t, "get", "0", "-t", "int32", "-s", strategy, "--chunk", "2", "--json"), strategy)
		require.Equal(t, "[]", s.run(t, "get", "1", "-t", "int32", "-s", strategy, "--json"), strategy)
	}
	s.run(t, "delete", "-t", "int32", "0", "1")

	require.Equal(t, "[3,2,1]", s.run(t, "ops", "flip", "1,2,3", "--json"))
	require.Equal(t, "[5,7,9]", s.run(t, "ops", "add-vectors", "1,2,3", "4,5,6", "--json"))
	require.Equal(t, "[32]", s.run(t, "ops", "multiply-vectors", "1,2,3", "4,5,6", "--json"))
	require.Equal(t, "[[19,22],[43,50]]", s.run(t, "ops", "multiply-matrices", "1,2;3,4", "5,6;7,8", "--json"))
	require.Equal(t, "[[2,4],[6,8]]", s.run(t, "ops", "add-matrices", "-t", "int32", "1,2;3,4", "1,2;3,4", "--json"))
}

func TestGrpcErrors(t *testing.T) {
	s := startServers(t)
	for _, args := range [][]string{
		{"get", "7"},
		{"get", "0", "-s", "sideways"},
		{"ops", "add-vectors", "1,2", "1"},
		{"ops", "add-matrices", "1,2;3", "1"},
		{"post", "-t", "int8", "1"},
	} {
		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"--addr", s.grpc}, args...))
		require.NotNil(t, root.Execute(), strings.Join(args, " "))
	}
}

func TestRestCommands(t *testing.T) {
	s := startServers(t)

	require.Equal(t, "0", s.run(t, "rest", "post", "1,2"))
	require.Equal(t, "1", s.run(t, "rest", "post", "3,4"))
	require.Equal(t, "[1,2]", s.run(t, "rest", "get", "0", "--json"))
	require.Equal(t, "[1,2]", s.run(t, "rest", "get", "0", "--arrow", "--chunk", "1", "--json"))
	require.Equal(t, "[4,6]", s.run(t, "rest", "add", "0", "1", "--json"))
	require.Equal(t, "11", s.run(t, "rest", "multiply", "0", "1", "--jsonrpc", "--json"))

	require.Equal(t, "2", s.run(t, "rest", "post", "-m", "1,0;0,1"))
	require.Equal(t, "[[1,0],[0,1]]", s.run(t, "rest", "get", "2", "-m", "--json"))
	require.Equal(t, "[[2,0],[0,2]]", s.run(t, "rest", "add", "2", "2", "-m", "--jsonrpc", "--json"))
	s.run(t, "rest", "delete", "2", "-m")
}

func TestBenchCommand(t *testing.T) {
	s := startServers(t)
	out := s.run(t, "bench", "-t", "int32", "--max-size", "4", "--measurements", "1",
		"--repetitions", "2", "--preheat", "1", "--strategy", "full,binary", "--generator", "sequence")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 1+3+3)
	require.Equal(t, "runtime,num_repetitions,vec_size,chunk_size,type_size,type_id,method_id,item_generator_id", lines[0])
	require.True(t, strings.HasSuffix(lines[len(lines)-1], ",2,4,4,4,INTEGER,GetArrayBinaryChunked,sequence"))
}
