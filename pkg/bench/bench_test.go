package bench

import (
	"bytes"
	"context"
	"encoding/csv"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sincaw/arraystream/pkg/client"
	"github.com/sincaw/arraystream/pkg/store"
)

type fakeTarget struct {
	mu      sync.Mutex
	next    int64
	arrays  map[int64][]int32
	delay   time.Duration
	corrupt bool
	chunks  []int
}

func newFake() *fakeTarget {
	return &fakeTarget{arrays: map[int64][]int32{}}
}

func (f *fakeTarget) Post(_ context.Context, data []int32) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.arrays[id] = slices.Clone(data)
	return id, nil
}

func (f *fakeTarget) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.arrays, id)
	return nil
}

func (f *fakeTarget) Fetch(_ context.Context, id int64, s client.Strategy, chunk int) ([]int32, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.Chunked() {
		f.chunks = append(f.chunks, chunk)
	}
	v, ok := f.arrays[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	ret := slices.Clone(v)
	if f.corrupt && len(ret) > 0 {
		ret[0]++
	}
	return ret, nil
}

func readReport(t *testing.T, b *bytes.Buffer) [][]string {
	rows, err := csv.NewReader(b).ReadAll()
	require.Nil(t, err)
	require.Equal(t, Header, rows[0])
	return rows[1:]
}

func TestRun(t *testing.T) {
	f := newFake()
	p := Params{
		Measurements: 2,
		Repetitions:  3,
		Preheat:      1,
		MaxSize:      8,
		Strategies:   []client.Strategy{client.Full, client.BinaryChunked},
	}
	buf := &bytes.Buffer{}
	require.Nil(t, Run[int32](context.Background(), f, p, Sequence[int32](), buf))

	rows := readReport(t, buf)
	// 4 sizes, one chunk size each below MaxStartChunk
	require.Len(t, rows, 2*4*2)
	require.Equal(t, []string{"3", "1", "0", "4", "INTEGER", "GetArray", "sequence"}, rows[0][1:])
	last := rows[len(rows)-1]
	require.Equal(t, []string{"3", "8", "8", "4", "INTEGER", "GetArrayBinaryChunked", "sequence"}, last[1:])

	// chunk sizes reach the target in elements
	require.Contains(t, f.chunks, 8)
	require.NotContains(t, f.chunks, 32)
	require.Empty(t, f.arrays)
}

func TestChunkSweep(t *testing.T) {
	p := DefaultParams()
	require.Equal(t, []int{0}, p.chunks(client.Full, 1<<12))
	require.Equal(t, []int{4}, p.chunks(client.Chunked, 4))
	require.Equal(t, []int{1 << 11, 1 << 12, 1 << 13}, p.chunks(client.Chunked, 1<<13))
	p.Chunk = 7
	require.Equal(t, []int{7}, p.chunks(client.BinaryChunked, 1<<13))
}

func TestMaxTime(t *testing.T) {
	f := newFake()
	f.delay = 5 * time.Millisecond
	p := Params{
		Measurements: 1,
		Repetitions:  1,
		MaxTime:      time.Millisecond,
		MaxSize:      1 << 10,
		Strategies:   []client.Strategy{client.Streaming},
	}
	buf := &bytes.Buffer{}
	require.Nil(t, Run[int32](context.Background(), f, p, Random[int32](1), buf))
	rows := readReport(t, buf)
	require.Len(t, rows, 1)
	require.Equal(t, "1", rows[0][2])
	require.Equal(t, "random", rows[0][7])
}

func TestMismatch(t *testing.T) {
	f := newFake()
	f.corrupt = true
	p := Params{Measurements: 1, Repetitions: 1, MaxSize: 1, Strategies: []client.Strategy{client.Full}}
	err := Run[int32](context.Background(), f, p, Sequence[int32](), &bytes.Buffer{})
	require.ErrorIs(t, err, ErrMismatch)
	require.Empty(t, f.arrays)
}

func TestInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.Repetitions = 0
	require.NotNil(t, p.Valid())
	p = DefaultParams()
	p.Strategies = []client.Strategy{client.Strategy(9)}
	require.NotNil(t, p.Valid())
}

func TestRandomDoubles(t *testing.T) {
	g := Random[float64](3)
	for i := 0; i < 100; i++ {
		v := g.Next()
		require.True(t, v >= 0 && v < 1)
	}
}
