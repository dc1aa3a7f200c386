// Package bench measures the retrieval strategies of the array service
// against each other and reports one csv row per measurement.
package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"slices"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sincaw/arraystream/pkg/client"
	"github.com/sincaw/arraystream/pkg/codec"
)

// MaxStartChunk caps the smallest chunk size of a chunk sweep.
const MaxStartChunk = 1 << 11

var ErrMismatch = errors.New("fetched array does not match the source")

// Header of the csv report
var Header = []string{
	"runtime", "num_repetitions", "vec_size", "chunk_size",
	"type_size", "type_id", "method_id", "item_generator_id",
}

var methodIDs = map[client.Strategy]string{
	client.Full:          "GetArray",
	client.Streaming:     "GetArrayStreaming",
	client.Chunked:       "GetArrayChunked",
	client.BinaryChunked: "GetArrayBinaryChunked",
}

// Target is an array service of one element type. client.Arrays satisfies it.
type Target[T codec.Scalar] interface {
	Post(ctx context.Context, data []T) (int64, error)
	Delete(ctx context.Context, id int64) error
	Fetch(ctx context.Context, id int64, s client.Strategy, chunk int) ([]T, error)
}

type Generator[T codec.Scalar] struct {
	ID   string
	Next func() T
}

// Random values, the quality of the numbers does not matter here.
func Random[T codec.Scalar](seed int64) Generator[T] {
	r := rand.New(rand.NewSource(seed))
	return Generator[T]{
		ID: "random",
		Next: func() T {
			if codec.TypeOf[T]() == codec.Int32 {
				return T(r.Int31n(math.MaxInt32))
			}
			return T(r.Float64())
		},
	}
}

// Sequence yields 0, 1, 2, ...
func Sequence[T codec.Scalar]() Generator[T] {
	var n T
	return Generator[T]{
		ID: "sequence",
		Next: func() T {
			ret := n
			n++
			return ret
		},
	}
}

type Params struct {
	// Measurements per vector and chunk size
	Measurements int
	// Repetitions fetched concurrently in each measurement
	Repetitions int
	// Preheat fetches run before the clock starts
	Preheat int
	// MaxTime stops growing the vector once the fastest measurement of a
	// size is slower. Zero means no limit.
	MaxTime time.Duration
	MaxSize int
	// Chunk fixes the chunk size in elements of chunked strategies instead
	// of sweeping it.
	Chunk int
	// Parallel bounds concurrent fetches, zero fetches every repetition at once.
	Parallel   int
	Strategies []client.Strategy
}

func DefaultParams() Params {
	return Params{
		Measurements: 3,
		Repetitions:  10,
		Preheat:      2,
		MaxTime:      time.Second,
		MaxSize:      1 << 20,
		Strategies:   client.Strategies,
	}
}

func (p Params) Valid() error {
	if p.Measurements < 1 || p.Repetitions < 1 || p.Preheat < 0 {
		return errors.Errorf("invalid measurements %d, repetitions %d or preheat %d", p.Measurements, p.Repetitions, p.Preheat)
	}
	if p.MaxSize < 1 {
		return errors.Errorf("invalid max size %d", p.MaxSize)
	}
	if p.Chunk < 0 || p.Parallel < 0 {
		return errors.Errorf("invalid chunk %d or parallel %d", p.Chunk, p.Parallel)
	}
	for _, s := range p.Strategies {
		if _, ok := methodIDs[s]; !ok {
			return errors.Errorf("invalid strategy %d", s)
		}
	}
	return nil
}

// Measurement is one report row.
type Measurement struct {
	Runtime     time.Duration
	Repetitions int
	Size        int
	Chunk       int
	TypeSize    int
	TypeID      string
	MethodID    string
	GeneratorID string
}

func (m Measurement) record() []string {
	return []string{
		strconv.FormatInt(m.Runtime.Microseconds(), 10),
		strconv.Itoa(m.Repetitions),
		strconv.Itoa(m.Size),
		strconv.Itoa(m.Chunk),
		strconv.Itoa(m.TypeSize),
		m.TypeID,
		m.MethodID,
		m.GeneratorID,
	}
}

// chunks returns the chunk sizes in elements measured for size with s, 0
// for strategies without chunking.
func (p Params) chunks(s client.Strategy, size int) []int {
	if !s.Chunked() {
		return []int{0}
	}
	if p.Chunk > 0 {
		return []int{p.Chunk}
	}
	var ret []int
	for c := min(size, MaxStartChunk); c <= size; c <<= 1 {
		ret = append(ret, c)
	}
	return ret
}

// Run measures every strategy of p against target and writes the csv
// report with its header to w.
func Run[T codec.Scalar](ctx context.Context, target Target[T], p Params, gen Generator[T], w io.Writer) error {
	if err := p.Valid(); err != nil {
		return err
	}
	out := csv.NewWriter(w)
	if err := out.Write(Header); err != nil {
		return err
	}

	dt := codec.TypeOf[T]()
	for _, s := range p.Strategies {
		for size := 1; size <= p.MaxSize; size <<= 1 {
			fastest := time.Duration(math.MaxInt64)
			for _, c := range p.chunks(s, size) {
				for i := 0; i < p.Measurements; i++ {
					runtime, err := measure(ctx, target, p, s, size, c, gen)
					if err != nil {
						return errors.Wrapf(err, "measure %s of %d elements", s, size)
					}
					fastest = min(fastest, runtime)
					m := Measurement{
						Runtime:     runtime,
						Repetitions: p.Repetitions,
						Size:        size,
						Chunk:       c,
						TypeSize:    dt.Width(),
						TypeID:      dt.String(),
						MethodID:    methodIDs[s],
						GeneratorID: gen.ID,
					}
					if err := out.Write(m.record()); err != nil {
						return err
					}
					out.Flush()
					if err := out.Error(); err != nil {
						return err
					}
				}
			}
			if p.MaxTime > 0 && fastest > p.MaxTime {
				break
			}
		}
	}
	return nil
}

// measure posts fresh arrays of size elements, fetches the preheat ones
// sequentially, then times the concurrent fetch of the rest.
func measure[T codec.Scalar](ctx context.Context, target Target[T], p Params, s client.Strategy, size, chunk int, gen Generator[T]) (elapsed time.Duration, err error) {
	n := p.Repetitions + p.Preheat
	sources := make([][]T, n)
	ids := make([]int64, 0, n)
	defer func() {
		for _, id := range ids {
			if e := target.Delete(ctx, id); e != nil && err == nil {
				err = e
			}
		}
	}()
	for i := range sources {
		sources[i] = make([]T, size)
		for j := range sources[i] {
			sources[i][j] = gen.Next()
		}
		id, err := target.Post(ctx, sources[i])
		if err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}

	targets := make([][]T, n)
	fetch := func(ctx context.Context, i int) error {
		v, err := target.Fetch(ctx, ids[i], s, chunk)
		if err != nil {
			return err
		}
		targets[i] = v
		return nil
	}

	for i := 0; i < p.Preheat; i++ {
		if err := fetch(ctx, i); err != nil {
			return 0, err
		}
	}

	start := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	if p.Parallel > 0 {
		eg.SetLimit(p.Parallel)
	}
	for i := p.Preheat; i < n; i++ {
		i := i
		eg.Go(func() error {
			return fetch(egCtx, i)
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	elapsed = time.Since(start)

	for i := range sources {
		if !slices.Equal(sources[i], targets[i]) {
			return 0, errors.Wrap(ErrMismatch, fmt.Sprintf("repetition %d", i))
		}
	}
	return elapsed, nil
}
