package cmd

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/pkg/bench"
	"github.com/sincaw/arraystream/pkg/client"
	"github.com/sincaw/arraystream/pkg/codec"
)

var (
	benchParams     = bench.DefaultParams()
	benchStrategies []string
	benchGenerator  string
	benchSeed       int64
	benchOutput     string
)

func NewBenchCmd() *cobra.Command {
	benchParams = bench.DefaultParams()
	cmd := &cobra.Command{
		Use:   "bench [options]",
		Short: "measure the retrieval strategies, one csv row per measurement",
		Args:  cobra.NoArgs,
		RunE:  benchCmdFunc,
	}

	f := cmd.Flags()
	f.IntVar(&benchParams.Measurements, "measurements", benchParams.Measurements, "measurements per vector and chunk size")
	f.IntVar(&benchParams.Repetitions, "repetitions", benchParams.Repetitions, "arrays fetched concurrently per measurement")
	f.IntVar(&benchParams.Preheat, "preheat", benchParams.Preheat, "fetches before the clock starts")
	f.DurationVar(&benchParams.MaxTime, "max-time", benchParams.MaxTime, "stop growing vectors once the fastest fetch is slower, 0 for no limit")
	f.IntVar(&benchParams.MaxSize, "max-size", benchParams.MaxSize, "largest vector size")
	f.IntVar(&benchParams.Chunk, "chunk", 0, "fixed chunk size in elements, 0 sweeps chunk sizes")
	f.IntVar(&benchParams.Parallel, "parallel", 0, "bound on concurrent fetches, 0 for no bound")
	f.StringSliceVar(&benchStrategies, "strategy", []string{"full", "streaming", "chunked", "binary"}, "strategies to measure")
	f.StringVar(&benchGenerator, "generator", "random", "item generator: random or sequence")
	f.Int64Var(&benchSeed, "seed", time.Now().UnixNano(), "seed of the random generator")
	f.StringVarP(&benchOutput, "output", "o", "", "csv file, stdout when empty")

	return cmd
}

func runBench[T codec.Scalar](cmd *cobra.Command, target bench.Target[T], p bench.Params, w io.Writer) error {
	var gen bench.Generator[T]
	switch benchGenerator {
	case "random":
		gen = bench.Random[T](benchSeed)
	case "sequence":
		gen = bench.Sequence[T]()
	default:
		return errors.Errorf("invalid generator %q", benchGenerator)
	}
	return bench.Run(cmd.Context(), target, p, gen, w)
}

func benchCmdFunc(cmd *cobra.Command, args []string) error {
	p := benchParams
	p.Strategies = nil
	for _, name := range benchStrategies {
		s, err := client.ParseStrategy(name)
		if err != nil {
			return err
		}
		p.Strategies = append(p.Strategies, s)
	}
	t, err := dataType()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if benchOutput != "" {
		f, err := os.Create(benchOutput)
		if err != nil {
			return errors.Wrapf(err, "create %s", benchOutput)
		}
		defer f.Close()
		w = f
	}

	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	if t == codec.Int32 {
		return runBench[int32](cmd, c.Int32s, p, w)
	}
	return runBench[float64](cmd, c.Doubles, p, w)
}
