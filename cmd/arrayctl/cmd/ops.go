package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/pkg/client"
	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/linalg"
)

// NewOpsCmd groups the streamed demo operations. Operands travel with the
// request, nothing is stored.
func NewOpsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "run vector and matrix operations on the server",
	}
	cmd.AddCommand(
		vectorOpCmd("flip <vector>", "reverse a vector", cobra.ExactArgs(1),
			func(cmd *cobra.Command, c *client.Client, vs []codec.Array) (codec.Array, error) {
				return c.FlipVector(cmd.Context(), vs[0])
			}),
		vectorOpCmd("add-vectors <vector> <vector>...", "sum vectors", cobra.MinimumNArgs(2),
			func(cmd *cobra.Command, c *client.Client, vs []codec.Array) (codec.Array, error) {
				return c.AddVectors(cmd.Context(), vs...)
			}),
		vectorOpCmd("multiply-vectors <vector> <vector>", "dot product of two vectors", cobra.ExactArgs(2),
			func(cmd *cobra.Command, c *client.Client, vs []codec.Array) (codec.Array, error) {
				return c.MultiplyVectors(cmd.Context(), vs[0], vs[1])
			}),
		matrixOpCmd("add-matrices <matrix> <matrix>...", "sum matrices, rows are separated by ';'", cobra.MinimumNArgs(2),
			func(cmd *cobra.Command, c *client.Client, ms []linalg.Matrix) (linalg.Matrix, error) {
				return c.AddMatrices(cmd.Context(), ms...)
			}),
		matrixOpCmd("multiply-matrices <matrix> <matrix>", "product of two matrices, rows are separated by ';'", cobra.ExactArgs(2),
			func(cmd *cobra.Command, c *client.Client, ms []linalg.Matrix) (linalg.Matrix, error) {
				return c.MultiplyMatrices(cmd.Context(), ms[0], ms[1])
			}),
	)
	return cmd
}

func vectorOpCmd(use, short string, args cobra.PositionalArgs,
	run func(*cobra.Command, *client.Client, []codec.Array) (codec.Array, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := dataType()
			if err != nil {
				return err
			}
			vs := make([]codec.Array, len(args))
			for i, arg := range args {
				if vs[i], err = parseVector(arg, t); err != nil {
					return err
				}
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := run(cmd, c, vs)
			if err != nil {
				return err
			}
			return output(cmd, values(res))
		},
	}
}

func matrixOpCmd(use, short string, args cobra.PositionalArgs,
	run func(*cobra.Command, *client.Client, []linalg.Matrix) (linalg.Matrix, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := dataType()
			if err != nil {
				return err
			}
			ms := make([]linalg.Matrix, len(args))
			for i, arg := range args {
				if ms[i], err = parseMatrix(arg, t); err != nil {
					return err
				}
			}
			c, err := dial()
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := run(cmd, c, ms)
			if err != nil {
				return err
			}
			return output(cmd, rows(res))
		},
	}
}
