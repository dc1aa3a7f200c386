package cmd

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/linalg"
	"github.com/sincaw/arraystream/pkg/restclient"
)

var (
	asMatrix   bool
	viaArrow   bool
	arrowChunk int
	viaJSONRPC bool
)

// NewRestCmd groups the http api commands, the api stores doubles only.
func NewRestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rest",
		Short: "use the http api",
	}
	cmd.PersistentFlags().BoolVarP(&asMatrix, "matrix", "m", false, "operate on matrices instead of vectors")

	get := &cobra.Command{
		Use:   "get [options] <id>",
		Short: "get a stored vector or matrix",
		Args:  cobra.ExactArgs(1),
		RunE:  restGetCmdFunc,
	}
	get.Flags().BoolVar(&viaArrow, "arrow", false, "fetch the vector as an arrow ipc stream")
	get.Flags().IntVar(&arrowChunk, "chunk", 1<<16, "elements per arrow record batch")

	add := &cobra.Command{
		Use:   "add [options] <id1> <id2>",
		Short: "add two stored arrays",
		Args:  cobra.ExactArgs(2),
		RunE:  restOpCmdFunc(false),
	}
	multiply := &cobra.Command{
		Use:   "multiply [options] <id1> <id2>",
		Short: "multiply two stored arrays",
		Args:  cobra.ExactArgs(2),
		RunE:  restOpCmdFunc(true),
	}
	for _, c := range []*cobra.Command{add, multiply} {
		c.Flags().BoolVar(&viaJSONRPC, "jsonrpc", false, "call the json-rpc endpoint")
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "post [options] <values>",
			Short: "store a vector, or a matrix with rows separated by ';'",
			Args:  cobra.ExactArgs(1),
			RunE:  restPostCmdFunc,
		},
		get,
		&cobra.Command{
			Use:   "delete [options] <id>",
			Short: "delete a stored vector or matrix",
			Args:  cobra.ExactArgs(1),
			RunE:  restDeleteCmdFunc,
		},
		add,
		multiply,
	)
	return cmd
}

func restClient() *restclient.Client {
	return restclient.New(restAddr, nil)
}

func doubleRows(m linalg.Matrix) [][]float64 {
	ret := make([][]float64, m.Rows)
	for i := range ret {
		ret[i] = m.Data.Doubles[i*m.Cols : (i+1)*m.Cols]
	}
	return ret
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid id %q", s)
	}
	return id, nil
}

func restPostCmdFunc(cmd *cobra.Command, args []string) error {
	c := restClient()
	if asMatrix {
		m, err := parseMatrix(args[0], codec.Double)
		if err != nil {
			return err
		}
		id, err := c.PostMatrix(cmd.Context(), doubleRows(m))
		if err != nil {
			return err
		}
		return output(cmd, id)
	}
	v, err := parseVector(args[0], codec.Double)
	if err != nil {
		return err
	}
	id, err := c.PostVector(cmd.Context(), v.Doubles)
	if err != nil {
		return err
	}
	return output(cmd, id)
}

func restGetCmdFunc(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c := restClient()
	switch {
	case asMatrix:
		m, err := c.GetMatrix(cmd.Context(), id)
		if err != nil {
			return err
		}
		return output(cmd, m)
	case viaArrow:
		v, batches, err := c.GetVectorArrow(cmd.Context(), id, arrowChunk)
		if err != nil {
			return err
		}
		cmd.PrintErrf("read %d record batches\n", batches)
		return output(cmd, v)
	}
	v, err := c.GetVector(cmd.Context(), id)
	if err != nil {
		return err
	}
	return output(cmd, v)
}

func restDeleteCmdFunc(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if asMatrix {
		return restClient().DeleteMatrix(cmd.Context(), id)
	}
	return restClient().DeleteVector(cmd.Context(), id)
}

type restOps struct {
	vectors  func(ctx context.Context, id1, id2 int64) (interface{}, error)
	matrices func(ctx context.Context, id1, id2 int64) ([][]float64, error)
}

func selectOps(c *restclient.Client, multiply bool) restOps {
	switch {
	case multiply && viaJSONRPC:
		return restOps{
			vectors:  func(ctx context.Context, a, b int64) (interface{}, error) { return c.CallMultiplyVectors(ctx, a, b) },
			matrices: c.CallMultiplyMatrices,
		}
	case multiply:
		return restOps{
			vectors:  func(ctx context.Context, a, b int64) (interface{}, error) { return c.MultiplyVectors(ctx, a, b) },
			matrices: c.MultiplyMatrices,
		}
	case viaJSONRPC:
		return restOps{
			vectors:  func(ctx context.Context, a, b int64) (interface{}, error) { return c.CallAddVectors(ctx, a, b) },
			matrices: c.CallAddMatrices,
		}
	}
	return restOps{
		vectors:  func(ctx context.Context, a, b int64) (interface{}, error) { return c.AddVectors(ctx, a, b) },
		matrices: c.AddMatrices,
	}
}

func restOpCmdFunc(multiply bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id1, err := parseID(args[0])
		if err != nil {
			return err
		}
		id2, err := parseID(args[1])
		if err != nil {
			return err
		}
		ops := selectOps(restClient(), multiply)
		if asMatrix {
			m, err := ops.matrices(cmd.Context(), id1, id2)
			if err != nil {
				return err
			}
			return output(cmd, m)
		}
		v, err := ops.vectors(cmd.Context(), id1, id2)
		if err != nil {
			return err
		}
		return output(cmd, v)
	}
}
