package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/pkg/client"
	"github.com/sincaw/arraystream/pkg/codec"
)

var (
	strategyName string
	chunkSize    int
)

func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [options] <id>",
		Short: "get array by id",
		Args:  cobra.ExactArgs(1),
		RunE:  getCmdFunc,
	}

	cmd.Flags().StringVarP(&strategyName, "strategy", "s", client.Full.String(), "retrieval strategy: full, streaming, chunked or binary")
	cmd.Flags().IntVar(&chunkSize, "chunk", 1024, "elements per chunk of chunked strategies")

	return cmd
}

func getCmdFunc(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return err
	}
	s, err := client.ParseStrategy(strategyName)
	if err != nil {
		return err
	}
	t, err := dataType()
	if err != nil {
		return err
	}
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	if t == codec.Int32 {
		v, err := c.Int32s.Fetch(cmd.Context(), id, s, chunkSize)
		if err != nil {
			return err
		}
		return output(cmd, v)
	}
	v, err := c.Doubles.Fetch(cmd.Context(), id, s, chunkSize)
	if err != nil {
		return err
	}
	return output(cmd, v)
}
