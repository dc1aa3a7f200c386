package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/pkg/codec"
)

func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [options] <id>...",
		Short: "delete arrays by id",
		Args:  cobra.MinimumNArgs(1),
		RunE:  deleteCmdFunc,
	}
}

func deleteCmdFunc(cmd *cobra.Command, args []string) error {
	t, err := dataType()
	if err != nil {
		return err
	}
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return err
		}
		if t == codec.Int32 {
			err = c.Int32s.Delete(cmd.Context(), id)
		} else {
			err = c.Doubles.Delete(cmd.Context(), id)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
