package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/pkg/codec"
)

func NewPostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post [options] <values>",
		Short: "store an array, values are comma separated",
		Args:  cobra.ExactArgs(1),
		RunE:  postCmdFunc,
	}
}

func postCmdFunc(cmd *cobra.Command, args []string) error {
	t, err := dataType()
	if err != nil {
		return err
	}
	v, err := parseVector(args[0], t)
	if err != nil {
		return err
	}
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	var id int64
	if t == codec.Int32 {
		id, err = c.Int32s.Post(cmd.Context(), v.Int32s)
	} else {
		id, err = c.Doubles.Post(cmd.Context(), v.Doubles)
	}
	if err != nil {
		return err
	}
	return output(cmd, id)
}
