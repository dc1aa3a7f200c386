package cmd

import (
	"github.com/spf13/cobra"
)

func NewHelloCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hello [name]",
		Short: "greet the server",
		Args:  cobra.MaximumNArgs(1),
		RunE:  helloCmdFunc,
	}
}

func helloCmdFunc(cmd *cobra.Command, args []string) error {
	name := "arrayctl"
	if len(args) > 0 {
		name = args[0]
	}
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	msg, err := c.SayHello(cmd.Context(), name)
	if err != nil {
		return err
	}
	return output(cmd, msg)
}
