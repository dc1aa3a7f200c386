package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/cmd/arrayd/server/common"
)

func NewConfigCmd() *cobra.Command {
	// same flags as serve so overrides can be previewed
	return withConfig(&cobra.Command{
		Use:   "config [options]",
		Short: "print the effective configuration as yaml",
	}, configCmdFunc)
}

func configCmdFunc(cmd *cobra.Command, config *common.Config) error {
	out, err := config.YAML()
	if err != nil {
		return errors.Wrap(err, "render config")
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
