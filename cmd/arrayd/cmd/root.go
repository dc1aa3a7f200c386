package cmd

import (
	"os"
	"path"

	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/cmd/arrayd/server/common"
	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
)

// read when --config is not given and the file sits next to the binary
const configFile = ".config.yaml"

var (
	configPath string
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "arrayd",
		Short:         "serve arrays over grpc and http",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "yaml config file")

	cmd.AddCommand(NewServeCmd(), NewConfigCmd())
	return cmd
}

// withConfig binds the config flags to cmd and runs f with the loaded
// configuration.
func withConfig(cmd *cobra.Command, f func(cmd *cobra.Command, config *common.Config) error) *cobra.Command {
	v := common.NewViper()
	if err := common.BindFlags(v, cmd.Flags()); err != nil {
		panic(err)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		config, err := common.Load(v, defaultConfigPath())
		if err != nil {
			return err
		}
		return f(cmd, config)
	}
	return cmd
}

func defaultConfigPath() string {
	if configPath != "" {
		return configPath
	}
	dir, err := utils.SelfDir()
	if err != nil {
		return ""
	}
	p := path.Join(dir, configFile)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
