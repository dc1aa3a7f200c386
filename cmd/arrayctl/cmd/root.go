package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sincaw/arraystream/pkg/client"
	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/transfer"
)

var (
	addr          string
	restAddr      string
	maxChunkBytes int
	typeName      string
	outputJson    bool
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "arrayctl",
		Short:        "talk to an arrayd server",
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&addr, "addr", "localhost:50051", "grpc server address")
	flags.StringVar(&restAddr, "rest", "http://localhost:5000", "http api base url")
	flags.IntVar(&maxChunkBytes, "max-chunk-bytes", transfer.DefaultMaxChunkBytes, "max bytes of one streamed chunk")
	flags.StringVarP(&typeName, "type", "t", "double", "element type: int32 or double")
	flags.BoolVar(&outputJson, "json", false, "Output as json string")

	cmd.AddCommand(
		NewHelloCmd(),
		NewPostCmd(),
		NewGetCmd(),
		NewDeleteCmd(),
		NewOpsCmd(),
		NewRestCmd(),
		NewBenchCmd(),
	)
	return cmd
}

func dataType() (codec.DataType, error) {
	switch typeName {
	case "int32", "int":
		return codec.Int32, nil
	case "double", "float64":
		return codec.Double, nil
	}
	return codec.Unknown, fmt.Errorf("invalid type %q, expected int32 or double", typeName)
}

func dial() (*client.Client, error) {
	return client.Dial(addr, maxChunkBytes)
}

// output prints v as json with --json, with fmt otherwise
func output(cmd *cobra.Command, v interface{}) error {
	if outputJson {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), v)
	return err
}
