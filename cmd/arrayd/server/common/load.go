package common

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "ARRAYD"

// NewViper returns a viper instance seeded with Default and bound to ARRAYD_* env vars.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("grpc.addr", d.GRPC.Addr)
	v.SetDefault("grpc.maxMessageBytes", d.GRPC.MaxMessageBytes)
	v.SetDefault("rest.addr", d.REST.Addr)
	v.SetDefault("rest.compress", d.REST.Compress)
	v.SetDefault("store.backend", string(d.Store.Backend))
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.compactCron", d.Store.CompactCron)
	v.SetDefault("transfer.maxChunkBytes", d.Transfer.MaxChunkBytes)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("telemetry.stdout", d.Telemetry.Stdout)
	v.SetDefault("telemetry.interval", d.Telemetry.Interval)
	return v
}

// BindFlags registers the command line overrides on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	d := Default()
	fs.String("grpc-addr", d.GRPC.Addr, "grpc listen address, empty disables grpc")
	fs.String("rest-addr", d.REST.Addr, "http listen address, empty disables http")
	fs.String("store", string(d.Store.Backend), "store backend: memory or badger")
	fs.String("store-path", d.Store.Path, "badger database directory")
	fs.Int("max-chunk-bytes", d.Transfer.MaxChunkBytes, "max bytes of one streamed chunk")
	fs.String("log-level", d.Log.Level, "log level")
	fs.Bool("telemetry-stdout", d.Telemetry.Stdout, "print traces and metrics to stdout")

	for key, flag := range map[string]string{
		"grpc.addr":              "grpc-addr",
		"rest.addr":              "rest-addr",
		"store.backend":          "store",
		"store.path":             "store-path",
		"transfer.maxChunkBytes": "max-chunk-bytes",
		"log.level":              "log-level",
		"telemetry.stdout":       "telemetry-stdout",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return errors.Wrapf(err, "bind flag %s", flag)
		}
	}
	return nil
}

// Load reads the optional config file at path and returns the validated result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %q", path)
		}
	}
	config := new(Config)
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := config.Valid(); err != nil {
		return nil, err
	}
	return config, nil
}
