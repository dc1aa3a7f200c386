package common

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/sincaw/arraystream/pkg/transfer"
)

// Namespaces of the shared store
const (
	Int32Namespace  = "int32"
	DoubleNamespace = "double"
	RESTNamespace   = "rest"
)

// Config for array server behavior
type Config struct {
	GRPC      GRPCConfig      `yaml:"grpc" json:"grpc" mapstructure:"grpc"`
	REST      RESTConfig      `yaml:"rest" json:"rest" mapstructure:"rest"`
	Store     StoreConfig     `yaml:"store" json:"store" mapstructure:"store"`
	Transfer  TransferConfig  `yaml:"transfer" json:"transfer" mapstructure:"transfer"`
	Log       LogConfig       `yaml:"log" json:"log" mapstructure:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry" mapstructure:"telemetry"`
}

// GRPCConfig for grpc server
type GRPCConfig struct {
	// grpc serving address (ip:port), empty disables the grpc server
	Addr string `yaml:"addr" json:"addr" mapstructure:"addr"`
	// max size of a received message in bytes
	MaxMessageBytes int `yaml:"maxMessageBytes" json:"maxMessageBytes" mapstructure:"maxMessageBytes"`
}

// RESTConfig for http api server
type RESTConfig struct {
	// web serving address (ip:port), empty disables the http server
	Addr string `yaml:"addr" json:"addr" mapstructure:"addr"`
	// gzip responses when the client accepts it
	Compress bool `yaml:"compress" json:"compress" mapstructure:"compress"`
}

type StoreBackend string

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendBadger StoreBackend = "badger"
)

var (
	validStoreBackends = []StoreBackend{StoreBackendMemory, StoreBackendBadger}
)

// Valid check if it is a known store backend
func (b StoreBackend) Valid() error {
	for _, i := range validStoreBackends {
		if b == i {
			return nil
		}
	}
	return fmt.Errorf("invalid store backend %q", b)
}

// StoreConfig for array storage
type StoreConfig struct {
	Backend StoreBackend `yaml:"backend" json:"backend" mapstructure:"backend"`
	// database directory, relative paths are resolved against the binary dir
	Path string `yaml:"path" json:"path" mapstructure:"path"`
	// crontab like string for compaction runs, empty disables it
	CompactCron string `yaml:"compactCron" json:"compactCron" mapstructure:"compactCron"`
}

func (c StoreConfig) Valid() error {
	if err := c.Backend.Valid(); err != nil {
		return err
	}
	if c.Backend == StoreBackendBadger && c.Path == "" {
		return fmt.Errorf("store path is required by backend %q", c.Backend)
	}
	return nil
}

// TransferConfig for the chunked streaming protocol
type TransferConfig struct {
	// upper bound of a single chunk message in bytes
	MaxChunkBytes int `yaml:"maxChunkBytes" json:"maxChunkBytes" mapstructure:"maxChunkBytes"`
}

func (c TransferConfig) Valid() error {
	if c.MaxChunkBytes < 8 {
		return fmt.Errorf("invalid max chunk bytes %d", c.MaxChunkBytes)
	}
	return nil
}

type LogConfig struct {
	// debug, info, warn, error
	Level string `yaml:"level" json:"level" mapstructure:"level"`
}

// ZapLevel parses the configured level
func (c LogConfig) ZapLevel() (zapcore.Level, error) {
	var lv zapcore.Level
	if err := lv.UnmarshalText([]byte(c.Level)); err != nil {
		return lv, fmt.Errorf("invalid log level %q", c.Level)
	}
	return lv, nil
}

type TelemetryConfig struct {
	// export spans and metrics to stdout
	Stdout bool `yaml:"stdout" json:"stdout" mapstructure:"stdout"`
	// metric export interval
	Interval time.Duration `yaml:"interval" json:"interval" mapstructure:"interval"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		GRPC: GRPCConfig{
			Addr:            "localhost:50051",
			MaxMessageBytes: 4 << 20,
		},
		REST: RESTConfig{
			Addr:     "localhost:5000",
			Compress: true,
		},
		Store: StoreConfig{
			Backend: StoreBackendMemory,
			Path:    "data",
		},
		Transfer: TransferConfig{
			MaxChunkBytes: transfer.DefaultMaxChunkBytes,
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Interval: time.Minute,
		},
	}
}

// Valid checks every section
func (c Config) Valid() error {
	if c.GRPC.Addr == "" && c.REST.Addr == "" {
		return fmt.Errorf("neither grpc nor rest address is set")
	}
	if c.GRPC.MaxMessageBytes > 0 && c.GRPC.MaxMessageBytes < c.Transfer.MaxChunkBytes {
		return fmt.Errorf("grpc max message bytes %d below max chunk bytes %d", c.GRPC.MaxMessageBytes, c.Transfer.MaxChunkBytes)
	}
	if err := c.Store.Valid(); err != nil {
		return err
	}
	if err := c.Transfer.Valid(); err != nil {
		return err
	}
	_, err := c.Log.ZapLevel()
	return err
}

// YAML renders the configuration as a config file
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
