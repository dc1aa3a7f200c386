package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func TestDefaultValid(t *testing.T) {
	c := Default()
	require.Nil(t, c.Valid())

	lv, err := c.Log.ZapLevel()
	require.Nil(t, err)
	require.Equal(t, zapcore.InfoLevel, lv)
}

func TestValid(t *testing.T) {
	cases := map[string]func(*Config){
		"no listener": func(c *Config) {
			c.GRPC.Addr = ""
			c.REST.Addr = ""
		},
		"backend":    func(c *Config) { c.Store.Backend = "leveldb" },
		"store path": func(c *Config) { c.Store.Backend, c.Store.Path = StoreBackendBadger, "" },
		"chunk":      func(c *Config) { c.Transfer.MaxChunkBytes = 4 },
		"message":    func(c *Config) { c.GRPC.MaxMessageBytes = 1024 },
		"level":      func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			require.Error(t, c.Valid())
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrayd.yaml")
	content := `
grpc:
  addr: 127.0.0.1:6000
store:
  backend: badger
  path: /tmp/arrays
  compactCron: "@every 1h"
transfer:
  maxChunkBytes: 1024
telemetry:
  interval: 30s
`
	require.Nil(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(NewViper(), path)
	require.Nil(t, err)
	require.Equal(t, "127.0.0.1:6000", c.GRPC.Addr)
	require.Equal(t, "localhost:5000", c.REST.Addr)
	require.Equal(t, StoreBackendBadger, c.Store.Backend)
	require.Equal(t, "/tmp/arrays", c.Store.Path)
	require.Equal(t, "@every 1h", c.Store.CompactCron)
	require.Equal(t, 1024, c.Transfer.MaxChunkBytes)
	require.Equal(t, 30*time.Second, c.Telemetry.Interval)

	_, err = Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFlagsAndEnv(t *testing.T) {
	t.Setenv("ARRAYD_LOG_LEVEL", "debug")

	v := NewViper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.Nil(t, BindFlags(v, fs))
	require.Nil(t, fs.Parse([]string{"--rest-addr=", "--max-chunk-bytes=64"}))

	c, err := Load(v, "")
	require.Nil(t, err)
	require.Equal(t, "", c.REST.Addr)
	require.Equal(t, 64, c.Transfer.MaxChunkBytes)
	require.Equal(t, "debug", c.Log.Level)
}

func TestYAML(t *testing.T) {
	b, err := Default().YAML()
	require.Nil(t, err)

	got := Config{}
	require.Nil(t, yaml.Unmarshal(b, &got))
	require.Equal(t, Default(), got)
}
