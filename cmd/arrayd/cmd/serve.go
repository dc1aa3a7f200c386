package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sincaw/arraystream/cmd/arrayd/server/api"
	"github.com/sincaw/arraystream/cmd/arrayd/server/common"
	"github.com/sincaw/arraystream/cmd/arrayd/server/compact"
	"github.com/sincaw/arraystream/cmd/arrayd/server/rpc"
	"github.com/sincaw/arraystream/cmd/arrayd/server/telemetry"
	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
	"github.com/sincaw/arraystream/pkg/store"
)

func NewServeCmd() *cobra.Command {
	return withConfig(&cobra.Command{
		Use:   "serve [options]",
		Short: "serve the array services until interrupted",
	}, serveCmdFunc)
}

func openDB(config common.StoreConfig, logger *utils.Log) (store.DB, error) {
	if config.Backend != common.StoreBackendBadger {
		return store.NewMemory(), nil
	}
	dbPath, err := utils.ResolvePath(config.Path)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(dbPath, store.WithLogger(logger.With("store", "badger")))
	if err != nil {
		return nil, errors.Wrapf(err, "open db fail, path %q", dbPath)
	}
	return db, nil
}

func serveCmdFunc(cmd *cobra.Command, config *common.Config) error {
	lv, err := config.Log.ZapLevel()
	if err != nil {
		return err
	}
	utils.SetLevel(lv)
	logger := utils.Logger()

	shutdown, err := telemetry.Setup(config.Telemetry, os.Stdout)
	if err != nil {
		return errors.Wrap(err, "setup telemetry")
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("shutdown telemetry fail ", err)
		}
	}()

	db, err := openDB(config.Store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	if config.GRPC.Addr != "" {
		srv, err := rpc.New(ctx, db, config, telemetry.New("grpc"), logger.With("server", "grpc"))
		if err != nil {
			return err
		}
		eg.Go(srv.Serve)
	}

	if config.REST.Addr != "" {
		arrays, err := db.Namespace(common.RESTNamespace)
		if err != nil {
			return err
		}
		eg.Go(api.New(ctx, arrays, config, telemetry.New("http"), logger.With("server", "http")).Serve)
	}

	if config.Store.CompactCron != "" {
		c, err := compact.New(ctx, db, config.Store.CompactCron, logger.With("store", "compact"))
		if err != nil {
			return errors.Wrapf(err, "config compaction %q", config.Store.CompactCron)
		}
		eg.Go(func() error {
			c.Start()
			return nil
		})
	}

	return eg.Wait()
}
