// Package compact runs store compaction on a cron schedule.
package compact

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/sincaw/arraystream/cmd/arrayd/server/utils"
	"github.com/sincaw/arraystream/pkg/store"
)

type Compactor struct {
	ctx context.Context

	db     store.DB
	logger *utils.Log

	cron     *cron.Cron
	notifyCh chan struct{}
	done     func()
}

// New Compactor of db triggered by spec, e.g. "@every 1h". An empty spec
// disables the schedule, Trigger still works.
func New(ctx context.Context, db store.DB, spec string, logger *utils.Log) (*Compactor, error) {
	notifyCh := make(chan struct{}, 1)
	c := cron.New()
	if spec != "" {
		_, err := c.AddFunc(spec, func() {
			select {
			case notifyCh <- struct{}{}:
			default:
			}
		})
		if err != nil {
			return nil, err
		}
	}

	return &Compactor{
		ctx: ctx,

		db:     db,
		logger: logger,

		cron:     c,
		notifyCh: notifyCh,
		done:     func() {},
	}, nil
}

// Trigger a compaction, repeated triggers before it runs collapse into one.
func (c *Compactor) Trigger() {
	select {
	case c.notifyCh <- struct{}{}:
	default:
	}
}

// Start blocks compacting on every trigger until the context is done.
func (c *Compactor) Start() {
	c.cron.Start()
	defer c.cron.Stop()

	for {
		select {
		case <-c.notifyCh:
			c.compact()
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Compactor) compact() {
	defer c.done()
	if err := c.db.Compact(); err != nil {
		c.logger.Error("compact store fail ", err)
		return
	}
	c.logger.Info("compact store success")
}
