package store

import "github.com/dgraph-io/badger/v3"

type Logger = badger.Logger

const defaultSequenceBandwidth = 1000

type dbOption struct {
	logger    Logger
	readOnly  bool
	bandwidth uint64
	inMemory  bool
}

type Option func(*dbOption)

func WithLogger(l Logger) Option {
	return func(option *dbOption) {
		option.logger = l
	}
}

func ReadOnly() Option {
	return func(option *dbOption) {
		option.readOnly = true
	}
}

// WithSequenceBandwidth sets how many ids are leased from badger at once.
func WithSequenceBandwidth(n uint64) Option {
	return func(option *dbOption) {
		option.bandwidth = n
	}
}

// InMemory keeps badger tables in memory, path is ignored.
func InMemory() Option {
	return func(option *dbOption) {
		option.inMemory = true
	}
}

func applyOptions(f []Option) *dbOption {
	opt := &dbOption{
		readOnly:  false,
		bandwidth: defaultSequenceBandwidth,
	}
	for _, fn := range f {
		fn(opt)
	}
	if opt.bandwidth == 0 {
		opt.bandwidth = 1
	}
	return opt
}
