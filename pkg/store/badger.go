package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

type kv struct {
	sync.Mutex
	store      *badger.DB
	opt        *dbOption
	namespaces map[string]*ns
}

// Open opens or creates a badger backed DB at path.
func Open(path string, opts ...Option) (DB, error) {
	o := applyOptions(opts)
	opt := badger.DefaultOptions(path)
	opt.BaseTableSize = 100 << 20
	opt.BaseLevelSize = (100 << 20) * 10
	opt.ReadOnly = o.readOnly
	opt.Logger = o.logger
	if o.inMemory {
		opt = opt.WithInMemory(true).WithDir("").WithValueDir("")
	}

	d, err := badger.Open(opt)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger at %q", path)
	}

	return &kv{
		store:      d,
		opt:        o,
		namespaces: map[string]*ns{},
	}, nil
}

func (k *kv) Compact() error {
	if k.opt.readOnly {
		return ErrReadOnly
	}
	if err := k.store.Sync(); err != nil {
		return errors.Wrap(err, "sync")
	}
	err := k.store.Flatten(1)
	return errors.Wrap(err, "flatten")
}

func (k *kv) Close() error {
	k.Lock()
	defer k.Unlock()

	for _, n := range k.namespaces {
		if err := n.release(); err != nil {
			k.store.Close()
			return err
		}
	}
	k.namespaces = map[string]*ns{}
	return k.store.Close()
}

func genKey(ks ...[]byte) []byte {
	var ret []byte
	for _, k := range ks {
		if k == nil {
			continue
		}
		ret = append(ret, k...)
	}
	return ret
}

func (k *kv) Namespace(name string) (Store, error) {
	if name == "" || bytes.IndexByte([]byte(name), nsSeparator) >= 0 {
		return nil, fmt.Errorf("invalid namespace name %q", name)
	}

	k.Lock()
	defer k.Unlock()

	if n, ok := k.namespaces[name]; ok {
		return n, nil
	}
	ret := &ns{
		kv:     k,
		prefix: genKey([]byte{dbDataPrefix}, []byte(name), []byte{nsSeparator}),
		seqKey: genKey([]byte{dbSeqPrefix}, []byte(name)),
	}
	k.namespaces[name] = ret
	return ret, nil
}

type ns struct {
	sync.Mutex
	kv     *kv
	prefix []byte
	seqKey []byte
	seq    *badger.Sequence
}

func (n *ns) key(id ID) []byte {
	key := make([]byte, len(n.prefix)+idKeyLen)
	copy(key, n.prefix)
	binary.BigEndian.PutUint64(key[len(n.prefix):], uint64(id))
	return key
}

func (n *ns) nextID() (ID, error) {
	n.Lock()
	defer n.Unlock()

	if n.seq == nil {
		seq, err := n.kv.store.GetSequence(n.seqKey, n.kv.opt.bandwidth)
		if err != nil {
			return 0, errors.Wrap(err, "lease id sequence")
		}
		n.seq = seq
	}
	id, err := n.seq.Next()
	if err != nil {
		return 0, errors.Wrap(err, "next id")
	}
	return ID(id), nil
}

func (n *ns) release() error {
	n.Lock()
	defer n.Unlock()

	if n.seq == nil {
		return nil
	}
	err := n.seq.Release()
	n.seq = nil
	return errors.Wrap(err, "release id sequence")
}

func (n *ns) Post(rec Record) (ID, error) {
	if n.kv.opt.readOnly {
		return 0, ErrReadOnly
	}
	if err := rec.Valid(); err != nil {
		return 0, err
	}
	val, err := marshalRecord(rec)
	if err != nil {
		return 0, errors.Wrap(err, "encode record")
	}
	id, err := n.nextID()
	if err != nil {
		return 0, err
	}
	err = n.kv.store.Update(func(txn *badger.Txn) error {
		return txn.Set(n.key(id), val)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "put array %d", id)
	}
	return id, nil
}

func (n *ns) Get(id ID) (rec Record, err error) {
	var val []byte
	err = n.kv.store.View(func(txn *badger.Txn) error {
		item, err := txn.Get(n.key(id))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, errors.Wrapf(err, "get array %d", id)
	}
	rec, err = unmarshalRecord(val)
	return rec, errors.Wrapf(err, "decode array %d", id)
}

func (n *ns) Delete(id ID) error {
	if n.kv.opt.readOnly {
		return ErrReadOnly
	}
	err := n.kv.store.Update(func(txn *badger.Txn) error {
		return txn.Delete(n.key(id))
	})
	return errors.Wrapf(err, "delete array %d", id)
}

func (n *ns) IDs() ([]ID, error) {
	var ids []ID
	err := n.kv.store.View(func(txn *badger.Txn) error {
		opt := badger.DefaultIteratorOptions
		opt.PrefetchValues = false
		opt.Prefix = n.prefix
		iter := txn.NewIterator(opt)
		defer iter.Close()

		for iter.Seek(n.prefix); iter.ValidForPrefix(n.prefix); iter.Next() {
			key := iter.Item().Key()
			if len(key) != len(n.prefix)+idKeyLen {
				continue
			}
			ids = append(ids, ID(binary.BigEndian.Uint64(key[len(n.prefix):])))
		}
		return nil
	})
	return ids, errors.Wrap(err, "list arrays")
}
