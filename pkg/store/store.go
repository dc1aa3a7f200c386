package store

import (
	"errors"
	"fmt"

	"github.com/sincaw/arraystream/pkg/codec"
)

var (
	ErrNotFound = errors.New("array not found")
	ErrReadOnly = errors.New("store opened read only")
)

// ID identifies a stored array, it is never reused by the same store.
type ID = int64

type Kind uint8

const (
	KindVector Kind = iota
	KindMatrix
)

func (k Kind) String() string {
	if k == KindMatrix {
		return "matrix"
	}
	return "vector"
}

// Record is one stored array. Vectors have Cols == 1.
type Record struct {
	Kind Kind
	Rows int
	Cols int
	Data codec.Array
}

// VectorRecord wraps a flat array.
func VectorRecord(a codec.Array) Record {
	return Record{Kind: KindVector, Rows: a.Len(), Cols: 1, Data: a}
}

// MatrixRecord wraps the row-major data of a rows x cols matrix.
func MatrixRecord(rows, cols int, a codec.Array) Record {
	return Record{Kind: KindMatrix, Rows: rows, Cols: cols, Data: a}
}

func (r Record) Valid() error {
	if err := r.Data.Type.Valid(); err != nil {
		return err
	}
	if r.Rows < 0 || r.Cols < 0 || r.Rows*r.Cols != r.Data.Len() {
		return fmt.Errorf("invalid %s %dx%d with %d elements", r.Kind, r.Rows, r.Cols, r.Data.Len())
	}
	return nil
}

type DB interface {
	// Namespace creates or gets namespace, each namespace owns its id sequence
	Namespace(name string) (Store, error)
	// Compact do flush and compaction on db
	Compact() error
	// Close release db lock
	Close() error
}

type Store interface {
	// Post stores a copy of rec and assigns the next id
	Post(rec Record) (ID, error)
	// Get returns ErrNotFound for unknown ids
	Get(id ID) (Record, error)
	// Delete is a no-op for unknown ids
	Delete(id ID) error
	// IDs lists stored ids in ascending order
	IDs() ([]ID, error)
}

// Clear deletes every array of s.
func Clear(s Store) error {
	ids, err := s.IDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Delete(id); err != nil {
			return err
		}
	}
	return nil
}
