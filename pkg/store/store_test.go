package store

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sincaw/arraystream/pkg/codec"
)

const (
	tempDirPattern = "arraystore"
)

func newBadgerDB(t *testing.T, opts ...Option) (DB, string, func()) {
	path, err := os.MkdirTemp("", tempDirPattern)
	require.Nil(t, err)
	db, err := Open(path, opts...)
	require.Nil(t, err)

	return db, path, func() {
		defer os.RemoveAll(path)
		defer db.Close()
	}
}

func backends(t *testing.T) map[string]DB {
	db, _, clean := newBadgerDB(t)
	t.Cleanup(clean)
	return map[string]DB{
		"memory": NewMemory(),
		"badger": db,
	}
}

func TestPostGetDelete(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, err := db.Namespace("double")
			require.Nil(t, err)

			vec := VectorRecord(codec.DoubleArray([]float64{1.3, 2.7, 3.3, 4.5, 6.7}))
			id, err := s.Post(vec)
			require.Nil(t, err)
			require.Equal(t, ID(0), id)

			got, err := s.Get(id)
			require.Nil(t, err)
			require.Equal(t, vec, got)

			mat := MatrixRecord(2, 2, codec.Int32Array([]int32{1, 2, 3, 4}))
			id2, err := s.Post(mat)
			require.Nil(t, err)
			require.Equal(t, ID(1), id2)
			got, err = s.Get(id2)
			require.Nil(t, err)
			require.Equal(t, mat, got)

			ids, err := s.IDs()
			require.Nil(t, err)
			require.Equal(t, []ID{0, 1}, ids)

			require.Nil(t, s.Delete(id))
			// deleting twice is a no-op
			require.Nil(t, s.Delete(id))
			_, err = s.Get(id)
			require.ErrorIs(t, err, ErrNotFound)

			// ids are never reused
			id3, err := s.Post(vec)
			require.Nil(t, err)
			require.Equal(t, ID(2), id3)

			require.Nil(t, Clear(s))
			ids, err = s.IDs()
			require.Nil(t, err)
			require.Empty(t, ids)
		})
	}
}

func TestPostStoresCopy(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, err := db.Namespace("int32")
			require.Nil(t, err)

			data := []int32{1, 2, 3}
			id, err := s.Post(VectorRecord(codec.Int32Array(data)))
			require.Nil(t, err)
			data[0] = 42

			got, err := s.Get(id)
			require.Nil(t, err)
			require.Equal(t, []int32{1, 2, 3}, got.Data.Int32s)
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, err := db.Namespace("double")
			require.Nil(t, err)

			id, err := s.Post(VectorRecord(codec.DoubleArray([]float64{1, 2, 3})))
			require.Nil(t, err)
			got, err := s.Get(id)
			require.Nil(t, err)
			got.Data.Doubles[0] = 42

			got, err = s.Get(id)
			require.Nil(t, err)
			require.Equal(t, []float64{1, 2, 3}, got.Data.Doubles)
		})
	}
}

func TestNamespacesAreIndependent(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a, err := db.Namespace("a")
			require.Nil(t, err)
			b, err := db.Namespace("b")
			require.Nil(t, err)

			rec := VectorRecord(codec.DoubleArray([]float64{1}))
			idA, err := a.Post(rec)
			require.Nil(t, err)
			idB, err := b.Post(rec)
			require.Nil(t, err)
			require.Equal(t, idA, idB)

			require.Nil(t, a.Delete(idA))
			_, err = b.Get(idB)
			require.Nil(t, err)

			same, err := db.Namespace("a")
			require.Nil(t, err)
			require.Equal(t, a, same)
		})
	}
}

func TestConcurrentPost(t *testing.T) {
	for name, db := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, err := db.Namespace("concurrent")
			require.Nil(t, err)

			const workers, each = 8, 25
			var (
				wg  sync.WaitGroup
				mu  sync.Mutex
				ids = map[ID]bool{}
			)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < each; i++ {
						id, err := s.Post(VectorRecord(codec.Int32Array([]int32{int32(w), int32(i)})))
						if err != nil {
							t.Error(err)
							return
						}
						mu.Lock()
						ids[id] = true
						mu.Unlock()
					}
				}(w)
			}
			wg.Wait()
			require.Len(t, ids, workers*each)
		})
	}
}

func TestRejectInvalidRecord(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Post(Record{Kind: KindMatrix, Rows: 2, Cols: 2, Data: codec.DoubleArray([]float64{1})})
	require.Error(t, err)
	_, err = s.Post(Record{})
	require.Error(t, err)
}

func TestBadgerIDsSurviveReopen(t *testing.T) {
	path, err := os.MkdirTemp("", tempDirPattern)
	require.Nil(t, err)
	defer os.RemoveAll(path)

	db, err := Open(path, WithSequenceBandwidth(4))
	require.Nil(t, err)

	s, err := db.Namespace("double")
	require.Nil(t, err)
	rec := VectorRecord(codec.DoubleArray([]float64{1, 2}))
	last, err := s.Post(rec)
	require.Nil(t, err)
	require.Nil(t, db.Close())

	reopened, err := Open(path)
	require.Nil(t, err)
	defer reopened.Close()
	s, err = reopened.Namespace("double")
	require.Nil(t, err)

	got, err := s.Get(last)
	require.Nil(t, err)
	require.Equal(t, rec, got)

	next, err := s.Post(rec)
	require.Nil(t, err)
	require.Greater(t, next, last)

	_, err = reopened.Namespace("")
	require.Error(t, err)
}

func TestBadgerReadOnly(t *testing.T) {
	path, err := os.MkdirTemp("", tempDirPattern)
	require.Nil(t, err)
	defer os.RemoveAll(path)

	db, err := Open(path)
	require.Nil(t, err)
	require.Nil(t, db.Compact())
	require.Nil(t, db.Close())

	ro, err := Open(path, ReadOnly())
	require.Nil(t, err)
	defer ro.Close()
	s, err := ro.Namespace("double")
	require.Nil(t, err)
	_, err = s.Post(VectorRecord(codec.DoubleArray([]float64{1})))
	require.ErrorIs(t, err, ErrReadOnly)
	require.ErrorIs(t, s.Delete(0), ErrReadOnly)
}
