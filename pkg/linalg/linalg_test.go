package linalg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sincaw/arraystream/pkg/codec"
)

func doubles(v ...float64) codec.Array {
	return codec.DoubleArray(v)
}

func TestVectorOps(t *testing.T) {
	flipped, err := FlipVector(doubles(1, 2, 3))
	require.Nil(t, err)
	require.Equal(t, doubles(3, 2, 1), flipped)

	sum, err := AddVectors(doubles(1, 2, 3), doubles(4, 5, 6), doubles(1, 1, 1))
	require.Nil(t, err)
	require.Equal(t, doubles(6, 8, 10), sum)

	prod, err := MultiplyVectors(codec.Int32Array([]int32{1, 2, 3}), codec.Int32Array([]int32{4, 5, 6}))
	require.Nil(t, err)
	require.Equal(t, codec.Int32Array([]int32{32}), prod)
}

func TestAddVectorsSizeMismatch(t *testing.T) {
	a := doubles(1, 2, 3)
	res, err := AddVectors(a, doubles(4, 5))
	require.ErrorIs(t, err, ErrSizeMismatch)
	require.Zero(t, res.Len())
	// operands untouched
	require.Equal(t, doubles(1, 2, 3), a)

	_, err = MultiplyVectors(a, doubles(1))
	require.ErrorIs(t, err, ErrSizeMismatch)

	_, err = AddVectors(a, codec.Int32Array([]int32{1, 2, 3}))
	require.ErrorIs(t, err, codec.ErrMixedTypes)

	_, err = AddVectors()
	require.Error(t, err)
}

func TestMatrixOps(t *testing.T) {
	a := Matrix{Rows: 2, Cols: 3, Data: doubles(1, 2, 3, 4, 5, 6)}
	b := Matrix{Rows: 3, Cols: 2, Data: doubles(7, 8, 9, 10, 11, 12)}

	prod, err := MultiplyMatrices(a, b)
	require.Nil(t, err)
	require.Equal(t, Matrix{Rows: 2, Cols: 2, Data: doubles(58, 64, 139, 154)}, prod)

	sum, err := AddMatrices(a, a)
	require.Nil(t, err)
	require.Equal(t, Matrix{Rows: 2, Cols: 3, Data: doubles(2, 4, 6, 8, 10, 12)}, sum)

	_, err = AddMatrices(a, b)
	require.ErrorIs(t, err, ErrSizeMismatch)

	_, err = MultiplyMatrices(a, a)
	require.ErrorIs(t, err, ErrSizeMismatch)

	_, err = AddMatrices(Matrix{Rows: 2, Cols: 2, Data: doubles(1)})
	require.Error(t, err)
}
