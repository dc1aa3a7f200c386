// Package linalg implements the vector and matrix operations served over the
// demo transports. Operands are checked before anything is computed.
package linalg

import (
	"errors"
	"fmt"

	"github.com/sincaw/arraystream/pkg/codec"
)

// ErrSizeMismatch matches every *SizeMismatchError.
var ErrSizeMismatch = errors.New("size mismatch")

// SizeMismatchError reports operands with incompatible dimensions.
type SizeMismatchError struct {
	Op    string
	Left  Shape
	Right Shape
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s: size mismatch %s vs %s", e.Op, e.Left, e.Right)
}

func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

type Shape struct {
	Rows, Cols int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// Matrix is a row-major matrix.
type Matrix struct {
	Rows int
	Cols int
	Data codec.Array
}

func (m Matrix) Shape() Shape {
	return Shape{m.Rows, m.Cols}
}

func vectorShape(a codec.Array) Shape {
	return Shape{a.Len(), 1}
}

func sameType(op string, arrays ...codec.Array) error {
	for _, a := range arrays[1:] {
		if a.Type != arrays[0].Type {
			return fmt.Errorf("%s: %w", op, codec.MixedTypes(arrays[0].Type, a.Type))
		}
	}
	return arrays[0].Type.Valid()
}

// FlipVector returns v reversed.
func FlipVector(v codec.Array) (codec.Array, error) {
	if err := v.Type.Valid(); err != nil {
		return codec.Array{}, err
	}
	ret := v.Clone()
	switch ret.Type {
	case codec.Int32:
		reverse(ret.Int32s)
	case codec.Double:
		reverse(ret.Doubles)
	}
	return ret, nil
}

// AddVectors returns the elementwise sum of at least one vector of equal length.
func AddVectors(vs ...codec.Array) (codec.Array, error) {
	if len(vs) == 0 {
		return codec.Array{}, errors.New("add vectors: no operands")
	}
	if err := sameType("add vectors", vs...); err != nil {
		return codec.Array{}, err
	}
	for _, v := range vs[1:] {
		if v.Len() != vs[0].Len() {
			return codec.Array{}, &SizeMismatchError{Op: "add vectors", Left: vectorShape(vs[0]), Right: vectorShape(v)}
		}
	}
	ret := vs[0].Clone()
	for _, v := range vs[1:] {
		switch ret.Type {
		case codec.Int32:
			addInto(ret.Int32s, v.Int32s)
		case codec.Double:
			addInto(ret.Doubles, v.Doubles)
		}
	}
	return ret, nil
}

// MultiplyVectors returns the dot product of a and b as a one element vector.
func MultiplyVectors(a, b codec.Array) (codec.Array, error) {
	if err := sameType("multiply vectors", a, b); err != nil {
		return codec.Array{}, err
	}
	if a.Len() != b.Len() {
		return codec.Array{}, &SizeMismatchError{Op: "multiply vectors", Left: vectorShape(a), Right: vectorShape(b)}
	}
	switch a.Type {
	case codec.Int32:
		return codec.Int32Array([]int32{dot(a.Int32s, b.Int32s)}), nil
	default:
		return codec.DoubleArray([]float64{dot(a.Doubles, b.Doubles)}), nil
	}
}

// AddMatrices returns the elementwise sum of at least one matrix of equal shape.
func AddMatrices(ms ...Matrix) (Matrix, error) {
	if len(ms) == 0 {
		return Matrix{}, errors.New("add matrices: no operands")
	}
	arrays := make([]codec.Array, len(ms))
	for i, m := range ms {
		if err := m.valid(); err != nil {
			return Matrix{}, err
		}
		arrays[i] = m.Data
	}
	if err := sameType("add matrices", arrays...); err != nil {
		return Matrix{}, err
	}
	for _, m := range ms[1:] {
		if m.Shape() != ms[0].Shape() {
			return Matrix{}, &SizeMismatchError{Op: "add matrices", Left: ms[0].Shape(), Right: m.Shape()}
		}
	}
	data, err := AddVectors(arrays...)
	if err != nil {
		return Matrix{}, err
	}
	return Matrix{Rows: ms[0].Rows, Cols: ms[0].Cols, Data: data}, nil
}

// MultiplyMatrices returns the product a*b, which requires a.Cols == b.Rows.
func MultiplyMatrices(a, b Matrix) (Matrix, error) {
	for _, m := range []Matrix{a, b} {
		if err := m.valid(); err != nil {
			return Matrix{}, err
		}
	}
	if err := sameType("multiply matrices", a.Data, b.Data); err != nil {
		return Matrix{}, err
	}
	if a.Cols != b.Rows {
		return Matrix{}, &SizeMismatchError{Op: "multiply matrices", Left: a.Shape(), Right: b.Shape()}
	}
	ret := Matrix{Rows: a.Rows, Cols: b.Cols}
	switch a.Data.Type {
	case codec.Int32:
		ret.Data = codec.Int32Array(matmul(a.Data.Int32s, b.Data.Int32s, a.Rows, a.Cols, b.Cols))
	default:
		ret.Data = codec.DoubleArray(matmul(a.Data.Doubles, b.Data.Doubles, a.Rows, a.Cols, b.Cols))
	}
	return ret, nil
}

func (m Matrix) valid() error {
	if m.Rows < 0 || m.Cols < 0 || m.Rows*m.Cols != m.Data.Len() {
		return fmt.Errorf("invalid matrix %s with %d elements", m.Shape(), m.Data.Len())
	}
	return nil
}

func reverse[T codec.Scalar](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func addInto[T codec.Scalar](dst, src []T) {
	for i := range dst {
		dst[i] += src[i]
	}
}

func dot[T codec.Scalar](a, b []T) T {
	var sum T
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func matmul[T codec.Scalar](a, b []T, n, k, m int) []T {
	ret := make([]T, n*m)
	for i := 0; i < n; i++ {
		row := ret[i*m : (i+1)*m]
		for p := 0; p < k; p++ {
			x := a[i*k+p]
			for j, y := range b[p*m : (p+1)*m] {
				row[j] += x * y
			}
		}
	}
	return ret
}
