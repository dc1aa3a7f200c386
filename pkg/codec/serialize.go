package codec

import (
	"encoding/binary"
	"math"
)

// order is the host byte order, both peers are expected to share it.
var order = binary.NativeEndian

// Serialize encodes the elements [start, end) of a back to back.
func Serialize(a Array, start, end int) []byte {
	width := a.Type.Width()
	buf := make([]byte, (end-start)*width)
	switch a.Type {
	case Int32:
		encode(buf, a.Int32s[start:end])
	case Double:
		encode(buf, a.Doubles[start:end])
	}
	return buf
}

// Deserialize decodes length elements of type t from b.
func Deserialize(b []byte, length int, t DataType) (Array, error) {
	if err := t.Valid(); err != nil {
		return Array{}, &DecodeError{Msg: err.Error()}
	}
	if len(b) != length*t.Width() {
		return Array{}, lengthMismatch(len(b), length, t.Width())
	}
	ret := Make(t, length)
	switch t {
	case Int32:
		decode(ret.Int32s, b)
	case Double:
		decode(ret.Doubles, b)
	}
	return ret, nil
}

// Encode encodes src into dst, which must hold len(src) elements.
func Encode[T Scalar](dst []byte, src []T) {
	encode(dst, src)
}

// Decode decodes len(dst) elements from src.
func Decode[T Scalar](dst []T, src []byte) {
	decode(dst, src)
}

func encode[T Scalar](dst []byte, src []T) {
	switch s := any(src).(type) {
	case []int32:
		for i, v := range s {
			order.PutUint32(dst[i*4:], uint32(v))
		}
	case []float64:
		for i, v := range s {
			order.PutUint64(dst[i*8:], math.Float64bits(v))
		}
	}
}

func decode[T Scalar](dst []T, src []byte) {
	switch d := any(dst).(type) {
	case []int32:
		for i := range d {
			d[i] = int32(order.Uint32(src[i*4:]))
		}
	case []float64:
		for i := range d {
			d[i] = math.Float64frombits(order.Uint64(src[i*8:]))
		}
	}
}
