package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sincaw/arraystream/pkg/codec"
)

// fieldFunc consumes the value of a known field and returns its length, 0 skips the field.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func wrongType(typ protowire.Type) error {
	return fmt.Errorf("unexpected wire type %d", typ)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	return appendVarint(b, num, uint64(v))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func consumeInt64(typ protowire.Type, b []byte, dst *int64) (int, error) {
	if typ != protowire.VarintType {
		return 0, wrongType(typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, nil
	}
	*dst = int64(v)
	return n, nil
}

func consumeInt32(typ protowire.Type, b []byte, dst *int32) (int, error) {
	var v int64
	n, err := consumeInt64(typ, b, &v)
	*dst = int32(v)
	return n, err
}

func consumeBytes(typ protowire.Type, b []byte, dst *[]byte) (int, error) {
	if typ != protowire.BytesType {
		return 0, wrongType(typ)
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	*dst = append((*dst)[:0], v...)
	return n, nil
}

func appendScalar[T codec.Scalar](b []byte, num protowire.Number, v T) []byte {
	switch x := any(v).(type) {
	case int32:
		return appendInt64(b, num, int64(x))
	case float64:
		bits := math.Float64bits(x)
		if bits == 0 {
			return b
		}
		b = protowire.AppendTag(b, num, protowire.Fixed64Type)
		return protowire.AppendFixed64(b, bits)
	}
	return b
}

func appendPacked[T codec.Scalar](b []byte, num protowire.Number, vals []T) []byte {
	if len(vals) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	switch v := any(vals).(type) {
	case []int32:
		size := 0
		for _, x := range v {
			size += protowire.SizeVarint(uint64(int64(x)))
		}
		b = protowire.AppendVarint(b, uint64(size))
		for _, x := range v {
			b = protowire.AppendVarint(b, uint64(int64(x)))
		}
	case []float64:
		b = protowire.AppendVarint(b, uint64(8*len(v)))
		for _, x := range v {
			b = protowire.AppendFixed64(b, math.Float64bits(x))
		}
	}
	return b
}

// scalarType is the wire type of a single T element.
func scalarType[T codec.Scalar]() protowire.Type {
	if codec.TypeOf[T]() == codec.Int32 {
		return protowire.VarintType
	}
	return protowire.Fixed64Type
}

func consumeScalar[T codec.Scalar](typ protowire.Type, b []byte) (T, int, error) {
	var zero T
	if typ != scalarType[T]() {
		return zero, 0, wrongType(typ)
	}
	if typ == protowire.VarintType {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return zero, n, nil
		}
		return any(int32(v)).(T), n, nil
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return zero, n, nil
	}
	return any(math.Float64frombits(v)).(T), n, nil
}

// consumeRepeated accepts both the packed and the unpacked encodings.
func consumeRepeated[T codec.Scalar](typ protowire.Type, b []byte, dst *[]T) (int, error) {
	if typ != protowire.BytesType {
		v, n, err := consumeScalar[T](typ, b)
		if err == nil && n > 0 {
			*dst = append(*dst, v)
		}
		return n, err
	}
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	elem := scalarType[T]()
	if elem == protowire.Fixed64Type {
		if len(packed)%8 != 0 {
			return 0, fmt.Errorf("packed fixed64 of %d bytes", len(packed))
		}
		*dst = append(make([]T, 0, len(*dst)+len(packed)/8), *dst...)
	}
	for len(packed) > 0 {
		v, m, err := consumeScalar[T](elem, packed)
		if err != nil {
			return 0, err
		}
		if m < 0 {
			return m, nil
		}
		*dst = append(*dst, v)
		packed = packed[m:]
	}
	return n, nil
}
