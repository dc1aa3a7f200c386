package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sincaw/arraystream/pkg/codec"
)

// Message is implemented by every type carried by the arraywire codec.
type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire([]byte) error
}

// Vector is one chunk of a vector payload.
type Vector struct {
	DataType      codec.DataType
	VectorSize    int32
	VectorAsChunk []byte
}

func (m *Vector) MarshalWire() ([]byte, error) {
	b := appendInt64(nil, 1, int64(m.DataType))
	b = appendInt64(b, 2, int64(m.VectorSize))
	return appendBytes(b, 3, m.VectorAsChunk), nil
}

func (m *Vector) UnmarshalWire(b []byte) error {
	*m = Vector{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var v int32
			n, err := consumeInt32(typ, b, &v)
			m.DataType = codec.DataType(v)
			return n, err
		case 2:
			return consumeInt32(typ, b, &m.VectorSize)
		case 3:
			return consumeBytes(typ, b, &m.VectorAsChunk)
		}
		return 0, nil
	})
}

// Matrix is one chunk of whole rows of a row-major matrix payload.
type Matrix struct {
	DataType      codec.DataType
	MatrixRows    int32
	MatrixCols    int32
	MatrixAsChunk []byte
}

func (m *Matrix) MarshalWire() ([]byte, error) {
	b := appendInt64(nil, 1, int64(m.DataType))
	b = appendInt64(b, 2, int64(m.MatrixRows))
	b = appendInt64(b, 3, int64(m.MatrixCols))
	return appendBytes(b, 4, m.MatrixAsChunk), nil
}

func (m *Matrix) UnmarshalWire(b []byte) error {
	*m = Matrix{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var v int32
			n, err := consumeInt32(typ, b, &v)
			m.DataType = codec.DataType(v)
			return n, err
		case 2:
			return consumeInt32(typ, b, &m.MatrixRows)
		case 3:
			return consumeInt32(typ, b, &m.MatrixCols)
		case 4:
			return consumeBytes(typ, b, &m.MatrixAsChunk)
		}
		return 0, nil
	})
}

type HelloRequest struct {
	Name string
}

func (m *HelloRequest) MarshalWire() ([]byte, error) {
	return appendBytes(nil, 1, []byte(m.Name)), nil
}

func (m *HelloRequest) UnmarshalWire(b []byte) error {
	*m = HelloRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		var v []byte
		n, err := consumeBytes(typ, b, &v)
		m.Name = string(v)
		return n, err
	})
}

type HelloReply struct {
	Message string
}

func (m *HelloReply) MarshalWire() ([]byte, error) {
	return appendBytes(nil, 1, []byte(m.Message)), nil
}

func (m *HelloReply) UnmarshalWire(b []byte) error {
	*m = HelloReply{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		var v []byte
		n, err := consumeBytes(typ, b, &v)
		m.Message = string(v)
		return n, err
	})
}

type ArrayID struct {
	ID int64
}

func (m *ArrayID) MarshalWire() ([]byte, error) {
	return appendInt64(nil, 1, m.ID), nil
}

func (m *ArrayID) UnmarshalWire(b []byte) error {
	*m = ArrayID{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		return consumeInt64(typ, b, &m.ID)
	})
}

type Empty struct{}

func (m *Empty) MarshalWire() ([]byte, error) {
	return []byte{}, nil
}

func (m *Empty) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(protowire.Number, protowire.Type, []byte) (int, error) {
		return 0, nil
	})
}

// StreamRequest asks for a chunked retrieval. ChunkSize counts elements for the
// repeated variant and bytes for the binary variant.
type StreamRequest struct {
	ID        int64
	ChunkSize int64
}

func (m *StreamRequest) MarshalWire() ([]byte, error) {
	b := appendInt64(nil, 1, m.ID)
	return appendInt64(b, 2, m.ChunkSize), nil
}

func (m *StreamRequest) UnmarshalWire(b []byte) error {
	*m = StreamRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt64(typ, b, &m.ID)
		case 2:
			return consumeInt64(typ, b, &m.ChunkSize)
		}
		return 0, nil
	})
}

// Single carries one element.
type Single[T codec.Scalar] struct {
	Payload T
}

func (m *Single[T]) MarshalWire() ([]byte, error) {
	return appendScalar(nil, 1, m.Payload), nil
}

func (m *Single[T]) UnmarshalWire(b []byte) error {
	*m = Single[T]{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		v, n, err := consumeScalar[T](typ, b)
		m.Payload = v
		return n, err
	})
}

// Repeated carries a same typed run of elements.
type Repeated[T codec.Scalar] struct {
	Payload []T
}

func (m *Repeated[T]) MarshalWire() ([]byte, error) {
	return appendPacked(nil, 1, m.Payload), nil
}

func (m *Repeated[T]) UnmarshalWire(b []byte) error {
	*m = Repeated[T]{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		return consumeRepeated(typ, b, &m.Payload)
	})
}

// BinaryChunk carries a host order encoded slice of elements.
type BinaryChunk struct {
	Payload []byte
}

func (m *BinaryChunk) MarshalWire() ([]byte, error) {
	return appendBytes(nil, 1, m.Payload), nil
}

func (m *BinaryChunk) UnmarshalWire(b []byte) error {
	*m = BinaryChunk{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		return consumeBytes(typ, b, &m.Payload)
	})
}
