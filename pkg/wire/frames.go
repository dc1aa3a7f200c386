package wire

import (
	"google.golang.org/grpc/metadata"

	"github.com/sincaw/arraystream/pkg/transfer"
)

type frameWriterFunc func(transfer.Frame) error

func (f frameWriterFunc) WriteFrame(fr transfer.Frame) error {
	return f(fr)
}

type frameReaderFunc func() (transfer.Frame, error)

func (f frameReaderFunc) ReadFrame() (transfer.Frame, error) {
	return f()
}

// VectorWriter adapts a Vector send function to the transfer protocol.
func VectorWriter(send func(*Vector) error) transfer.FrameWriter {
	return frameWriterFunc(func(f transfer.Frame) error {
		return send(&Vector{DataType: f.Type, VectorSize: int32(f.Rows), VectorAsChunk: f.Chunk})
	})
}

// VectorReader adapts a Vector receive function to the transfer protocol.
func VectorReader(recv func() (*Vector, error)) transfer.FrameReader {
	return frameReaderFunc(func() (transfer.Frame, error) {
		m, err := recv()
		if err != nil {
			return transfer.Frame{}, err
		}
		return transfer.Frame{Type: m.DataType, Rows: int(m.VectorSize), Cols: 1, Chunk: m.VectorAsChunk}, nil
	})
}

func MatrixWriter(send func(*Matrix) error) transfer.FrameWriter {
	return frameWriterFunc(func(f transfer.Frame) error {
		return send(&Matrix{DataType: f.Type, MatrixRows: int32(f.Rows), MatrixCols: int32(f.Cols), MatrixAsChunk: f.Chunk})
	})
}

func MatrixReader(recv func() (*Matrix, error)) transfer.FrameReader {
	return frameReaderFunc(func() (transfer.Frame, error) {
		m, err := recv()
		if err != nil {
			return transfer.Frame{}, err
		}
		return transfer.Frame{Type: m.DataType, Rows: int(m.MatrixRows), Cols: int(m.MatrixCols), Chunk: m.MatrixAsChunk}, nil
	})
}

// FromMD keeps the first value of every key.
func FromMD(md metadata.MD) transfer.Metadata {
	ret := transfer.Metadata{}
	for k, v := range md {
		if len(v) > 0 {
			ret[k] = v[0]
		}
	}
	return ret
}

func ToMD(md transfer.Metadata) metadata.MD {
	return metadata.New(md)
}
