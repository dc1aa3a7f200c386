package transfer

import (
	"errors"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sincaw/arraystream/pkg/codec"
)

// pipe records written frames and replays them in order, then fails with err
// if set.
type pipe struct {
	frames []Frame
	read   int
	err    error
}

func (p *pipe) WriteFrame(f Frame) error {
	if p.err != nil {
		return p.err
	}
	p.frames = append(p.frames, f)
	return nil
}

func (p *pipe) ReadFrame() (Frame, error) {
	if p.read >= len(p.frames) {
		if p.err != nil {
			return Frame{}, p.err
		}
		return Frame{}, io.EOF
	}
	f := p.frames[p.read]
	p.read++
	return f, nil
}

func roundTrip(t *testing.T, k Kind, maxChunkBytes int, payloads ...Payload) ([]Payload, *pipe, Metadata) {
	out, err := k.Plan(maxChunkBytes, payloads...)
	require.Nil(t, err)
	p := &pipe{}
	require.Nil(t, out.Send(p))

	md := out.Metadata()
	r := NewReceiver(k, p)
	require.Nil(t, r.Accept(md))
	got, err := r.All()
	require.Nil(t, err)
	return got, p, md
}

func TestVectorsRoundTrip(t *testing.T) {
	v1 := Vector(codec.DoubleArray([]float64{1.3, 2.7, 3.3, 4.5, 6.7}))
	v2 := Vector(codec.DoubleArray([]float64{9, 8, 7}))

	// 2 doubles per message
	got, p, md := roundTrip(t, Vectors, 16, v1, v2)
	require.Equal(t, []Payload{v1, v2}, got)
	require.Len(t, p.frames, 5)
	require.Equal(t, "2", md["full-vectors"])
	require.Equal(t, "3", md["vec1-messages"])
	require.Equal(t, "2", md["vec2-messages"])
	require.Equal(t, "DOUBLE", md["vec1-type"])
	for _, f := range p.frames[:3] {
		require.Equal(t, 5, f.Rows)
		require.Equal(t, codec.Double, f.Type)
	}
}

func TestMatricesRowIntegrity(t *testing.T) {
	data := make([]int32, 7*3)
	for i := range data {
		data[i] = int32(i)
	}
	m := Matrix(7, 3, codec.Int32Array(data))

	// 10 int32 per message: 3 rows each
	got, p, md := roundTrip(t, Matrices, 40, m)
	require.Equal(t, []Payload{m}, got)
	require.Equal(t, "1", md["full-matrices"])
	require.Equal(t, "3", md["mat1-messages"])
	for _, f := range p.frames {
		n := len(f.Chunk) / 4
		require.Zero(t, n%3)
		require.LessOrEqual(t, n, 10)
	}
}

func TestEmptyPayload(t *testing.T) {
	empty := Vector(codec.Empty(codec.Int32))
	full := Vector(codec.Int32Array([]int32{1, 2}))
	got, p, md := roundTrip(t, Vectors, DefaultMaxChunkBytes, empty, full)
	require.Equal(t, "0", md["vec1-messages"])
	require.Len(t, p.frames, 1)
	require.Equal(t, []Payload{empty, full}, got)

	// an empty payload needs its type
	delete(md, "vec1-type")
	r := NewReceiver(Vectors, &pipe{frames: p.frames})
	require.Nil(t, r.Accept(md))
	_, err := r.Next()
	require.ErrorIs(t, err, codec.ErrDecode)
}

func TestEmptyMatrixShape(t *testing.T) {
	m := Matrix(0, 3, codec.Empty(codec.Double))
	got, p, md := roundTrip(t, Matrices, DefaultMaxChunkBytes, m)
	require.Empty(t, p.frames)
	require.Equal(t, "0", md["mat1-messages"])
	require.Equal(t, "0x3", md["mat1-shape"])
	require.Equal(t, []Payload{m}, got)

	// zero columns travel as a message carrying the shape
	m = Matrix(3, 0, codec.Empty(codec.Int32))
	got, p, md = roundTrip(t, Matrices, DefaultMaxChunkBytes, m)
	require.Len(t, p.frames, 1)
	require.NotContains(t, md, "mat1-shape")
	require.Equal(t, []Payload{m}, got)

	// vectors never carry a shape
	_, _, md = roundTrip(t, Vectors, DefaultMaxChunkBytes, Vector(codec.Empty(codec.Int32)))
	require.NotContains(t, md, "vec1-shape")

	r := NewReceiver(Matrices, &pipe{})
	for _, shape := range []string{"2x3", "0", "ax3", "0x-1"} {
		md := Metadata{"full-matrices": "1", "mat1-messages": "0", "mat1-type": "DOUBLE", "mat1-shape": shape}
		require.ErrorIs(t, r.Accept(md), ErrBadMetadata, shape)
	}
}

func TestTrailingMessage(t *testing.T) {
	out, err := Vectors.Plan(DefaultMaxChunkBytes, Vector(codec.Int32Array([]int32{1, 2})))
	require.Nil(t, err)
	p := &pipe{}
	require.Nil(t, out.Send(p))

	r := NewReceiver(Vectors, p)
	require.Nil(t, r.Accept(out.Metadata()))
	_, err = r.All()
	require.Nil(t, err)
	require.Nil(t, r.Finish())

	// a second copy of the message is past the declared count
	p.frames = append(p.frames, p.frames[0])
	p.read = 0
	r = NewReceiver(Vectors, p)
	require.Nil(t, r.Accept(out.Metadata()))
	_, err = r.All()
	require.Nil(t, err)
	require.ErrorIs(t, r.Finish(), codec.ErrDecode)

	boom := errors.New("boom")
	r = NewReceiver(Vectors, &pipe{err: boom})
	err = r.Finish()
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, boom)
}

func TestReadBeforeMetadata(t *testing.T) {
	r := NewReceiver(Vectors, &pipe{})
	_, err := r.Next()
	require.ErrorIs(t, err, ErrMetadataRequired)
	_, err = r.All()
	require.ErrorIs(t, err, ErrMetadataRequired)
}

func TestBadMetadata(t *testing.T) {
	r := NewReceiver(Vectors, &pipe{})
	require.ErrorIs(t, r.Accept(Metadata{}), ErrBadMetadata)
	require.ErrorIs(t, r.Accept(Metadata{"full-vectors": "1"}), ErrBadMetadata)
	require.ErrorIs(t, r.Accept(Metadata{"full-vectors": "-1"}), ErrBadMetadata)
	require.ErrorIs(t, r.Accept(Metadata{"full-vectors": "1", "vec1-messages": "1", "vec1-type": "FLOAT"}), ErrBadMetadata)
	// huge counts are refused before anything is allocated
	require.ErrorIs(t, r.Accept(Metadata{"full-vectors": "9000000000000000000"}), ErrBadMetadata)
	require.ErrorIs(t, r.Accept(Metadata{"full-vectors": strconv.Itoa(MaxPayloads + 1)}), ErrBadMetadata)
	require.Nil(t, r.Header())

	n, err := Vectors.Count(Metadata{"full-vectors": strconv.Itoa(MaxPayloads)})
	require.Nil(t, err)
	require.Equal(t, MaxPayloads, n)
}

func TestShortStream(t *testing.T) {
	out, err := Vectors.Plan(8, Vector(codec.DoubleArray([]float64{1, 2, 3})))
	require.Nil(t, err)
	p := &pipe{}
	require.Nil(t, out.Send(p))
	p.frames = p.frames[:2]

	r := NewReceiver(Vectors, p)
	require.Nil(t, r.Accept(out.Metadata()))
	_, err = r.Next()
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, ErrShortStream)
}

func TestReceiveRejectsMixedTypes(t *testing.T) {
	frames := []Frame{
		{Type: codec.Double, Rows: 2, Cols: 1, Chunk: codec.Serialize(codec.DoubleArray([]float64{1}), 0, 1)},
		{Type: codec.Int32, Rows: 2, Cols: 1, Chunk: codec.Serialize(codec.Int32Array([]int32{1}), 0, 1)},
	}
	r := NewReceiver(Vectors, &pipe{frames: frames})
	require.Nil(t, r.Accept(Metadata{"full-vectors": "1", "vec1-messages": "2"}))
	_, err := r.Next()
	require.ErrorIs(t, err, codec.ErrMixedTypes)

	// first tag disagrees with the declared type
	r = NewReceiver(Vectors, &pipe{frames: frames})
	require.Nil(t, r.Accept(Metadata{"full-vectors": "1", "vec1-messages": "2", "vec1-type": "INTEGER"}))
	_, err = r.Next()
	require.ErrorIs(t, err, codec.ErrMixedTypes)
}

func TestReceiveRejectsBadChunks(t *testing.T) {
	md := Metadata{"full-matrices": "1", "mat1-messages": "1"}

	// partial row
	split := []Frame{{Type: codec.Int32, Rows: 2, Cols: 2, Chunk: make([]byte, 12)}}
	r := NewReceiver(Matrices, &pipe{frames: split})
	require.Nil(t, r.Accept(md))
	_, err := r.Next()
	require.ErrorIs(t, err, codec.ErrDecode)

	// fewer elements than the declared shape
	short := []Frame{{Type: codec.Int32, Rows: 2, Cols: 2, Chunk: make([]byte, 8)}}
	r = NewReceiver(Matrices, &pipe{frames: short})
	require.Nil(t, r.Accept(md))
	_, err = r.Next()
	require.ErrorIs(t, err, codec.ErrDecode)

	// bytes not a multiple of the width
	ragged := []Frame{{Type: codec.Double, Rows: 1, Cols: 1, Chunk: make([]byte, 7)}}
	r = NewReceiver(Matrices, &pipe{frames: ragged})
	require.Nil(t, r.Accept(md))
	_, err = r.Next()
	require.ErrorIs(t, err, codec.ErrDecode)
}

func TestSendFailure(t *testing.T) {
	out, err := Vectors.Plan(8, Vector(codec.DoubleArray([]float64{1})))
	require.Nil(t, err)
	boom := errors.New("boom")
	err = out.Send(&pipe{err: boom})
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, boom)
}

func TestPlanRejectsInvalidPayload(t *testing.T) {
	_, err := Matrices.Plan(8, Matrix(2, 2, codec.DoubleArray([]float64{1})))
	require.Error(t, err)
	_, err = Vectors.Plan(8, Payload{Rows: 0, Cols: 1})
	require.Error(t, err)
}
