package transfer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sincaw/arraystream/pkg/codec"
)

// MaxPayloads bounds the payload count a stream may declare.
const MaxPayloads = 1024

// Metadata is the out of band string map attached to a stream before its first message.
type Metadata map[string]string

// Kind names the payload family carried by a stream and derives its metadata keys.
type Kind struct {
	countKey string
	prefix   string
	vector   bool
}

var (
	Vectors  = Kind{countKey: "full-vectors", prefix: "vec", vector: true}
	Matrices = Kind{countKey: "full-matrices", prefix: "mat"}
)

func (k Kind) String() string {
	if k.vector {
		return "vectors"
	}
	return "matrices"
}

// CountKey is the key holding the number of payloads in the stream.
func (k Kind) CountKey() string {
	return k.countKey
}

// Name returns the identifier of the i-th payload, starting at vec1 / mat1.
func (k Kind) Name(i int) string {
	return k.prefix + strconv.Itoa(i+1)
}

// MessagesKey returns the key holding the message count of the i-th payload.
func (k Kind) MessagesKey(i int) string {
	return k.Name(i) + "-messages"
}

// TypeKey returns the key holding the element type of the i-th payload.
func (k Kind) TypeKey(i int) string {
	return k.Name(i) + "-type"
}

// ShapeKey returns the key holding the "RxC" shape of the i-th payload when
// it is an empty matrix sent without messages.
func (k Kind) ShapeKey(i int) string {
	return k.Name(i) + "-shape"
}

// Header is the parsed transfer metadata of a stream.
type Header struct {
	Payloads []PayloadHeader
}

// PayloadHeader describes one logical payload. Type is Unknown when the sender omitted it.
// Rows and Cols are only carried for matrices without messages, Shaped
// reports whether they were.
type PayloadHeader struct {
	Messages int
	Type     codec.DataType
	Rows     int
	Cols     int
	Shaped   bool
}

// Count reads the declared payload count of md.
func (k Kind) Count(md Metadata) (int, error) {
	count, err := readCount(md, k.countKey)
	if err != nil {
		return 0, err
	}
	if count > MaxPayloads {
		return 0, fmt.Errorf("%w: %s=%d above %d", ErrBadMetadata, k.countKey, count, MaxPayloads)
	}
	return count, nil
}

// ParseHeader reads the payload count and every per payload message count from md.
func (k Kind) ParseHeader(md Metadata) (*Header, error) {
	count, err := k.Count(md)
	if err != nil {
		return nil, err
	}
	h := &Header{Payloads: make([]PayloadHeader, count)}
	for i := range h.Payloads {
		n, err := readCount(md, k.MessagesKey(i))
		if err != nil {
			return nil, err
		}
		h.Payloads[i].Messages = n
		if v, ok := md[k.TypeKey(i)]; ok {
			t, err := codec.ParseDataType(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrBadMetadata, k.TypeKey(i), err)
			}
			h.Payloads[i].Type = t
		}
		if v, ok := md[k.ShapeKey(i)]; ok && !k.vector && n == 0 {
			rows, cols, err := parseShape(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q", ErrBadMetadata, k.ShapeKey(i), v)
			}
			h.Payloads[i].Rows, h.Payloads[i].Cols, h.Payloads[i].Shaped = rows, cols, true
		}
	}
	return h, nil
}

// Metadata renders the header back to its key value form.
func (k Kind) Metadata(h *Header) Metadata {
	md := Metadata{k.countKey: strconv.Itoa(len(h.Payloads))}
	for i, p := range h.Payloads {
		md[k.MessagesKey(i)] = strconv.Itoa(p.Messages)
		if p.Type != codec.Unknown {
			md[k.TypeKey(i)] = p.Type.String()
		}
		if p.Shaped && !k.vector && p.Messages == 0 {
			md[k.ShapeKey(i)] = fmt.Sprintf("%dx%d", p.Rows, p.Cols)
		}
	}
	return md
}

// parseShape reads "RxC" where at least one side is zero.
func parseShape(v string) (int, int, error) {
	r, c, ok := strings.Cut(v, "x")
	if !ok {
		return 0, 0, fmt.Errorf("no separator")
	}
	rows, err := strconv.Atoi(r)
	if err != nil {
		return 0, 0, err
	}
	cols, err := strconv.Atoi(c)
	if err != nil {
		return 0, 0, err
	}
	if rows < 0 || cols < 0 || rows*cols != 0 {
		return 0, 0, fmt.Errorf("shape %dx%d is not empty", rows, cols)
	}
	return rows, cols, nil
}

func readCount(md Metadata, key string) (int, error) {
	v, ok := md[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrBadMetadata, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadMetadata, key, v)
	}
	return n, nil
}
