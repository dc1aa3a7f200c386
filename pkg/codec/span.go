package codec

import "fmt"

// SpanWriter writes fixed-width encoded chunks into a caller owned buffer.
// Every chunk but the last must be exactly stride elements long, and no
// chunk may write past the declared total.
type SpanWriter[T Scalar] struct {
	dst    []T
	stride int
	off    int
	short  bool
}

// NewSpanWriter validates dst against the expected total before anything is written.
func NewSpanWriter[T Scalar](dst []T, total, stride int) (*SpanWriter[T], error) {
	if stride < 1 {
		return nil, fmt.Errorf("invalid stride %d", stride)
	}
	if total < 0 || len(dst) < total {
		return nil, fmt.Errorf("%w: have %d elements, need %d", ErrDestinationTooSmall, len(dst), total)
	}
	return &SpanWriter[T]{dst: dst[:total], stride: stride}, nil
}

// Write decodes p into the next span of the destination.
func (w *SpanWriter[T]) Write(p []byte) (int, error) {
	width := TypeOf[T]().Width()
	if len(p)%width != 0 {
		return 0, &DecodeError{Msg: fmt.Sprintf("chunk of %d bytes is not a multiple of width %d", len(p), width)}
	}
	n := len(p) / width
	if w.short {
		return 0, &DecodeError{Msg: "chunk after the final short chunk", Err: ErrOverrun}
	}
	if n > w.stride {
		return 0, &DecodeError{Msg: fmt.Sprintf("chunk of %d elements exceeds stride %d", n, w.stride)}
	}
	if w.off+n > len(w.dst) {
		return 0, &DecodeError{Msg: fmt.Sprintf("chunk [%d, %d) past %d", w.off, w.off+n, len(w.dst)), Err: ErrOverrun}
	}
	decode(w.dst[w.off:w.off+n], p)
	w.off += n
	if n < w.stride {
		w.short = true
	}
	return len(p), nil
}

// Written returns the number of elements written so far.
func (w *SpanWriter[T]) Written() int {
	return w.off
}

// Close reports an incomplete destination.
func (w *SpanWriter[T]) Close() error {
	if w.off != len(w.dst) {
		return &DecodeError{Msg: fmt.Sprintf("received %d of %d elements", w.off, len(w.dst))}
	}
	return nil
}
