package cmd

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sincaw/arraystream/pkg/codec"
	"github.com/sincaw/arraystream/pkg/linalg"
)

// parseVector reads "1,2,3" as an array of t, "" is the empty array.
func parseVector(s string, t codec.DataType) (codec.Array, error) {
	ret := codec.Empty(t)
	s = strings.TrimSpace(s)
	if s == "" {
		return ret, nil
	}
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		switch t {
		case codec.Int32:
			v, err := strconv.ParseInt(f, 10, 32)
			if err != nil {
				return ret, errors.Wrapf(err, "parse %q", f)
			}
			ret.Int32s = append(ret.Int32s, int32(v))
		default:
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return ret, errors.Wrapf(err, "parse %q", f)
			}
			ret.Doubles = append(ret.Doubles, v)
		}
	}
	return ret, nil
}

// parseMatrix reads rows separated by ";", e.g. "1,2;3,4".
func parseMatrix(s string, t codec.DataType) (linalg.Matrix, error) {
	m := linalg.Matrix{Data: codec.Empty(t)}
	s = strings.TrimSpace(s)
	if s == "" {
		return m, nil
	}
	for i, row := range strings.Split(s, ";") {
		v, err := parseVector(row, t)
		if err != nil {
			return m, err
		}
		if i == 0 {
			m.Cols = v.Len()
		} else if v.Len() != m.Cols {
			return m, errors.Errorf("row %d has %d columns, want %d", i, v.Len(), m.Cols)
		}
		if m.Data, err = m.Data.Append(v); err != nil {
			return m, err
		}
		m.Rows++
	}
	return m, nil
}

// values returns the elements of a for printing
func values(a codec.Array) interface{} {
	if a.Type == codec.Int32 {
		v, _ := codec.Values[int32](a)
		return v
	}
	v, _ := codec.Values[float64](a)
	return v
}

func rows(m linalg.Matrix) interface{} {
	ret := make([]interface{}, m.Rows)
	for i := range ret {
		ret[i] = values(m.Data.Slice(i*m.Cols, (i+1)*m.Cols))
	}
	return ret
}
