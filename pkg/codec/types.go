package codec

import "fmt"

// DataType selects the fixed-width element encoding of a payload.
type DataType int32

const (
	Unknown DataType = iota
	Int32
	Double
)

var typeNames = map[DataType]string{
	Unknown: "UNKNOWN",
	Int32:   "INTEGER",
	Double:  "DOUBLE",
}

// Width returns the element width in bytes, 0 for unknown types.
func (t DataType) Width() int {
	switch t {
	case Int32:
		return 4
	case Double:
		return 8
	}
	return 0
}

func (t DataType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int32(t))
}

// Valid returns an error for anything outside the closed set of element types.
func (t DataType) Valid() error {
	if t.Width() == 0 {
		return fmt.Errorf("invalid data type %q", t)
	}
	return nil
}

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	for t, name := range typeNames {
		if t != Unknown && name == s {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("invalid data type %q", s)
}

// Scalar is the closed set of element types a payload can hold.
type Scalar interface {
	int32 | float64
}

// TypeOf returns the DataType of T.
func TypeOf[T Scalar]() DataType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return Int32
	default:
		return Double
	}
}
