package codec

// Array is a flat payload of a single element type. Exactly one of the value
// slices is used, selected by Type.
type Array struct {
	Type    DataType
	Int32s  []int32
	Doubles []float64
}

func Int32Array(v []int32) Array {
	return Array{Type: Int32, Int32s: v}
}

func DoubleArray(v []float64) Array {
	return Array{Type: Double, Doubles: v}
}

// FromSlice wraps v without copying.
func FromSlice[T Scalar](v []T) Array {
	switch s := any(v).(type) {
	case []int32:
		return Int32Array(s)
	case []float64:
		return DoubleArray(s)
	}
	panic("unreachable")
}

// Values returns the elements of a as []T, failing when a holds another type.
func Values[T Scalar](a Array) ([]T, error) {
	want := TypeOf[T]()
	if a.Type != want {
		return nil, mixedTypes(want, a.Type)
	}
	var ret any
	switch want {
	case Int32:
		ret = a.Int32s
	case Double:
		ret = a.Doubles
	}
	v := ret.([]T)
	if v == nil {
		v = []T{}
	}
	return v, nil
}

// Empty returns a zero-length array of type t.
func Empty(t DataType) Array {
	switch t {
	case Int32:
		return Int32Array([]int32{})
	default:
		return DoubleArray([]float64{})
	}
}

// Make returns a zeroed array of type t and length n.
func Make(t DataType, n int) Array {
	switch t {
	case Int32:
		return Int32Array(make([]int32, n))
	default:
		return DoubleArray(make([]float64, n))
	}
}

func (a Array) Len() int {
	switch a.Type {
	case Int32:
		return len(a.Int32s)
	case Double:
		return len(a.Doubles)
	}
	return 0
}

// Slice returns the [start, end) view of a, sharing its storage.
func (a Array) Slice(start, end int) Array {
	switch a.Type {
	case Int32:
		return Int32Array(a.Int32s[start:end])
	case Double:
		return DoubleArray(a.Doubles[start:end])
	}
	return a
}

// Clone returns a deep copy of a.
func (a Array) Clone() Array {
	switch a.Type {
	case Int32:
		return Int32Array(append(make([]int32, 0, len(a.Int32s)), a.Int32s...))
	case Double:
		return DoubleArray(append(make([]float64, 0, len(a.Doubles)), a.Doubles...))
	}
	return a
}

// Append appends b to a. Both must hold the same type.
func (a Array) Append(b Array) (Array, error) {
	if a.Type != b.Type {
		return a, mixedTypes(a.Type, b.Type)
	}
	switch a.Type {
	case Int32:
		a.Int32s = append(a.Int32s, b.Int32s...)
	case Double:
		a.Doubles = append(a.Doubles, b.Doubles...)
	}
	return a, nil
}

// Float64s returns the elements of a converted to float64.
func (a Array) Float64s() []float64 {
	if a.Type == Double {
		return a.Doubles
	}
	ret := make([]float64, len(a.Int32s))
	for i, v := range a.Int32s {
		ret[i] = float64(v)
	}
	return ret
}
