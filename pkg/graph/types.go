package graph

import (
	"fmt"
	"slices"
	"strings"
)

// DataType is a tensor element type using the ONNX numbering.
type DataType int32

const (
	UNDEFINED DataType = 0
	FLOAT     DataType = 1
	UINT8     DataType = 2
	INT8      DataType = 3
	UINT16    DataType = 4
	INT16     DataType = 5
	INT32     DataType = 6
	INT64     DataType = 7
	STRING    DataType = 8
	BOOL      DataType = 9
	FLOAT16   DataType = 10
	DOUBLE    DataType = 11
	UINT32    DataType = 12
	UINT64    DataType = 13
	BFLOAT16  DataType = 16
)

var dataTypeNames = map[DataType]string{
	UNDEFINED: "undefined",
	FLOAT:     "float",
	UINT8:     "uint8",
	INT8:      "int8",
	UINT16:    "uint16",
	INT16:     "int16",
	INT32:     "int32",
	INT64:     "int64",
	STRING:    "string",
	BOOL:      "bool",
	FLOAT16:   "float16",
	DOUBLE:    "double",
	UINT32:    "uint32",
	UINT64:    "uint64",
	BFLOAT16:  "bfloat16",
}

func (t DataType) String() string {
	if n, ok := dataTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("DataType(%d)", int32(t))
}

// ParseDataType maps a type name to its DataType.
// The empty string is mapped to UNDEFINED.
func ParseDataType(name string) (DataType, error) {
	if name == "" {
		return UNDEFINED, nil
	}
	n := strings.ToLower(name)
	for t, s := range dataTypeNames {
		if s == n {
			return t, nil
		}
	}
	return UNDEFINED, fmt.Errorf("unknown data type %q", name)
}

// ValueInfo describes the type of a value.
type ValueInfo struct {
	ElemType DataType
	Shape    []int64
}

func NewValueInfo(t DataType, shape ...int64) *ValueInfo {
	return &ValueInfo{ElemType: t, Shape: slices.Clone(shape)}
}

// Tensor is a constant tensor used as initializer.
// FLOAT, FLOAT16 and BFLOAT16 data is kept in Floats, DOUBLE data in
// Doubles and all integer types in Ints.
type Tensor struct {
	DataType DataType
	Dims     []int64
	Floats   []float32
	Doubles  []float64
	Ints     []int64
}

func NewFloatTensor(dims []int64, values ...float32) *Tensor {
	return &Tensor{DataType: FLOAT, Dims: slices.Clone(dims), Floats: slices.Clone(values)}
}

func NewDoubleTensor(dims []int64, values ...float64) *Tensor {
	return &Tensor{DataType: DOUBLE, Dims: slices.Clone(dims), Doubles: slices.Clone(values)}
}

func NewIntTensor(t DataType, dims []int64, values ...int64) *Tensor {
	return &Tensor{DataType: t, Dims: slices.Clone(dims), Ints: slices.Clone(values)}
}

// Len returns the number of stored elements.
func (t *Tensor) Len() int {
	switch t.DataType {
	case FLOAT, FLOAT16, BFLOAT16:
		return len(t.Floats)
	case DOUBLE:
		return len(t.Doubles)
	default:
		return len(t.Ints)
	}
}

// FirstFloat returns the first element converted to float32.
// Only floating point tensors are supported.
func (t *Tensor) FirstFloat() (float32, bool) {
	switch t.DataType {
	case FLOAT, FLOAT16, BFLOAT16:
		if len(t.Floats) > 0 {
			return t.Floats[0], true
		}
	case DOUBLE:
		if len(t.Doubles) > 0 {
			return float32(t.Doubles[0]), true
		}
	}
	return 0, false
}
