package onnx

import (
	"errors"
	"fmt"
	"math"
)

type TensorDType string

const (
	DTypeFloat32 TensorDType = "float32"
	DTypeInt64   TensorDType = "int64"
)

// Tensor is an immutable dense tensor passed to and from runners.
type Tensor struct {
	dtype TensorDType
	shape []int64
	data  any
}

func NewTensor[T int64 | float32](data []T, shape []int64) (*Tensor, error) {
	if err := validateShapeAgainstData(shape, len(data)); err != nil {
		return nil, err
	}

	t := &Tensor{shape: append([]int64(nil), shape...)}

	switch d := any(data).(type) {
	case []float32:
		t.dtype, t.data = DTypeFloat32, append([]float32(nil), d...)
	case []int64:
		t.dtype, t.data = DTypeInt64, append([]int64(nil), d...)
	}

	return t, nil
}

func (t *Tensor) DType() TensorDType {
	return t.dtype
}

func (t *Tensor) Shape() []int64 {
	return append([]int64(nil), t.shape...)
}

func (t *Tensor) Data() any {
	switch v := t.data.(type) {
	case []float32:
		return append([]float32(nil), v...)
	case []int64:
		return append([]int64(nil), v...)
	default:
		return nil
	}
}

// ExtractFloat32 copies the values of a float32 tensor.
func ExtractFloat32(t *Tensor) ([]float32, error) {
	if t == nil {
		return nil, errors.New("tensor is nil")
	}

	data, ok := t.data.([]float32)
	if !ok {
		return nil, fmt.Errorf("expected float32 tensor, got %s", t.dtype)
	}

	return append([]float32(nil), data...), nil
}

func validateShapeAgainstData(shape []int64, dataLen int) error {
	count, err := elementCount(shape)
	if err != nil {
		return err
	}

	if count != dataLen {
		return fmt.Errorf("shape %v expects %d elements, got %d", shape, count, dataLen)
	}

	return nil
}

func elementCount(shape []int64) (int, error) {
	if len(shape) == 0 {
		return 1, nil
	}

	count := int64(1)
	for i, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("shape[%d]=%d is negative", i, dim)
		}

		if dim > 0 && count > math.MaxInt64/dim {
			return 0, fmt.Errorf("shape %v overflows element count", shape)
		}

		count *= dim
	}

	if count > int64(math.MaxInt) {
		return 0, fmt.Errorf("shape %v exceeds platform int capacity", shape)
	}

	return int(count), nil
}
