package filterparams

import (
	"fmt"

	"github.com/dream3d/h5support/h5lite"
	"github.com/dream3d/h5support/hdf5"
)

// Read functions return def, without error, when the parameter is absent.
// Any other failure is returned.

// WriteValue stores a single value.
func WriteValue[T h5lite.Scalar](g *hdf5.Group, key string, v T) error {
	return h5lite.WriteScalar(g, key, v)
}

// ReadValue reads a value stored by WriteValue.
func ReadValue[T h5lite.Scalar](g *hdf5.Group, key string, def T) (T, error) {
	if !h5lite.DatasetExists(g, key) {
		return def, nil
	}
	return h5lite.ReadScalar[T](g, key)
}

// WriteVector stores a non-empty list of values.
func WriteVector[T h5lite.Scalar](g *hdf5.Group, key string, v []T) error {
	return h5lite.WriteVector(g, key, []uint64{uint64(len(v))}, v)
}

// ReadVector reads a list stored by WriteVector.
func ReadVector[T h5lite.Scalar](g *hdf5.Group, key string, def []T) ([]T, error) {
	if !h5lite.DatasetExists(g, key) {
		return def, nil
	}
	return h5lite.ReadVector[T](g, key, nil)
}

// WriteString stores a string.
func WriteString(g *hdf5.Group, key, s string) error {
	return h5lite.WriteStringDataset(g, key, s)
}

// ReadString reads a string stored by WriteString.
func ReadString(g *hdf5.Group, key, def string) (string, error) {
	if !h5lite.DatasetExists(g, key) {
		return def, nil
	}
	return h5lite.ReadStringDataset(g, key)
}

// WriteStrings stores a list of strings, such as selected array names.
func WriteStrings(g *hdf5.Group, key string, list []string) error {
	return h5lite.ArrayListCodec.Write(g, key, list)
}

// ReadStrings reads a list stored by WriteStrings.
func ReadStrings(g *hdf5.Group, key string, def []string) ([]string, error) {
	if !h5lite.DatasetExists(g, key) {
		return def, nil
	}
	return h5lite.ArrayListCodec.Read(g, key)
}

// WriteVec3 stores a float triple such as a resolution or origin.
func WriteVec3(g *hdf5.Group, key string, v [3]float32) error {
	return h5lite.WriteFixedBuffer(g, key, []uint64{3}, v[:])
}

// ReadVec3 reads a triple stored by WriteVec3.
func ReadVec3(g *hdf5.Group, key string, def [3]float32) ([3]float32, error) {
	return readTriple(g, key, def)
}

// WriteIntVec3 stores an integer triple such as dimensions.
func WriteIntVec3(g *hdf5.Group, key string, v [3]int32) error {
	return h5lite.WriteFixedBuffer(g, key, []uint64{3}, v[:])
}

// ReadIntVec3 reads a triple stored by WriteIntVec3.
func ReadIntVec3(g *hdf5.Group, key string, def [3]int32) ([3]int32, error) {
	return readTriple(g, key, def)
}

func readTriple[T h5lite.Scalar](g *hdf5.Group, key string, def [3]T) ([3]T, error) {
	if !h5lite.DatasetExists(g, key) {
		return def, nil
	}
	var v [3]T
	n, err := h5lite.ReadFixedBuffer(g, key, v[:])
	if err != nil {
		return def, err
	}
	if n != 3 {
		return def, fmt.Errorf("%s: %w: %d elements, want 3", key, h5lite.ErrShapeMismatch, n)
	}
	return v, nil
}
