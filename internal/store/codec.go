package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// packFloats encodes values as little-endian IEEE 754 doubles. The
// encoding is exact: unpackFloats returns bit-identical values.
func packFloats(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// unpackFloats decodes a blob written by packFloats.
func unpackFloats(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(buf))
	}
	values := make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return values, nil
}
