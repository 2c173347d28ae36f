package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Numeric arrays are stored as zstd-compressed little-endian blobs.
// The encoder and decoder are stateless in EncodeAll/DecodeAll mode and
// safe for concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

func compressInts(xs []int64) []byte {
	raw := make([]byte, 8*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint64(raw[8*i:], uint64(x))
	}
	return zstdEncoder.EncodeAll(raw, nil)
}

func decompressInts(b []byte) ([]int64, error) {
	raw, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress int array: %w", err)
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("int array blob has %d bytes, not a multiple of 8", len(raw))
	}
	xs := make([]int64, len(raw)/8)
	for i := range xs {
		xs[i] = int64(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return xs, nil
}

func compressFloats(xs []float64) []byte {
	raw := make([]byte, 8*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(x))
	}
	return zstdEncoder.EncodeAll(raw, nil)
}

func decompressFloats(b []byte) ([]float64, error) {
	raw, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress float array: %w", err)
	}
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("float array blob has %d bytes, not a multiple of 8", len(raw))
	}
	xs := make([]float64, len(raw)/8)
	for i := range xs {
		xs[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return xs, nil
}

// Record keys contain no newlines, so a joined blob round-trips exactly.
func compressStrings(xs []string) []byte {
	return zstdEncoder.EncodeAll([]byte(strings.Join(xs, "\n")), nil)
}

func decompressStrings(b []byte) ([]string, error) {
	raw, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress string array: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return strings.Split(string(raw), "\n"), nil
}
