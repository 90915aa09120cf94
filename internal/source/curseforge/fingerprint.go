package curseforge

import (
	"encoding/binary"
	"fmt"
	"os"
)

const fingerprintSeed = 1

// Fingerprint returns the CurseForge fingerprint of data: MurmurHash2 with seed 1
// over the bytes left after dropping tabs, newlines, carriage returns and spaces.
func Fingerprint(data []byte) uint32 {
	return murmur2(normalize(data), fingerprintSeed)
}

// RawFingerprint is MurmurHash2 with seed 1 over the unmodified bytes. Some files
// are indexed under this variant, so lookups submit both.
func RawFingerprint(data []byte) uint32 {
	return murmur2(data, fingerprintSeed)
}

// FileFingerprints reads the file at path and returns its normalized and raw fingerprints
func FileFingerprints(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return []uint32{Fingerprint(data), RawFingerprint(data)}, nil
}

func normalize(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case 9, 10, 13, 32:
			continue
		}
		out = append(out, b)
	}
	return out
}

func murmur2(data []byte, seed uint32) uint32 {
	const (
		m = 0x5bd1e995
		r = 24
	)

	h := seed ^ uint32(len(data))
	for len(data) >= 4 {
		k := binary.LittleEndian.Uint32(data)
		k *= m
		k ^= k >> r
		k *= m

		h *= m
		h ^= k
		data = data[4:]
	}

	switch len(data) {
	case 3:
		h ^= uint32(data[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[0])
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15
	return h
}
