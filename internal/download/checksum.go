package download

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"tmods/internal/domain"
)

// NewHash returns a hasher for algo
func NewHash(algo domain.HashAlgo) (hash.Hash, error) {
	switch algo {
	case domain.HashSHA1:
		return sha1.New(), nil
	case domain.HashSHA512:
		return sha512.New(), nil
	case domain.HashMD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algo)
	}
}

// HashFile returns the hex digest of the file at path
func HashFile(path string, algo domain.HashAlgo) (string, error) {
	h, err := NewHash(algo)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CheckFile reports whether the file at path exists and its digest matches expected.
// The comparison ignores hex case.
func CheckFile(path string, algo domain.HashAlgo, expected string) bool {
	actual, err := HashFile(path, algo)
	if err != nil {
		return false
	}
	return strings.EqualFold(actual, expected)
}
