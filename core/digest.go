package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/smarty/glpkg/contracts"
)

// FileDigest hashes the file at path with the given algorithm and returns the
// lowercase hex digest.
func FileDigest(opener contracts.FileOpener, path string, hashType contracts.HashType) (string, error) {
	hasher := hashType.New()
	if hasher == nil {
		return "", fmt.Errorf("no hash algorithm for %q", path)
	}
	reader, err := opener.Open(path)
	if err != nil {
		return "", err
	}
	hashed := NewHashReader(reader, hasher)
	_, err = io.Copy(io.Discard, hashed)
	if closeErr := reader.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	return hashed.Digest(), nil
}

func sameDigest(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
