package contracts

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrOffline             = errors.New("offline mode")
	ErrRetryable           = errors.New("retryable")
	ErrNotFound            = errors.New("not found")
	ErrProjectNotCached    = errors.New("project not cached")
	ErrProjectUnresolved   = errors.New("project could not be resolved")
	ErrPackageNotFound     = errors.New("package not found")
	ErrPackageFileNotFound = errors.New("package file not found")
	ErrArtifactUnavailable = errors.New("artifact unavailable")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrUnsupportedArchive  = errors.New("unsupported archive format")
)

// StatusError reports an unexpected HTTP status from the registry API.
type StatusError struct {
	StatusCode int
	URL        string
}

func (this *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d (%s) from %s", this.StatusCode, http.StatusText(this.StatusCode), this.URL)
}

func (this *StatusError) Unwrap() error {
	switch {
	case this.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case this.StatusCode == http.StatusTooManyRequests, this.StatusCode >= 500:
		return ErrRetryable
	default:
		return nil
	}
}

type ChecksumError struct {
	FileName string
	HashType HashType
	Expected string
	Actual   string
}

func (this *ChecksumError) Error() string {
	return fmt.Sprintf("%s checksum mismatch for %q (expected: [%s], actual: [%s])",
		this.HashType, this.FileName, this.Expected, this.Actual)
}

func (this *ChecksumError) Unwrap() error { return ErrChecksumMismatch }
