package contracts

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"hash"
)

type ProjectInfo struct {
	ID int `json:"id"`
}

type Package struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	PackageType string `json:"package_type"`
	Status      string `json:"status"`
}

func (this Package) Title() string {
	return fmt.Sprintf("[%s @ %s]", this.Name, this.Version)
}

type PackageFile struct {
	ID         int    `json:"id"`
	PackageID  int    `json:"package_id"`
	FileName   string `json:"file_name"`
	Size       int64  `json:"size"`
	FileMD5    string `json:"file_md5"`
	FileSHA1   string `json:"file_sha1"`
	FileSHA256 string `json:"file_sha256"`
}

// HashType reports the strongest digest the registry declared for the file.
func (this PackageFile) HashType() HashType {
	switch {
	case this.FileSHA256 != "":
		return HashSHA256
	case this.FileSHA1 != "":
		return HashSHA1
	case this.FileMD5 != "":
		return HashMD5
	default:
		return HashNone
	}
}

// Hash is the declared hex digest matching HashType, or "" when none was declared.
func (this PackageFile) Hash() string {
	switch this.HashType() {
	case HashSHA256:
		return this.FileSHA256
	case HashSHA1:
		return this.FileSHA1
	case HashMD5:
		return this.FileMD5
	default:
		return ""
	}
}

type HashType string

const (
	HashNone   HashType = ""
	HashMD5    HashType = "md5"
	HashSHA1   HashType = "sha1"
	HashSHA256 HashType = "sha256"
)

// New returns a fresh hasher, or nil for HashNone.
func (this HashType) New() hash.Hash {
	switch this {
	case HashSHA256:
		return sha256.New()
	case HashSHA1:
		return sha1.New()
	case HashMD5:
		return md5.New()
	default:
		return nil
	}
}

func (this HashType) String() string {
	if this == HashNone {
		return "none"
	}
	return string(this)
}
