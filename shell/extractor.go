package shell

import (
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/mholt/archiver"
	"github.com/smartystreets/logging"

	"github.com/smarty/glpkg/contracts"
)

type ArchiveExtractor struct {
	logger *logging.Logger
}

func NewArchiveExtractor() *ArchiveExtractor {
	return &ArchiveExtractor{}
}

func (this *ArchiveExtractor) Extract(source, destination, suffix string) error {
	if suffix == "" {
		suffix = contracts.DetectArchiveSuffix(source)
	}
	suffix = strings.ToLower(suffix)

	if err := os.MkdirAll(destination, 0755); err != nil {
		return err
	}

	this.logger.Printf("Extracting %q into %q.", source, destination)

	if suffix == ".tar.zst" || suffix == ".tzst" {
		return extractTarZstd(source, destination)
	}
	unarchiver, err := newUnarchiver(suffix)
	if err != nil {
		return err
	}
	return unarchiver.Unarchive(source, destination)
}

func newUnarchiver(suffix string) (archiver.Unarchiver, error) {
	switch suffix {
	case ".zip":
		zip := archiver.NewZip()
		zip.OverwriteExisting = true
		zip.MkdirAll = true
		return zip, nil
	case ".tar":
		tar := archiver.NewTar()
		tar.OverwriteExisting = true
		tar.MkdirAll = true
		return tar, nil
	case ".tar.gz", ".tgz":
		tar := archiver.NewTarGz()
		tar.OverwriteExisting = true
		tar.MkdirAll = true
		return tar, nil
	case ".tar.xz", ".txz":
		tar := archiver.NewTarXz()
		tar.OverwriteExisting = true
		tar.MkdirAll = true
		return tar, nil
	case ".tar.bz2", ".tbz2":
		tar := archiver.NewTarBz2()
		tar.OverwriteExisting = true
		tar.MkdirAll = true
		return tar, nil
	default:
		return nil, fmt.Errorf("%w: %q", contracts.ErrUnsupportedArchive, suffix)
	}
}

func extractTarZstd(source, destination string) error {
	file, err := os.Open(source)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return err
	}
	defer decoder.Close()

	return NewTarArchiveReader(decoder).ExtractTo(destination)
}
