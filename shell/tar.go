package shell

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type TarArchiveReader struct {
	reader *tar.Reader
	header *tar.Header
}

func NewTarArchiveReader(reader io.Reader) *TarArchiveReader {
	return &TarArchiveReader{reader: tar.NewReader(reader)}
}

func (this *TarArchiveReader) Next() (bool, error) {
	header, err := this.reader.Next()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	this.header = header
	return true, nil
}

// ExtractTo writes every remaining entry beneath destination, replacing
// existing files.
func (this *TarArchiveReader) ExtractTo(destination string) error {
	for {
		more, err := this.Next()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err = this.extractEntry(destination); err != nil {
			return err
		}
	}
}

func (this *TarArchiveReader) extractEntry(destination string) error {
	target, err := containedPath(destination, this.header.Name)
	if err != nil {
		return err
	}
	if err = refuseLinkedParents(destination, target); err != nil {
		return err
	}
	switch this.header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0755)
	case tar.TypeReg:
		return writeEntry(target, this.reader, this.header.FileInfo().Mode().Perm())
	case tar.TypeSymlink:
		return writeLink(destination, target, this.header)
	default:
		return nil
	}
}

// Link targets must be relative and resolve inside destination.
func writeLink(destination, target string, header *tar.Header) error {
	if filepath.IsAbs(header.Linkname) || strings.HasPrefix(header.Linkname, "/") {
		return fmt.Errorf("archive link points outside extraction directory: %q -> %q", header.Name, header.Linkname)
	}
	if _, err := containedPath(destination, filepath.Join(filepath.Dir(header.Name), header.Linkname)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	_ = os.Remove(target)
	return os.Symlink(header.Linkname, target)
}

func writeEntry(target string, source io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err = os.Remove(target); err != nil {
			return err
		}
	}
	if mode == 0 {
		mode = 0644
	}
	writer, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, source)
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	return err
}

func containedPath(root, name string) (string, error) {
	target := filepath.Join(root, name)
	relative, err := filepath.Rel(root, target)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry escapes extraction directory: %q", name)
	}
	return target, nil
}

// refuseLinkedParents rejects a target whose existing parent directories
// (below root) include a symbolic link, so nothing is written through one.
func refuseLinkedParents(root, target string) error {
	relative, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil {
		return err
	}
	if relative == "." || relative == ".." {
		return nil
	}
	current := root
	for _, part := range strings.Split(relative, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("archive entry is beneath a symbolic link: %q", target)
		}
	}
	return nil
}
