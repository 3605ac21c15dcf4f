package shell

import (
	"bytes"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/smarty/glpkg/contracts"
)

// InMemoryFileSystem is a map-backed stand-in for DiskFileSystem.
type InMemoryFileSystem struct {
	mutex      sync.Mutex
	fileSystem map[string]*file
	errors     map[string]error
}

func NewInMemoryFileSystem() *InMemoryFileSystem {
	return &InMemoryFileSystem{
		fileSystem: make(map[string]*file),
		errors:     make(map[string]error),
	}
}

// Fail makes every operation on path return err.
func (this *InMemoryFileSystem) Fail(path string, err error) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.errors[path] = err
}

func (this *InMemoryFileSystem) Stat(path string) (contracts.FileInfo, error) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if err := this.errors[path]; err != nil {
		return nil, err
	}
	target, found := this.fileSystem[path]
	if !found {
		return nil, os.ErrNotExist
	}
	return target, nil
}

func (this *InMemoryFileSystem) Listing() (files []contracts.FileInfo) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	for _, file := range this.fileSystem {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path() < files[j].Path() })
	return files
}

func (this *InMemoryFileSystem) Open(path string) (io.ReadCloser, error) {
	content, err := this.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (this *InMemoryFileSystem) Create(path string) (io.WriteCloser, error) {
	if err := this.WriteFile(path, nil); err != nil {
		return nil, err
	}
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return &writer{parent: this, file: this.fileSystem[path]}, nil
}

func (this *InMemoryFileSystem) ReadFile(path string) ([]byte, error) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if err := this.errors[path]; err != nil {
		return nil, err
	}
	target, found := this.fileSystem[path]
	if !found {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), target.contents...), nil
}

func (this *InMemoryFileSystem) WriteFile(path string, content []byte) error {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if err := this.errors[path]; err != nil {
		return err
	}
	this.fileSystem[path] = &file{
		path:     path,
		contents: append([]byte(nil), content...),
		mod:      InMemoryModTime,
	}
	return nil
}

func (this *InMemoryFileSystem) Rename(source, target string) error {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if err := this.errors[target]; err != nil {
		return err
	}
	moved, found := this.fileSystem[source]
	if !found {
		return os.ErrNotExist
	}
	delete(this.fileSystem, source)
	moved.path = target
	this.fileSystem[target] = moved
	return nil
}

func (this *InMemoryFileSystem) Delete(path string) error {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	if err := this.errors[path]; err != nil {
		return err
	}
	delete(this.fileSystem, path)
	return nil
}

/////////////////////////////////////////////////

type file struct {
	path     string
	contents []byte
	mod      time.Time
}

var InMemoryModTime = time.Now()

func (this *file) Path() string       { return this.path }
func (this *file) Size() int64        { return int64(len(this.contents)) }
func (this *file) ModTime() time.Time { return this.mod }

type writer struct {
	parent *InMemoryFileSystem
	file   *file
}

func (this *writer) Write(p []byte) (n int, err error) {
	this.parent.mutex.Lock()
	defer this.parent.mutex.Unlock()
	this.file.contents = append(this.file.contents, p...)
	return len(p), nil
}

func (this *writer) Close() error {
	return nil
}
