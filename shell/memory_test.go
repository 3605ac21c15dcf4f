package shell

import (
	"errors"
	"io"
	"testing"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
)

func TestMemoryFixture(t *testing.T) {
	gunit.Run(new(MemoryFixture), t)
}

type MemoryFixture struct {
	*gunit.Fixture
	fileSystem *InMemoryFileSystem
}

func (this *MemoryFixture) Setup() {
	this.fileSystem = NewInMemoryFileSystem()
}

func (this *MemoryFixture) TestWriteFileReadFile() {
	_ = this.fileSystem.WriteFile("/file.txt", []byte("Hello World"))

	raw, err := this.fileSystem.ReadFile("/file.txt")

	this.So(err, should.BeNil)
	this.So(raw, should.Resemble, []byte("Hello World"))
}

func (this *MemoryFixture) TestReadFileNonExistingFile() {
	raw, err := this.fileSystem.ReadFile("/file.txt")

	this.So(raw, should.BeNil)
	this.So(err, should.NotBeNil)
}

func (this *MemoryFixture) TestOpenWrittenFile() {
	_ = this.fileSystem.WriteFile("/file.txt", []byte("Hello World"))

	reader, err := this.fileSystem.Open("/file.txt")
	this.So(err, should.BeNil)
	raw, _ := io.ReadAll(reader)

	this.So(raw, should.Resemble, []byte("Hello World"))
}

func (this *MemoryFixture) TestCreate() {
	writer, err := this.fileSystem.Create("/file.txt")
	this.So(err, should.BeNil)
	_, _ = writer.Write([]byte("Hello "))
	_, _ = writer.Write([]byte("World"))
	_ = writer.Close()

	raw, _ := this.fileSystem.ReadFile("/file.txt")
	this.So(raw, should.Resemble, []byte("Hello World"))
}

func (this *MemoryFixture) TestListing() {
	_ = this.fileSystem.WriteFile("file1.txt", []byte("1"))
	_ = this.fileSystem.WriteFile("file0.txt", []byte(""))
	_ = this.fileSystem.WriteFile("sub/file0.txt", []byte("12"))

	fileInfo := this.fileSystem.Listing()

	this.So(fileInfo, should.HaveLength, 3)
	this.So(fileInfo[0].Path(), should.Equal, "file0.txt")
	this.So(fileInfo[0].Size(), should.Equal, 0)
	this.So(fileInfo[1].Path(), should.Equal, "file1.txt")
	this.So(fileInfo[1].Size(), should.Equal, 1)
	this.So(fileInfo[2].Path(), should.Equal, "sub/file0.txt")
	this.So(fileInfo[2].Size(), should.Equal, 2)
}

func (this *MemoryFixture) TestRename() {
	_ = this.fileSystem.WriteFile("/a.part", []byte("a"))

	err := this.fileSystem.Rename("/a.part", "/a")

	this.So(err, should.BeNil)
	_, err = this.fileSystem.Stat("/a.part")
	this.So(err, should.NotBeNil)
	info, err := this.fileSystem.Stat("/a")
	this.So(err, should.BeNil)
	this.So(info.Path(), should.Equal, "/a")
}

func (this *MemoryFixture) TestDeleteIsRepeatable() {
	_ = this.fileSystem.WriteFile("/file.txt", []byte("Hello World"))

	this.So(this.fileSystem.Delete("/file.txt"), should.BeNil)
	this.So(this.fileSystem.Delete("/file.txt"), should.BeNil)
	this.So(this.fileSystem.Listing(), should.BeEmpty)
}

func (this *MemoryFixture) TestInjectedFailure() {
	this.fileSystem.Fail("/file.txt", fileSystemError)

	this.So(this.fileSystem.WriteFile("/file.txt", nil), should.Equal, fileSystemError)
	_, err := this.fileSystem.Stat("/file.txt")
	this.So(err, should.Equal, fileSystemError)
}

var fileSystemError = errors.New("this is a file system error")
