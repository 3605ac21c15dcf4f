package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smartystreets/assertions/should"
	"github.com/smartystreets/gunit"
	"github.com/smartystreets/logging"

	"github.com/smarty/glpkg/contracts"
	"github.com/smarty/glpkg/shell"
)

func TestSessionFixture(t *testing.T) {
	gunit.Run(new(SessionFixture), t)
}

type SessionFixture struct {
	*gunit.Fixture

	gitlab    *FakeGitLab
	servers   []string
	clientErr error
	session   *Session
}

func (this *SessionFixture) Setup() {
	this.gitlab = NewFakeGitLab()
	this.gitlab.projects["group/tools"] = 7
	this.gitlab.packages[7] = []contracts.Package{{ID: 3, Name: "tools", Version: "1.0"}}
	this.gitlab.files[3] = []contracts.PackageFile{{ID: 30, PackageID: 3, FileName: "tools.zip"}}
	this.gitlab.downloads["tools.zip"] = "zip"
	this.session = NewSession(SessionSettings{
		ServerAddress:   testServer + "/",
		OutputDirectory: "out",
	}, this.clients, shell.NewInMemoryFileSystem(), &FakeExtractor{})
	this.session.logger = logging.Capture()
}

func (this *SessionFixture) clients(server string) (contracts.GitLab, error) {
	this.servers = append(this.servers, server)
	if this.clientErr != nil {
		return nil, this.clientErr
	}
	return this.gitlab, nil
}

func (this *SessionFixture) TestDefaultServerIsSharedAndNormalized() {
	first, err := this.session.Server("")
	second, _ := this.session.Server(testServer)

	this.So(err, should.BeNil)
	this.So(first, should.Equal, second)
	this.So(first.Address(), should.Equal, testServer)
	this.So(this.servers, should.Resemble, []string{testServer})
}

func (this *SessionFixture) TestClientFailureIsNotRemembered() {
	this.clientErr = errors.New("bad server")
	_, err := this.session.Server("")
	this.clientErr = nil

	server, retryErr := this.session.Server("")

	this.So(err, should.NotBeNil)
	this.So(retryErr, should.BeNil)
	this.So(server, should.NotBeNil)
}

func (this *SessionFixture) TestProjectResolvedOnce() {
	server, _ := this.session.Server("")

	first, err := server.Project(context.Background(), "group/tools")
	second, _ := server.Project(context.Background(), "group/tools")

	this.So(err, should.BeNil)
	this.So(first, should.Equal, second)
	this.So(first.ID(), should.Equal, 7)
	this.So(first.Reference(), should.Equal, "group/tools")
	this.So(this.gitlab.calls, should.Equal, 1)
}

func (this *SessionFixture) TestPathAndNumericReferenceShareRegistry() {
	server, _ := this.session.Server("")

	byPath, _ := server.Project(context.Background(), "group/tools")
	byID, _ := server.Project(context.Background(), "7")

	this.So(byPath.Registry(), should.Equal, byID.Registry())
}

func (this *SessionFixture) TestUnresolvedProject() {
	server, _ := this.session.Server("")

	_, err := server.Project(context.Background(), "group/missing")

	this.So(errors.Is(err, contracts.ErrProjectUnresolved), should.BeTrue)
}

func (this *SessionFixture) TestArtifactIsSharedPerKey() {
	spec := contracts.ArtifactSpec{Project: "group/tools", Package: "tools", Version: "1.0", FileName: "tools.zip"}

	first, err := this.session.Artifact(context.Background(), spec)
	second, _ := this.session.Artifact(context.Background(), spec)

	this.So(err, should.BeNil)
	this.So(first, should.Equal, second)
	this.So(first.DownloadPath(), should.Equal, "out/packages/gitlab.example.com/7/tools/1.0/tools.zip")
}

func (this *SessionFixture) TestArtifactDownloadsThroughSession() {
	spec := contracts.ArtifactSpec{Project: "group/tools", Package: "tools", Version: "1.0", FileName: "tools.zip"}
	artifact, _ := this.session.Artifact(context.Background(), spec)

	decision, err := artifact.Download(context.Background())

	this.So(err, should.BeNil)
	this.So(decision, should.Equal, contracts.DecisionDownload)
	this.So(this.gitlab.requests[0].ProjectID, should.Equal, 7)
}

func (this *SessionFixture) TestArtifactsSharingADownloadFetchItOnce() {
	this.gitlab.files[3][0].FileSHA256 = sha256Hex("zip")
	spec := contracts.ArtifactSpec{Project: "group/tools", Package: "tools", Version: "1.0", FileName: "tools.zip"}
	copied := spec
	copied.Directory = "copy"
	first, _ := this.session.Artifact(context.Background(), spec)
	second, _ := this.session.Artifact(context.Background(), copied)
	this.So(first.Key(), should.NotEqual, second.Key())
	this.So(first.DownloadPath(), should.Equal, second.DownloadPath())

	this.gitlab.hold = make(chan struct{})
	results := make(chan error, 2)
	go func() { _, err := first.Download(context.Background()); results <- err }()
	for this.gitlab.DownloadCalls() == 0 {
		time.Sleep(time.Millisecond)
	}
	go func() { _, err := second.Download(context.Background()); results <- err }()
	time.Sleep(time.Millisecond * 20)
	close(this.gitlab.hold)

	this.So(<-results, should.BeNil)
	this.So(<-results, should.BeNil)
	this.So(this.gitlab.DownloadCalls(), should.Equal, 1)
	content, err := this.session.storage.ReadFile(first.DownloadPath())
	this.So(err, should.BeNil)
	this.So(string(content), should.Equal, "zip")
}
