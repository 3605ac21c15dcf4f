package contracts

import (
	"context"
	"io"
)

type GitLab interface {
	ProjectFinder
	PackageLister
	FileDownloader
}

type ProjectFinder interface {
	FindProject(ctx context.Context, path string) (ProjectInfo, error)
}

type PackageLister interface {
	ListPackages(ctx context.Context, projectID int) ([]Package, error)
	ListPackageFiles(ctx context.Context, projectID, packageID int) ([]PackageFile, error)
}

type FileDownloader interface {
	DownloadPackageFile(ctx context.Context, request DownloadRequest) (io.ReadCloser, error)
}

type DownloadRequest struct {
	ProjectID      int
	PackageName    string
	PackageVersion string
	FileName       string
}

type Token struct {
	Header string
	Value  string
}

const (
	JobTokenHeader     = "JOB-TOKEN"
	PrivateTokenHeader = "PRIVATE-TOKEN"
)

func (this Token) IsZero() bool {
	return this.Value == ""
}
