package remote

import (
	"context"
	"io"

	"github.com/smarty/glpkg/contracts"
)

// OfflineClient refuses every call. It stands in for the API when the server
// must not be contacted.
type OfflineClient struct{}

func NewOfflineClient() *OfflineClient {
	return &OfflineClient{}
}

func (this *OfflineClient) FindProject(context.Context, string) (contracts.ProjectInfo, error) {
	return contracts.ProjectInfo{}, contracts.ErrOffline
}

func (this *OfflineClient) ListPackages(context.Context, int) ([]contracts.Package, error) {
	return nil, contracts.ErrOffline
}

func (this *OfflineClient) ListPackageFiles(context.Context, int, int) ([]contracts.PackageFile, error) {
	return nil, contracts.ErrOffline
}

func (this *OfflineClient) DownloadPackageFile(context.Context, contracts.DownloadRequest) (io.ReadCloser, error) {
	return nil, contracts.ErrOffline
}
