package core

import (
	"context"
	"fmt"

	"github.com/smarty/glpkg/contracts"
)

// PackageRegistry lists the packages of one project. Listings are fetched once
// and shared by every caller.
type PackageRegistry struct {
	lister    contracts.PackageLister
	projectID int
	packages  *memo[[]contracts.Package]
	files     *memo[[]contracts.PackageFile]
}

func NewPackageRegistry(lister contracts.PackageLister, projectID int) *PackageRegistry {
	return &PackageRegistry{
		lister:    lister,
		projectID: projectID,
		packages:  newMemo[[]contracts.Package](),
		files:     newMemo[[]contracts.PackageFile](),
	}
}

func (this *PackageRegistry) ProjectID() int {
	return this.projectID
}

func (this *PackageRegistry) Packages(ctx context.Context) ([]contracts.Package, error) {
	return this.packages.Get("", func() ([]contracts.Package, error) {
		return this.lister.ListPackages(ctx, this.projectID)
	})
}

func (this *PackageRegistry) FindPackageID(ctx context.Context, name, version string) (int, error) {
	packages, err := this.Packages(ctx)
	if err != nil {
		return 0, err
	}
	for _, item := range packages {
		if item.Name == name && item.Version == version {
			return item.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: [%s @ %s] in project %d", contracts.ErrPackageNotFound, name, version, this.projectID)
}

func (this *PackageRegistry) PackageFiles(ctx context.Context, name, version string) ([]contracts.PackageFile, error) {
	return this.files.Get(name+"@"+version, func() ([]contracts.PackageFile, error) {
		packageID, err := this.FindPackageID(ctx, name, version)
		if err != nil {
			return nil, err
		}
		return this.lister.ListPackageFiles(ctx, this.projectID, packageID)
	})
}

// FindPackageFile returns the newest upload of fileName, since a package may
// hold several files with the same name.
func (this *PackageRegistry) FindPackageFile(ctx context.Context, name, version, fileName string) (contracts.PackageFile, error) {
	files, err := this.PackageFiles(ctx, name, version)
	if err != nil {
		return contracts.PackageFile{}, err
	}
	var newest contracts.PackageFile
	found := false
	for _, file := range files {
		if file.FileName == fileName && (!found || file.ID > newest.ID) {
			newest, found = file, true
		}
	}
	if !found {
		return contracts.PackageFile{}, fmt.Errorf("%w: %q in [%s @ %s]", contracts.ErrPackageFileNotFound, fileName, name, version)
	}
	return newest, nil
}
