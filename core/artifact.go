package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/smartystreets/logging"
	"golang.org/x/sync/singleflight"

	"github.com/smarty/glpkg/contracts"
)

// ProgressFactory returns a writer that reports bytes written to it; size is
// -1 when unknown. Closing the writer finishes the report.
type ProgressFactory func(size int64, description string) io.WriteCloser

type ArtifactStorage interface {
	contracts.FileOpener
	contracts.FileCreator
	contracts.FileChecker
	contracts.Renamer
	contracts.Deleter
}

type ArtifactSettings struct {
	ServerAddress   string
	OutputDirectory string
	Offline         bool
	Progress        ProgressFactory
}

// Artifact is one package file with its local download and extraction paths.
type Artifact struct {
	logger     *logging.Logger
	spec       contracts.ArtifactSpec
	registry   *PackageRegistry
	downloader contracts.FileDownloader
	storage    ArtifactStorage
	extractor  contracts.Extractor
	settings   ArtifactSettings
	downloads  *singleflight.Group
}

func NewArtifact(
	spec contracts.ArtifactSpec,
	registry *PackageRegistry,
	downloader contracts.FileDownloader,
	storage ArtifactStorage,
	extractor contracts.Extractor,
	settings ArtifactSettings,
) *Artifact {
	return &Artifact{
		spec:       spec,
		registry:   registry,
		downloader: downloader,
		storage:    storage,
		extractor:  extractor,
		settings:   settings,
		downloads:  new(singleflight.Group),
	}
}

func (this *Artifact) Spec() contracts.ArtifactSpec { return this.spec }
func (this *Artifact) Key() string                  { return this.spec.Key() }
func (this *Artifact) Title() string                { return this.spec.Title() }

// DownloadPath is <output>/packages/<server host>/<project id>/<package>/<version>/<file>.
func (this *Artifact) DownloadPath() string {
	return filepath.Join(
		this.settings.OutputDirectory,
		contracts.DownloadsDirectory,
		serverDirectory(this.settings.ServerAddress),
		strconv.Itoa(this.registry.ProjectID()),
		this.spec.Package,
		this.spec.Version,
		this.spec.FileName,
	)
}

func serverDirectory(address string) string {
	parsed, err := url.Parse(address)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(parsed.Host, ":", "_")
}

func (this *Artifact) ExtractPath() string {
	return filepath.Join(this.settings.OutputDirectory, this.spec.DirectoryName())
}

func (this *Artifact) partialPath() string {
	return this.DownloadPath() + ".part"
}

// Check decides whether the local copy must be (re)downloaded. Offline mode
// never consults the registry.
func (this *Artifact) Check(ctx context.Context) (contracts.DownloadDecision, contracts.PackageFile, error) {
	_, statErr := this.storage.Stat(this.DownloadPath())
	if this.settings.Offline {
		if statErr != nil {
			return contracts.DecisionOffline, contracts.PackageFile{},
				fmt.Errorf("%w: %s is not available locally: %w", contracts.ErrArtifactUnavailable, this.Title(), contracts.ErrOffline)
		}
		return contracts.DecisionOffline, contracts.PackageFile{}, nil
	}

	remote, err := this.registry.FindPackageFile(ctx, this.spec.Package, this.spec.Version, this.spec.FileName)
	if err != nil {
		return contracts.DecisionDownload, contracts.PackageFile{}, err
	}
	if statErr != nil || remote.HashType() == contracts.HashNone {
		return contracts.DecisionDownload, remote, nil
	}
	local, err := FileDigest(this.storage, this.DownloadPath(), remote.HashType())
	if err != nil {
		this.logger.Printf("[WARN] Could not hash %q, downloading again: %s", this.DownloadPath(), err)
		return contracts.DecisionDownload, remote, nil
	}
	if sameDigest(local, remote.Hash()) {
		return contracts.DecisionSkip, remote, nil
	}
	return contracts.DecisionDownload, remote, nil
}

// Download fetches the file unless the local copy is current. Concurrent
// downloads of the same path, from this artifact or another one sharing its
// download group, wait for a single fetch.
func (this *Artifact) Download(ctx context.Context) (contracts.DownloadDecision, error) {
	result, err, _ := this.downloads.Do(this.DownloadPath(), func() (any, error) {
		return this.download(ctx)
	})
	decision, _ := result.(contracts.DownloadDecision)
	return decision, err
}

func (this *Artifact) download(ctx context.Context) (contracts.DownloadDecision, error) {
	decision, remote, err := this.Check(ctx)
	if err != nil {
		return decision, err
	}
	switch decision {
	case contracts.DecisionSkip:
		this.logger.Printf("Local copy of %s is up to date.", this.Title())
		return decision, nil
	case contracts.DecisionOffline:
		this.logger.Printf("Offline: using existing local copy of %s.", this.Title())
		return decision, nil
	}

	this.logger.Printf("Downloading %s into %q.", this.Title(), this.DownloadPath())
	if err = this.fetch(ctx, remote); err != nil {
		return decision, fmt.Errorf("download %s: %w", this.Title(), err)
	}
	return decision, nil
}

func (this *Artifact) fetch(ctx context.Context, remote contracts.PackageFile) error {
	body, err := this.downloader.DownloadPackageFile(ctx, contracts.DownloadRequest{
		ProjectID:      this.registry.ProjectID(),
		PackageName:    this.spec.Package,
		PackageVersion: this.spec.Version,
		FileName:       this.spec.FileName,
	})
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	partial := this.partialPath()
	actual, err := this.writePartial(partial, body, remote)
	if err != nil {
		_ = this.storage.Delete(partial)
		return err
	}
	if remote.HashType() != contracts.HashNone && !sameDigest(actual, remote.Hash()) {
		_ = this.storage.Delete(partial)
		return &contracts.ChecksumError{
			FileName: this.spec.FileName,
			HashType: remote.HashType(),
			Expected: remote.Hash(),
			Actual:   actual,
		}
	}
	return this.storage.Rename(partial, this.DownloadPath())
}

func (this *Artifact) writePartial(path string, body io.Reader, remote contracts.PackageFile) (string, error) {
	writer, err := this.storage.Create(path)
	if err != nil {
		return "", err
	}

	var hashed *HashReader
	if hasher := remote.HashType().New(); hasher != nil {
		hashed = NewHashReader(body, hasher)
		body = hashed
	}

	var target io.Writer = writer
	var progress io.WriteCloser
	if this.settings.Progress != nil {
		size := remote.Size
		if size <= 0 {
			size = -1
		}
		progress = this.settings.Progress(size, this.spec.FileName)
		target = io.MultiWriter(writer, progress)
	}

	_, err = io.Copy(target, body)
	if progress != nil {
		_ = progress.Close()
	}
	if closeErr := writer.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	if hashed == nil {
		return "", nil
	}
	return hashed.Digest(), nil
}

// Extract unpacks the downloaded file into the extraction directory,
// overwriting whatever is there.
func (this *Artifact) Extract(_ context.Context) error {
	if _, err := this.storage.Stat(this.DownloadPath()); err != nil {
		return fmt.Errorf("%w: %s has not been downloaded", contracts.ErrArtifactUnavailable, this.Title())
	}
	err := this.extractor.Extract(this.DownloadPath(), this.ExtractPath(), this.spec.ArchiveSuffix())
	if err != nil {
		return fmt.Errorf("extract %s: %w", this.Title(), err)
	}
	return nil
}

// Clean removes the downloaded file and any leftover partial download.
func (this *Artifact) Clean() error {
	this.logger.Printf("Removing %q.", this.DownloadPath())
	return errors.Join(
		this.storage.Delete(this.DownloadPath()),
		this.storage.Delete(this.partialPath()),
	)
}
