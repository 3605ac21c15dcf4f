package remote

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/smartystreets/clock"
	"github.com/smartystreets/logging"

	"github.com/smarty/glpkg/contracts"
)

// RetryClient repeats API calls that fail with a transient error (transport
// failures, 429 and 5xx responses) up to maxRetry more times.
type RetryClient struct {
	sleeper  *clock.Sleeper
	logger   *logging.Logger
	inner    contracts.GitLab
	maxRetry int
}

func NewRetryClient(inner contracts.GitLab, maxRetry int) *RetryClient {
	return &RetryClient{inner: inner, maxRetry: maxRetry}
}

func (this *RetryClient) FindProject(ctx context.Context, path string) (info contracts.ProjectInfo, err error) {
	err = this.retry(ctx, "project lookup", func() (err error) {
		info, err = this.inner.FindProject(ctx, path)
		return err
	})
	return info, err
}

func (this *RetryClient) ListPackages(ctx context.Context, projectID int) (packages []contracts.Package, err error) {
	err = this.retry(ctx, "package listing", func() (err error) {
		packages, err = this.inner.ListPackages(ctx, projectID)
		return err
	})
	return packages, err
}

func (this *RetryClient) ListPackageFiles(ctx context.Context, projectID, packageID int) (files []contracts.PackageFile, err error) {
	err = this.retry(ctx, "package file listing", func() (err error) {
		files, err = this.inner.ListPackageFiles(ctx, projectID, packageID)
		return err
	})
	return files, err
}

func (this *RetryClient) DownloadPackageFile(ctx context.Context, request contracts.DownloadRequest) (body io.ReadCloser, err error) {
	err = this.retry(ctx, "download", func() (err error) {
		body, err = this.inner.DownloadPackageFile(ctx, request)
		return err
	})
	return body, err
}

func (this *RetryClient) retry(ctx context.Context, operation string, attempt func() error) (err error) {
	for x := 0; x <= this.maxRetry; x++ {
		err = attempt()
		if err == nil {
			return nil
		}
		if !errors.Is(err, contracts.ErrRetryable) || ctx.Err() != nil {
			return err
		}
		if x < this.maxRetry {
			this.logger.Printf("[WARN] %s failed, retry imminent: %s", operation, err)
			if napErr := this.nap(ctx, time.Second*3); napErr != nil {
				return napErr
			}
		}
	}
	return err
}

// nap returns early with the context's error when it is cancelled.
func (this *RetryClient) nap(ctx context.Context, duration time.Duration) error {
	awake := make(chan struct{})
	go func() {
		this.sleeper.Sleep(duration)
		close(awake)
	}()
	select {
	case <-awake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
