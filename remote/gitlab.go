package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/smarty/glpkg/contracts"
)

const (
	maxJSONResponseBytes = 10 << 20
	maxPages             = 1000
	pageSize             = 100
	userAgent            = "glpkg"
)

// GitLabClient talks to the GitLab REST API (v4). API listings and file
// downloads may use different HTTP clients so that large downloads are not
// bound by the API timeout.
type GitLabClient struct {
	client    *http.Client
	downloads *http.Client
	server    string
	token     contracts.Token
}

func NewGitLabClient(client, downloads *http.Client, server string, token contracts.Token) *GitLabClient {
	if downloads == nil {
		downloads = client
	}
	return &GitLabClient{
		client:    client,
		downloads: downloads,
		server:    strings.TrimRight(server, "/"),
		token:     token,
	}
}

func (this *GitLabClient) FindProject(ctx context.Context, path string) (info contracts.ProjectInfo, err error) {
	address := fmt.Sprintf("%s/projects/%s", this.server, EncodePathSegment(path))
	response, err := this.get(ctx, this.client, address)
	if err != nil {
		return contracts.ProjectInfo{}, fmt.Errorf("finding project %q: %w", path, err)
	}
	defer func() { _ = response.Body.Close() }()

	if err = json.NewDecoder(io.LimitReader(response.Body, maxJSONResponseBytes)).Decode(&info); err != nil {
		return contracts.ProjectInfo{}, fmt.Errorf("finding project %q: decoding response: %w", path, err)
	}
	return info, nil
}

func (this *GitLabClient) ListPackages(ctx context.Context, projectID int) ([]contracts.Package, error) {
	address := fmt.Sprintf("%s/projects/%d/packages?per_page=%d", this.server, projectID, pageSize)
	packages, err := listPages[contracts.Package](ctx, this, address)
	if err != nil {
		return nil, fmt.Errorf("listing packages of project %d: %w", projectID, err)
	}
	return packages, nil
}

func (this *GitLabClient) ListPackageFiles(ctx context.Context, projectID, packageID int) ([]contracts.PackageFile, error) {
	address := fmt.Sprintf("%s/projects/%d/packages/%d/package_files?pagination=keyset&order_by=id&sort=asc&per_page=%d",
		this.server, projectID, packageID, pageSize)
	files, err := listPages[contracts.PackageFile](ctx, this, address)
	if err != nil {
		return nil, fmt.Errorf("listing files of package %d: %w", packageID, err)
	}
	return files, nil
}

// DownloadPackageFile streams a file from the generic package endpoint. The
// caller closes the returned body.
func (this *GitLabClient) DownloadPackageFile(ctx context.Context, request contracts.DownloadRequest) (io.ReadCloser, error) {
	address := fmt.Sprintf("%s/projects/%d/packages/generic/%s/%s/%s",
		this.server,
		request.ProjectID,
		EncodePathSegment(request.PackageName),
		EncodePathSegment(request.PackageVersion),
		EncodePathSegment(request.FileName),
	)
	response, err := this.get(ctx, this.downloads, address)
	if err != nil {
		return nil, fmt.Errorf("downloading %q: %w", request.FileName, err)
	}
	return response.Body, nil
}

// listPages follows `Link: <...>; rel="next"` until the listing is exhausted.
func listPages[T any](ctx context.Context, this *GitLabClient, address string) ([]T, error) {
	var all []T
	for page := 0; page < maxPages && address != ""; page++ {
		response, err := this.get(ctx, this.client, address)
		if err != nil {
			return nil, err
		}

		var items []T
		err = json.NewDecoder(io.LimitReader(response.Body, maxJSONResponseBytes)).Decode(&items)
		_ = response.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		all = append(all, items...)

		address = nextPage(response)
	}
	if address != "" {
		return nil, fmt.Errorf("listing exceeds %d pages", maxPages)
	}
	return all, nil
}

func nextPage(response *http.Response) string {
	header := response.Header.Get("Link")
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start < 0 || end <= start {
			continue
		}
		next, err := response.Request.URL.Parse(part[start+1 : end])
		if err != nil {
			return ""
		}
		return next.String()
	}
	return ""
}

// get returns the response only for 200 OK; the caller closes its body.
func (this *GitLabClient) get(ctx context.Context, client *http.Client, address string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, address, http.NoBody)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", userAgent)
	if !this.token.IsZero() && this.isServerHost(request.URL) {
		request.Header.Set(this.token.Header, this.token.Value)
	}

	response, err := client.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", contracts.ErrRetryable, err)
	}
	if response.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 4096))
		_ = response.Body.Close()
		return nil, &contracts.StatusError{StatusCode: response.StatusCode, URL: redactURL(address)}
	}
	return response, nil
}

// Tokens are only attached for the configured server so a redirect or
// pagination link to another host never receives them.
func (this *GitLabClient) isServerHost(target *url.URL) bool {
	base, err := url.Parse(this.server)
	if err != nil {
		return false
	}
	return strings.EqualFold(target.Host, base.Host)
}

func redactURL(address string) string {
	parsed, err := url.Parse(address)
	if err != nil {
		return "<invalid-url>"
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}
