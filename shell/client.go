package shell

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/smarty/glpkg/contracts"
)

func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:       timeout,
		CheckRedirect: dropTokensOffHost,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          32,
			IdleConnTimeout:       32 * time.Second,
			TLSHandshakeTimeout:   timeout,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}

// NewDownloadClient has no overall deadline since archives may be large;
// connection setup still fails fast.
func NewDownloadClient(timeout time.Duration) *http.Client {
	client := NewHTTPClient(timeout)
	client.Timeout = 0
	client.Transport.(*http.Transport).ResponseHeaderTimeout = timeout
	return client
}

// Generic package downloads may redirect to object storage; the API token
// stays with the API host.
func dropTokensOffHost(request *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	if !strings.EqualFold(request.URL.Host, via[0].URL.Host) {
		request.Header.Del(contracts.JobTokenHeader)
		request.Header.Del(contracts.PrivateTokenHeader)
	}
	return nil
}
