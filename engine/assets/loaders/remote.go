package loaders

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

const defaultRemoteTimeout = 30 * time.Second

// RemoteLoadingStrategy fetches archives from <base>/gfx/ and raw assets from
// <base>/assets/ on a connected mode server.
type RemoteLoadingStrategy struct {
	base   *url.URL
	client *http.Client
}

// NewRemoteLoadingStrategy uses a private client so Close only drops its own
// idle connections. A zero timeout selects the default.
func NewRemoteLoadingStrategy(baseURL string, timeout time.Duration) (*RemoteLoadingStrategy, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connected mode url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("connected mode url %q: unsupported scheme %q", baseURL, u.Scheme)
	}
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &RemoteLoadingStrategy{
		base: u,
		client: &http.Client{
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}, nil
}

func (s *RemoteLoadingStrategy) URL() string {
	return s.base.String()
}

func (s *RemoteLoadingStrategy) FetchArchive(ctx context.Context, fileID int) (*metadata.Resource, error) {
	name := ArchiveName(fileID)
	return s.fetch(ctx, metadata.ResourceTypeArchive, name, "gfx", name)
}

func (s *RemoteLoadingStrategy) FetchRaw(ctx context.Context, path string) (*metadata.Resource, error) {
	return s.fetch(ctx, metadata.ResourceTypeRaw, path, "assets", path)
}

func (s *RemoteLoadingStrategy) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *RemoteLoadingStrategy) fetch(ctx context.Context, t metadata.ResourceType, name string, elem ...string) (*metadata.Resource, error) {
	target := s.base.JoinPath(elem...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrNetwork, target, err)
	}
	return metadata.NewResource(t, name, target.String(), data), nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", core.ErrNotFound, resp.Status)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", core.ErrPermissionDenied, resp.Status)
	default:
		return fmt.Errorf("%w: %s", core.ErrNetwork, resp.Status)
	}
}
