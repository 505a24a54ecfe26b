package adapter

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// ImageFetcher retrieves resources from the generation endpoint
type ImageFetcher interface {
	// FetchBytes returns the raw response body. Non-2xx responses are model.ErrNetwork.
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	// LoadImage fetches the URL and checks the body decodes as an image
	LoadImage(ctx context.Context, url string) (*model.Image, error)
}

// HTTPImageFetcher implements ImageFetcher over net/http. It sends no Referer and
// asks intermediaries not to store the response. No timeout or retry is applied.
type HTTPImageFetcher struct {
	client    *http.Client
	userAgent string
}

// HTTPOption configures HTTPImageFetcher
type HTTPOption func(*HTTPImageFetcher)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(f *HTTPImageFetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPImageFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPImageFetcher creates a fetcher
func NewHTTPImageFetcher(opts ...HTTPOption) *HTTPImageFetcher {
	f := &HTTPImageFetcher{
		client: &http.Client{
			// Redirects must not leak the original URL as referrer either
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				req.Header.Del("Referer")
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: "promptcanvas",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPImageFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNetwork, "invalid request", goerr.V("url", url), goerr.V("cause", err.Error()))
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Del("Referer")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNetwork, "request failed", goerr.V("url", url), goerr.V("cause", err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, goerr.Wrap(model.ErrNetwork, "unexpected status",
			goerr.V("url", url), goerr.V("status", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNetwork, "failed to read body", goerr.V("url", url), goerr.V("cause", err.Error()))
	}
	return data, nil
}

func (f *HTTPImageFetcher) LoadImage(ctx context.Context, url string) (*model.Image, error) {
	data, err := f.FetchBytes(ctx, url)
	if err != nil {
		return nil, goerr.Wrap(model.ErrImageLoad, "image unreachable", goerr.V("url", url), goerr.V("cause", err.Error()))
	}
	return DecodeImage(url, data)
}

// DecodeImage inspects data and fills the image metadata. Undecodable data is model.ErrImageLoad.
func DecodeImage(url string, data []byte) (*model.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, goerr.Wrap(model.ErrImageLoad, "undecodable image",
			goerr.V("url", url), goerr.V("detected", http.DetectContentType(data)))
	}

	return &model.Image{
		URL:      url,
		Data:     data,
		MimeType: "image/" + format,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}
