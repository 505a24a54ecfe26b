package adapter_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/m-mizutani/gt"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	buf := &bytes.Buffer{}
	gt.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestFetchBytes(t *testing.T) {
	var gotReferer, gotCache string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
		gotCache = r.Header.Get("Cache-Control")
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := adapter.NewHTTPImageFetcher()
	data, err := f.FetchBytes(context.Background(), srv.URL+"/prompt/x")
	gt.NoError(t, err)
	gt.Equal(t, string(data), "payload")
	gt.Equal(t, gotReferer, "")
	gt.Equal(t, gotCache, "no-store")
}

func TestFetchBytesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := adapter.NewHTTPImageFetcher(adapter.WithHTTPClient(srv.Client()))
	_, err := f.FetchBytes(context.Background(), srv.URL)
	gt.True(t, errors.Is(err, model.ErrNetwork))
}

func TestFetchBytesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := adapter.NewHTTPImageFetcher().FetchBytes(context.Background(), url)
	gt.True(t, errors.Is(err, model.ErrNetwork))
}

func TestLoadImage(t *testing.T) {
	body := pngBytes(t, 4, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	img, err := adapter.NewHTTPImageFetcher().LoadImage(context.Background(), srv.URL)
	gt.NoError(t, err)
	gt.Equal(t, img.Width, 4)
	gt.Equal(t, img.Height, 3)
	gt.Equal(t, img.MimeType, "image/png")
	gt.Equal(t, img.URL, srv.URL)
	gt.Equal(t, len(img.Data), len(body))
}

func TestLoadImageFailures(t *testing.T) {
	t.Run("undecodable body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>not an image</html>"))
		}))
		defer srv.Close()

		_, err := adapter.NewHTTPImageFetcher().LoadImage(context.Background(), srv.URL)
		gt.True(t, errors.Is(err, model.ErrImageLoad))
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := adapter.NewHTTPImageFetcher().LoadImage(context.Background(), srv.URL)
		gt.True(t, errors.Is(err, model.ErrImageLoad))
	})
}
