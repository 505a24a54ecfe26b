package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/codenest/promptcanvas/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultFilename is used when no name is given
	DefaultFilename = "codenest-ai.png"

	defaultInterval = 200 * time.Millisecond
	defaultBurst    = 2
)

// UseCase saves generated images to local files. Every download fetches the
// image again; the bytes shown in the output area are not reused.
type UseCase struct {
	fetcher  adapter.ImageFetcher
	notifier notify.Notifier
	dir      string
	interval time.Duration
}

type Option func(*UseCase)

// WithInterval paces requests made by ExportAll. Zero disables pacing.
func WithInterval(d time.Duration) Option {
	return func(u *UseCase) {
		u.interval = d
	}
}

// New creates a UseCase writing into dir
func New(fetcher adapter.ImageFetcher, notifier notify.Notifier, dir string, opts ...Option) *UseCase {
	u := &UseCase{
		fetcher:  fetcher,
		notifier: notifier,
		dir:      dir,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Download fetches url and saves it as filename in the output directory. It
// returns the written path.
func (u *UseCase) Download(ctx context.Context, url, filename string) (string, error) {
	if url == "" {
		return "", goerr.Wrap(model.ErrNoSession, "nothing to download")
	}
	if filename == "" {
		filename = DefaultFilename
	}

	data, err := u.fetcher.FetchBytes(ctx, url)
	if err != nil {
		u.notifier.Notify("failed to fetch, network error", notify.Error)
		return "", err
	}

	path, err := writeFile(u.dir, filename, data)
	if err != nil {
		u.notifier.Notify("failed to download image, try saving it from the URL instead", notify.Error)
		return "", err
	}

	logging.From(ctx).Info("image downloaded", "url", url, "path", path, "size", len(data))
	return path, nil
}

// ExportAll downloads every record into dir concurrently. Files are named after
// the record seed; entries sharing a seed get their list position appended.
func (u *UseCase) ExportAll(ctx context.Context, records []model.GenerationRecord, dir string) ([]string, error) {
	if dir == "" {
		dir = u.dir
	}

	names := ExportNames(records)
	paths := make([]string, len(records))
	eg, egCtx := errgroup.WithContext(ctx)

	var limiter *rate.Limiter
	if u.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(u.interval), defaultBurst)
	}

	for i, rec := range records {
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return goerr.Wrap(err, "export cancelled")
				}
			}

			data, err := u.fetcher.FetchBytes(egCtx, rec.URL)
			if err != nil {
				return goerr.Wrap(err, "failed to fetch history entry", goerr.V("index", i+1), goerr.V("seed", rec.Seed))
			}

			path, err := writeFile(dir, names[i], data)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		u.notifier.Notify("failed to export history", notify.Error)
		return nil, err
	}

	u.notifier.Notify(fmt.Sprintf("exported %d images", len(paths)), notify.Success)
	logging.From(ctx).Info("history exported", "dir", dir, "count", len(paths))
	return paths, nil
}

// ExportNames returns the file name for each record
func ExportNames(records []model.GenerationRecord) []string {
	names := make([]string, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		seed := rec.Seed
		if seed == "" {
			seed = "unknown"
		}
		name := fmt.Sprintf("codenest-%s.png", seed)
		if seen[name] {
			name = fmt.Sprintf("codenest-%s-%d.png", seed, i+1)
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func writeFile(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create output directory", goerr.V("dir", dir))
	}

	// only the base name of filename is used
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", goerr.Wrap(err, "failed to write image", goerr.V("path", path))
	}
	return path, nil
}
