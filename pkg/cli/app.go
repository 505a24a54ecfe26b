package cli

import (
	"context"
	"io"
	"time"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/repository"
	"github.com/codenest/promptcanvas/pkg/usecase/download"
	"github.com/codenest/promptcanvas/pkg/usecase/generation"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/codenest/promptcanvas/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/patrickmn/go-cache"
	"github.com/urfave/cli/v3"
)

const imageCacheTTL = 30 * time.Minute

// newClipboard is replaced in tests
var newClipboard = adapter.NewClipboard

// app bundles the dependencies shared by commands
type app struct {
	cfg        *config
	w          io.Writer
	repo       *repository.Repository
	ctrl       *generation.Controller
	notifier   notify.Notifier
	display    *terminalDisplay
	downloader *download.UseCase
	clipboard  adapter.Clipboard
	close      func()
}

type appOption func(*appOptions)

type appOptions struct {
	output io.Writer
}

// withOutput sends user output (image paths, results, spinner) to w instead of
// the command writer
func withOutput(w io.Writer) appOption {
	return func(o *appOptions) {
		o.output = w
	}
}

// newApp sets up logging and config, opens the history backend and restores
// the last session
func (cfg *config) newApp(ctx context.Context, c *cli.Command, opts ...appOption) (context.Context, *app, error) {
	o := appOptions{output: c.Root().Writer}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, err := cfg.setup(ctx, c)
	if err != nil {
		return ctx, nil, err
	}

	kv, closer, err := cfg.newKVStore(ctx)
	if err != nil {
		return ctx, nil, err
	}

	w := o.output
	repo := repository.New(kv)
	notifier := notify.NewToast(c.Root().ErrWriter)
	display := newTerminalDisplay(w, cfg.outputDir)
	fetcher := adapter.NewHTTPImageFetcher()

	ctrl := generation.New(fetcher, repo, notifier,
		generation.WithBuilder(generation.NewBuilder(generation.WithEndpoint(cfg.endpoint))),
		generation.WithDisplay(display),
		generation.WithSessionStore(repo),
		generation.WithImageCache(cache.New(imageCacheTTL, time.Hour), imageCacheTTL),
	)

	session, err := repo.LoadSession(ctx)
	if err != nil {
		closer()
		return ctx, nil, goerr.Wrap(err, "failed to restore session")
	}
	ctrl.Restore(*session)
	logging.From(ctx).Debug("session restored", "seed", session.Seed, "actions", session.ActionsEnabled)

	return ctx, &app{
		cfg:        cfg,
		w:          w,
		repo:       repo,
		ctrl:       ctrl,
		notifier:   notifier,
		display:    display,
		downloader: download.New(fetcher, notifier, cfg.outputDir),
		clipboard:  newClipboard(),
		close:      closer,
	}, nil
}
