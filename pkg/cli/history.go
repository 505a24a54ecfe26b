package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/usecase/download"
	"github.com/codenest/promptcanvas/pkg/usecase/gallery"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show and act on recent generations",
		Commands: []*cli.Command{
			historyListCommand(),
			historyClearCommand(),
			historyUseCommand(),
			historyDownloadCommand(),
			historyExportCommand(),
		},
	}
}

// appCommand builds a subcommand whose action receives an initialized app
func appCommand(name, usage, argsUsage string, extra []cli.Flag, action func(ctx context.Context, a *app, c *cli.Command) error) *cli.Command {
	var cfg config

	flags := append(extra, globalFlags(&cfg)...)
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: argsUsage,
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, a, err := cfg.newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()
			return action(ctx, a, c)
		},
	}
}

func historyListCommand() *cli.Command {
	return appCommand("list", "List recent generations, newest first", "", nil,
		func(ctx context.Context, a *app, c *cli.Command) error {
			return a.renderHistory(ctx)
		})
}

func historyClearCommand() *cli.Command {
	return appCommand("clear", "Remove all recent generations", "", nil,
		func(ctx context.Context, a *app, c *cli.Command) error {
			return a.clearHistory(ctx)
		})
}

func historyUseCommand() *cli.Command {
	return appCommand("use", "Show a history entry again and make it the current image", "<n>", nil,
		func(ctx context.Context, a *app, c *cli.Command) error {
			n, err := entryNumber(c.Args().First())
			if err != nil {
				return err
			}
			return a.useEntry(ctx, n)
		})
}

func historyDownloadCommand() *cli.Command {
	var name string
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "File name to save as",
			Value:       download.DefaultFilename,
			Destination: &name,
		},
	}

	return appCommand("download", "Download a history entry", "<n>", flags,
		func(ctx context.Context, a *app, c *cli.Command) error {
			n, err := entryNumber(c.Args().First())
			if err != nil {
				return err
			}
			return a.downloadEntry(ctx, n, name)
		})
}

func historyExportCommand() *cli.Command {
	var dir string
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Aliases:     []string{"d"},
			Usage:       "Directory to export into; defaults to the output directory",
			Destination: &dir,
		},
	}

	return appCommand("export", "Download every history entry", "", flags,
		func(ctx context.Context, a *app, c *cli.Command) error {
			paths, err := a.downloader.ExportAll(ctx, a.repo.Load(ctx), dir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(a.w, p)
			}
			return nil
		})
}

func (a *app) renderHistory(ctx context.Context) error {
	return gallery.New().Render(a.w, a.repo.Load(ctx))
}

func (a *app) clearHistory(ctx context.Context) error {
	if err := a.repo.Clear(ctx); err != nil {
		return err
	}
	a.notifier.Notify("history cleared", notify.Neutral)
	return a.renderHistory(ctx)
}

// useEntry takes a 1-based entry number as shown by the gallery
func (a *app) useEntry(ctx context.Context, n int) error {
	rec, err := a.repo.Get(ctx, n-1)
	if err != nil {
		a.notifyIndexError(err)
		return err
	}

	if _, err := a.ctrl.UseRecord(ctx, *rec); err != nil {
		return err
	}
	fmt.Fprintf(a.w, "seed: %s\nprompt: %s\n", rec.Seed, rec.Prompt)
	return nil
}

func (a *app) downloadEntry(ctx context.Context, n int, name string) error {
	rec, err := a.repo.Get(ctx, n-1)
	if err != nil {
		a.notifyIndexError(err)
		return err
	}
	return a.download(ctx, rec.URL, name)
}

func entryNumber(arg string) (int, error) {
	if arg == "" {
		return 0, goerr.Wrap(model.ErrRecordIndex, "entry number is required")
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, goerr.Wrap(model.ErrRecordIndex, "entry number must be an integer", goerr.V("arg", arg))
	}
	return n, nil
}
