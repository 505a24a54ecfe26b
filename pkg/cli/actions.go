package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func surpriseCommand() *cli.Command {
	var (
		cfg      config
		in       formInput
		generate bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "generate",
			Aliases:     []string{"g"},
			Usage:       "Generate an image from the picked prompt",
			Destination: &generate,
		},
	}
	flags = append(flags, formFlags(&in)...)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "surprise",
		Usage: "Pick a random example prompt",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			prompt := model.PickSurprise(nil)
			if !generate {
				fmt.Fprintln(c.Root().Writer, prompt)
				return nil
			}

			ctx, a, err := cfg.newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			in.prompt = prompt
			fmt.Fprintf(c.Root().Writer, "prompt: %s\n", prompt)
			return a.generate(ctx, in.request(&cfg, nil), false)
		},
	}
}

func copyPromptCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "copy-prompt",
		Usage: "Copy the prompt of the last displayed image to the clipboard",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, a, err := cfg.newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			return a.copyPrompt(ctx)
		},
	}
}

func (a *app) copyPrompt(ctx context.Context) error {
	session := a.ctrl.Session()
	if !session.ActionsEnabled {
		a.notifier.Notify("generate an image first", notify.Error)
		return goerr.Wrap(model.ErrNoSession, "no prompt to copy")
	}

	if err := a.clipboard.WriteText(session.Prompt); err != nil {
		a.notifier.Notify("couldn't copy prompt, an error occurred!", notify.Error)
		return err
	}
	a.notifier.Notify("prompt copied to clipboard!", notify.Success)
	return nil
}

func downloadCommand() *cli.Command {
	var (
		cfg  config
		url  string
		name string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "url",
			Usage:       "Image URL; defaults to the last displayed image",
			Destination: &url,
		},
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "File name to save as",
			Value:       "codenest-ai.png",
			Destination: &name,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "download",
		Usage: "Download the last displayed image",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, a, err := cfg.newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			return a.download(ctx, url, name)
		},
	}
}

func (a *app) download(ctx context.Context, url, name string) error {
	if url == "" {
		session := a.ctrl.Session()
		if !session.ActionsEnabled {
			a.notifier.Notify("generate an image first", notify.Error)
			return goerr.Wrap(model.ErrNoSession, "no image to download")
		}
		url = session.URL
	}

	path, err := a.downloader.Download(ctx, url, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.w, "saved: %s\n", path)
	return nil
}

// notifyIndexError reports an out of range history entry
func (a *app) notifyIndexError(err error) {
	if errors.Is(err, model.ErrRecordIndex) {
		a.notifier.Notify("no such history entry", notify.Error)
	}
}
