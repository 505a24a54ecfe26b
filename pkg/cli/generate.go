package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/usecase/generation"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// formInput holds the generation form fields shared by generate and regenerate
type formInput struct {
	prompt string
	style  string
	ratio  string
	seed   string
	model  string
}

func formFlags(in *formInput) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"p"},
			Usage:       "Text prompt. Remaining arguments are used when omitted",
			Destination: &in.prompt,
		},
		&cli.StringFlag{
			Name:        "style",
			Aliases:     []string{"s"},
			Usage:       "Style preset (none, photo, anime, cinematic, pixel or one from the config file) or a literal suffix",
			Destination: &in.style,
		},
		&cli.StringFlag{
			Name:        "ratio",
			Aliases:     []string{"r"},
			Usage:       "Aspect ratio (1:1, 16:9, 9:16, 3:2, 2:3)",
			Destination: &in.ratio,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "Model identifier",
			Destination: &in.model,
		},
	}
}

// request fills unset fields from the config file defaults
func (in *formInput) request(cfg *config, args []string) model.GenerationRequest {
	prompt := in.prompt
	if prompt == "" {
		prompt = strings.Join(args, " ")
	}
	style := in.style
	if style == "" {
		style = cfg.defaultStyle
	}
	ratio := in.ratio
	if ratio == "" {
		ratio = cfg.defaultRatio
	}
	if ratio == "" {
		ratio = string(model.RatioSquare)
	}
	modelName := in.model
	if modelName == "" {
		modelName = cfg.defaultModel
	}

	return model.GenerationRequest{
		Prompt: prompt,
		Style:  model.ResolveStyle(cfg.styles, style),
		Ratio:  model.Ratio(ratio),
		Seed:   in.seed,
		Model:  modelName,
	}
}

func generateCommand() *cli.Command {
	var (
		cfg      config
		in       formInput
		surprise bool
	)

	flags := formFlags(&in)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "seed",
			Usage:       "Seed for reproducible output; random when omitted",
			Destination: &in.seed,
		},
		&cli.BoolFlag{
			Name:        "surprise",
			Usage:       "Use a random example prompt",
			Destination: &surprise,
		},
	)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate an image from a prompt",
		ArgsUsage: "[prompt...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, a, err := cfg.newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			req := in.request(&cfg, c.Args().Slice())
			if surprise {
				req.Prompt = model.PickSurprise(nil)
				fmt.Fprintf(c.Root().Writer, "prompt: %s\n", req.Prompt)
			}
			return a.generate(ctx, req, false)
		},
	}
}

func regenerateCommand() *cli.Command {
	var (
		cfg config
		in  formInput
	)

	flags := formFlags(&in)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "regenerate",
		Aliases:   []string{"regen"},
		Usage:     "Generate again with the seed of the last displayed image",
		ArgsUsage: "[prompt...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, a, err := cfg.newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			session := a.ctrl.Session()
			if !session.ActionsEnabled {
				a.notifier.Notify("generate an image first", notify.Error)
				return goerr.Wrap(model.ErrNoSession, "nothing to regenerate")
			}

			req := in.request(&cfg, c.Args().Slice())
			if strings.TrimSpace(req.Prompt) == "" {
				// the session prompt already carries its style suffix
				req.Prompt = session.Prompt
				if in.style == "" {
					req.Style = ""
				}
			}
			return a.generate(ctx, req, true)
		},
	}
}

// generate runs one cycle and waits for the image so the process doesn't exit early
func (a *app) generate(ctx context.Context, req model.GenerationRequest, regenerate bool) error {
	pending, err := a.ctrl.Generate(ctx, req, regenerate)
	if err != nil {
		return err
	}

	result, err := pending.Wait(ctx)
	if err != nil {
		return goerr.Wrap(err, "generation failed", goerr.V("url", pending.URL))
	}

	a.printResult(result)
	return nil
}

func (a *app) printResult(result *generation.Result) {
	fmt.Fprintf(a.w, "seed: %s\nprompt: %s\nurl: %s\n", result.Record.Seed, result.Record.Prompt, result.Record.URL)
}
