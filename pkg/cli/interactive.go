package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/usecase/generation"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/codenest/promptcanvas/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const replHelp = `Type a prompt and press enter to generate. Commands:
  :generate [prompt]  generate with the current form
  :regen              generate again with the last seed
  :surprise           put a random example prompt in the form
  :copy               copy the current prompt to the clipboard
  :download [name]    save the current image
  :history            list recent generations
  :use <n>            show history entry n again
  :clear              clear history
  :style [name]       set the style preset or suffix
  :ratio [label]      set the aspect ratio
  :seed [value]       set the seed; empty for random
  :model [name]       set the model
  :form               show the current form
  :help               show this help
  :quit               exit
`

func interactiveCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:    "interactive",
		Aliases: []string{"i"},
		Usage:   "Interactive prompt session",
		Flags:   globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, a, err := cfg.newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "promptcanvas> ",
				HistoryFile:     replHistoryFile(&cfg),
				InterruptPrompt: "^C",
				EOFPrompt:       ":quit",
				Stdout:          c.Root().Writer,
				Stderr:          c.Root().ErrWriter,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start readline")
			}
			defer rl.Close()

			r := newREPL(a)
			fmt.Fprint(c.Root().Writer, replHelp)

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read line")
				}

				if r.exec(ctx, line) {
					break
				}
			}

			r.wait(ctx)
			return nil
		},
	}
}

func replHistoryFile(cfg *config) string {
	dir := cfg.dataDir
	if dir == "" {
		d, err := defaultDataDir()
		if err != nil {
			return ""
		}
		dir = d
	}
	return filepath.Join(dir, "repl_history")
}

// repl keeps the form between lines. Generation is not awaited so several
// loads can be in flight; the last one to resolve is displayed.
type repl struct {
	app  *app
	form formInput

	wg sync.WaitGroup
}

func newREPL(a *app) *repl {
	r := &repl{app: a}
	r.form.style = a.cfg.defaultStyle
	r.form.ratio = a.cfg.defaultRatio
	r.form.model = a.cfg.defaultModel
	return r
}

// exec runs one input line and reports whether the session should end
func (r *repl) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, ":") {
		r.form.prompt = line
		r.report(ctx, r.dispatch(ctx, false))
		return false
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	w := r.app.w

	var err error
	switch name {
	case "generate", "gen", "g":
		if arg != "" {
			r.form.prompt = arg
		}
		err = r.dispatch(ctx, false)
	case "regen", "regenerate", "r":
		if !r.app.ctrl.Session().ActionsEnabled {
			r.app.notifier.Notify("generate an image first", notify.Error)
			err = goerr.Wrap(model.ErrNoSession, "nothing to regenerate")
			break
		}
		err = r.dispatch(ctx, true)
	case "surprise":
		r.form.prompt = model.PickSurprise(nil)
		fmt.Fprintf(w, "prompt: %s\n", r.form.prompt)
	case "copy":
		err = r.app.copyPrompt(ctx)
	case "download", "dl":
		err = r.app.download(ctx, "", arg)
	case "history", "h":
		err = r.app.renderHistory(ctx)
	case "use":
		var n int
		if n, err = entryNumber(arg); err != nil {
			r.app.notifyIndexError(err)
			break
		}
		err = r.app.useEntry(ctx, n)
		if err == nil {
			// the form follows the entry like the browser form does
			s := r.app.ctrl.Session()
			r.form.prompt = s.Prompt
			r.form.seed = s.Seed
			r.form.style = ""
		}
	case "clear":
		err = r.app.clearHistory(ctx)
	case "style":
		r.form.style = arg
	case "ratio":
		if arg != "" && !model.Ratio(arg).Known() {
			fmt.Fprintf(w, "unknown ratio %q, 768x768 will be used\n", arg)
		}
		r.form.ratio = arg
	case "seed":
		r.form.seed = arg
	case "model":
		r.form.model = arg
	case "form":
		r.printForm()
	case "help", "?":
		fmt.Fprint(w, replHelp)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "unknown command :%s, type :help\n", name)
	}

	r.report(ctx, err)
	return false
}

func (r *repl) dispatch(ctx context.Context, regenerate bool) error {
	req := r.form.request(r.app.cfg, nil)
	if regenerate && strings.TrimSpace(req.Prompt) == "" {
		req.Prompt = r.app.ctrl.Session().Prompt
		req.Style = ""
	}
	pending, err := r.app.ctrl.Generate(ctx, req, regenerate)
	if err != nil {
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		result, err := pending.Wait(context.WithoutCancel(ctx))
		if err != nil {
			return
		}
		r.app.printResult(result)
	}()
	return nil
}

// wait blocks until dispatched loads resolve so their history entries are saved
func (r *repl) wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.From(ctx).Warn("exiting with image loads in flight")
	}
}

func (r *repl) printForm() {
	seed := r.form.seed
	if seed == "" {
		seed = "(random)"
	}
	ratio := model.Ratio(r.form.ratio)
	size := ratio.Size()
	fmt.Fprintf(r.app.w, "prompt: %s\nstyle: %s\nratio: %s (%dx%d)\nseed: %s\nmodel: %s\n",
		r.form.prompt, r.form.style, r.form.ratio, size.Width, size.Height, seed, r.modelName())
}

func (r *repl) modelName() string {
	if r.form.model == "" {
		return generation.DefaultModel
	}
	return r.form.model
}

// report logs errors; user-facing messages already went through the notifier
func (r *repl) report(ctx context.Context, err error) {
	if err != nil {
		logging.From(ctx).Debug("command failed", "error", err)
	}
}
