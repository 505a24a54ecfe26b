package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// version is set at build time with -ldflags "-X github.com/codenest/promptcanvas/pkg/cli.version=..."
var version = "dev"

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	return run(ctx, argv, os.Stdout, os.Stderr)
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) *Error {
	cmd := &cli.Command{
		Name:      "promptcanvas",
		Usage:     "Generate images from text prompts",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			generateCommand(),
			regenerateCommand(),
			surpriseCommand(),
			copyPromptCommand(),
			downloadCommand(),
			historyCommand(),
			interactiveCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
