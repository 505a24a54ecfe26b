package cli

import (
	"context"
	"io"

	"github.com/codenest/promptcanvas/pkg/adapter"
)

func RunWithWriter(ctx context.Context, argv []string, stdout, stderr io.Writer) *Error {
	return run(ctx, argv, stdout, stderr)
}

// SetClipboard replaces the system clipboard until the returned func is called
func SetClipboard(c adapter.Clipboard) func() {
	prev := newClipboard
	newClipboard = func() adapter.Clipboard { return c }
	return func() { newClipboard = prev }
}
