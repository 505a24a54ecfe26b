package gallery

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
)

// EmptyMessage is shown in place of the list when there is no history
const EmptyMessage = "No recent generations."

const timeLayout = "2006-01-02 15:04:05"

// Renderer writes the history list in display order
type Renderer struct {
	loc *time.Location
}

type Option func(*Renderer)

// WithLocation sets the time zone used for timestamps
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		r.loc = loc
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{loc: time.Local}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render replaces whatever was shown before with records, newest first. Entry
// numbers start at 1 and are what the use and download actions take.
func (r *Renderer) Render(w io.Writer, records []model.GenerationRecord) error {
	if len(records) == 0 {
		if _, err := fmt.Fprintln(w, EmptyMessage); err != nil {
			return goerr.Wrap(err, "failed to write gallery")
		}
		return nil
	}

	label := color.New(color.Bold)
	dim := color.New(color.Faint)

	var b strings.Builder
	for i, rec := range records {
		n := i + 1
		label.Fprintf(&b, "#%d", n)
		fmt.Fprintf(&b, "  seed %s  %s\n", rec.Seed, rec.CreatedAt().In(r.loc).Format(timeLayout))
		fmt.Fprintf(&b, "    %s\n", rec.Prompt)
		dim.Fprintf(&b, "    %s\n", rec.URL)
		fmt.Fprintf(&b, "    actions: use %d | download %d\n", n, n)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return goerr.Wrap(err, "failed to write gallery")
	}
	return nil
}
