package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

const outputBaseName = "codenest-output"

// terminalDisplay is the output area of the command line client: the current
// image is written to a file in the output directory and a spinner stands in
// for the loading placeholder.
type terminalDisplay struct {
	w       io.Writer
	dir     string
	spinner *spinner.Spinner

	mu      sync.Mutex
	current string
}

func newTerminalDisplay(w io.Writer, dir string) *terminalDisplay {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " generating..."
	return &terminalDisplay{
		w:       w,
		dir:     dir,
		spinner: s,
	}
}

func (d *terminalDisplay) ShowLoading() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeCurrent()
	d.spinner.Start()
}

func (d *terminalDisplay) ShowImage(img *model.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spinner.Stop()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create output directory", goerr.V("dir", d.dir))
	}

	path := filepath.Join(d.dir, outputBaseName+extension(img.MimeType))
	if path != d.current {
		d.removeCurrent()
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write image", goerr.V("path", path))
	}
	d.current = path

	fmt.Fprintf(d.w, "image: %s (%dx%d)\n", path, img.Width, img.Height)
	return nil
}

func (d *terminalDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spinner.Stop()
	d.removeCurrent()
}

// Path returns the file currently shown, if any
func (d *terminalDisplay) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// caller holds mu
func (d *terminalDisplay) removeCurrent() {
	if d.current == "" {
		return
	}
	_ = os.Remove(d.current)
	d.current = ""
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/png":
		return ".png"
	default:
		return ".img"
	}
}
