package adapter

import (
	"github.com/atotto/clipboard"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// Clipboard writes text to the platform clipboard
type Clipboard interface {
	WriteText(text string) error
}

type systemClipboard struct{}

// NewClipboard returns the platform clipboard
func NewClipboard() Clipboard {
	return systemClipboard{}
}

func (systemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return goerr.Wrap(model.ErrClipboard, "no clipboard utility available")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return goerr.Wrap(model.ErrClipboard, "clipboard rejected write", goerr.V("cause", err.Error()))
	}
	return nil
}
