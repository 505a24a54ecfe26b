package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrEmptyPrompt is returned when the prompt is empty after trimming
	ErrEmptyPrompt = goerr.New("prompt is empty")

	// ErrNetwork indicates a transport failure or a non-success HTTP status
	ErrNetwork = goerr.New("network error")

	// ErrImageLoad indicates the resource was fetched but is not a decodable image
	ErrImageLoad = goerr.New("image failed to load")

	// ErrClipboard indicates the platform clipboard rejected the write
	ErrClipboard = goerr.New("clipboard write failed")

	// ErrBusy is returned when a generation is dispatched while the trigger is disabled
	ErrBusy = goerr.New("generation trigger is disabled")

	// ErrNotFound is returned by key-value stores when the key is absent
	ErrNotFound = goerr.New("key not found")

	// ErrNoSession is returned when an action needs a displayed image but none exists
	ErrNoSession = goerr.New("no image has been displayed yet")

	// ErrRecordIndex is returned when a history index is out of range
	ErrRecordIndex = goerr.New("history index out of range")
)
