package model

import (
	"strings"
	"time"
)

// HistoryLimit is the maximum number of records kept in the history list
const HistoryLimit = 8

// Ratio is a named aspect ratio label such as "16:9"
type Ratio string

const (
	RatioSquare    Ratio = "1:1"
	RatioWide      Ratio = "16:9"
	RatioTall      Ratio = "9:16"
	RatioLandscape Ratio = "3:2"
	RatioPortrait  Ratio = "2:3"
)

// Size is an output resolution in pixels
type Size struct {
	Width  int
	Height int
}

var ratioSizes = map[Ratio]Size{
	RatioSquare:    {Width: 768, Height: 768},
	RatioWide:      {Width: 1024, Height: 576},
	RatioTall:      {Width: 768, Height: 1365},
	RatioLandscape: {Width: 1024, Height: 682},
	RatioPortrait:  {Width: 768, Height: 1152},
}

// Size resolves the ratio label to its pixel size. Unknown labels fall back to 1:1.
func (r Ratio) Size() Size {
	if s, ok := ratioSizes[r]; ok {
		return s
	}
	return ratioSizes[RatioSquare]
}

// Known reports whether the label is one of the five supported ratios
func (r Ratio) Known() bool {
	_, ok := ratioSizes[r]
	return ok
}

// Ratios returns the supported ratio labels in display order
func Ratios() []Ratio {
	return []Ratio{RatioSquare, RatioWide, RatioTall, RatioLandscape, RatioPortrait}
}

// GenerationRequest holds the form values for one generation cycle.
// Seed is kept as the user typed it; empty means random.
type GenerationRequest struct {
	Prompt string
	Style  string
	Ratio  Ratio
	Seed   string
	Model  string
}

// BasePrompt returns the prompt with surrounding whitespace removed
func (r GenerationRequest) BasePrompt() string {
	return strings.TrimSpace(r.Prompt)
}

// Validate checks the request can be sent
func (r GenerationRequest) Validate() error {
	if r.BasePrompt() == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// GenerationRecord is one entry of the history list. It is never modified after creation.
type GenerationRecord struct {
	URL       string `json:"url" firestore:"url"`
	Prompt    string `json:"prompt" firestore:"prompt"`
	Seed      string `json:"seed" firestore:"seed"`
	Timestamp int64  `json:"ts" firestore:"ts"`
}

// NewGenerationRecord creates a record stamped with the given time
func NewGenerationRecord(url, prompt, seed string, at time.Time) GenerationRecord {
	return GenerationRecord{
		URL:       url,
		Prompt:    prompt,
		Seed:      seed,
		Timestamp: at.UnixMilli(),
	}
}

// CreatedAt returns the record timestamp as time.Time
func (r GenerationRecord) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Prepend inserts rec at the head of records and drops entries beyond HistoryLimit
func Prepend(records []GenerationRecord, rec GenerationRecord) []GenerationRecord {
	out := make([]GenerationRecord, 0, min(len(records)+1, HistoryLimit))
	out = append(out, rec)
	for _, r := range records {
		if len(out) >= HistoryLimit {
			break
		}
		out = append(out, r)
	}
	return out
}

// Session keeps what the last displayed image left behind for the follow-up actions
// (regenerate, copy prompt, download).
type Session struct {
	Prompt         string `json:"prompt"`
	Seed           string `json:"seed"`
	URL            string `json:"url"`
	ActionsEnabled bool   `json:"actions_enabled"`
}

// Image is a loaded image resource
type Image struct {
	URL      string
	Data     []byte
	MimeType string
	Width    int
	Height   int
}
