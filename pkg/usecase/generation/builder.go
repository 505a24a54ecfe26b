package generation

import (
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codenest/promptcanvas/pkg/model"
)

const (
	// DefaultEndpoint is the base of the generation URL; the encoded prompt is appended to it
	DefaultEndpoint = "https://image.pollinations.ai/prompt/"
	// DefaultModel is used when no model is selected
	DefaultModel = "flux"

	seedSpace = 1_000_000_000
)

// Builder turns form values into a request URL
type Builder struct {
	endpoint string
	now      func() time.Time
	randSeed func() int64
}

// BuilderOption configures Builder
type BuilderOption func(*Builder)

// WithEndpoint sets the base URL. A trailing slash is added if missing.
func WithEndpoint(endpoint string) BuilderOption {
	return func(b *Builder) {
		if endpoint == "" {
			return
		}
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		b.endpoint = endpoint
	}
}

// WithClock sets the time source for the cache-busting parameter
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// WithSeedSource sets the random seed source. It must return values in [0, 10^9).
func WithSeedSource(f func() int64) BuilderOption {
	return func(b *Builder) {
		b.randSeed = f
	}
}

// NewBuilder creates a Builder
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		endpoint: DefaultEndpoint,
		now:      time.Now,
		randSeed: func() int64 { return rand.Int64N(seedSpace) },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the absolute request URL. It never fails: unknown ratios fall
// back to 1:1 and an empty seed is replaced by a random one.
func (b *Builder) Build(prompt, style string, ratio model.Ratio, seed, modelName string) string {
	size := ratio.Size()
	if seed == "" {
		seed = strconv.FormatInt(b.randSeed(), 10)
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	// url.Values sorts keys on Encode; the endpoint expects this order
	params := [][2]string{
		{"width", strconv.Itoa(size.Width)},
		{"height", strconv.Itoa(size.Height)},
		{"model", modelName},
		{"seed", seed},
		{"nologo", "true"},
		{"enhance", "false"},
		{"ts", strconv.FormatInt(b.now().UnixMilli(), 10)},
	}

	var sb strings.Builder
	sb.WriteString(b.endpoint)
	sb.WriteString(encodeComponent(prompt + style))
	sb.WriteByte('?')
	for i, kv := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv[0]))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv[1]))
	}
	return sb.String()
}

// BuildRequest is Build for a GenerationRequest with an explicit seed override
func (b *Builder) BuildRequest(req model.GenerationRequest, seed string) string {
	return b.Build(req.BasePrompt(), req.Style, req.Ratio, seed, req.Model)
}

// componentUnescaper restores the characters encodeURIComponent leaves as-is
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent escapes s so it is safe as a single path segment. The result
// matches encodeURIComponent byte for byte.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}

// SeedFromURL reads back the seed query parameter of a built URL
func SeedFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("seed")
}
