package generation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/repository"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/codenest/promptcanvas/pkg/utils/logging"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// State of the output area
type State int

const (
	Idle State = iota
	Loading
	Displayed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Displayed:
		return "displayed"
	default:
		return "idle"
	}
}

// Display is the output area
type Display interface {
	// ShowLoading clears the output and shows the loading placeholder
	ShowLoading()
	// ShowImage replaces the output with img
	ShowImage(img *model.Image) error
	// Clear removes the loading placeholder and leaves the output blank
	Clear()
}

// ImageCacher keeps loaded images so a history entry can be shown again without
// another request. patrickmn/go-cache satisfies it.
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// Result is what a successful generation cycle produced
type Result struct {
	Image  *model.Image
	Record model.GenerationRecord
}

// Pending is a dispatched image load
type Pending struct {
	URL  string
	Seed string

	done   chan struct{}
	result *Result
	err    error
}

// Done is closed when the load resolves
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the load resolves or ctx is done. Cancelling ctx stops the
// wait only; the load itself keeps running.
func (p *Pending) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Controller runs generation cycles.
//
// Overlapping cycles are allowed once the previous one has been dispatched. Every
// load that resolves writes display, session and history, so the last load to
// resolve wins regardless of the order in which they were issued.
type Controller struct {
	builder  *Builder
	fetcher  adapter.ImageFetcher
	history  repository.HistoryStore
	sessions repository.SessionStore
	notifier notify.Notifier
	display  Display
	cache    ImageCacher
	cacheTTL time.Duration
	now      func() time.Time

	triggerDisabled atomic.Bool

	mu       sync.Mutex
	state    State
	session  model.Session
	inflight int
}

// Option configures Controller
type Option func(*Controller)

// WithBuilder replaces the URL builder
func WithBuilder(b *Builder) Option {
	return func(c *Controller) {
		c.builder = b
	}
}

// WithDisplay sets the output area
func WithDisplay(d Display) Option {
	return func(c *Controller) {
		c.display = d
	}
}

// WithSessionStore persists the session after each displayed image
func WithSessionStore(s repository.SessionStore) Option {
	return func(c *Controller) {
		c.sessions = s
	}
}

// WithImageCache keeps loaded images for ttl
func WithImageCache(cache ImageCacher, ttl time.Duration) Option {
	return func(c *Controller) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithNow sets the clock used for record timestamps
func WithNow(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates a Controller
func New(fetcher adapter.ImageFetcher, history repository.HistoryStore, notifier notify.Notifier, opts ...Option) *Controller {
	c := &Controller{
		builder:  NewBuilder(),
		fetcher:  fetcher,
		history:  history,
		notifier: notifier,
		display:  nopDisplay{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate runs one generation cycle. It returns once the image load has been
// dispatched; the returned Pending resolves with the load's outcome.
func (c *Controller) Generate(ctx context.Context, req model.GenerationRequest, regenerate bool) (*Pending, error) {
	if !c.triggerDisabled.CompareAndSwap(false, true) {
		return nil, goerr.Wrap(model.ErrBusy, "generation already being dispatched")
	}
	defer c.triggerDisabled.Store(false)

	if err := req.Validate(); err != nil {
		c.notifier.Notify("please enter a prompt!", notify.Error)
		return nil, err
	}

	seed := req.Seed
	if regenerate {
		seed = c.Session().Seed
	}

	finalPrompt := req.BasePrompt() + req.Style
	url := c.builder.Build(req.BasePrompt(), req.Style, req.Ratio, seed, req.Model)
	pending := &Pending{
		URL:  url,
		Seed: SeedFromURL(url),
		done: make(chan struct{}),
	}

	c.mu.Lock()
	c.state = Loading
	c.inflight++
	c.mu.Unlock()
	c.display.ShowLoading()

	ctx = logging.WithAttrs(ctx, "cycle_id", uuid.NewString())
	logging.From(ctx).Info("image load dispatched", "url", url, "regenerate", regenerate)

	// the load is never aborted once started
	go c.load(context.WithoutCancel(ctx), pending, finalPrompt)

	return pending, nil
}

func (c *Controller) load(ctx context.Context, p *Pending, finalPrompt string) {
	defer close(p.done)

	img, err := c.fetcher.LoadImage(ctx, p.URL)
	if err != nil {
		logging.From(ctx).Warn("image load failed", "error", err)
		c.fail(err, p)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if err := c.display.ShowImage(img); err != nil {
		logging.From(ctx).Warn("failed to show image", "error", err)
		c.notifier.Notify("image failed to load!", notify.Error)
		p.err = goerr.Wrap(model.ErrImageLoad, "display rejected image", goerr.V("cause", err.Error()))
		c.settle()
		return
	}

	if c.cache != nil {
		c.cache.Set(p.URL, img, c.cacheTTL)
	}

	seed := SeedFromURL(p.URL)
	c.state = Displayed
	c.session = model.Session{
		Prompt:         finalPrompt,
		Seed:           seed,
		URL:            p.URL,
		ActionsEnabled: true,
	}
	c.persistSession(ctx)

	rec := model.NewGenerationRecord(p.URL, finalPrompt, seed, c.now())
	if err := c.history.Save(ctx, rec); err != nil {
		logging.From(ctx).Warn("failed to save history", "error", err)
	}

	logging.From(ctx).Info("image displayed", "seed", seed, "width", img.Width, "height", img.Height)
	p.result = &Result{Image: img, Record: rec}
}

func (c *Controller) fail(err error, p *Pending) {
	c.notifier.Notify("image failed to load!", notify.Error)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	p.err = err
	c.settle()
}

// settle leaves the output blank after a failure unless another load is still pending.
// Caller holds mu.
func (c *Controller) settle() {
	if c.inflight > 0 {
		return
	}
	c.display.Clear()
	c.state = Idle
}

// caller holds mu
func (c *Controller) persistSession(ctx context.Context) {
	if c.sessions == nil {
		return
	}
	s := c.session
	if err := c.sessions.SaveSession(ctx, &s); err != nil {
		logging.From(ctx).Warn("failed to save session", "error", err)
	}
}

// UseRecord makes a history entry the current image: its prompt and seed become
// the session values and its image is shown again. No generation is requested;
// a cached copy is shown when available, otherwise the image URL is loaded.
func (c *Controller) UseRecord(ctx context.Context, rec model.GenerationRecord) (*model.Image, error) {
	c.mu.Lock()
	c.session = model.Session{
		Prompt:         rec.Prompt,
		Seed:           rec.Seed,
		URL:            rec.URL,
		ActionsEnabled: true,
	}
	c.persistSession(ctx)
	c.mu.Unlock()

	img, err := c.cachedImage(ctx, rec.URL)
	if err != nil {
		c.notifier.Notify("image failed to load!", notify.Error)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.display.ShowImage(img); err != nil {
		return nil, goerr.Wrap(err, "failed to show image")
	}
	c.state = Displayed
	return img, nil
}

func (c *Controller) cachedImage(ctx context.Context, url string) (*model.Image, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(url); ok {
			if img, ok := v.(*model.Image); ok {
				logging.From(ctx).Debug("image cache hit", "url", url)
				return img, nil
			}
		}
	}

	img, err := c.fetcher.LoadImage(ctx, url)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(url, img, c.cacheTTL)
	}
	return img, nil
}

// Session returns the current session values
func (c *Controller) Session() model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Restore sets the session, e.g. from a previous invocation
func (c *Controller) Restore(s model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// State returns the output area state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TriggerEnabled reports whether Generate can be called right now
func (c *Controller) TriggerEnabled() bool {
	return !c.triggerDisabled.Load()
}

type nopDisplay struct{}

func (nopDisplay) ShowLoading()                 {}
func (nopDisplay) ShowImage(*model.Image) error { return nil }
func (nopDisplay) Clear()                       {}
