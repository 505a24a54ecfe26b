package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Category is the visual class of a message
type Category int

const (
	Neutral Category = iota
	Error
	Success
)

func (c Category) String() string {
	switch c {
	case Error:
		return "error"
	case Success:
		return "success"
	default:
		return "info"
	}
}

// DefaultDuration is how long a message stays visible
const DefaultDuration = 3 * time.Second

// Notifier is the transient status surface
type Notifier interface {
	Notify(message string, category Category)
}

// Message is the currently visible notification
type Message struct {
	Text     string
	Category Category
}

// Toast prints messages to a writer and tracks which one is visible.
// There is no queue: a new message replaces the visible one, and the dismiss
// timer of a replaced message is ignored when it fires.
type Toast struct {
	w        io.Writer
	duration time.Duration

	mu      sync.Mutex
	current *Message
	gen     uint64
	timer   *time.Timer
}

// Option configures Toast
type Option func(*Toast)

// WithDuration overrides the visibility interval
func WithDuration(d time.Duration) Option {
	return func(t *Toast) {
		t.duration = d
	}
}

// NewToast creates a Toast writing to w
func NewToast(w io.Writer, opts ...Option) *Toast {
	t := &Toast{
		w:        w,
		duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var palette = map[Category]*color.Color{
	Neutral: color.New(color.FgCyan),
	Error:   color.New(color.FgRed, color.Bold),
	Success: color.New(color.FgGreen),
}

func (t *Toast) Notify(message string, category Category) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	gen := t.gen
	t.current = &Message{Text: message, Category: category}

	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.duration, func() { t.dismiss(gen) })

	if t.w != nil {
		fmt.Fprintln(t.w, palette[category].Sprintf("[%s] %s", category, message))
	}
}

func (t *Toast) dismiss(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.current = nil
}

// Visible returns the message currently shown, or nil
func (t *Toast) Visible() *Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	m := *t.current
	return &m
}

// Recorder collects notifications in memory. Useful for tests and the MCP server,
// where messages are returned to the caller instead of printed.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(message string, category Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Text: message, Category: category})
}

// Messages returns a copy of everything recorded so far
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent message, or nil
func (r *Recorder) Last() *Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return nil
	}
	m := r.messages[len(r.messages)-1]
	return &m
}
