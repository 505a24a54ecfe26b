package notify_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/codenest/promptcanvas/pkg/usecase/notify"
	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
)

func init() {
	color.NoColor = true
}

func TestToastPrintsCategory(t *testing.T) {
	buf := &bytes.Buffer{}
	toast := notify.NewToast(buf)

	toast.Notify("please enter a prompt!", notify.Error)
	toast.Notify("prompt copied to clipboard!", notify.Success)
	toast.Notify("generating", notify.Neutral)

	out := buf.String()
	gt.S(t, out).Contains("[error] please enter a prompt!")
	gt.S(t, out).Contains("[success] prompt copied to clipboard!")
	gt.S(t, out).Contains("[info] generating")
}

func TestToastAutoDismiss(t *testing.T) {
	toast := notify.NewToast(nil, notify.WithDuration(20*time.Millisecond))

	toast.Notify("hello", notify.Neutral)
	visible := toast.Visible()
	gt.V(t, visible).NotNil()
	gt.Equal(t, visible.Text, "hello")

	time.Sleep(60 * time.Millisecond)
	gt.True(t, toast.Visible() == nil)
}

func TestToastNewMessageReplacesVisible(t *testing.T) {
	toast := notify.NewToast(nil, notify.WithDuration(50*time.Millisecond))

	toast.Notify("first", notify.Neutral)
	time.Sleep(30 * time.Millisecond)
	toast.Notify("second", notify.Error)

	visible := toast.Visible()
	gt.Equal(t, visible.Text, "second")
	gt.Equal(t, visible.Category, notify.Error)

	// the first message's timer would have fired by now; second must survive it
	time.Sleep(30 * time.Millisecond)
	visible = toast.Visible()
	gt.V(t, visible).NotNil()
	gt.Equal(t, visible.Text, "second")

	time.Sleep(60 * time.Millisecond)
	gt.True(t, toast.Visible() == nil)
}

func TestRecorder(t *testing.T) {
	rec := &notify.Recorder{}
	gt.True(t, rec.Last() == nil)

	rec.Notify("a", notify.Neutral)
	rec.Notify("b", notify.Error)

	gt.A(t, rec.Messages()).Length(2)
	gt.Equal(t, rec.Last().Text, "b")
	gt.Equal(t, rec.Last().Category, notify.Error)
}
