package gallery_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/codenest/promptcanvas/pkg/usecase/gallery"
	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
)

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	gt.NoError(t, gallery.New().Render(&buf, nil))
	gt.Equal(t, buf.String(), "No recent generations.\n")

	buf.Reset()
	gt.NoError(t, gallery.New().Render(&buf, []model.GenerationRecord{}))
	gt.Equal(t, buf.String(), "No recent generations.\n")
}

func TestRenderRecords(t *testing.T) {
	color.NoColor = true

	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	records := []model.GenerationRecord{
		model.NewGenerationRecord("https://img.example/b?seed=2", "a red fox", "2", at.Add(time.Minute)),
		model.NewGenerationRecord("https://img.example/a?seed=1", "a blue whale, anime style", "1", at),
	}

	var buf bytes.Buffer
	gt.NoError(t, gallery.New(gallery.WithLocation(time.UTC)).Render(&buf, records))
	out := buf.String()

	gt.S(t, out).NotContains(gallery.EmptyMessage)
	gt.S(t, out).Contains("#1  seed 2  2024-05-01 12:31:00")
	gt.S(t, out).Contains("#2  seed 1  2024-05-01 12:30:00")
	gt.S(t, out).Contains("a blue whale, anime style")
	gt.S(t, out).Contains("https://img.example/b?seed=2")
	gt.S(t, out).Contains("actions: use 2 | download 2")

	// newest entry comes first
	gt.True(t, strings.Index(out, "a red fox") < strings.Index(out, "a blue whale"))
}

func TestRenderReplacesPrevious(t *testing.T) {
	color.NoColor = true
	r := gallery.New(gallery.WithLocation(time.UTC))

	var first, second bytes.Buffer
	rec := model.NewGenerationRecord("u1", "p1", "1", time.Unix(0, 0))
	gt.NoError(t, r.Render(&first, []model.GenerationRecord{rec}))

	rec2 := model.NewGenerationRecord("u2", "p2", "2", time.Unix(1, 0))
	gt.NoError(t, r.Render(&second, []model.GenerationRecord{rec2, rec}))

	gt.Equal(t, strings.Count(second.String(), "actions:"), 2)
	gt.Equal(t, strings.Count(first.String(), "actions:"), 1)
}
