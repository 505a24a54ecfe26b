package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/codenest/promptcanvas/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestRatioSize(t *testing.T) {
	testCases := []struct {
		ratio  model.Ratio
		width  int
		height int
	}{
		{"1:1", 768, 768},
		{"16:9", 1024, 576},
		{"9:16", 768, 1365},
		{"3:2", 1024, 682},
		{"2:3", 768, 1152},
		{"4:3", 768, 768},
		{"", 768, 768},
	}

	for _, tc := range testCases {
		t.Run(string(tc.ratio), func(t *testing.T) {
			size := tc.ratio.Size()
			gt.Equal(t, size.Width, tc.width)
			gt.Equal(t, size.Height, tc.height)
		})
	}
}

func TestRatiosAreKnown(t *testing.T) {
	gt.A(t, model.Ratios()).Length(5)
	for _, r := range model.Ratios() {
		gt.True(t, r.Known())
	}
	gt.False(t, model.Ratio("21:9").Known())
}

func TestGenerationRequestValidate(t *testing.T) {
	gt.NoError(t, model.GenerationRequest{Prompt: "a red fox"}.Validate())

	for _, prompt := range []string{"", "   ", "\t\n"} {
		err := model.GenerationRequest{Prompt: prompt}.Validate()
		gt.True(t, errors.Is(err, model.ErrEmptyPrompt))
	}
}

func TestPrepend(t *testing.T) {
	var records []model.GenerationRecord
	for i := 0; i < 9; i++ {
		rec := model.NewGenerationRecord(fmt.Sprintf("https://example.com/%d", i), "p", fmt.Sprint(i), time.Now())
		records = model.Prepend(records, rec)
		gt.True(t, len(records) <= model.HistoryLimit)
		gt.Equal(t, records[0].Seed, fmt.Sprint(i))
	}

	gt.A(t, records).Length(8)
	gt.Equal(t, records[0].Seed, "8")
	gt.Equal(t, records[7].Seed, "1")
}

func TestPrependDoesNotAliasInput(t *testing.T) {
	orig := []model.GenerationRecord{{Seed: "a"}, {Seed: "b"}}
	out := model.Prepend(orig, model.GenerationRecord{Seed: "c"})
	gt.Equal(t, orig[0].Seed, "a")
	gt.Equal(t, out[0].Seed, "c")
	gt.Equal(t, out[1].Seed, "a")
}

func TestRecordTimestamp(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	rec := model.NewGenerationRecord("u", "p", "1", at)
	gt.Equal(t, rec.Timestamp, int64(1700000000123))
	gt.True(t, rec.CreatedAt().Equal(at))
}

func TestPickSurprise(t *testing.T) {
	gt.Equal(t, model.PickSurprise(func(n int) int { return 0 }), model.Surprises[0])
	gt.Equal(t, model.PickSurprise(func(n int) int { return n - 1 }), model.Surprises[4])
	gt.A(t, model.Surprises).Length(5)

	picked := model.PickSurprise(nil)
	found := false
	for _, s := range model.Surprises {
		if s == picked {
			found = true
		}
	}
	gt.True(t, found)
}

func TestResolveStyle(t *testing.T) {
	custom := map[string]string{"noir": ", black and white, noir"}

	gt.Equal(t, model.ResolveStyle(custom, "noir"), ", black and white, noir")
	gt.Equal(t, model.ResolveStyle(custom, "anime"), model.DefaultStyles["anime"])
	gt.Equal(t, model.ResolveStyle(nil, "none"), "")
	gt.Equal(t, model.ResolveStyle(nil, ", watercolor"), ", watercolor")
}
