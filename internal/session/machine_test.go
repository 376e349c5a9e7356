package session

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func initContext(t *testing.T, queue ...string) Context {
	t.Helper()
	ctx, err := Reduce(Context{}, Init{Queue: queue, Now: testNow})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return ctx
}

func reduce(t *testing.T, ctx Context, ev Event) Context {
	t.Helper()
	out, err := Reduce(ctx, ev)
	if err != nil {
		t.Fatalf("Reduce(%T) failed: %v", ev, err)
	}
	return out
}

func TestInitResetsState(t *testing.T) {
	ctx := initContext(t, "a", "b")
	ctx = reduce(t, ctx, Flip{})
	ctx = reduce(t, ctx, Rate{Quality: 4})
	ctx = reduce(t, ctx, Next{})

	ctx = reduce(t, ctx, Init{Queue: []string{"c"}, Now: testNow})
	if ctx.Index != 0 || ctx.Flipped {
		t.Fatalf("expected fresh context, got index=%d flipped=%v", ctx.Index, ctx.Flipped)
	}
	if len(ctx.Reviewed) != 0 || len(ctx.Correct) != 0 || len(ctx.Ratings) != 0 {
		t.Fatalf("expected cleared tracking maps")
	}
	if ctx.StartedAt != testNow {
		t.Fatalf("expected start time %v, got %v", testNow, ctx.StartedAt)
	}
}

func TestFlipIsIdempotent(t *testing.T) {
	ctx := initContext(t, "a")
	ctx = reduce(t, ctx, Flip{})
	if !ctx.Flipped {
		t.Fatalf("expected flipped")
	}
	again := reduce(t, ctx, Flip{})
	if again.Status() != StatusShowingBack {
		t.Fatalf("expected showing_back, got %v", again.Status())
	}
}

func TestFlipNoOpWhenCompleted(t *testing.T) {
	ctx := initContext(t)
	out := reduce(t, ctx, Flip{})
	if out.Flipped {
		t.Fatalf("flip must be a no-op on a completed session")
	}
}

func TestRateRecordsWithoutAdvancing(t *testing.T) {
	ctx := initContext(t, "a", "b")
	ctx = reduce(t, ctx, Rate{Quality: 4})
	if ctx.Index != 0 {
		t.Fatalf("rate must not advance the index, got %d", ctx.Index)
	}
	if _, ok := ctx.Reviewed["a"]; !ok {
		t.Fatalf("expected card marked reviewed")
	}
	if _, ok := ctx.Correct["a"]; !ok {
		t.Fatalf("expected quality 4 to count as correct")
	}
	if ctx.Ratings["a"] != 4 {
		t.Fatalf("expected recorded rating 4, got %d", ctx.Ratings["a"])
	}
}

func TestRateFailureNotCorrect(t *testing.T) {
	ctx := initContext(t, "a")
	ctx = reduce(t, ctx, Rate{Quality: 2})
	if _, ok := ctx.Correct["a"]; ok {
		t.Fatalf("quality 2 must not count as correct")
	}
	if ctx.IncorrectCount() != 1 {
		t.Fatalf("expected 1 incorrect, got %d", ctx.IncorrectCount())
	}
}

func TestRateWithoutCurrentCard(t *testing.T) {
	ctx := initContext(t)
	if _, err := Reduce(ctx, Rate{Quality: 4}); !errors.Is(err, ErrNoCurrentCard) {
		t.Fatalf("expected ErrNoCurrentCard, got %v", err)
	}
}

func TestRateInvalidQuality(t *testing.T) {
	ctx := initContext(t, "a")
	if _, err := Reduce(ctx, Rate{Quality: 6}); !errors.Is(err, ErrInvalidQuality) {
		t.Fatalf("expected ErrInvalidQuality, got %v", err)
	}
}

func TestNextAdvancesAndResetsFlip(t *testing.T) {
	ctx := initContext(t, "a", "b")
	ctx = reduce(t, ctx, Flip{})
	ctx = reduce(t, ctx, Next{})
	if ctx.Index != 1 || ctx.Flipped {
		t.Fatalf("expected index=1 flipped=false, got %d/%v", ctx.Index, ctx.Flipped)
	}
	ctx = reduce(t, ctx, Next{})
	if !ctx.Completed() || ctx.Status() != StatusCompleted {
		t.Fatalf("expected completed session")
	}
	// Further Next events are no-ops.
	ctx = reduce(t, ctx, Next{})
	if ctx.Index != 2 {
		t.Fatalf("expected index to stay at 2, got %d", ctx.Index)
	}
}

func TestSkipMarksReviewedWithoutRating(t *testing.T) {
	ctx := initContext(t, "a", "b")
	ctx = reduce(t, ctx, Skip{})
	if ctx.Index != 1 {
		t.Fatalf("expected skip to advance, got index %d", ctx.Index)
	}
	if _, ok := ctx.Reviewed["a"]; !ok {
		t.Fatalf("expected skipped card marked reviewed")
	}
	if len(ctx.Ratings) != 0 || ctx.CorrectCount() != 0 || ctx.IncorrectCount() != 0 {
		t.Fatalf("skip must not record a rating")
	}
}

func TestSkipWithoutCurrentCard(t *testing.T) {
	ctx := initContext(t)
	if _, err := Reduce(ctx, Skip{}); !errors.Is(err, ErrNoCurrentCard) {
		t.Fatalf("expected ErrNoCurrentCard, got %v", err)
	}
}

func TestStatusDerivedFromContextAlone(t *testing.T) {
	ctx := initContext(t, "a", "b")
	events := []Event{Flip{}, Rate{Quality: 4}, Next{}, Flip{}, Rate{Quality: 2}, Next{}, Next{}}
	for _, ev := range events {
		ctx = reduce(t, ctx, ev)
		want := StatusShowingFront
		switch {
		case ctx.Index >= len(ctx.Queue):
			want = StatusCompleted
		case ctx.Flipped:
			want = StatusShowingBack
		}
		if got := ctx.Status(); got != want {
			t.Fatalf("after %T: status %v, recomputed %v", ev, got, want)
		}
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	ctx := initContext(t, "a", "b")
	if _, err := Reduce(ctx, Rate{Quality: 4}); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if len(ctx.Reviewed) != 0 || len(ctx.Ratings) != 0 {
		t.Fatalf("input context mutated by Rate")
	}
	if _, err := Reduce(ctx, Skip{}); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if ctx.Index != 0 || len(ctx.Reviewed) != 0 {
		t.Fatalf("input context mutated by Skip")
	}
}

func TestReRatingSameCard(t *testing.T) {
	ctx := initContext(t, "a")
	ctx = reduce(t, ctx, Rate{Quality: 4})
	ctx = reduce(t, ctx, Rate{Quality: 2})
	if ctx.CorrectCount() != 0 || ctx.IncorrectCount() != 1 {
		t.Fatalf("expected downgrade to failure, got correct=%d incorrect=%d",
			ctx.CorrectCount(), ctx.IncorrectCount())
	}
	if ctx.ReviewedCount() != 1 {
		t.Fatalf("expected a single reviewed card, got %d", ctx.ReviewedCount())
	}
}
