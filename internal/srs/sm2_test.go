package srs

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/tuicards/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNewReviewItemDefaults(t *testing.T) {
	item := NewReviewItem("hola", "spanish")
	if item.CardID != "hola" || item.SetID != "spanish" {
		t.Fatalf("unexpected identity: %q/%q", item.SetID, item.CardID)
	}
	if item.EaseFactor != InitialEaseFactor {
		t.Fatalf("expected ease %v, got %v", InitialEaseFactor, item.EaseFactor)
	}
	if item.Interval != 0 || item.Repetitions != 0 {
		t.Fatalf("expected zero interval/repetitions, got %d/%d", item.Interval, item.Repetitions)
	}
	if item.LastReview != nil || item.NextReview != nil {
		t.Fatalf("expected absent timestamps")
	}
	if item.State != model.StateNew {
		t.Fatalf("expected state new, got %v", item.State)
	}
}

func TestNewReviewItemIsPure(t *testing.T) {
	a := NewReviewItem("c1", "s1")
	b := NewReviewItem("c1", "s1")
	if a != b {
		t.Fatalf("expected identical items, got %+v and %+v", a, b)
	}
}

func TestAdvanceEaseFactorNeverBelowFloor(t *testing.T) {
	settings := model.DefaultSRSSettings()
	for _, ease := range []float64{1.3, 1.5, 2.0, 2.5, 3.2} {
		for q := model.Quality(0); q <= 5; q++ {
			item := NewReviewItem("c1", "s1")
			item.EaseFactor = ease
			next, err := Advance(item, q, settings, testNow)
			if err != nil {
				t.Fatalf("Advance(ease=%v, q=%d) failed: %v", ease, q, err)
			}
			if next.EaseFactor < MinEaseFactor {
				t.Fatalf("ease %v below floor for ease=%v q=%d", next.EaseFactor, ease, q)
			}
		}
	}
}

func TestAdvanceFailureResetsRepetitions(t *testing.T) {
	settings := model.DefaultSRSSettings()
	states := []model.State{model.StateNew, model.StateLearning, model.StateReview, model.StateRelearning}
	for _, state := range states {
		for q := model.Quality(0); q < 3; q++ {
			item := NewReviewItem("c1", "s1")
			item.State = state
			item.Repetitions = 4
			item.Interval = 12
			next, err := Advance(item, q, settings, testNow)
			if err != nil {
				t.Fatalf("Advance(state=%v, q=%d) failed: %v", state, q, err)
			}
			if next.Repetitions != 0 {
				t.Fatalf("expected repetitions 0 after failure, got %d", next.Repetitions)
			}
			if next.State != model.StateLearning && next.State != model.StateRelearning {
				t.Fatalf("expected learning/relearning after failure, got %v", next.State)
			}
			if next.Interval != FailureInterval {
				t.Fatalf("expected failure interval %d, got %d", FailureInterval, next.Interval)
			}
		}
	}
}

func TestAdvanceFailureStateTransitions(t *testing.T) {
	settings := model.DefaultSRSSettings()
	cases := []struct {
		from model.State
		want model.State
	}{
		{model.StateNew, model.StateLearning},
		{model.StateLearning, model.StateLearning},
		{model.StateReview, model.StateRelearning},
		{model.StateRelearning, model.StateRelearning},
	}
	for _, tc := range cases {
		item := NewReviewItem("c1", "s1")
		item.State = tc.from
		next, err := Advance(item, 1, settings, testNow)
		if err != nil {
			t.Fatalf("Advance from %v failed: %v", tc.from, err)
		}
		if next.State != tc.want {
			t.Fatalf("failure from %v: expected %v, got %v", tc.from, tc.want, next.State)
		}
	}
}

func TestAdvanceSuccessIncrementsRepetitionsByOne(t *testing.T) {
	settings := model.DefaultSRSSettings()
	for _, reps := range []int{0, 1, 5} {
		for q := model.Quality(3); q <= 5; q++ {
			item := NewReviewItem("c1", "s1")
			item.Repetitions = reps
			item.Interval = 6
			item.State = model.StateReview
			next, err := Advance(item, q, settings, testNow)
			if err != nil {
				t.Fatalf("Advance(reps=%d, q=%d) failed: %v", reps, q, err)
			}
			if next.Repetitions != reps+1 {
				t.Fatalf("expected repetitions %d, got %d", reps+1, next.Repetitions)
			}
			if next.State != model.StateReview {
				t.Fatalf("expected state review after success, got %v", next.State)
			}
		}
	}
}

func TestAdvanceFirstSuccessUsesEasyInterval(t *testing.T) {
	settings := model.SRSSettings{
		NewCardsPerDay:     20,
		ReviewsPerDay:      100,
		GraduatingInterval: 1,
		EasyInterval:       4,
		MaxQuality:         4,
	}
	item := NewReviewItem("c1", "s1")
	next, err := Advance(item, 4, settings, testNow)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if next.State != model.StateReview {
		t.Fatalf("expected state review, got %v", next.State)
	}
	if next.Interval != 4 {
		t.Fatalf("expected easy interval 4, got %d", next.Interval)
	}
	if next.Repetitions != 1 {
		t.Fatalf("expected repetitions 1, got %d", next.Repetitions)
	}
}

func TestAdvanceFirstSuccessUsesGraduatingInterval(t *testing.T) {
	settings := model.SRSSettings{
		NewCardsPerDay:     20,
		ReviewsPerDay:      100,
		GraduatingInterval: 2,
		EasyInterval:       4,
		MaxQuality:         5,
	}
	item := NewReviewItem("c1", "s1")
	next, err := Advance(item, 4, settings, testNow)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if next.Interval != 2 {
		t.Fatalf("expected graduating interval 2, got %d", next.Interval)
	}
}

func TestAdvanceGrowsIntervalByUpdatedEase(t *testing.T) {
	settings := model.DefaultSRSSettings()
	item := NewReviewItem("c1", "s1")
	item.State = model.StateReview
	item.Repetitions = 2
	item.Interval = 6
	item.EaseFactor = 2.5
	next, err := Advance(item, 4, settings, testNow)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	// q=4 keeps ease at 2.5, so round(6 * 2.5) = 15.
	if next.Interval != 15 {
		t.Fatalf("expected interval 15, got %d", next.Interval)
	}
	if next.NextReview == nil || !next.NextReview.Equal(testNow.AddDate(0, 0, 15)) {
		t.Fatalf("unexpected next review: %v", next.NextReview)
	}
}

func TestAdvanceGraduatedCardFails(t *testing.T) {
	settings := model.DefaultSRSSettings()
	item := NewReviewItem("c1", "s1")
	item.State = model.StateReview
	item.Repetitions = 5
	item.Interval = 30
	item.EaseFactor = 2.3
	next, err := Advance(item, 1, settings, testNow)
	if err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if next.State != model.StateRelearning {
		t.Fatalf("expected relearning, got %v", next.State)
	}
	if next.Repetitions != 0 {
		t.Fatalf("expected repetitions 0, got %d", next.Repetitions)
	}
	if next.Interval != FailureInterval {
		t.Fatalf("expected interval %d, got %d", FailureInterval, next.Interval)
	}
	if next.EaseFactor >= 2.3 || next.EaseFactor < MinEaseFactor {
		t.Fatalf("expected ease in [1.3, 2.3), got %v", next.EaseFactor)
	}
}

func TestAdvanceTimestampsOrdered(t *testing.T) {
	settings := model.DefaultSRSSettings()
	for q := model.Quality(0); q <= 5; q++ {
		item := NewReviewItem("c1", "s1")
		next, err := Advance(item, q, settings, testNow)
		if err != nil {
			t.Fatalf("Advance(q=%d) failed: %v", q, err)
		}
		if next.LastReview == nil || next.NextReview == nil {
			t.Fatalf("expected both timestamps set")
		}
		if next.NextReview.Before(*next.LastReview) {
			t.Fatalf("next review %v before last review %v", next.NextReview, next.LastReview)
		}
		if next.Interval < 1 {
			t.Fatalf("expected interval >= 1, got %d", next.Interval)
		}
	}
}

func TestAdvanceRejectsInvalidQuality(t *testing.T) {
	settings := model.DefaultSRSSettings()
	for _, q := range []model.Quality{-1, 6, 42} {
		if _, err := Advance(NewReviewItem("c1", "s1"), q, settings, testNow); !errors.Is(err, ErrInvalidQuality) {
			t.Fatalf("expected ErrInvalidQuality for q=%d, got %v", q, err)
		}
	}
}

func TestAdvanceRejectsInvalidSettings(t *testing.T) {
	settings := model.DefaultSRSSettings()
	settings.GraduatingInterval = 0
	if _, err := Advance(NewReviewItem("c1", "s1"), 4, settings, testNow); err == nil {
		t.Fatalf("expected error for invalid settings")
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	settings := model.DefaultSRSSettings()
	item := NewReviewItem("c1", "s1")
	item.State = model.StateReview
	item.Repetitions = 3
	item.Interval = 10
	before := item
	if _, err := Advance(item, 4, settings, testNow); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if item != before {
		t.Fatalf("input item mutated: %+v", item)
	}
}
