package srs

import (
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/tuicards/internal/model"
)

func testSet(ids ...string) model.FlashcardSet {
	set := model.FlashcardSet{ID: "s1"}
	for _, id := range ids {
		set.Cards = append(set.Cards, model.Card{ID: id, Front: id, Back: id + "-back"})
	}
	return set
}

func reviewItemAt(cardID string, state model.State, next time.Time) model.ReviewItem {
	item := NewReviewItem(cardID, "s1")
	item.State = state
	item.Repetitions = 1
	item.Interval = 1
	item.NextReview = &next
	return item
}

func TestSelectDueReviewsBeforeNew(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	set := testSet("a", "b", "c")
	items := map[string]model.ReviewItem{
		"a": NewReviewItem("a", "s1"),
		"b": reviewItemAt("b", model.StateReview, now.Add(-time.Hour)),
		"c": reviewItemAt("c", model.StateRelearning, now.Add(-2*time.Hour)),
	}
	queue := SelectDue(set, items, model.DefaultSRSSettings(), now)
	want := []string{"c", "b", "a"}
	if !reflect.DeepEqual(queue, want) {
		t.Fatalf("expected %v, got %v", want, queue)
	}
}

func TestSelectDueSkipsFutureCards(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	set := testSet("a", "b")
	items := map[string]model.ReviewItem{
		"a": reviewItemAt("a", model.StateReview, now.Add(time.Hour)),
		"b": reviewItemAt("b", model.StateReview, now),
	}
	queue := SelectDue(set, items, model.DefaultSRSSettings(), now)
	want := []string{"b"}
	if !reflect.DeepEqual(queue, want) {
		t.Fatalf("expected %v, got %v", want, queue)
	}
}

func TestSelectDueMissingItemsAreNew(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	set := testSet("a", "b")
	queue := SelectDue(set, map[string]model.ReviewItem{}, model.DefaultSRSSettings(), now)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(queue, want) {
		t.Fatalf("expected %v, got %v", want, queue)
	}
}

func TestSelectDueCapsNewCards(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	set := testSet("a", "b", "c", "d", "e")
	settings := model.DefaultSRSSettings()
	settings.NewCardsPerDay = 2
	queue := SelectDue(set, map[string]model.ReviewItem{}, settings, now)
	// Tie-break is card order in the set definition.
	want := []string{"a", "b"}
	if !reflect.DeepEqual(queue, want) {
		t.Fatalf("expected %v, got %v", want, queue)
	}
}

func TestSelectDueCapsReviews(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	set := testSet("a", "b", "c")
	items := map[string]model.ReviewItem{
		"a": reviewItemAt("a", model.StateReview, now.Add(-time.Minute)),
		"b": reviewItemAt("b", model.StateReview, now.Add(-time.Hour)),
		"c": reviewItemAt("c", model.StateReview, now.Add(-time.Second)),
	}
	settings := model.DefaultSRSSettings()
	settings.ReviewsPerDay = 2
	queue := SelectDue(set, items, settings, now)
	want := []string{"b", "a"}
	if !reflect.DeepEqual(queue, want) {
		t.Fatalf("expected %v, got %v", want, queue)
	}
}

func TestSelectDueZeroCaps(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	set := testSet("a", "b")
	items := map[string]model.ReviewItem{
		"b": reviewItemAt("b", model.StateReview, now.Add(-time.Hour)),
	}
	settings := model.DefaultSRSSettings()
	settings.NewCardsPerDay = 0
	settings.ReviewsPerDay = 0
	if queue := SelectDue(set, items, settings, now); len(queue) != 0 {
		t.Fatalf("expected empty queue, got %v", queue)
	}
}

func TestSelectDueTieBreakIsSetOrder(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	set := testSet("z", "m", "a")
	items := map[string]model.ReviewItem{
		"z": reviewItemAt("z", model.StateReview, due),
		"m": reviewItemAt("m", model.StateReview, due),
		"a": reviewItemAt("a", model.StateReview, due),
	}
	queue := SelectDue(set, items, model.DefaultSRSSettings(), now)
	want := []string{"z", "m", "a"}
	if !reflect.DeepEqual(queue, want) {
		t.Fatalf("expected %v, got %v", want, queue)
	}
}

func TestSelectDueDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	set := testSet("a", "b", "c", "d")
	items := map[string]model.ReviewItem{
		"a": NewReviewItem("a", "s1"),
		"b": reviewItemAt("b", model.StateReview, now.Add(-time.Hour)),
		"d": reviewItemAt("d", model.StateLearning, now.Add(-time.Minute)),
	}
	first := SelectDue(set, items, model.DefaultSRSSettings(), now)
	for i := 0; i < 10; i++ {
		again := SelectDue(set, items, model.DefaultSRSSettings(), now)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("selection not deterministic: %v vs %v", first, again)
		}
	}
}
