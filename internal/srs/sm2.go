// Package srs implements the SM-2 spaced-repetition scheduler.
package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/tuicards/internal/model"
)

const (
	// InitialEaseFactor is assigned to never-reviewed cards.
	InitialEaseFactor = 2.5
	// MinEaseFactor is the floor the computed ease factor is clamped to.
	MinEaseFactor = 1.3
	// FailureInterval is the fixed lapse interval in days. A failed recall
	// always schedules the card this many days out, regardless of settings.
	FailureInterval = 1
)

// ErrInvalidQuality reports a rating outside the 0..5 domain.
var ErrInvalidQuality = errors.New("srs: quality out of range 0..5")

// NewReviewItem returns fresh scheduling state for a card that has never
// been reviewed. It is a pure constructor: the same ids always produce
// structurally identical items.
func NewReviewItem(cardID, setID string) model.ReviewItem {
	return model.ReviewItem{
		CardID:     cardID,
		SetID:      setID,
		EaseFactor: InitialEaseFactor,
		State:      model.StateNew,
	}
}

// Advance computes the next scheduling state for an item rated with the
// given quality at the given time. The input item is not modified.
//
// Failure (quality < 3) resets the repetition streak and schedules the card
// FailureInterval days out. Success schedules the graduating or easy
// interval on the first repetition, then grows the interval by the updated
// ease factor. The ease factor is recomputed on every call and clamped to
// MinEaseFactor.
func Advance(item model.ReviewItem, quality model.Quality, settings model.SRSSettings, now time.Time) (model.ReviewItem, error) {
	if !quality.IsValid() {
		return model.ReviewItem{}, fmt.Errorf("%w: %d", ErrInvalidQuality, int(quality))
	}
	if err := settings.Validate(); err != nil {
		return model.ReviewItem{}, fmt.Errorf("invalid settings: %w", err)
	}

	next := item.Clone()

	// EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02)), clamped to MinEaseFactor.
	q := float64(quality)
	ease := item.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ease < MinEaseFactor {
		ease = MinEaseFactor
	}
	next.EaseFactor = ease

	if quality.Success() {
		next.Repetitions = item.Repetitions + 1
		if next.Repetitions == 1 {
			if int(quality) >= settings.MaxQuality {
				next.Interval = settings.EasyInterval
			} else {
				next.Interval = settings.GraduatingInterval
			}
		} else {
			interval := int(math.Round(float64(item.Interval) * ease))
			if interval < 1 {
				interval = 1
			}
			next.Interval = interval
		}
		next.State = model.StateReview
	} else {
		next.Repetitions = 0
		next.Interval = FailureInterval
		if item.State == model.StateReview || item.State == model.StateRelearning {
			next.State = model.StateRelearning
		} else {
			next.State = model.StateLearning
		}
	}

	last := now
	due := now.AddDate(0, 0, next.Interval)
	next.LastReview = &last
	next.NextReview = &due
	return next, nil
}
