// Package session drives one review pass over the due cards of a set.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/tuicards/internal/model"
)

// Sentinel errors for session dispatch.
var (
	ErrNoCurrentCard  = errors.New("session: no current card")
	ErrInvalidQuality = errors.New("session: quality out of range 0..5")
)

// Status is the derived presentation state of a session.
type Status int

const (
	StatusShowingFront Status = iota + 1
	StatusShowingBack
	StatusCompleted
)

var statusNames = [...]string{
	StatusShowingFront: "showing_front",
	StatusShowingBack:  "showing_back",
	StatusCompleted:    "completed",
}

// String returns the name of the status.
func (s Status) String() string {
	if s >= StatusShowingFront && s <= StatusCompleted {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Context holds the state of one review pass. It is only mutated through
// Reduce; completion is derived from index and queue length, never stored.
type Context struct {
	Queue     []string // due card ids, in review order
	Index     int
	Reviewed  map[string]struct{}
	Correct   map[string]struct{}
	Ratings   map[string]model.Quality
	Flipped   bool
	StartedAt time.Time
}

// Event is a session state machine input.
type Event interface{ isEvent() }

// Init starts a session over the given due queue.
type Init struct {
	Queue []string
	Now   time.Time
}

// Flip reveals the back of the current card. No-op when already flipped
// or when the session is complete.
type Flip struct{}

// Rate records a quality rating for the current card. It does not advance
// the index; Next is a separate event so callers can show feedback first.
type Rate struct{ Quality model.Quality }

// Next advances to the following card and hides the back again.
type Next struct{}

// Skip marks the current card reviewed without a rating and advances.
type Skip struct{}

// Restart behaves like Init with a freshly recomputed queue.
type Restart struct {
	Queue []string
	Now   time.Time
}

func (Init) isEvent()    {}
func (Flip) isEvent()    {}
func (Rate) isEvent()    {}
func (Next) isEvent()    {}
func (Skip) isEvent()    {}
func (Restart) isEvent() {}

// Reduce applies an event to a context and returns the resulting context.
// The input context is not modified.
func Reduce(ctx Context, ev Event) (Context, error) {
	switch ev := ev.(type) {
	case Init:
		return newContext(ev.Queue, ev.Now), nil
	case Restart:
		return newContext(ev.Queue, ev.Now), nil
	case Flip:
		if ctx.Completed() || ctx.Flipped {
			return ctx, nil
		}
		out := ctx
		out.Flipped = true
		return out, nil
	case Rate:
		if !ev.Quality.IsValid() {
			return ctx, fmt.Errorf("%w: %d", ErrInvalidQuality, int(ev.Quality))
		}
		cardID, ok := ctx.CurrentCardID()
		if !ok {
			return ctx, ErrNoCurrentCard
		}
		out := ctx
		out.Reviewed = cloneSet(ctx.Reviewed)
		out.Correct = cloneSet(ctx.Correct)
		out.Ratings = cloneRatings(ctx.Ratings)
		out.Reviewed[cardID] = struct{}{}
		out.Ratings[cardID] = ev.Quality
		if ev.Quality.Success() {
			out.Correct[cardID] = struct{}{}
		} else {
			delete(out.Correct, cardID)
		}
		return out, nil
	case Next:
		if ctx.Completed() {
			return ctx, nil
		}
		out := ctx
		out.Index++
		out.Flipped = false
		return out, nil
	case Skip:
		cardID, ok := ctx.CurrentCardID()
		if !ok {
			return ctx, ErrNoCurrentCard
		}
		out := ctx
		out.Reviewed = cloneSet(ctx.Reviewed)
		out.Reviewed[cardID] = struct{}{}
		out.Index++
		out.Flipped = false
		return out, nil
	default:
		return ctx, fmt.Errorf("session: unknown event %T", ev)
	}
}

func newContext(queue []string, now time.Time) Context {
	return Context{
		Queue:     append([]string(nil), queue...),
		Reviewed:  map[string]struct{}{},
		Correct:   map[string]struct{}{},
		Ratings:   map[string]model.Quality{},
		StartedAt: now,
	}
}

// Completed reports whether the queue is exhausted.
func (c Context) Completed() bool {
	return c.Index >= len(c.Queue)
}

// Status derives the presentation state from index, queue length and flip
// flag alone.
func (c Context) Status() Status {
	switch {
	case c.Completed():
		return StatusCompleted
	case c.Flipped:
		return StatusShowingBack
	default:
		return StatusShowingFront
	}
}

// CurrentCardID returns the card id at the current index, if any.
func (c Context) CurrentCardID() (string, bool) {
	if c.Completed() {
		return "", false
	}
	return c.Queue[c.Index], true
}

// ReviewedCount returns how many cards were reviewed this session,
// including skips.
func (c Context) ReviewedCount() int {
	return len(c.Reviewed)
}

// CorrectCount returns how many cards were rated as successful recalls.
func (c Context) CorrectCount() int {
	return len(c.Correct)
}

// IncorrectCount returns how many rated cards were failures. Skipped cards
// carry no rating and are not counted.
func (c Context) IncorrectCount() int {
	return len(c.Ratings) - len(c.Correct)
}

func cloneSet(m map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(m)+1)
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func cloneRatings(m map[string]model.Quality) map[string]model.Quality {
	out := make(map[string]model.Quality, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
