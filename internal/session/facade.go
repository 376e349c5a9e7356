package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuicards/internal/model"
	"github.com/verte-zerg/tuicards/internal/srs"
)

// ItemStore is the persistence boundary the façade writes through. The
// concrete SQLite store satisfies it; tests use an in-memory fake.
type ItemStore interface {
	LoadAll(ctx context.Context, setID string) ([]model.ReviewItem, error)
	Save(ctx context.Context, item model.ReviewItem) error
	AppendLog(ctx context.Context, entry model.ReviewLogEntry) error
}

// Progress reports position within the current session.
type Progress struct {
	Current  int // zero-based index of the showing card
	Total    int // due-queue length
	Reviewed int // cards reviewed this session, including skips
}

// Tally reports session counters for the footer.
type Tally struct {
	Correct   int
	Incorrect int
	DueToday  int // due-queue length at session start
}

// ViewState is the read model consumed by the rendering layer. All fields
// are derived from the session context; CurrentCard and CurrentItem are nil
// once the session is complete.
type ViewState struct {
	CurrentCard *model.Card
	CurrentItem *model.ReviewItem
	Flipped     bool
	Status      Status
	Progress    Progress
	Tally       Tally
}

// Options configures a Session.
type Options struct {
	Settings   model.SRSSettings
	Clock      func() time.Time           // nil defaults to time.Now
	OnComplete func(model.SessionSummary) // fired once per session
	OnError    func(error)                // async persistence failures
}

// Session is the boundary the rendering layer talks to. Dispatch is
// single-threaded: Flip/Rate/Next/Skip/Restart must not be called
// concurrently. Persistence runs in the background; a later write for the
// same card supersedes an in-flight earlier one.
type Session struct {
	store      ItemStore
	settings   model.SRSSettings
	clock      func() time.Time
	onComplete func(model.SessionSummary)
	onError    func(error)

	set       model.FlashcardSet
	items     map[string]model.ReviewItem
	ctx       Context
	sessionID string
	dueToday  int
	fired     bool

	mu      sync.Mutex
	pending map[string]*pendingWrite
	wg      sync.WaitGroup
}

type pendingWrite struct {
	cancel context.CancelFunc
}

// NewSession creates a session façade over the given store.
func NewSession(store ItemStore, opts Options) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Session{
		store:      store,
		settings:   opts.Settings,
		clock:      clock,
		onComplete: opts.OnComplete,
		onError:    opts.OnError,
		pending:    map[string]*pendingWrite{},
	}, nil
}

// Start loads persisted review items for the set, synthesizes fresh items
// for unseen cards, selects the due queue and initializes the session.
// A failed load is surfaced through OnError but not fatal: the session
// starts as if no history existed.
func (s *Session) Start(ctx context.Context, set model.FlashcardSet) (ViewState, error) {
	stored, err := s.store.LoadAll(ctx, set.ID)
	if err != nil {
		s.reportError(fmt.Errorf("load review items for %q: %w", set.ID, err))
		stored = nil
	}

	items := make(map[string]model.ReviewItem, len(set.Cards))
	for _, item := range stored {
		items[item.CardID] = item
	}
	for _, card := range set.Cards {
		if _, ok := items[card.ID]; !ok {
			items[card.ID] = srs.NewReviewItem(card.ID, set.ID)
		}
	}

	now := s.clock()
	queue := srs.SelectDue(set, items, s.settings, now)

	s.set = set
	s.items = items
	s.sessionID = uuid.NewString()
	s.dueToday = len(queue)
	s.fired = false
	s.ctx, err = Reduce(Context{}, Init{Queue: queue, Now: now})
	if err != nil {
		return ViewState{}, err
	}
	return s.View(), nil
}

// Flip reveals the back of the current card.
func (s *Session) Flip() ViewState {
	next, err := Reduce(s.ctx, Flip{})
	if err == nil {
		s.ctx = next
	}
	return s.View()
}

// Rate records a quality rating for the current card, advances its
// scheduling state and persists the result in the background. The index is
// not advanced; call Next once feedback has been shown.
func (s *Session) Rate(quality model.Quality) (ViewState, error) {
	cardID, ok := s.ctx.CurrentCardID()
	if !ok {
		return s.View(), ErrNoCurrentCard
	}
	next, err := Reduce(s.ctx, Rate{Quality: quality})
	if err != nil {
		return s.View(), err
	}

	now := s.clock()
	advanced, err := srs.Advance(s.items[cardID], quality, s.settings, now)
	if err != nil {
		return s.View(), err
	}

	s.ctx = next
	s.items[cardID] = advanced
	s.persistAsync(advanced, model.ReviewLogEntry{
		SessionID:  s.sessionID,
		SetID:      advanced.SetID,
		CardID:     advanced.CardID,
		Quality:    quality,
		Interval:   advanced.Interval,
		EaseFactor: advanced.EaseFactor,
		State:      advanced.State,
		ReviewedAt: now,
	})
	return s.View(), nil
}

// Next advances to the following card.
func (s *Session) Next() ViewState {
	next, err := Reduce(s.ctx, Next{})
	if err == nil {
		s.ctx = next
	}
	s.maybeComplete()
	return s.View()
}

// Skip marks the current card reviewed without a rating and advances.
func (s *Session) Skip() (ViewState, error) {
	next, err := Reduce(s.ctx, Skip{})
	if err != nil {
		return s.View(), err
	}
	s.ctx = next
	s.maybeComplete()
	return s.View(), nil
}

// Restart recomputes the due queue from the in-memory items and starts a
// fresh session over it.
func (s *Session) Restart() ViewState {
	now := s.clock()
	queue := srs.SelectDue(s.set, s.items, s.settings, now)
	next, err := Reduce(s.ctx, Restart{Queue: queue, Now: now})
	if err == nil {
		s.ctx = next
	}
	s.sessionID = uuid.NewString()
	s.dueToday = len(queue)
	s.fired = false
	return s.View()
}

// View derives the current read model.
func (s *Session) View() ViewState {
	view := ViewState{
		Flipped: s.ctx.Flipped,
		Status:  s.ctx.Status(),
		Progress: Progress{
			Current:  s.ctx.Index,
			Total:    len(s.ctx.Queue),
			Reviewed: s.ctx.ReviewedCount(),
		},
		Tally: Tally{
			Correct:   s.ctx.CorrectCount(),
			Incorrect: s.ctx.IncorrectCount(),
			DueToday:  s.dueToday,
		},
	}
	cardID, ok := s.ctx.CurrentCardID()
	if !ok {
		return view
	}
	if card, found := s.set.CardByID(cardID); found {
		view.CurrentCard = &card
	}
	if item, found := s.items[cardID]; found {
		clone := item.Clone()
		view.CurrentItem = &clone
	}
	return view
}

// Flush blocks until all background writes have settled. Call before
// closing the store.
func (s *Session) Flush() {
	s.wg.Wait()
}

func (s *Session) maybeComplete() {
	if s.fired || !s.ctx.Completed() || s.ctx.ReviewedCount() == 0 {
		return
	}
	s.fired = true
	if s.onComplete == nil {
		return
	}
	s.onComplete(model.SessionSummary{
		SessionID: s.sessionID,
		SetID:     s.set.ID,
		Reviewed:  s.ctx.ReviewedCount(),
		Correct:   s.ctx.CorrectCount(),
		Incorrect: s.ctx.IncorrectCount(),
		StartedAt: s.ctx.StartedAt,
		EndedAt:   s.clock(),
	})
}

// persistAsync writes the item and its log entry in the background. A later
// write for the same (set, card) key cancels an in-flight earlier one, so
// the last rating in session order wins.
func (s *Session) persistAsync(item model.ReviewItem, entry model.ReviewLogEntry) {
	key := item.SetID + "\x00" + item.CardID

	wctx, cancel := context.WithCancel(context.Background())
	write := &pendingWrite{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.pending[key]; ok {
		prev.cancel()
	}
	s.pending[key] = write
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			if s.pending[key] == write {
				delete(s.pending, key)
			}
			s.mu.Unlock()
			cancel()
		}()

		if err := s.store.Save(wctx, item); err != nil {
			if wctx.Err() == nil {
				s.reportError(fmt.Errorf("save review item %s/%s: %w", item.SetID, item.CardID, err))
			}
			return
		}
		if err := s.store.AppendLog(wctx, entry); err != nil {
			if wctx.Err() == nil {
				s.reportError(fmt.Errorf("append review log %s/%s: %w", entry.SetID, entry.CardID, err))
			}
		}
	}()
}

func (s *Session) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
