// Package game implements the memory game state machine.
//
// A Session owns one deck and four timers: the reveal window, the countdown
// tick, the flip-back delay and the win announcement. Timers capture the
// session generation when they are scheduled; a reset or Stop bumps the
// generation, so a timer that was already in flight finds a newer game and
// does nothing.
package game

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/playperu/memorama/internal/memory"
)

type Session struct {
	mu sync.Mutex

	clock  clock.Clock
	rng    *rand.Rand
	logger *slog.Logger
	notify func(Event)

	initialSeconds int
	revealWindow   time.Duration
	flipBackDelay  time.Duration
	winDelay       time.Duration
	tick           time.Duration

	template memory.Deck

	deck      memory.Deck
	revealed  bool
	flipped   []int
	matched   map[string]struct{}
	remaining int
	over      bool

	round   int
	wins    int
	losses  int
	outcome Outcome

	running bool
	stopped bool
	gen     uint64

	revealTimer *clock.Timer
	tickTimer   *clock.Timer
	flipTimer   *clock.Timer
	winTimer    *clock.Timer
}

// New builds a session with a freshly shuffled deck. Timers do not run until Start.
func New(opts Options) (*Session, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	template, err := memory.BuildDeck(opts.Images, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("building deck: %w", err)
	}

	s := &Session{
		clock:          opts.Clock,
		rng:            opts.Rand,
		logger:         opts.Logger,
		notify:         opts.Notify,
		initialSeconds: opts.InitialSeconds,
		revealWindow:   opts.RevealWindow,
		flipBackDelay:  opts.FlipBackDelay,
		winDelay:       opts.WinDelay,
		tick:           opts.Tick,
		template:       template,
	}
	s.newRoundLocked(slices.Clone(template))
	return s, nil
}

// Start begins the reveal window and the countdown. Calling Start on a
// running or stopped session does nothing.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.stopped {
		return
	}
	s.running = true
	s.scheduleRoundLocked()
	s.logger.Debug("game started", "round", s.round)
	s.emitLocked(EventStarted)
}

// Stop cancels every pending timer. A stopped session ignores clicks and
// cannot be restarted.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	s.running = false
	s.cancelTimersLocked()
	s.emitLocked(EventStopped)
}

// Click flips the card at index. It reports whether the click changed state.
func (s *Session) Click(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.over {
		return false
	}
	if index < 0 || index >= len(s.deck) {
		return false
	}
	if len(s.flipped) >= 2 || slices.Contains(s.flipped, index) {
		return false
	}
	if _, ok := s.matched[s.deck[index].ID]; ok {
		return false
	}

	s.flipped = append(s.flipped, index)
	s.emitLocked(EventFlipped)

	if len(s.flipped) < 2 {
		return true
	}

	first, second := s.deck[s.flipped[0]], s.deck[s.flipped[1]]
	if memory.Match(first, second) {
		s.matched[first.ID] = struct{}{}
		s.matched[second.ID] = struct{}{}
		s.emitLocked(EventMatched)
	} else {
		s.emitLocked(EventMismatched)
	}

	s.flipTimer = s.afterLocked(s.flipBackDelay, s.flipBackLocked)

	if len(s.matched) == len(s.deck) {
		s.over = true
		s.winTimer = s.afterLocked(s.winDelay, s.winLocked)
	}
	return true
}

// Reset discards the current round and deals a new one.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.resetLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) resetLocked() {
	s.cancelTimersLocked()

	deck := slices.Clone(s.template)
	memory.Shuffle(deck, s.rng)
	s.newRoundLocked(deck)

	if s.running {
		s.scheduleRoundLocked()
	}
	s.emitLocked(EventReset)
}

func (s *Session) newRoundLocked(deck memory.Deck) {
	s.gen++
	s.round++
	s.deck = deck
	s.revealed = true
	s.flipped = nil
	s.matched = make(map[string]struct{}, len(deck))
	s.remaining = s.initialSeconds
	s.over = false
}

func (s *Session) scheduleRoundLocked() {
	s.revealTimer = s.afterLocked(s.revealWindow, s.hideLocked)
	s.tickTimer = s.afterLocked(s.tick, s.tickLocked)
}

// afterLocked schedules fn on the session clock. fn runs with the lock held
// and only if the session is still running the same generation.
func (s *Session) afterLocked(d time.Duration, fn func()) *clock.Timer {
	gen := s.gen
	return s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.running || s.gen != gen {
			return
		}
		fn()
	})
}

func (s *Session) cancelTimersLocked() {
	for _, t := range []**clock.Timer{&s.revealTimer, &s.tickTimer, &s.flipTimer, &s.winTimer} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
	s.gen++
}

func (s *Session) hideLocked() {
	s.revealTimer = nil
	s.revealed = false
	s.emitLocked(EventHidden)
}

func (s *Session) flipBackLocked() {
	s.flipTimer = nil
	s.flipped = nil
	s.emitLocked(EventFlippedBack)
}

func (s *Session) tickLocked() {
	s.tickTimer = nil
	s.remaining--

	if s.remaining < 0 && !s.over {
		s.over = true
		s.losses++
		s.outcome = OutcomeLost
		s.emitLocked(EventTick)
		s.logger.Info("round lost", "round", s.round, "matched", len(s.matched))
		s.emitLocked(EventLost)
		s.resetLocked()
		return
	}

	s.tickTimer = s.afterLocked(s.tick, s.tickLocked)
	s.emitLocked(EventTick)
}

func (s *Session) winLocked() {
	s.winTimer = nil
	s.wins++
	s.outcome = OutcomeWon
	s.logger.Info("round won", "round", s.round, "remaining_seconds", s.remaining)
	s.emitLocked(EventWon)
	s.resetLocked()
}

func (s *Session) emitLocked(typ EventType) {
	s.notify(Event{Type: typ, State: s.snapshotLocked()})
}

func (s *Session) snapshotLocked() Snapshot {
	cards := make([]CardView, len(s.deck))
	for i, c := range s.deck {
		_, matched := s.matched[c.ID]
		cards[i] = CardView{
			Index:    i,
			ID:       c.ID,
			ImageRef: c.ImageRef,
			FaceUp:   s.revealed || matched || slices.Contains(s.flipped, i),
			Matched:  matched,
		}
	}

	matched := make([]string, 0, len(s.matched))
	for id := range s.matched {
		matched = append(matched, id)
	}
	slices.Sort(matched)

	flipped := slices.Clone(s.flipped)
	if flipped == nil {
		flipped = []int{}
	}

	return Snapshot{
		Round:            s.round,
		Cards:            cards,
		Revealed:         s.revealed,
		Flipped:          flipped,
		Matched:          matched,
		RemainingSeconds: s.remaining,
		Clock:            memory.FormatClock(s.remaining),
		Over:             s.over,
		Running:          s.running,
		LastOutcome:      s.outcome,
		Wins:             s.wins,
		Losses:           s.losses,
	}
}
