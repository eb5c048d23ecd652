package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/playperu/memorama/internal/memory"
)

const (
	DefaultInitialSeconds = 65
	DefaultRevealWindow   = 5 * time.Second
	DefaultFlipBackDelay  = time.Second
	DefaultWinDelay       = 500 * time.Millisecond
	DefaultTick           = time.Second
)

var ErrInvalidOptions = errors.New("invalid game options")

// Options configures a Session. Zero values take the defaults above.
type Options struct {
	Images         []memory.Image
	InitialSeconds int
	RevealWindow   time.Duration
	FlipBackDelay  time.Duration
	WinDelay       time.Duration
	Tick           time.Duration

	Clock  clock.Clock
	Rand   *rand.Rand
	Logger *slog.Logger

	// Notify receives every state change in order. It is called with the
	// session lock held and must not block or call back into the session.
	Notify func(Event)
}

func (o Options) withDefaults() (Options, error) {
	if o.Images == nil {
		images, err := memory.DefaultImages("")
		if err != nil {
			return o, err
		}
		o.Images = images
	}
	if o.InitialSeconds == 0 {
		o.InitialSeconds = DefaultInitialSeconds
	}
	if o.RevealWindow == 0 {
		o.RevealWindow = DefaultRevealWindow
	}
	if o.FlipBackDelay == 0 {
		o.FlipBackDelay = DefaultFlipBackDelay
	}
	if o.WinDelay == 0 {
		o.WinDelay = DefaultWinDelay
	}
	if o.Tick == 0 {
		o.Tick = DefaultTick
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Rand == nil {
		rng, err := memory.NewRand()
		if err != nil {
			return o, err
		}
		o.Rand = rng
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Notify == nil {
		o.Notify = func(Event) {}
	}
	return o, o.Validate()
}

// Validate reports the first out-of-range setting.
func (o Options) Validate() error {
	switch {
	case o.InitialSeconds < 0:
		return fmt.Errorf("%w: initial seconds %d", ErrInvalidOptions, o.InitialSeconds)
	case o.RevealWindow < 0:
		return fmt.Errorf("%w: reveal window %s", ErrInvalidOptions, o.RevealWindow)
	case o.FlipBackDelay < 0:
		return fmt.Errorf("%w: flip-back delay %s", ErrInvalidOptions, o.FlipBackDelay)
	case o.WinDelay < 0:
		return fmt.Errorf("%w: win delay %s", ErrInvalidOptions, o.WinDelay)
	case o.Tick < 0:
		return fmt.Errorf("%w: tick %s", ErrInvalidOptions, o.Tick)
	}
	return nil
}
