package server

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/playperu/memorama/internal/game"
)

func TestRegistryLifecycle(t *testing.T) {
	broker := NewBroker()
	games := NewRegistry(game.Options{Clock: clock.NewMock()}, broker, slog.Default(), 0)

	id, sess, err := games.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := games.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != sess {
		t.Error("get returned a different session")
	}

	if err := games.Remove(id); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if sess.Snapshot().Running {
		t.Error("removed session still running")
	}
	if _, err := games.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after remove: err = %v, want ErrNotFound", err)
	}
	if err := games.Remove(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove: err = %v, want ErrNotFound", err)
	}
}

func TestRegistrySessionsPublishUnderOwnID(t *testing.T) {
	broker := NewBroker()
	games := NewRegistry(game.Options{Clock: clock.NewMock()}, broker, slog.Default(), 0)
	defer games.Close()

	idA, a, _ := games.Create()
	idB, _, _ := games.Create()

	chA := broker.Subscribe(idA)
	defer broker.Unsubscribe(idA, chA)
	chB := broker.Subscribe(idB)
	defer broker.Unsubscribe(idB, chB)

	a.Click(0)

	select {
	case f := <-chA:
		if f.Type != string(game.EventFlipped) {
			t.Errorf("frame type = %q, want flipped", f.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("no frame for game A")
	}

	select {
	case f := <-chB:
		t.Errorf("game B received %q from game A", f.Type)
	default:
	}
}

func TestRegistryReapIdle(t *testing.T) {
	mock := clock.NewMock()
	// Long game timers keep the mock from firing thousands of ticks below.
	opts := game.Options{Clock: mock, Tick: time.Hour, RevealWindow: time.Hour}
	games := NewRegistry(opts, NewBroker(), slog.Default(), 0)
	defer games.Close()

	idle, idleSess, _ := games.Create()
	mock.Add(20 * time.Minute)
	active, _, _ := games.Create()
	mock.Add(15 * time.Minute)

	if n := games.reapIdle(30 * time.Minute); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if _, err := games.Get(idle); !errors.Is(err, ErrNotFound) {
		t.Errorf("idle game still registered: %v", err)
	}
	if idleSess.Snapshot().Running {
		t.Error("reaped session still running")
	}
	if _, err := games.Get(active); err != nil {
		t.Errorf("active game reaped: %v", err)
	}
}

func TestRegistryReapStopsWithContext(t *testing.T) {
	games := NewRegistry(game.Options{Clock: clock.NewMock()}, NewBroker(), slog.Default(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- games.Reap(ctx, time.Minute, time.Second) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("reap: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reap did not return after cancel")
	}
}

func TestRegistryClose(t *testing.T) {
	games := NewRegistry(game.Options{Clock: clock.NewMock()}, NewBroker(), slog.Default(), 0)
	_, sess, _ := games.Create()

	games.Close()

	if sess.Snapshot().Running {
		t.Error("session still running after close")
	}
	if _, _, err := games.Create(); !errors.Is(err, ErrClosed) {
		t.Errorf("create after close: err = %v, want ErrClosed", err)
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	broker := NewBroker()
	ch := broker.Subscribe("g")

	for range 20 {
		broker.Publish("g", game.Event{Type: game.EventTick})
	}
	if got := len(ch); got != cap(ch) {
		t.Errorf("buffered %d frames, want %d", got, cap(ch))
	}

	broker.Unsubscribe("g", ch)
	if n := broker.Subscribers("g"); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestRegistryTouchDefersReap(t *testing.T) {
	mock := clock.NewMock()
	opts := game.Options{Clock: mock, Tick: time.Hour, RevealWindow: time.Hour}
	games := NewRegistry(opts, NewBroker(), slog.Default(), 0)
	defer games.Close()

	id, _, _ := games.Create()
	mock.Add(20 * time.Minute)
	games.Touch(id)
	mock.Add(15 * time.Minute)

	if n := games.reapIdle(30 * time.Minute); n != 0 {
		t.Fatalf("reaped %d, want 0 after touch", n)
	}

	games.Touch("missing")
}

func TestRegistryReapSkipsStreamedGames(t *testing.T) {
	mock := clock.NewMock()
	opts := game.Options{Clock: mock, Tick: time.Hour, RevealWindow: time.Hour}
	broker := NewBroker()
	games := NewRegistry(opts, broker, slog.Default(), 0)
	defer games.Close()

	id, _, _ := games.Create()
	ch := broker.Subscribe(id)
	mock.Add(35 * time.Minute)

	if n := games.reapIdle(30 * time.Minute); n != 0 {
		t.Fatalf("reaped %d while a stream was open", n)
	}

	broker.Unsubscribe(id, ch)
	if n := games.reapIdle(30 * time.Minute); n != 1 {
		t.Fatalf("reaped %d after the stream closed, want 1", n)
	}
}
