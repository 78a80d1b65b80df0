// Package scheduler owns the polling loops that keep the derived views
// fresh. It is the only stateful part of the app: each view's latest
// snapshot, replaced wholesale on every successful cycle. Aggregation
// itself stays in internal/aggregates and runs without any timer.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/patrickReiis/rap-battle-nostr/internal/aggregates"
	"github.com/patrickReiis/rap-battle-nostr/internal/config"
	"github.com/patrickReiis/rap-battle-nostr/internal/ops"
)

// View identifies one polled view
type View string

const (
	ViewRooms       View = "rooms"
	ViewRoom        View = "room"
	ViewVerses      View = "verses"
	ViewLeaderboard View = "leaderboard"
)

// Fetcher is the aggregation service the scheduler drives
type Fetcher interface {
	FetchRooms(ctx context.Context) ([]aggregates.BattleRoom, error)
	FetchRoomState(ctx context.Context, roomID string) (aggregates.RoomState, error)
	FetchRoomVerses(ctx context.Context, roomID string) ([]aggregates.Verse, error)
	FetchLeaderboard(ctx context.Context) (aggregates.Leaderboard, error)
}

// Snapshot is the latest known state of a view. After a failed cycle the
// previous value is kept and Err records why the refresh did not land; the
// next tick retries. Ready is false until the first successful fetch.
type Snapshot[T any] struct {
	Value     T
	FetchedAt time.Time
	Err       error
	Ready     bool
}

func (s *Snapshot[T]) store(value T, err error) {
	if err != nil {
		s.Err = err
		return
	}
	s.Value = value
	s.FetchedAt = time.Now()
	s.Err = nil
	s.Ready = true
}

// Intervals holds the per-view refresh periods
type Intervals struct {
	Rooms       time.Duration
	Room        time.Duration
	Verses      time.Duration
	Leaderboard time.Duration
}

// IntervalsFromConfig converts the polling config to durations
func IntervalsFromConfig(p *config.Polling) Intervals {
	return Intervals{
		Rooms:       p.RoomsInterval(),
		Room:        p.RoomInterval(),
		Verses:      p.VersesInterval(),
		Leaderboard: p.LeaderboardInterval(),
	}
}

type roomWatch struct {
	cancel     context.CancelFunc
	state      Snapshot[aggregates.RoomState]
	verses     Snapshot[[]aggregates.Verse]
	kickState  chan struct{}
	kickVerses chan struct{}
}

// Scheduler runs one polling goroutine per active view
type Scheduler struct {
	fetcher   Fetcher
	intervals Intervals
	log       *ops.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	rooms       Snapshot[[]aggregates.BattleRoom]
	leaderboard Snapshot[aggregates.Leaderboard]
	watches     map[string]*roomWatch

	kickRooms       chan struct{}
	kickLeaderboard chan struct{}
}

// New creates a scheduler around a fetcher
func New(ctx context.Context, fetcher Fetcher, intervals Intervals, log *ops.Logger) *Scheduler {
	schedCtx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		fetcher:         fetcher,
		intervals:       intervals,
		log:             log.WithComponent("scheduler"),
		ctx:             schedCtx,
		cancel:          cancel,
		watches:         make(map[string]*roomWatch),
		kickRooms:       make(chan struct{}, 1),
		kickLeaderboard: make(chan struct{}, 1),
	}
}

// Start begins polling the global views (rooms list and leaderboard).
// Per-room views start on WatchRoom.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop(s.ctx, string(ViewRooms), s.intervals.Rooms, s.kickRooms, func(ctx context.Context) error {
		rooms, err := s.fetcher.FetchRooms(ctx)
		s.mu.Lock()
		s.rooms.store(rooms, err)
		s.mu.Unlock()
		return err
	})

	s.wg.Add(1)
	go s.loop(s.ctx, string(ViewLeaderboard), s.intervals.Leaderboard, s.kickLeaderboard, func(ctx context.Context) error {
		lb, err := s.fetcher.FetchLeaderboard(ctx)
		s.mu.Lock()
		s.leaderboard.store(lb, err)
		s.mu.Unlock()
		return err
	})
}

// Stop cancels all polling loops and waits for them to exit
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// loop runs one cycle immediately, then on every tick or kick
func (s *Scheduler) loop(ctx context.Context, view string, interval time.Duration, kick <-chan struct{}, run func(context.Context) error) {
	defer s.wg.Done()

	cycle := func() {
		start := time.Now()
		err := run(ctx)
		elapsed := time.Since(start)
		ops.QueryDuration.WithLabelValues(view).Observe(elapsed.Seconds())
		ops.PollCycles.WithLabelValues(view, ops.OutcomeOf(err)).Inc()
		s.log.LogPollCycle(view, elapsed, err)
	}

	cycle()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycle()
		case <-kick:
			cycle()
		}
	}
}

// WatchRoom starts the state and verses loops for a room. Watching an
// already watched room is a no-op.
func (s *Scheduler) WatchRoom(roomID string) {
	s.mu.Lock()
	if _, ok := s.watches[roomID]; ok {
		s.mu.Unlock()
		return
	}

	watchCtx, cancel := context.WithCancel(s.ctx)
	watch := &roomWatch{
		cancel:     cancel,
		kickState:  make(chan struct{}, 1),
		kickVerses: make(chan struct{}, 1),
	}
	s.watches[roomID] = watch
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(watchCtx, string(ViewRoom), s.intervals.Room, watch.kickState, func(ctx context.Context) error {
		state, err := s.fetcher.FetchRoomState(ctx, roomID)
		s.mu.Lock()
		watch.state.store(state, err)
		s.mu.Unlock()
		return err
	})

	s.wg.Add(1)
	go s.loop(watchCtx, string(ViewVerses), s.intervals.Verses, watch.kickVerses, func(ctx context.Context) error {
		verses, err := s.fetcher.FetchRoomVerses(ctx, roomID)
		s.mu.Lock()
		watch.verses.store(verses, err)
		s.mu.Unlock()
		return err
	})
}

// UnwatchRoom stops a room's polling loops and drops its snapshots
func (s *Scheduler) UnwatchRoom(roomID string) {
	s.mu.Lock()
	watch, ok := s.watches[roomID]
	if ok {
		delete(s.watches, roomID)
	}
	s.mu.Unlock()

	if ok {
		watch.cancel()
	}
}

// Invalidate triggers an immediate refetch of a view, typically after a
// publish. roomID selects the watch for the per-room views and is ignored
// otherwise. A cycle already pending swallows the kick.
func (s *Scheduler) Invalidate(view View, roomID string) {
	switch view {
	case ViewRooms:
		kickNonBlocking(s.kickRooms)
	case ViewLeaderboard:
		kickNonBlocking(s.kickLeaderboard)
	case ViewRoom, ViewVerses:
		s.mu.RLock()
		watch, ok := s.watches[roomID]
		s.mu.RUnlock()
		if !ok {
			return
		}
		if view == ViewRoom {
			kickNonBlocking(watch.kickState)
		} else {
			kickNonBlocking(watch.kickVerses)
		}
	}
}

func kickNonBlocking(kick chan<- struct{}) {
	select {
	case kick <- struct{}{}:
	default:
	}
}

// Rooms returns the latest rooms-list snapshot
func (s *Scheduler) Rooms() Snapshot[[]aggregates.BattleRoom] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms
}

// Leaderboard returns the latest leaderboard snapshot
func (s *Scheduler) Leaderboard() Snapshot[aggregates.Leaderboard] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leaderboard
}

// RoomState returns a watched room's latest state snapshot
func (s *Scheduler) RoomState(roomID string) (Snapshot[aggregates.RoomState], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	watch, ok := s.watches[roomID]
	if !ok {
		return Snapshot[aggregates.RoomState]{}, false
	}
	return watch.state, true
}

// RoomVerses returns a watched room's latest verses snapshot
func (s *Scheduler) RoomVerses(roomID string) (Snapshot[[]aggregates.Verse], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	watch, ok := s.watches[roomID]
	if !ok {
		return Snapshot[[]aggregates.Verse]{}, false
	}
	return watch.verses, true
}
