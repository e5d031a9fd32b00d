package room

import (
	"testing"
	"time"

	"github.com/mvasilevs/zole/go/internal/game"
)

// progress is a monotonic count of accepted actions within one round.
func progress(st State) int {
	n := len(st.Bids)
	for _, tricks := range st.TricksTaken {
		n += tricks * game.NumSeats
	}
	if st.CurrentTrick != nil {
		n += len(st.CurrentTrick.Plays)
	}
	return n
}

// waitFor polls until cond on the snapshot holds, failing after a real-time
// deadline. Timer firings run on their own goroutine, so tests observe them
// through the snapshot.
func waitFor(t *testing.T, r *Room, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := r.Snapshot()
		if cond(st) {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
	return State{}
}

func TestBidDeadlineAutoPasses(t *testing.T) {
	r, clock := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)

	clock.BlockUntil(1)
	clock.Advance(DefaultConfig().BidTimeout)

	st := waitFor(t, r, func(st State) bool { return len(st.Bids) == 1 })
	if st.Bids[0].Seat != 0 || st.Bids[0].Value != game.Pass {
		t.Fatalf("expected seat 0 auto-pass, got %+v", st.Bids[0])
	}
	if st.TurnSeat != 1 {
		t.Fatalf("expected seat 1 on the clock, got %d", st.TurnSeat)
	}
}

func TestActionCancelsPendingDeadline(t *testing.T) {
	r, clock := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)

	clock.BlockUntil(1)
	if err := r.Bid(0, game.Pass); err != nil {
		t.Fatalf("bid: %v", err)
	}

	// The old deadline is gone; advancing past it must expire only the
	// fresh one, producing exactly one further auto-pass.
	clock.BlockUntil(1)
	clock.Advance(DefaultConfig().BidTimeout)

	st := waitFor(t, r, func(st State) bool { return len(st.Bids) == 2 })
	if st.Bids[1].Seat != 1 || st.Bids[1].Value != game.Pass {
		t.Fatalf("expected seat 1 auto-pass, got %+v", st.Bids[1])
	}
}

func TestDiscardDeadlineAutoDiscards(t *testing.T) {
	r, clock := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)
	rigHands(r)

	if err := r.Bid(0, game.Take); err != nil {
		t.Fatalf("bid take: %v", err)
	}
	if err := r.Bid(1, game.Pass); err != nil {
		t.Fatalf("bid pass: %v", err)
	}
	if err := r.Bid(2, game.Pass); err != nil {
		t.Fatalf("bid pass: %v", err)
	}
	if got := r.Snapshot().Phase; got != PhaseDiscard {
		t.Fatalf("expected DISCARD, got %s", got)
	}
	if got := len(r.HandOf(0)); got != game.HandSize+game.TalonSize {
		t.Fatalf("declarer should hold %d cards after pickup, got %d", game.HandSize+game.TalonSize, got)
	}

	clock.BlockUntil(1)
	clock.Advance(DefaultConfig().DiscardTimeout)

	st := waitFor(t, r, func(st State) bool { return st.Phase == PhasePlay })
	if got := len(r.HandOf(0)); got != game.HandSize {
		t.Fatalf("auto-discard should leave %d cards, got %d", game.HandSize, got)
	}
	if st.TurnSeat != 0 {
		t.Fatalf("first bidder should lead, got seat %d", st.TurnSeat)
	}
}

func TestDeadlinesDriveWholeRound(t *testing.T) {
	emitter := newRecordingEmitter()
	r, clock := newTestRoom(t, emitter)
	seatPlayers(t, r)
	startRound(t, r)

	cfg := DefaultConfig()
	maxTimeout := cfg.DiscardTimeout

	// Three auto-passes resolve bidding into GALDIŅŠ, then auto-plays
	// finish all eight tricks.
	last := progress(r.Snapshot())
	for i := 0; i < game.NumSeats+game.NumTricks*game.NumSeats; i++ {
		clock.BlockUntil(1)
		clock.Advance(maxTimeout)
		st := waitFor(t, r, func(st State) bool {
			return st.Phase == PhaseWaiting || progress(st) > last
		})
		if st.Phase == PhaseWaiting {
			break
		}
		last = progress(st)
	}

	st := waitFor(t, r, func(st State) bool { return st.Phase == PhaseWaiting })
	if st.RoundsPlayed != 1 {
		t.Fatalf("expected one settled round, got %d", st.RoundsPlayed)
	}
	s, ok := emitter.lastSettled()
	if !ok {
		t.Fatal("expected a settlement")
	}
	if s.Contract != game.ContractGaldins {
		t.Errorf("contract = %s, want GALDIŅŠ", s.Contract)
	}
	totalTricks := 0
	for _, n := range s.Tricks {
		totalTricks += n
	}
	if totalTricks != game.NumTricks {
		t.Errorf("tricks sum to %d, want %d", totalTricks, game.NumTricks)
	}
}

func TestTurnEndsAtTracksDeadline(t *testing.T) {
	r, clock := newTestRoom(t, nil)
	seatPlayers(t, r)

	if !r.TurnEndsAt().IsZero() {
		t.Fatal("no deadline should exist before a round starts")
	}
	startRound(t, r)

	want := clock.Now().Add(DefaultConfig().BidTimeout)
	if got := r.TurnEndsAt(); !got.Equal(want) {
		t.Fatalf("TurnEndsAt = %v, want %v", got, want)
	}

	r.Close()
	if !r.TurnEndsAt().IsZero() {
		t.Fatal("close should clear the deadline")
	}
}
