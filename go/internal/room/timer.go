package room

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/game"
)

// scheduleTurnLocked arms the deadline for the seat currently due to act,
// replacing any pending one. Each deadline carries a generation number; a
// firing that lost the race against a client action finds the generation
// advanced and does nothing, so the serialization order alone decides who
// wins.
func (r *Room) scheduleTurnLocked(d time.Duration) {
	r.cancelTimerLocked()
	r.timerGen++
	gen := r.timerGen
	r.turnEndsAt = r.clock.Now().Add(d)

	t := r.clock.NewTimer(d)
	cancel := make(chan struct{})
	r.pending = t
	r.pendingCancel = cancel

	go func() {
		select {
		case <-t.Chan():
			r.expire(gen)
		case <-cancel:
		case <-r.done:
			stopAndDrainTimer(t)
		}
	}()
}

// cancelTimerLocked stops the pending deadline exactly once.
func (r *Room) cancelTimerLocked() {
	if r.pending != nil {
		stopAndDrainTimer(r.pending)
		close(r.pendingCancel)
		r.pending = nil
		r.pendingCancel = nil
	}
	r.turnEndsAt = time.Time{}
}

// stopAndDrainTimer safely stops a timer, draining its channel when it
// already fired, per the time.Timer.Stop documentation.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}

// expire injects the phase's auto-action through the same validation path
// as a client intent: auto-pass in BIDDING, a deterministic discard in
// DISCARD, the lowest legal card in PLAY.
func (r *Room) expire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || gen != r.timerGen {
		return
	}

	var err error
	switch r.phase {
	case PhaseBidding:
		seat := r.round.auction.NextBidder()
		log.Info().Str("room_id", r.id).Int("seat", seat).Msg("bid deadline expired, auto-pass")
		err = r.bidLocked(seat, game.Pass)
	case PhaseDiscard:
		seat := r.round.declarer
		cards := r.round.autoDiscard()
		log.Info().Str("room_id", r.id).Int("seat", seat).Msg("discard deadline expired, auto-discard")
		err = r.discardLocked(seat, cards)
	case PhasePlay:
		seat := r.round.current.NextSeat()
		card := r.round.current.LowestLegal(r.round.hands[seat])
		log.Info().Str("room_id", r.id).Int("seat", seat).Stringer("card", card).
			Msg("play deadline expired, auto-play")
		err = r.playLocked(seat, card)
	default:
		return
	}
	if err != nil {
		// The auto-action went through the ordinary validation path, so a
		// rejection here means the room state changed under us.
		log.Error().Err(err).Str("room_id", r.id).Msg("auto-action rejected")
	}
}

// TurnEndsAt returns the absolute deadline for the acting seat, or a zero
// time when no one is on the clock.
func (r *Room) TurnEndsAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turnEndsAt
}
