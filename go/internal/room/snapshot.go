package room

import (
	"time"

	"github.com/mvasilevs/zole/go/internal/game"
)

// PlayerView is the public slice of a seat.
type PlayerView struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
}

// TrickView is the trick in progress. Hands stay private; only cards
// already on the table appear here.
type TrickView struct {
	Leader int              `json:"leader"`
	Plays  []game.TrickPlay `json:"plays"`
}

// State is the public room snapshot broadcast on every change. It never
// contains hand contents or the talon.
type State struct {
	RoomID         string                     `json:"roomId"`
	Phase          Phase                      `json:"phase"`
	Players        [game.NumSeats]*PlayerView `json:"players"`
	TurnSeat       int                        `json:"turnSeat"` // -1 when no one is on the clock
	TurnEndsAt     *time.Time                 `json:"turnEndsAt,omitempty"`
	Contract       *game.Contract             `json:"contract,omitempty"`
	Declarer       int                        `json:"declarer"` // -1 before bidding resolves
	Bids           []game.Bid                 `json:"bids,omitempty"`
	CurrentTrick   *TrickView                 `json:"currentTrick,omitempty"`
	TricksTaken    [game.NumSeats]int         `json:"tricksTaken"`
	Scores         [game.NumSeats]int         `json:"scores"`
	RoundsPlayed   int                        `json:"roundsPlayed"`
	LastSettlement *SettlementSummary         `json:"lastSettlement,omitempty"`
	CreatedAt      time.Time                  `json:"createdAt"`
}

// Snapshot returns the current public state.
func (r *Room) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Room) stateLocked() State {
	st := State{
		RoomID:       r.id,
		Phase:        r.phase,
		TurnSeat:     r.turnSeatLocked(),
		Declarer:     -1,
		Scores:       r.scores,
		RoundsPlayed: r.roundsPlayed,
		CreatedAt:    r.createdAt,
	}
	for seat, s := range r.seats {
		if s != nil {
			st.Players[seat] = &PlayerView{
				Username:  s.Username,
				AvatarURL: s.AvatarURL,
				Ready:     s.Ready,
				Connected: s.Connected,
			}
		}
	}
	if !r.turnEndsAt.IsZero() {
		t := r.turnEndsAt
		st.TurnEndsAt = &t
	}
	if rd := r.round; rd != nil {
		st.Bids = append([]game.Bid(nil), rd.auction.Bids...)
		st.TricksTaken = rd.tricks
		if rd.auction.Resolved() {
			c := rd.contract
			st.Contract = &c
			st.Declarer = rd.declarer
		}
		if rd.current != nil {
			st.CurrentTrick = &TrickView{
				Leader: rd.current.Leader,
				Plays:  append([]game.TrickPlay(nil), rd.current.Plays...),
			}
		}
	}
	st.LastSettlement = r.lastSettlement
	return st
}

// turnSeatLocked reports who is due to act, or -1.
func (r *Room) turnSeatLocked() int {
	if r.round == nil {
		return -1
	}
	switch r.phase {
	case PhaseBidding:
		return r.round.auction.NextBidder()
	case PhaseDiscard:
		return r.round.declarer
	case PhasePlay:
		return r.round.current.NextSeat()
	}
	return -1
}

func (r *Room) emitChangedLocked() {
	r.emitter.RoomChanged(r.stateLocked())
}
