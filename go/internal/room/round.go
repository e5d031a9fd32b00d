package room

import (
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/game"
)

// round is one contract being played. Bids and tricks are append-only;
// nothing here is mutated once recorded.
type round struct {
	hands   [game.NumSeats][]game.Card
	talon   []game.Card
	auction *game.Auction

	contract game.Contract
	declarer int // -1 until bidding resolves

	discards  []game.Card
	current   *game.Trick
	completed []game.Trick
	eyes      [game.NumSeats]int
	tricks    [game.NumSeats]int
}

func newRound(rng *rand.Rand, firstBidder int) *round {
	rd := &round{
		auction:  game.NewAuction(firstBidder),
		declarer: -1,
	}
	rd.hands, rd.talon = game.Deal(rng)
	return rd
}

// pickUpTalon moves the talon into the declarer's hand before the discard.
func (rd *round) pickUpTalon() {
	rd.hands[rd.declarer] = append(rd.hands[rd.declarer], rd.talon...)
	rd.talon = nil
}

// autoDiscard picks the deterministic timeout discard: the two lowest-eye
// cards, preferring plain cards over trumps.
func (rd *round) autoDiscard() []game.Card {
	hand := append([]game.Card(nil), rd.hands[rd.declarer]...)
	sort.Slice(hand, func(i, j int) bool {
		a, b := hand[i], hand[j]
		if a.IsTrump() != b.IsTrump() {
			return !a.IsTrump()
		}
		if a.Eyes() != b.Eyes() {
			return a.Eyes() < b.Eyes()
		}
		return a.Suit < b.Suit || (a.Suit == b.Suit && a.Rank < b.Rank)
	})
	return hand[:game.TalonSize]
}

// SettlementSummary is the broadcastable outcome of a settled round.
type SettlementSummary struct {
	Contract game.Contract         `json:"contract"`
	Declarer int                   `json:"declarer"` // -1 for GALDIŅŠ
	Wins     *bool                 `json:"declarerWins,omitempty"`
	PayEach  int                   `json:"payEach,omitempty"`
	Status   string                `json:"status,omitempty"`
	Loser    int                   `json:"loser"` // GALDIŅŠ loser, -1 otherwise
	FullTie  bool                  `json:"fullTie,omitempty"`
	Deltas   [game.NumSeats]int    `json:"deltas"`
	Eyes     [game.NumSeats]int    `json:"eyes"`
	Tricks   [game.NumSeats]int    `json:"tricks"`
	Scores   [game.NumSeats]int    `json:"scores"`
	Players  [game.NumSeats]string `json:"players"`
}

// settleLocked converts the finished round into point transfers, applies
// them to the match scores, and returns the room to WAITING.
func (r *Room) settleLocked() {
	rd := r.round
	r.phase = PhaseScoring
	r.cancelTimerLocked()

	summary := SettlementSummary{
		Contract: rd.contract,
		Declarer: rd.declarer,
		Loser:    -1,
		Eyes:     rd.eyes,
		Tricks:   rd.tricks,
	}
	for seat, s := range r.seats {
		if s != nil {
			summary.Players[seat] = s.Username
		}
	}

	switch rd.contract {
	case game.ContractGaldins:
		res, err := game.ScoreGaldins(rd.tricks, rd.eyes, r.cfg.UnitStake)
		if err != nil {
			// Counts come from the engine itself, so this cannot happen
			// short of a programming error.
			log.Error().Err(err).Str("room_id", r.id).Msg("galdiņš settlement failed")
		} else if res == nil {
			summary.FullTie = true
		} else {
			summary.Loser = res.Loser
			summary.Deltas = res.Deltas
		}
	case game.ContractMaza:
		s, err := game.ScoreMaza(rd.tricks[rd.declarer])
		if err != nil {
			log.Error().Err(err).Str("room_id", r.id).Msg("mazā settlement failed")
		} else {
			summary.Wins = &s.DeclarerWins
			summary.PayEach = s.PayEach
			summary.Status = s.Status
			summary.Deltas = game.ContractDeltas(rd.declarer, s)
		}
	default: // ŅEMT GALDU or ZOLE
		declarerEyes := rd.eyes[rd.declarer]
		for _, c := range rd.discards {
			declarerEyes += c.Eyes()
		}
		s, err := game.ScoreTakeOrZole(rd.contract, declarerEyes, rd.tricks[rd.declarer])
		if err != nil {
			log.Error().Err(err).Str("room_id", r.id).Msg("contract settlement failed")
		} else {
			summary.Wins = &s.DeclarerWins
			summary.PayEach = s.PayEach
			summary.Status = s.Status
			summary.Deltas = game.ContractDeltas(rd.declarer, s)
		}
	}

	for seat := 0; seat < game.NumSeats; seat++ {
		r.scores[seat] += summary.Deltas[seat]
	}
	summary.Scores = r.scores
	r.lastSettlement = &summary

	log.Info().Str("room_id", r.id).Stringer("contract", rd.contract).
		Ints("deltas", summary.Deltas[:]).Msg("round settled")

	r.prevDeclarer = rd.declarer
	r.prevFirstBidder = rd.auction.First
	r.roundsPlayed++
	r.round = nil
	r.phase = PhaseWaiting
	for _, s := range r.seats {
		if s != nil {
			s.Ready = false
		}
	}

	r.emitter.RoundSettled(r.id, summary)
	r.emitChangedLocked()
}
