package room

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mvasilevs/zole/go/internal/game"
)

// Phase is the room lifecycle state. Scoring is transient: settlement runs
// inside the same serialized step that completes the eighth trick, so
// observers only ever see the room back in Waiting with the settlement
// attached to the snapshot.
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseBidding
	PhaseDiscard
	PhasePlay
	PhaseScoring
)

var phaseNames = map[Phase]string{
	PhaseWaiting: "WAITING",
	PhaseBidding: "BIDDING",
	PhaseDiscard: "DISCARD",
	PhasePlay:    "PLAY",
	PhaseScoring: "SCORING",
}

func (p Phase) String() string { return phaseNames[p] }

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Config holds per-room gameplay settings.
type Config struct {
	BidTimeout     time.Duration
	DiscardTimeout time.Duration
	PlayTimeout    time.Duration
	UnitStake      int
}

// DefaultConfig returns the stock timer and stake settings.
func DefaultConfig() Config {
	return Config{
		BidTimeout:     15 * time.Second,
		DiscardTimeout: 30 * time.Second,
		PlayTimeout:    20 * time.Second,
		UnitStake:      2,
	}
}

// Seat is one of the three stable positions in a room. The room holds only
// display identity; the transport layer owns the connection.
type Seat struct {
	Username  string
	AvatarURL string
	Ready     bool
	Connected bool
}

// Emitter receives room output. Methods are invoked inside the room's
// serialized section so events are atomic with the mutation that caused
// them; implementations must not call back into the room and should hand
// slow work off to their own goroutines.
type Emitter interface {
	RoomChanged(st State)
	HandDealt(roomID string, seat int, username string, hand []game.Card)
	RoundSettled(roomID string, s SettlementSummary)
}

// NopEmitter discards all room output.
type NopEmitter struct{}

func (NopEmitter) RoomChanged(State)                          {}
func (NopEmitter) HandDealt(string, int, string, []game.Card) {}
func (NopEmitter) RoundSettled(string, SettlementSummary)     {}

// Room owns one table's full lifecycle. Every intent, including the turn
// timer's auto-actions, enters through the same mutex, so concurrent
// submissions are resolved purely by serialization order.
type Room struct {
	id        string
	createdAt time.Time

	mu      sync.Mutex
	clock   clockwork.Clock
	cfg     Config
	emitter Emitter
	rng     *rand.Rand

	seats  [game.NumSeats]*Seat
	phase  Phase
	round  *round
	scores [game.NumSeats]int

	roundsPlayed    int
	prevDeclarer    int
	prevFirstBidder int
	lastSettlement  *SettlementSummary

	// turn timer
	timerGen      uint64
	pending       clockwork.Timer
	pendingCancel chan struct{}
	turnEndsAt    time.Time
	done          chan struct{}
	closed        bool
}

// New creates a room. The seed fixes the deal sequence for the room's whole
// lifetime; pass game.RandomSeed() when reproducibility is not needed.
func New(id string, seed int64, clock clockwork.Clock, cfg Config, emitter Emitter) *Room {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &Room{
		id:           id,
		createdAt:    clock.Now(),
		clock:        clock,
		cfg:          cfg,
		emitter:      emitter,
		rng:          rand.New(rand.NewSource(seed)),
		phase:        PhaseWaiting,
		prevDeclarer: -1,
		done:         make(chan struct{}),
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// CreatedAt returns the room creation time.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// Occupancy returns the number of occupied seats.
func (r *Room) Occupancy() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupancyLocked()
}

func (r *Room) occupancyLocked() int {
	n := 0
	for _, s := range r.seats {
		if s != nil {
			n++
		}
	}
	return n
}

// Join assigns the first free seat. A username already seated reclaims its
// seat, so a dropped client can rejoin mid-round.
func (r *Room) Join(username, avatarURL string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return -1, reject(CodeRoomNotFound, "room closed")
	}
	if username == "" {
		return -1, reject(CodeValidation, "username required")
	}
	for seat, s := range r.seats {
		if s != nil && s.Username == username {
			s.Connected = true
			s.AvatarURL = avatarURL
			r.emitChangedLocked()
			return seat, nil
		}
	}
	for seat, s := range r.seats {
		if s == nil {
			r.seats[seat] = &Seat{Username: username, AvatarURL: avatarURL, Connected: true}
			log.Info().Str("room_id", r.id).Int("seat", seat).Str("username", username).Msg("seat taken")
			r.emitChangedLocked()
			return seat, nil
		}
	}
	return -1, reject(CodeRoomFull, "all three seats taken")
}

// Leave frees the seat while the room is waiting; mid-round it only marks
// the seat disconnected so the turn timer keeps the round moving.
func (r *Room) Leave(seat int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return reject(CodeRoomNotFound, "room closed")
	}
	if err := r.checkSeatLocked(seat); err != nil {
		return err
	}
	if r.phase == PhaseWaiting {
		log.Info().Str("room_id", r.id).Int("seat", seat).Str("username", r.seats[seat].Username).Msg("seat freed")
		r.seats[seat] = nil
	} else {
		r.seats[seat].Connected = false
	}
	r.emitChangedLocked()
	return nil
}

// MarkDisconnected flags a seat for display without touching game state.
func (r *Room) MarkDisconnected(seat int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seat >= 0 && seat < game.NumSeats && r.seats[seat] != nil {
		r.seats[seat].Connected = false
		r.emitChangedLocked()
	}
}

// SetReady toggles the ready flag. When all three seats are ready the room
// deals a fresh round and bidding opens.
func (r *Room) SetReady(seat int, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return reject(CodeRoomNotFound, "room closed")
	}
	if r.phase != PhaseWaiting {
		return reject(CodeInvalidPhase, fmt.Sprintf("ready only in WAITING, room is %s", r.phase))
	}
	if err := r.checkSeatLocked(seat); err != nil {
		return err
	}
	r.seats[seat].Ready = ready

	if r.occupancyLocked() == game.NumSeats && r.allReadyLocked() {
		r.startRoundLocked()
	} else {
		r.emitChangedLocked()
	}
	return nil
}

// Bid submits a bidding action for the seat.
func (r *Room) Bid(seat int, value game.BidValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bidLocked(seat, value)
}

// Discard submits the declarer's two-card discard after the talon pickup.
func (r *Room) Discard(seat int, cards []game.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discardLocked(seat, cards)
}

// Play submits one card into the current trick.
func (r *Room) Play(seat int, card game.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playLocked(seat, card)
}

// HandOf returns a copy of the seat's current hand, or nil outside a round.
func (r *Room) HandOf(seat int) []game.Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.round == nil || seat < 0 || seat >= game.NumSeats {
		return nil
	}
	return append([]game.Card(nil), r.round.hands[seat]...)
}

// Close stops the turn timer and rejects all further intents.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.cancelTimerLocked()
	close(r.done)
	log.Info().Str("room_id", r.id).Msg("room closed")
}

func (r *Room) checkSeatLocked(seat int) error {
	if seat < 0 || seat >= game.NumSeats || r.seats[seat] == nil {
		return reject(CodeValidation, fmt.Sprintf("no player at seat %d", seat))
	}
	return nil
}

func (r *Room) allReadyLocked() bool {
	for _, s := range r.seats {
		if s == nil || !s.Ready {
			return false
		}
	}
	return true
}

// startRoundLocked deals and opens bidding. The first bidder rotates: seat
// after the previous round's declarer, or after the previous first bidder
// when the table played without one, or seat 0 on the room's first round.
func (r *Room) startRoundLocked() {
	first := 0
	if r.roundsPlayed > 0 {
		if r.prevDeclarer >= 0 {
			first = (r.prevDeclarer + 1) % game.NumSeats
		} else {
			first = (r.prevFirstBidder + 1) % game.NumSeats
		}
	}
	r.round = newRound(r.rng, first)
	r.phase = PhaseBidding

	log.Info().Str("room_id", r.id).Int("first_bidder", first).Msg("round dealt, bidding opens")
	for seat := 0; seat < game.NumSeats; seat++ {
		hand := append([]game.Card(nil), r.round.hands[seat]...)
		r.emitter.HandDealt(r.id, seat, r.seats[seat].Username, hand)
	}
	r.scheduleTurnLocked(r.cfg.BidTimeout)
	r.emitChangedLocked()
}

func (r *Room) bidLocked(seat int, value game.BidValue) error {
	if r.closed {
		return reject(CodeRoomNotFound, "room closed")
	}
	if r.phase != PhaseBidding {
		return reject(CodeInvalidPhase, fmt.Sprintf("bid only in BIDDING, room is %s", r.phase))
	}
	if err := r.checkSeatLocked(seat); err != nil {
		return err
	}
	rd := r.round
	if rd.auction.NextBidder() != seat {
		return reject(CodeNotYourTurn, fmt.Sprintf("seat %d bids next", rd.auction.NextBidder()))
	}
	if !rd.auction.Allowed(value) {
		return reject(CodeInvalidBid, fmt.Sprintf("%s is not a legal escalation", value))
	}

	rd.auction.Record(seat, value)
	log.Debug().Str("room_id", r.id).Int("seat", seat).Stringer("bid", value).Msg("bid recorded")

	if !rd.auction.Resolved() {
		r.scheduleTurnLocked(r.cfg.BidTimeout)
		r.emitChangedLocked()
		return nil
	}

	contract, declarer := rd.auction.Outcome()
	rd.contract = contract
	rd.declarer = declarer
	log.Info().Str("room_id", r.id).Stringer("contract", contract).Int("declarer", declarer).Msg("bidding resolved")

	if contract.NeedsDiscard() {
		rd.pickUpTalon()
		r.phase = PhaseDiscard
		r.scheduleTurnLocked(r.cfg.DiscardTimeout)
	} else {
		r.beginPlayLocked()
	}
	r.emitChangedLocked()
	return nil
}

func (r *Room) discardLocked(seat int, cards []game.Card) error {
	if r.closed {
		return reject(CodeRoomNotFound, "room closed")
	}
	if r.phase != PhaseDiscard {
		return reject(CodeInvalidPhase, fmt.Sprintf("discard only in DISCARD, room is %s", r.phase))
	}
	rd := r.round
	if seat != rd.declarer {
		return reject(CodeNotDeclarer, fmt.Sprintf("seat %d is not the declarer", seat))
	}
	if len(cards) != game.TalonSize {
		return reject(CodeInvalidCards, fmt.Sprintf("exactly %d cards must be discarded", game.TalonSize))
	}
	if cards[0] == cards[1] {
		return reject(CodeInvalidCards, "discards must be distinct")
	}
	hand := rd.hands[seat]
	for _, c := range cards {
		var held bool
		hand, held = game.Remove(hand, c)
		if !held {
			return reject(CodeInvalidCards, fmt.Sprintf("%s is not in hand", c))
		}
	}
	rd.hands[seat] = hand
	rd.discards = append([]game.Card(nil), cards...)
	log.Debug().Str("room_id", r.id).Int("seat", seat).Msg("declarer discarded")

	r.beginPlayLocked()
	r.emitChangedLocked()
	return nil
}

func (r *Room) playLocked(seat int, card game.Card) error {
	if r.closed {
		return reject(CodeRoomNotFound, "room closed")
	}
	if r.phase != PhasePlay {
		return reject(CodeInvalidPhase, fmt.Sprintf("play only in PLAY, room is %s", r.phase))
	}
	if err := r.checkSeatLocked(seat); err != nil {
		return err
	}
	rd := r.round
	trick := rd.current
	if trick.NextSeat() != seat {
		return reject(CodeNotYourTurn, fmt.Sprintf("seat %d plays next", trick.NextSeat()))
	}
	hand := rd.hands[seat]
	if !game.Contains(hand, card) {
		return reject(CodeCardNotHeld, fmt.Sprintf("%s is not in hand", card))
	}
	if !trick.Legal(hand, card) {
		return reject(CodeSuitViolation, fmt.Sprintf("%s does not follow the lead", card))
	}

	rd.hands[seat], _ = game.Remove(hand, card)
	trick.Plays = append(trick.Plays, game.TrickPlay{Seat: seat, Card: card})

	if !trick.Complete() {
		r.scheduleTurnLocked(r.cfg.PlayTimeout)
		r.emitChangedLocked()
		return nil
	}

	winner, eyes := trick.Resolve()
	trick.Winner = winner
	trick.Eyes = eyes
	rd.eyes[winner] += eyes
	rd.tricks[winner]++
	rd.completed = append(rd.completed, *trick)
	log.Debug().Str("room_id", r.id).Int("winner", winner).Int("eyes", eyes).
		Int("trick", len(rd.completed)).Msg("trick resolved")

	if len(rd.completed) == game.NumTricks {
		r.settleLocked()
		return nil
	}
	rd.current = &game.Trick{Leader: winner}
	r.scheduleTurnLocked(r.cfg.PlayTimeout)
	r.emitChangedLocked()
	return nil
}

// beginPlayLocked opens trick play; the round's first bidder leads the
// first trick regardless of who declared.
func (r *Room) beginPlayLocked() {
	r.phase = PhasePlay
	r.round.current = &game.Trick{Leader: r.round.auction.First}
	r.scheduleTurnLocked(r.cfg.PlayTimeout)
}
