package room

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mvasilevs/zole/go/internal/game"
)

// recordingEmitter captures room output for assertions.
type recordingEmitter struct {
	mu      sync.Mutex
	states  []State
	hands   map[int][]game.Card
	settled []SettlementSummary
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{hands: make(map[int][]game.Card)}
}

func (e *recordingEmitter) RoomChanged(st State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, st)
}

func (e *recordingEmitter) HandDealt(_ string, seat int, _ string, hand []game.Card) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hands[seat] = hand
}

func (e *recordingEmitter) RoundSettled(_ string, s SettlementSummary) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settled = append(e.settled, s)
}

func (e *recordingEmitter) lastSettled() (SettlementSummary, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.settled) == 0 {
		return SettlementSummary{}, false
	}
	return e.settled[len(e.settled)-1], true
}

func newTestRoom(t *testing.T, emitter Emitter) (*Room, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	r := New("room-1", 1, clock, DefaultConfig(), emitter)
	t.Cleanup(r.Close)
	return r, clock
}

func seatPlayers(t *testing.T, r *Room) {
	t.Helper()
	for i, name := range []string{"anna", "bruno", "clara"} {
		seat, err := r.Join(name, "")
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		if seat != i {
			t.Fatalf("expected %s at seat %d, got %d", name, i, seat)
		}
	}
}

func startRound(t *testing.T, r *Room) {
	t.Helper()
	for seat := 0; seat < game.NumSeats; seat++ {
		if err := r.SetReady(seat, true); err != nil {
			t.Fatalf("ready seat %d: %v", seat, err)
		}
	}
	if got := r.Snapshot().Phase; got != PhaseBidding {
		t.Fatalf("expected BIDDING after three readies, got %s", got)
	}
}

// rigHands replaces the dealt cards with a fixed layout: seat 0 holds the
// eight strongest trumps, seat 1 the black plain suits, seat 2 hearts plus
// the diamond tops, and the talon is worthless.
func rigHands(r *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.round.hands = [game.NumSeats][]game.Card{
		{
			{Suit: game.Clubs, Rank: game.Queen}, {Suit: game.Spades, Rank: game.Queen}, {Suit: game.Hearts, Rank: game.Queen}, {Suit: game.Diamonds, Rank: game.Queen},
			{Suit: game.Clubs, Rank: game.Jack}, {Suit: game.Spades, Rank: game.Jack}, {Suit: game.Hearts, Rank: game.Jack}, {Suit: game.Diamonds, Rank: game.Jack},
		},
		{
			{Suit: game.Clubs, Rank: game.Ace}, {Suit: game.Clubs, Rank: game.Ten}, {Suit: game.Clubs, Rank: game.King}, {Suit: game.Clubs, Rank: game.Nine},
			{Suit: game.Spades, Rank: game.Ace}, {Suit: game.Spades, Rank: game.Ten}, {Suit: game.Spades, Rank: game.King}, {Suit: game.Spades, Rank: game.Nine},
		},
		{
			{Suit: game.Hearts, Rank: game.Ace}, {Suit: game.Hearts, Rank: game.Ten}, {Suit: game.Hearts, Rank: game.King}, {Suit: game.Hearts, Rank: game.Nine},
			{Suit: game.Diamonds, Rank: game.Ace}, {Suit: game.Diamonds, Rank: game.Ten}, {Suit: game.Diamonds, Rank: game.King}, {Suit: game.Diamonds, Rank: game.Nine},
		},
	}
	r.round.talon = []game.Card{{Suit: game.Diamonds, Rank: game.Eight}, {Suit: game.Diamonds, Rank: game.Seven}}
}

func TestJoinLeaveLifecycle(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	seatPlayers(t, r)

	if _, err := r.Join("dana", ""); ErrCode(err) != CodeRoomFull {
		t.Fatalf("expected ROOM_FULL, got %v", err)
	}

	// The same username reclaims its seat instead of a new one.
	seat, err := r.Join("bruno", "")
	if err != nil || seat != 1 {
		t.Fatalf("expected bruno back at seat 1, got %d, %v", seat, err)
	}

	if err := r.Leave(2); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if r.Occupancy() != 2 {
		t.Fatalf("expected 2 seated, got %d", r.Occupancy())
	}
	seat, err = r.Join("dana", "")
	if err != nil || seat != 2 {
		t.Fatalf("expected dana at the freed seat, got %d, %v", seat, err)
	}
}

func TestJoinRequiresUsername(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	if _, err := r.Join("", ""); ErrCode(err) != CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestReadyOnlyInWaiting(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)

	if err := r.SetReady(0, true); ErrCode(err) != CodeInvalidPhase {
		t.Fatalf("expected INVALID_PHASE, got %v", err)
	}
}

func TestBidTurnOrderEnforced(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)

	before := r.Snapshot()
	if err := r.Bid(1, game.Pass); ErrCode(err) != CodeNotYourTurn {
		t.Fatalf("expected NOT_YOUR_TURN, got %v", err)
	}
	after := r.Snapshot()
	if len(after.Bids) != len(before.Bids) || after.Phase != before.Phase {
		t.Fatal("a rejected bid must not change room state")
	}
}

func TestBidEscalationValidated(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)

	if err := r.Bid(0, game.Zole); ErrCode(err) != CodeInvalidBid {
		t.Fatalf("expected INVALID_BID for zole with no standing take, got %v", err)
	}
	if err := r.Bid(0, game.Take); err != nil {
		t.Fatalf("take should open: %v", err)
	}
	if err := r.Bid(1, game.Take); ErrCode(err) != CodeInvalidBid {
		t.Fatalf("expected INVALID_BID answering take with take, got %v", err)
	}
}

func TestFullTakeRound(t *testing.T) {
	emitter := newRecordingEmitter()
	r, _ := newTestRoom(t, emitter)
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

	st := r.Snapshot()
	if st.Phase != PhaseDiscard {
		t.Fatalf("expected DISCARD, got %s", st.Phase)
	}
	if st.Declarer != 0 {
		t.Fatalf("expected declarer 0, got %d", st.Declarer)
	}
	if hand := r.HandOf(0); len(hand) != game.HandSize+game.TalonSize {
		t.Fatalf("declarer should hold %d cards after pickup, got %d", game.HandSize+game.TalonSize, len(hand))
	}

	discards := []game.Card{{Suit: game.Diamonds, Rank: game.Eight}, {Suit: game.Diamonds, Rank: game.Seven}}
	if err := r.Discard(1, discards); ErrCode(err) != CodeNotDeclarer {
		t.Fatalf("expected NOT_DECLARER, got %v", err)
	}
	if err := r.Discard(0, discards[:1]); ErrCode(err) != CodeInvalidCards {
		t.Fatalf("expected INVALID_CARDS for one card, got %v", err)
	}
	if err := r.Discard(0, discards); err != nil {
		t.Fatalf("discard: %v", err)
	}

	if got := r.Snapshot().Phase; got != PhasePlay {
		t.Fatalf("expected PLAY, got %s", got)
	}

	// The declarer leads every trick with a top trump and takes all eight.
	tricks := [][game.NumSeats]game.Card{
		{{Suit: game.Clubs, Rank: game.Queen}, {Suit: game.Clubs, Rank: game.Ace}, {Suit: game.Diamonds, Rank: game.Nine}},
		{{Suit: game.Spades, Rank: game.Queen}, {Suit: game.Clubs, Rank: game.Ten}, {Suit: game.Diamonds, Rank: game.King}},
		{{Suit: game.Hearts, Rank: game.Queen}, {Suit: game.Clubs, Rank: game.King}, {Suit: game.Diamonds, Rank: game.Ten}},
		{{Suit: game.Diamonds, Rank: game.Queen}, {Suit: game.Clubs, Rank: game.Nine}, {Suit: game.Diamonds, Rank: game.Ace}},
		{{Suit: game.Clubs, Rank: game.Jack}, {Suit: game.Spades, Rank: game.Ace}, {Suit: game.Hearts, Rank: game.Ace}},
		{{Suit: game.Spades, Rank: game.Jack}, {Suit: game.Spades, Rank: game.Ten}, {Suit: game.Hearts, Rank: game.Ten}},
		{{Suit: game.Hearts, Rank: game.Jack}, {Suit: game.Spades, Rank: game.King}, {Suit: game.Hearts, Rank: game.King}},
		{{Suit: game.Diamonds, Rank: game.Jack}, {Suit: game.Spades, Rank: game.Nine}, {Suit: game.Hearts, Rank: game.Nine}},
	}
	for i, trick := range tricks {
		for seat := 0; seat < game.NumSeats; seat++ {
			if err := r.Play(seat, trick[seat]); err != nil {
				t.Fatalf("trick %d seat %d (%s): %v", i+1, seat, trick[seat], err)
			}
		}
	}

	s, ok := emitter.lastSettled()
	if !ok {
		t.Fatal("expected a settlement after the eighth trick")
	}
	if s.Contract != game.ContractTake {
		t.Errorf("contract = %s, want ŅEMT GALDU", s.Contract)
	}
	if s.Wins == nil || !*s.Wins {
		t.Error("declarer should win")
	}
	if s.PayEach != 3 {
		t.Errorf("PayEach = %d, want 3 for trickless opponents", s.PayEach)
	}
	if want := [game.NumSeats]int{6, -3, -3}; s.Deltas != want {
		t.Errorf("Deltas = %v, want %v", s.Deltas, want)
	}
	if s.Eyes[0] != 120 || s.Tricks[0] != 8 {
		t.Errorf("declarer eyes/tricks = %d/%d, want 120/8", s.Eyes[0], s.Tricks[0])
	}

	st = r.Snapshot()
	if st.Phase != PhaseWaiting {
		t.Errorf("expected WAITING after settlement, got %s", st.Phase)
	}
	if want := [game.NumSeats]int{6, -3, -3}; st.Scores != want {
		t.Errorf("Scores = %v, want %v", st.Scores, want)
	}
	if st.RoundsPlayed != 1 {
		t.Errorf("RoundsPlayed = %d, want 1", st.RoundsPlayed)
	}
	for seat, p := range st.Players {
		if p.Ready {
			t.Errorf("seat %d should be unready after settlement", seat)
		}
	}
}

func TestPlayRejectionsLeaveStateUntouched(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)
	rigHands(r)

	for _, bid := range []struct {
		seat  int
		value game.BidValue
	}{{0, game.Pass}, {1, game.Pass}, {2, game.Pass}} {
		if err := r.Bid(bid.seat, bid.value); err != nil {
			t.Fatalf("bid: %v", err)
		}
	}

	st := r.Snapshot()
	if st.Phase != PhasePlay {
		t.Fatalf("three passes should open GALDIŅŠ play, got %s", st.Phase)
	}
	if st.Contract == nil || *st.Contract != game.ContractGaldins {
		t.Fatalf("contract = %v, want GALDIŅŠ", st.Contract)
	}
	if st.Declarer != -1 {
		t.Fatalf("declarer = %d, want -1", st.Declarer)
	}

	if err := r.Play(1, game.Card{Suit: game.Clubs, Rank: game.Ace}); ErrCode(err) != CodeNotYourTurn {
		t.Fatalf("expected NOT_YOUR_TURN, got %v", err)
	}
	if err := r.Play(0, game.Card{Suit: game.Clubs, Rank: game.Ace}); ErrCode(err) != CodeCardNotHeld {
		t.Fatalf("expected CARD_NOT_HELD, got %v", err)
	}
	if err := r.Play(0, game.Card{Suit: game.Clubs, Rank: game.Queen}); err != nil {
		t.Fatalf("lead: %v", err)
	}
	// Trump led and seat 1 holds no trumps, so anything goes; seat 2 holding
	// diamonds must answer with one.
	if err := r.Play(1, game.Card{Suit: game.Spades, Rank: game.Nine}); err != nil {
		t.Fatalf("void follow: %v", err)
	}
	if err := r.Play(2, game.Card{Suit: game.Hearts, Rank: game.Ace}); ErrCode(err) != CodeSuitViolation {
		t.Fatalf("expected SUIT_VIOLATION, got %v", err)
	}
	if err := r.Play(2, game.Card{Suit: game.Diamonds, Rank: game.Nine}); err != nil {
		t.Fatalf("trump follow: %v", err)
	}

	st = r.Snapshot()
	if got := len(r.HandOf(0)); got != game.HandSize-1 {
		t.Errorf("seat 0 should have %d cards, got %d", game.HandSize-1, got)
	}
	if st.TricksTaken[0] != 1 {
		t.Errorf("seat 0 should have won the first trick")
	}
}

func TestCloseRejectsIntents(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)

	r.Close()
	if err := r.Bid(0, game.Pass); ErrCode(err) != CodeRoomNotFound {
		t.Fatalf("expected ROOM_NOT_FOUND after close, got %v", err)
	}
}

func TestFirstBidderRotates(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	seatPlayers(t, r)
	startRound(t, r)
	rigHands(r)

	if err := r.Bid(0, game.Take); err != nil {
		t.Fatal(err)
	}
	if err := r.Bid(1, game.Pass); err != nil {
		t.Fatal(err)
	}
	if err := r.Bid(2, game.Pass); err != nil {
		t.Fatal(err)
	}
	if err := r.Discard(0, []game.Card{{Suit: game.Diamonds, Rank: game.Eight}, {Suit: game.Diamonds, Rank: game.Seven}}); err != nil {
		t.Fatal(err)
	}
	playOutRound(t, r)

	startRound(t, r)
	if got := r.Snapshot().TurnSeat; got != 1 {
		t.Fatalf("seat after the previous declarer should bid first, got %d", got)
	}
}

// playOutRound drives the current PLAY phase to settlement with the
// deterministic timeout choice for every seat.
func playOutRound(t *testing.T, r *Room) {
	t.Helper()
	for i := 0; i < game.NumTricks*game.NumSeats; i++ {
		st := r.Snapshot()
		if st.Phase != PhasePlay {
			return
		}
		seat := st.TurnSeat
		r.mu.Lock()
		card := r.round.current.LowestLegal(r.round.hands[seat])
		r.mu.Unlock()
		if err := r.Play(seat, card); err != nil {
			t.Fatalf("auto play seat %d: %v", seat, err)
		}
	}
}

func TestEyeConservationAcrossRound(t *testing.T) {
	r, _ := newTestRoom(t, nil)
	emitter := newRecordingEmitter()
	r.emitter = emitter
	seatPlayers(t, r)
	startRound(t, r)

	for _, bid := range []struct {
		seat  int
		value game.BidValue
	}{{0, game.Pass}, {1, game.Pass}, {2, game.Pass}} {
		if err := r.Bid(bid.seat, bid.value); err != nil {
			t.Fatalf("bid: %v", err)
		}
	}
	playOutRound(t, r)

	s, ok := emitter.lastSettled()
	if !ok {
		t.Fatal("expected a settlement")
	}
	totalEyes, totalTricks := 0, 0
	for seat := 0; seat < game.NumSeats; seat++ {
		totalEyes += s.Eyes[seat]
		totalTricks += s.Tricks[seat]
	}
	// The untouched talon keeps its eyes out of play in GALDIŅŠ.
	if totalEyes > game.TotalEyes {
		t.Errorf("eyes sum to %d, above the deck total", totalEyes)
	}
	if totalTricks != game.NumTricks {
		t.Errorf("tricks sum to %d, want %d", totalTricks, game.NumTricks)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.BidTimeout != 15*time.Second || cfg.DiscardTimeout != 30*time.Second || cfg.PlayTimeout != 20*time.Second {
		t.Errorf("unexpected default timeouts: %+v", cfg)
	}
	if cfg.UnitStake != 2 {
		t.Errorf("unexpected default stake: %d", cfg.UnitStake)
	}
}
