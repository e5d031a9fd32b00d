package game

import "fmt"

// BidValue is one action in the bidding sequence.
type BidValue int

const (
	Pass BidValue = iota
	Take
	Zole
	Maza
)

var bidNames = map[BidValue]string{
	Pass: "PASS",
	Take: "TAKE",
	Zole: "ZOLE",
	Maza: "MAZA",
}

func (v BidValue) String() string { return bidNames[v] }

func (v BidValue) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *BidValue) UnmarshalText(b []byte) error {
	for k, name := range bidNames {
		if name == string(b) {
			*v = k
			return nil
		}
	}
	return fmt.Errorf("unknown bid %q", b)
}

// contract returns the contract a standing bid resolves to.
func (v BidValue) contract() Contract {
	switch v {
	case Take:
		return ContractTake
	case Zole:
		return ContractZole
	default:
		return ContractMaza
	}
}

// Bid is one recorded bid. Append-only within a round.
type Bid struct {
	Seat  int      `json:"seat"`
	Value BidValue `json:"value"`
}

// Auction tracks one round's bidding sequence. The zero value is not usable;
// construct with NewAuction.
type Auction struct {
	First int   `json:"first"`
	Bids  []Bid `json:"bids"`
}

// NewAuction starts bidding with the given first bidder.
func NewAuction(first int) *Auction {
	return &Auction{First: first}
}

func (a *Auction) passed(seat int) bool {
	for _, b := range a.Bids {
		if b.Seat == seat && b.Value == Pass {
			return true
		}
	}
	return false
}

// highBid returns the standing raise, if any.
func (a *Auction) highBid() (Bid, bool) {
	for i := len(a.Bids) - 1; i >= 0; i-- {
		if a.Bids[i].Value != Pass {
			return a.Bids[i], true
		}
	}
	return Bid{}, false
}

// NextBidder returns the seat due to bid, or -1 if bidding has resolved.
// Rotation starts at First; a seat that has passed is skipped, as is the
// holder of the standing raise (it never bids against itself).
func (a *Auction) NextBidder() int {
	if a.Resolved() {
		return -1
	}
	start := a.First
	if n := len(a.Bids); n > 0 {
		start = (a.Bids[n-1].Seat + 1) % NumSeats
	}
	high, hasHigh := a.highBid()
	for i := 0; i < NumSeats; i++ {
		seat := (start + i) % NumSeats
		if a.passed(seat) {
			continue
		}
		if hasHigh && seat == high.Seat {
			continue
		}
		return seat
	}
	return -1
}

// Allowed reports whether value is a legal escalation for the current
// sequence: PASS is always legal, TAKE opens, ZOLE re-raises a standing
// TAKE, and MAZA re-raises a standing ZOLE.
func (a *Auction) Allowed(value BidValue) bool {
	high, hasHigh := a.highBid()
	switch value {
	case Pass:
		return true
	case Take:
		return !hasHigh
	case Zole:
		return hasHigh && high.Value == Take
	case Maza:
		return hasHigh && high.Value == Zole
	default:
		return false
	}
}

// Record appends a bid for the seat currently due. The caller validates turn
// and legality beforehand.
func (a *Auction) Record(seat int, value BidValue) {
	a.Bids = append(a.Bids, Bid{Seat: seat, Value: value})
}

// Resolved reports whether bidding is over: every seat passed, or a raise
// stands and both other seats have passed.
func (a *Auction) Resolved() bool {
	high, hasHigh := a.highBid()
	passes := 0
	for seat := 0; seat < NumSeats; seat++ {
		if a.passed(seat) {
			passes++
		}
	}
	if !hasHigh {
		return passes == NumSeats
	}
	return passes == NumSeats-1 && !a.passed(high.Seat)
}

// Outcome returns the resolved contract and declarer seat. Three passes
// yield GALDIŅŠ with no declarer (-1). Only valid once Resolved.
func (a *Auction) Outcome() (Contract, int) {
	high, hasHigh := a.highBid()
	if !hasHigh {
		return ContractGaldins, -1
	}
	return high.Value.contract(), high.Seat
}
