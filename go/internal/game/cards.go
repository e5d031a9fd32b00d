package game

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// Suit represents a card suit.
type Suit int

const (
	Clubs Suit = iota
	Spades
	Hearts
	Diamonds
)

// Rank represents a card rank in the reduced Zole deck.
type Rank int

const (
	Seven Rank = iota
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Card represents a playing card. Immutable once dealt.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

var suitNames = map[Suit]string{
	Clubs:    "C",
	Spades:   "S",
	Hearts:   "H",
	Diamonds: "D",
}

var rankNames = map[Rank]string{
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Ace:   "A",
}

func (s Suit) String() string { return suitNames[s] }
func (r Rank) String() string { return rankNames[r] }

// MarshalText implements encoding.TextMarshaler so cards serialize as
// {"suit":"C","rank":"Q"} on the wire.
func (s Suit) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (r Rank) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText parses the wire form of a suit. Unknown values are rejected
// so malformed intents fail at the boundary instead of mapping to zero values.
func (s *Suit) UnmarshalText(b []byte) error {
	for k, v := range suitNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown suit %q", b)
}

func (r *Rank) UnmarshalText(b []byte) error {
	for k, v := range rankNames {
		if v == string(b) {
			*r = k
			return nil
		}
	}
	return fmt.Errorf("unknown rank %q", b)
}

func (c Card) String() string { return c.Rank.String() + c.Suit.String() }

// IsTrump reports whether the card belongs to the trump group: every queen,
// every jack, and all diamonds.
func (c Card) IsTrump() bool {
	return c.Rank == Queen || c.Rank == Jack || c.Suit == Diamonds
}

// Eyes returns the point value of the card. The full deck carries 120 eyes.
func (c Card) Eyes() int {
	switch c.Rank {
	case Ace:
		return 11
	case Ten:
		return 10
	case King:
		return 4
	case Queen:
		return 3
	case Jack:
		return 2
	default:
		return 0
	}
}

// trumpStrength orders the 14 trumps, higher is stronger:
// QC QS QH QD JC JS JH JD AD 10D KD 9D 8D 7D.
func trumpStrength(c Card) int {
	switch c.Rank {
	case Queen:
		return 14 - int(queenJackOrder(c.Suit))
	case Jack:
		return 10 - int(queenJackOrder(c.Suit))
	default: // plain diamond
		return plainStrength(c.Rank)
	}
}

func queenJackOrder(s Suit) int {
	switch s {
	case Clubs:
		return 0
	case Spades:
		return 1
	case Hearts:
		return 2
	default: // Diamonds
		return 3
	}
}

// plainStrength orders non-trump ranks within a suit: A > 10 > K > 9 (and the
// low diamonds 9 > 8 > 7 inside the trump tail).
func plainStrength(r Rank) int {
	switch r {
	case Ace:
		return 6
	case Ten:
		return 5
	case King:
		return 4
	case Nine:
		return 3
	case Eight:
		return 2
	default: // Seven
		return 1
	}
}

// NewDeck returns the 26-card Zole deck: A/10/K/9 of clubs, spades and hearts
// plus the full trump group.
func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range []Suit{Clubs, Spades, Hearts} {
		for _, r := range []Rank{Ace, Ten, King, Nine} {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
		deck = append(deck, Card{Suit: s, Rank: Queen}, Card{Suit: s, Rank: Jack})
	}
	for _, r := range []Rank{Ace, Ten, King, Queen, Jack, Nine, Eight, Seven} {
		deck = append(deck, Card{Suit: Diamonds, Rank: r})
	}
	return deck
}

// Deck geometry.
const (
	DeckSize     = 26
	HandSize     = 8
	TalonSize    = 2
	NumSeats     = 3
	NumTricks    = 8
	TotalEyes    = 120
	WinThreshold = 61
)

// Deal shuffles a fresh deck with the given source and deals three hands of
// eight plus the two-card talon.
func Deal(rng *mrand.Rand) (hands [NumSeats][]Card, talon []Card) {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	for seat := 0; seat < NumSeats; seat++ {
		hands[seat] = append([]Card(nil), deck[seat*HandSize:(seat+1)*HandSize]...)
	}
	talon = append([]Card(nil), deck[NumSeats*HandSize:]...)
	return hands, talon
}

// RandomSeed draws a seed from the OS entropy source, for rooms created
// without an explicit one.
func RandomSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("read random seed: %v", err))
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Remove returns hand without the first occurrence of c, and whether c was held.
func Remove(hand []Card, c Card) ([]Card, bool) {
	for i := range hand {
		if hand[i] == c {
			out := append([]Card(nil), hand[:i]...)
			return append(out, hand[i+1:]...), true
		}
	}
	return hand, false
}

// Contains reports whether hand holds c.
func Contains(hand []Card, c Card) bool {
	_, ok := Remove(hand, c)
	return ok
}
