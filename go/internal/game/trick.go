package game

// TrickPlay is one card laid into a trick by a seat.
type TrickPlay struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// Trick is one full round of three plays. Append-only once recorded.
type Trick struct {
	Leader int         `json:"leader"`
	Plays  []TrickPlay `json:"plays"`
	Winner int         `json:"winner"`
	Eyes   int         `json:"eyes"`
}

// Complete reports whether all three seats have played.
func (t *Trick) Complete() bool { return len(t.Plays) == NumSeats }

// NextSeat returns the seat due to play into the trick.
func (t *Trick) NextSeat() int {
	return (t.Leader + len(t.Plays)) % NumSeats
}

// trumpLed reports whether the trick was opened with a trump.
func (t *Trick) trumpLed() bool {
	return len(t.Plays) > 0 && t.Plays[0].Card.IsTrump()
}

// ledSuit is only meaningful when the lead was a plain card.
func (t *Trick) ledSuit() Suit {
	return t.Plays[0].Card.Suit
}

// Legal reports whether playing c from hand respects follow rules: a trump
// lead must be answered with a trump, a plain lead with the led suit, and a
// void hand may play anything. Trumps never count as their printed suit.
func (t *Trick) Legal(hand []Card, c Card) bool {
	if !Contains(hand, c) {
		return false
	}
	if len(t.Plays) == 0 {
		return true
	}
	if t.trumpLed() {
		if c.IsTrump() {
			return true
		}
		return !hasTrump(hand)
	}
	led := t.ledSuit()
	if !c.IsTrump() && c.Suit == led {
		return true
	}
	return !hasPlain(hand, led)
}

// LegalPlays returns the playable subset of hand for the trick in progress.
func (t *Trick) LegalPlays(hand []Card) []Card {
	var out []Card
	for _, c := range hand {
		if t.Legal(hand, c) {
			out = append(out, c)
		}
	}
	return out
}

// LowestLegal returns the weakest legal card, the deterministic choice used
// when a seat's turn expires. Weakest means: prefer a plain card over a
// trump, then lowest strength, breaking remaining ties by suit order.
func (t *Trick) LowestLegal(hand []Card) Card {
	legal := t.LegalPlays(hand)
	best := legal[0]
	for _, c := range legal[1:] {
		if weaker(c, best) {
			best = c
		}
	}
	return best
}

func weaker(a, b Card) bool {
	if a.IsTrump() != b.IsTrump() {
		return !a.IsTrump()
	}
	if a.IsTrump() {
		return trumpStrength(a) < trumpStrength(b)
	}
	if plainStrength(a.Rank) != plainStrength(b.Rank) {
		return plainStrength(a.Rank) < plainStrength(b.Rank)
	}
	return a.Suit < b.Suit
}

// Resolve computes the winning seat and eye value of a complete trick:
// highest trump wins, otherwise the highest card of the led suit.
func (t *Trick) Resolve() (winner, eyes int) {
	winIdx := 0
	for i := 1; i < len(t.Plays); i++ {
		if beats(t.Plays[i].Card, t.Plays[winIdx].Card, t.Plays[0].Card) {
			winIdx = i
		}
	}
	for _, p := range t.Plays {
		eyes += p.Card.Eyes()
	}
	return t.Plays[winIdx].Seat, eyes
}

// beats reports whether challenger beats incumbent given the led card.
func beats(challenger, incumbent, led Card) bool {
	switch {
	case challenger.IsTrump() && incumbent.IsTrump():
		return trumpStrength(challenger) > trumpStrength(incumbent)
	case challenger.IsTrump():
		return true
	case incumbent.IsTrump():
		return false
	case challenger.Suit != led.Suit:
		// off-suit plain card never wins
		return false
	case incumbent.Suit != led.Suit:
		return true
	default:
		return plainStrength(challenger.Rank) > plainStrength(incumbent.Rank)
	}
}

func hasTrump(hand []Card) bool {
	for _, c := range hand {
		if c.IsTrump() {
			return true
		}
	}
	return false
}

func hasPlain(hand []Card, s Suit) bool {
	for _, c := range hand {
		if !c.IsTrump() && c.Suit == s {
			return true
		}
	}
	return false
}
