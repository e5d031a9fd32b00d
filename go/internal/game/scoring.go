package game

import "fmt"

// Contract is the closed set of contracts a round can be played under.
type Contract int

const (
	ContractTake Contract = iota // declarer picks up the talon
	ContractZole                 // declarer plays alone at raised stakes
	ContractMaza                 // declarer wins only by taking zero tricks
	ContractGaldins              // no declarer, all three passed
)

var contractNames = map[Contract]string{
	ContractTake:    "ŅEMT GALDU",
	ContractZole:    "ZOLE",
	ContractMaza:    "MAZĀ ZOLE",
	ContractGaldins: "GALDIŅŠ",
}

func (c Contract) String() string { return contractNames[c] }

func (c Contract) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Contract) UnmarshalText(b []byte) error {
	for k, name := range contractNames {
		if name == string(b) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown contract %q", b)
}

// NeedsDiscard reports whether the contract routes through the discard phase
// after a talon pickup.
func (c Contract) NeedsDiscard() bool {
	return c == ContractTake || c == ContractZole
}

// Settlement is the outcome of a declarer contract. PayEach is the signed
// per-opponent amount from the declarer's point of view: positive when the
// declarer collects from each opponent, negative when the declarer pays.
type Settlement struct {
	DeclarerWins bool   `json:"declarerWins"`
	PayEach      int    `json:"payEach"`
	Status       string `json:"status"`
}

func validateCounts(eyes, tricks int) error {
	if eyes < 0 || eyes > TotalEyes {
		return fmt.Errorf("declarer eyes %d out of range 0..%d", eyes, TotalEyes)
	}
	if tricks < 0 || tricks > NumTricks {
		return fmt.Errorf("declarer tricks %d out of range 0..%d", tricks, NumTricks)
	}
	return nil
}

// ScoreTakeOrZole settles a ŅEMT GALDU or ZOLE round from the declarer's
// final eye and trick counts. Tiers are checked most extreme first; the
// first match wins.
func ScoreTakeOrZole(contract Contract, declarerEyes, declarerTricks int) (Settlement, error) {
	if contract != ContractTake && contract != ContractZole {
		return Settlement{}, fmt.Errorf("contract %s has no declarer-versus-table settlement", contract)
	}
	if err := validateCounts(declarerEyes, declarerTricks); err != nil {
		return Settlement{}, err
	}

	oppEyes := TotalEyes - declarerEyes
	oppTricks := NumTricks - declarerTricks
	wins := declarerEyes >= WinThreshold

	if contract == ContractTake {
		if wins {
			switch {
			case oppTricks == 0:
				return Settlement{true, 3, "opponents trickless"}, nil
			case oppEyes < 30:
				return Settlement{true, 2, "opponents under 30"}, nil
			default:
				return Settlement{true, 1, "won"}, nil
			}
		}
		switch {
		case declarerTricks == 0:
			return Settlement{false, -4, "declarer trickless"}, nil
		case declarerEyes < 31:
			return Settlement{false, -3, "declarer under 31"}, nil
		default:
			return Settlement{false, -2, "lost"}, nil
		}
	}

	if wins {
		switch {
		case declarerTricks == NumTricks:
			return Settlement{true, 7, "all tricks"}, nil
		case declarerEyes >= 91:
			return Settlement{true, 6, "91 or more"}, nil
		default:
			return Settlement{true, 5, "won"}, nil
		}
	}
	switch {
	case declarerTricks == 0:
		return Settlement{false, -8, "declarer trickless"}, nil
	case declarerEyes < 31:
		return Settlement{false, -7, "declarer under 31"}, nil
	default:
		return Settlement{false, -6, "lost"}, nil
	}
}

// ScoreMaza settles a MAZĀ ZOLE round: the declarer wins only on taking zero
// tricks.
func ScoreMaza(declarerTricks int) (Settlement, error) {
	if declarerTricks < 0 || declarerTricks > NumTricks {
		return Settlement{}, fmt.Errorf("declarer tricks %d out of range 0..%d", declarerTricks, NumTricks)
	}
	if declarerTricks == 0 {
		return Settlement{true, 6, "no tricks taken"}, nil
	}
	return Settlement{false, -7, "took a trick"}, nil
}

// GaldinsResult is the per-seat settlement of a GALDIŅŠ round.
type GaldinsResult struct {
	Deltas [NumSeats]int `json:"deltas"`
	Loser  int           `json:"loser"`
}

// ScoreGaldins settles a no-declarer round: the loser is the seat with the
// strict maximum trick count, ties broken by the strict maximum eye count
// among the tied seats. A full tie returns nil, a valid no-transfer outcome.
// The loser pays 3*unitStake; every other seat receives unitStake.
func ScoreGaldins(tricksBySeat, eyesBySeat [NumSeats]int, unitStake int) (*GaldinsResult, error) {
	total := 0
	for seat := 0; seat < NumSeats; seat++ {
		if tricksBySeat[seat] < 0 || tricksBySeat[seat] > NumTricks {
			return nil, fmt.Errorf("seat %d trick count %d out of range", seat, tricksBySeat[seat])
		}
		if eyesBySeat[seat] < 0 || eyesBySeat[seat] > TotalEyes {
			return nil, fmt.Errorf("seat %d eye count %d out of range", seat, eyesBySeat[seat])
		}
		total += eyesBySeat[seat]
	}
	if total > TotalEyes {
		return nil, fmt.Errorf("eye counts sum to %d, above the deck total %d", total, TotalEyes)
	}
	if unitStake <= 0 {
		return nil, fmt.Errorf("unit stake %d must be positive", unitStake)
	}

	maxTricks := tricksBySeat[0]
	for _, n := range tricksBySeat[1:] {
		if n > maxTricks {
			maxTricks = n
		}
	}
	var tied []int
	for seat, n := range tricksBySeat {
		if n == maxTricks {
			tied = append(tied, seat)
		}
	}

	loser := tied[0]
	if len(tied) > 1 {
		maxEyes := -1
		strict := false
		for _, seat := range tied {
			switch {
			case eyesBySeat[seat] > maxEyes:
				maxEyes, loser, strict = eyesBySeat[seat], seat, true
			case eyesBySeat[seat] == maxEyes:
				strict = false
			}
		}
		if !strict {
			return nil, nil
		}
	}

	res := &GaldinsResult{Loser: loser}
	for seat := 0; seat < NumSeats; seat++ {
		if seat == loser {
			res.Deltas[seat] = -3 * unitStake
		} else {
			res.Deltas[seat] = unitStake
		}
	}
	return res, nil
}

// ContractDeltas expands a settlement into per-seat deltas: the declarer
// settles PayEach against each opponent separately, so each opponent moves by
// -PayEach and the declarer by 2*PayEach. The three always cancel out.
func ContractDeltas(declarer int, s Settlement) [NumSeats]int {
	var deltas [NumSeats]int
	for seat := 0; seat < NumSeats; seat++ {
		if seat == declarer {
			deltas[seat] = 2 * s.PayEach
		} else {
			deltas[seat] = -s.PayEach
		}
	}
	return deltas
}
