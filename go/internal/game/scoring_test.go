package game

import "testing"

func TestScoreTake(t *testing.T) {
	tests := []struct {
		name    string
		eyes    int
		tricks  int
		wins    bool
		payEach int
	}{
		{"bare win", 61, 5, true, 1},
		{"opponents under 30", 91, 7, true, 2},
		{"opponents trickless", 120, 8, true, 3},
		{"bare loss", 60, 3, false, -2},
		{"under 31", 30, 1, false, -3},
		{"trickless", 0, 0, false, -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ScoreTakeOrZole(ContractTake, tt.eyes, tt.tricks)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.DeclarerWins != tt.wins {
				t.Errorf("DeclarerWins = %v, want %v", s.DeclarerWins, tt.wins)
			}
			if s.PayEach != tt.payEach {
				t.Errorf("PayEach = %d, want %d", s.PayEach, tt.payEach)
			}
		})
	}
}

func TestScoreZole(t *testing.T) {
	tests := []struct {
		name    string
		eyes    int
		tricks  int
		wins    bool
		payEach int
	}{
		{"bare win", 61, 5, true, 5},
		{"91 or more", 91, 6, true, 6},
		{"all tricks", 120, 8, true, 7},
		{"bare loss", 60, 4, false, -6},
		{"under 31", 30, 2, false, -7},
		{"trickless", 0, 0, false, -8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ScoreTakeOrZole(ContractZole, tt.eyes, tt.tricks)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.DeclarerWins != tt.wins {
				t.Errorf("DeclarerWins = %v, want %v", s.DeclarerWins, tt.wins)
			}
			if s.PayEach != tt.payEach {
				t.Errorf("PayEach = %d, want %d", s.PayEach, tt.payEach)
			}
		})
	}
}

func TestScoreTakeOrZoleRejectsBadCounts(t *testing.T) {
	if _, err := ScoreTakeOrZole(ContractTake, 121, 4); err == nil {
		t.Error("expected error for eyes above deck total")
	}
	if _, err := ScoreTakeOrZole(ContractTake, 60, 9); err == nil {
		t.Error("expected error for tricks above trick count")
	}
	if _, err := ScoreTakeOrZole(ContractTake, -1, 0); err == nil {
		t.Error("expected error for negative eyes")
	}
	if _, err := ScoreTakeOrZole(ContractGaldins, 60, 4); err == nil {
		t.Error("expected error for contract without a declarer")
	}
}

func TestScoreMaza(t *testing.T) {
	s, err := ScoreMaza(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.DeclarerWins || s.PayEach != 6 {
		t.Errorf("zero tricks: got wins=%v payEach=%d, want win with 6", s.DeclarerWins, s.PayEach)
	}

	for tricks := 1; tricks <= NumTricks; tricks++ {
		s, err := ScoreMaza(tricks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.DeclarerWins || s.PayEach != -7 {
			t.Errorf("%d tricks: got wins=%v payEach=%d, want loss with -7", tricks, s.DeclarerWins, s.PayEach)
		}
	}
}

func TestScoreGaldins(t *testing.T) {
	tests := []struct {
		name   string
		tricks [NumSeats]int
		eyes   [NumSeats]int
		stake  int
		loser  int
		deltas [NumSeats]int
	}{
		{
			name:   "strict max tricks loses",
			tricks: [NumSeats]int{4, 2, 2},
			eyes:   [NumSeats]int{50, 40, 30},
			stake:  2,
			loser:  0,
			deltas: [NumSeats]int{-6, 2, 2},
		},
		{
			name:   "trick tie broken by eyes",
			tricks: [NumSeats]int{3, 3, 2},
			eyes:   [NumSeats]int{35, 55, 30},
			stake:  1,
			loser:  1,
			deltas: [NumSeats]int{1, -3, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ScoreGaldins(tt.tricks, tt.eyes, tt.stake)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res == nil {
				t.Fatal("expected a loser, got full tie")
			}
			if res.Loser != tt.loser {
				t.Errorf("Loser = %d, want %d", res.Loser, tt.loser)
			}
			if res.Deltas != tt.deltas {
				t.Errorf("Deltas = %v, want %v", res.Deltas, tt.deltas)
			}
		})
	}
}

func TestScoreGaldinsFullTie(t *testing.T) {
	res, err := ScoreGaldins([NumSeats]int{3, 3, 2}, [NumSeats]int{40, 40, 40}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Errorf("expected nil result on a full tie, got %+v", res)
	}
}

func TestScoreGaldinsValidation(t *testing.T) {
	if _, err := ScoreGaldins([NumSeats]int{9, 0, 0}, [NumSeats]int{0, 0, 0}, 1); err == nil {
		t.Error("expected error for trick count out of range")
	}
	if _, err := ScoreGaldins([NumSeats]int{4, 2, 2}, [NumSeats]int{100, 100, 100}, 1); err == nil {
		t.Error("expected error for eyes above deck total")
	}
	if _, err := ScoreGaldins([NumSeats]int{4, 2, 2}, [NumSeats]int{50, 40, 30}, 0); err == nil {
		t.Error("expected error for non-positive stake")
	}
}

func TestContractDeltasZeroSum(t *testing.T) {
	cases := []struct {
		eyes   int
		tricks int
	}{
		{0, 0}, {30, 1}, {60, 3}, {61, 5}, {91, 7}, {120, 8},
	}
	for _, contract := range []Contract{ContractTake, ContractZole} {
		for _, c := range cases {
			s, err := ScoreTakeOrZole(contract, c.eyes, c.tricks)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for declarer := 0; declarer < NumSeats; declarer++ {
				deltas := ContractDeltas(declarer, s)
				sum := 0
				for _, d := range deltas {
					sum += d
				}
				if sum != 0 {
					t.Errorf("%s declarer %d: deltas %v sum to %d", contract, declarer, deltas, sum)
				}
				if deltas[declarer] != 2*s.PayEach {
					t.Errorf("%s: declarer delta %d, want %d", contract, deltas[declarer], 2*s.PayEach)
				}
				if s.DeclarerWins && deltas[declarer] <= 0 {
					t.Errorf("%s: winning declarer delta %d should be positive", contract, deltas[declarer])
				}
				if !s.DeclarerWins && deltas[declarer] >= 0 {
					t.Errorf("%s: losing declarer delta %d should be negative", contract, deltas[declarer])
				}
			}
		}
	}
}
