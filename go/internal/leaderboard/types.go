package leaderboard

import "time"

// Entry is one player's standing across all rooms.
type Entry struct {
	Username     string    `json:"username"`
	Score        int       `json:"score"`
	RoundsPlayed int       `json:"roundsPlayed"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RoundRecord is one settled round as stored in history.
type RoundRecord struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"roomId"`
	Contract  string    `json:"contract"`
	Declarer  int       `json:"declarer"`
	Players   []string  `json:"players"`
	Deltas    []int     `json:"deltas"`
	SettledAt time.Time `json:"settledAt"`
}
