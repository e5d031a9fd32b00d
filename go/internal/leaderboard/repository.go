package leaderboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvasilevs/zole/go/internal/room"
	"github.com/mvasilevs/zole/go/internal/sqlutil"
)

// Repository persists cross-room standings and round history in Postgres.
//
// Expected schema:
//
//	CREATE TABLE leaderboard (
//	    username      TEXT PRIMARY KEY,
//	    score         INT NOT NULL DEFAULT 0,
//	    rounds_played INT NOT NULL DEFAULT 0,
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE round_history (
//	    id         BIGSERIAL PRIMARY KEY,
//	    room_id    TEXT NOT NULL,
//	    contract   TEXT NOT NULL,
//	    declarer   INT NOT NULL,
//	    players    TEXT[] NOT NULL,
//	    deltas     INT[] NOT NULL,
//	    settled_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a leaderboard repository over the pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ApplyRoundResult folds one settled round into the standings and appends
// it to history, atomically.
func (r *Repository) ApplyRoundResult(ctx context.Context, roomID string, s room.SettlementSummary) error {
	return sqlutil.Run(ctx, r.pool, func(tx pgx.Tx) error {
		for seat, username := range s.Players {
			if username == "" {
				continue
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO leaderboard (username, score, rounds_played, updated_at)
				VALUES ($1, $2, 1, now())
				ON CONFLICT (username) DO UPDATE
				SET score = leaderboard.score + EXCLUDED.score,
				    rounds_played = leaderboard.rounds_played + 1,
				    updated_at = now()`,
				username, s.Deltas[seat])
			if err != nil {
				return fmt.Errorf("failed to upsert standing for %s: %w", username, err)
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO round_history (room_id, contract, declarer, players, deltas)
			VALUES ($1, $2, $3, $4, $5)`,
			roomID, s.Contract.String(), s.Declarer, s.Players[:], s.Deltas[:])
		if err != nil {
			return fmt.Errorf("failed to insert round history: %w", err)
		}
		return nil
	})
}

// TopN returns the best standings, highest score first.
func (r *Repository) TopN(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT username, score, rounds_played, updated_at
		FROM leaderboard
		ORDER BY score DESC, username ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Score, &e.RoundsPlayed, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}
	return entries, nil
}

// RoomHistory returns a room's settled rounds, newest first.
func (r *Repository) RoomHistory(ctx context.Context, roomID string, limit int) ([]RoundRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, contract, declarer, players, deltas, settled_at
		FROM round_history
		WHERE room_id = $1
		ORDER BY settled_at DESC
		LIMIT $2`, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query round history: %w", err)
	}
	defer rows.Close()

	var records []RoundRecord
	for rows.Next() {
		var rec RoundRecord
		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.Contract, &rec.Declarer, &rec.Players, &rec.Deltas, &rec.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan round history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read round history rows: %w", err)
	}
	return records, nil
}
