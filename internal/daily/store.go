package daily

import (
	"context"
	"database/sql"
)

// Result is one finished daily grid.
type Result struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	ElapsedMs int64  `json:"elapsedMs"`
	Words     int    `json:"words"`
	Share     string `json:"share"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether userID has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult stores r; a second result for the same user and date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, elapsed_ms, words, share)
		VALUES(?,?,?,?,?)`, r.UserID, r.Date, r.ElapsedMs, r.Words, r.Share,
	)
	return err
}

type LBRow struct {
	UserID    string `json:"userId"`
	ElapsedMs int64  `json:"elapsedMs"`
	Words     int    `json:"words"`
}

// Leaderboard lists the fastest results for date; ties go to more words,
// then to whoever finished first.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, elapsed_ms, words
		FROM daily_results
		WHERE date=?
		ORDER BY elapsed_ms ASC, words DESC, created_at ASC
		LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.ElapsedMs, &r.Words); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
