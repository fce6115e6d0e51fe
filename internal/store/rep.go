package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/repcount/internal/exercise"
)

// RepRepository reads stored repetitions.
type RepRepository struct {
	db *sql.DB
}

// Reps returns the repetition repository for this store.
func (s *Store) Reps() *RepRepository {
	return &RepRepository{db: s.db}
}

// ListBySession returns the repetitions of a session in index order.
func (r *RepRepository) ListBySession(sessionID string) ([]exercise.RepRecord, error) {
	rows, err := r.db.Query(
		`SELECT rep_index, start_time, end_time, duration, extremum, unit, correct, form_issues
		 FROM reps
		 WHERE session_id = ?
		 ORDER BY rep_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reps []exercise.RepRecord
	for rows.Next() {
		var rep exercise.RepRecord
		var unit, issues string
		var correct int
		err := rows.Scan(&rep.Index, &rep.StartTime, &rep.EndTime, &rep.Duration,
			&rep.Extremum, &unit, &correct, &issues)
		if err != nil {
			return nil, err
		}
		rep.Unit = exercise.Unit(unit)
		rep.Correct = correct != 0
		if err := json.Unmarshal([]byte(issues), &rep.FormIssues); err != nil {
			return nil, fmt.Errorf("decode form issues of rep %d: %w", rep.Index, err)
		}
		if len(rep.FormIssues) == 0 {
			rep.FormIssues = nil
		}
		reps = append(reps, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reps, nil
}

// CountBySession returns how many repetitions a session has stored.
func (r *RepRepository) CountBySession(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM reps WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}
