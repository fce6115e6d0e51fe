package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/session"
)

// Session is a finished workout stored in the database.
type Session struct {
	ID         string        `json:"id"`
	Exercise   exercise.Kind `json:"exercise"`
	Source     string        `json:"source"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Frames     int           `json:"frames"`
	Total      int           `json:"total"`
	Correct    int           `json:"correct"`
	FormScore  float64       `json:"form_score"`
}

// ListOptions filters SessionRepository.List. Zero values mean no filter.
type ListOptions struct {
	Exercise exercise.Kind
	Limit    int
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, exercise, source, started_at, finished_at, frames, total, correct, form_score`

// Create inserts a session and its repetitions in a single transaction.
func (r *SessionRepository) Create(sess *Session, reps []exercise.RepRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, string(sess.Exercise), sess.Source, sess.StartedAt, sess.FinishedAt,
		sess.Frames, sess.Total, sess.Correct, sess.FormScore,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO reps (session_id, rep_index, start_time, end_time, duration, extremum, unit, correct, form_issues)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rep := range reps {
		issues := rep.FormIssues
		if issues == nil {
			issues = []exercise.FormIssue{}
		}
		data, err := json.Marshal(issues)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(sess.ID, rep.Index, rep.StartTime, rep.EndTime, rep.Duration,
			rep.Extremum, string(rep.Unit), rep.Correct, string(data))
		if err != nil {
			return fmt.Errorf("insert rep %d: %w", rep.Index, err)
		}
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var kind string
	err := row.Scan(&sess.ID, &kind, &sess.Source, &sess.StartedAt, &sess.FinishedAt,
		&sess.Frames, &sess.Total, &sess.Correct, &sess.FormScore)
	if err != nil {
		return nil, err
	}
	sess.Exercise = exercise.Kind(kind)
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves sessions, most recent first.
func (r *SessionRepository) List(opts ListOptions) ([]*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var args []any
	if opts.Exercise != "" {
		query += ` WHERE exercise = ?`
		args = append(args, string(opts.Exercise))
	}
	query += ` ORDER BY started_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and, through the foreign key, its repetitions.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}

// FromResult converts a finished session into its stored form.
func FromResult(res session.Result) *Session {
	return &Session{
		ID:         res.ID,
		Exercise:   res.Kind,
		Source:     res.Source,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Frames:     res.Frames,
		Total:      res.Summary.Total,
		Correct:    res.Summary.Correct,
		FormScore:  res.Summary.FormScore,
	}
}
