package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session represents one pipeline run and its aggregate timings.
type Session struct {
	ID          string
	StartedAt   time.Time
	EndedAt     time.Time
	Ticks       int64
	Processed   int64
	AvgFPS      float64
	MeanFrameMs float64
	MaxFrameMs  float64
	LastMode    string
	ExitReason  string
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session row. Only the ID and start time are known at
// creation; the aggregates are filled in by Finish.
func (r *SessionRepository) Create(sess *Session) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		sess.ID, sess.StartedAt,
	)
	return err
}

// Finish records a session's end time and aggregates.
func (r *SessionRepository) Finish(sess *Session) error {
	res, err := r.db.Exec(
		`UPDATE sessions
		 SET ended_at = ?, ticks = ?, processed = ?, avg_fps = ?,
		     mean_frame_ms = ?, max_frame_ms = ?, last_mode = ?, exit_reason = ?
		 WHERE id = ?`,
		sess.EndedAt, sess.Ticks, sess.Processed, sess.AvgFPS,
		sess.MeanFrameMs, sess.MaxFrameMs, sess.LastMode, sess.ExitReason,
		sess.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var endedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, ticks, processed, avg_fps,
		        mean_frame_ms, max_frame_ms, last_mode, exit_reason
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.StartedAt, &endedAt, &sess.Ticks, &sess.Processed,
		&sess.AvgFPS, &sess.MeanFrameMs, &sess.MaxFrameMs, &sess.LastMode,
		&sess.ExitReason)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if endedAt.Valid {
		sess.EndedAt = endedAt.Time
	}
	return sess, nil
}

// ListRecent returns up to limit sessions, most recently started first.
func (r *SessionRepository) ListRecent(limit int) ([]Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, ticks, processed, avg_fps,
		        mean_frame_ms, max_frame_ms, last_mode, exit_reason
		 FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var endedAt sql.NullTime

		if err := rows.Scan(&sess.ID, &sess.StartedAt, &endedAt, &sess.Ticks,
			&sess.Processed, &sess.AvgFPS, &sess.MeanFrameMs, &sess.MaxFrameMs,
			&sess.LastMode, &sess.ExitReason); err != nil {
			return nil, err
		}

		if endedAt.Valid {
			sess.EndedAt = endedAt.Time
		}
		sessions = append(sessions, sess)
	}

	return sessions, rows.Err()
}
