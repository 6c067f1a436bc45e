package store

import (
	"database/sql"
	"time"
)

// PerfSample is a periodic snapshot of pipeline performance within a session.
type PerfSample struct {
	ID           int64
	SessionID    string
	Tick         int64
	FPS          float64
	FrameMs      float64
	TransformMs  float64
	Mode         string
	SkipInterval int
	RecordedAt   time.Time
}

// SampleRepository provides access to per-session performance samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the performance sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Insert stores a performance sample.
func (r *SampleRepository) Insert(sample *PerfSample) error {
	sample.RecordedAt = time.Now()

	res, err := r.db.Exec(
		`INSERT INTO perf_samples (session_id, tick, fps, frame_ms, transform_ms, mode, skip_interval, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sample.SessionID, sample.Tick, sample.FPS, sample.FrameMs,
		sample.TransformMs, sample.Mode, sample.SkipInterval, sample.RecordedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	sample.ID = id

	return nil
}

// ListBySession returns a session's samples in tick order.
func (r *SampleRepository) ListBySession(sessionID string) ([]PerfSample, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, tick, fps, frame_ms, transform_ms, mode, skip_interval, recorded_at
		 FROM perf_samples WHERE session_id = ? ORDER BY tick`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []PerfSample
	for rows.Next() {
		var s PerfSample
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Tick, &s.FPS, &s.FrameMs,
			&s.TransformMs, &s.Mode, &s.SkipInterval, &s.RecordedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}
