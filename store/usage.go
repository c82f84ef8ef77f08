package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Usage struct {
	ID                uuid.UUID `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	RequestID         string    `json:"request_id"`
	Model             string    `json:"model"`
	Language          string    `json:"language"`
	AudioBytes        int64     `json:"audio_bytes"`
	ProcessingSeconds float64   `json:"processing_seconds"`
	Outcome           string    `json:"outcome"`
}

const insertTranscription = `INSERT INTO transcriptions
	(id, created_at, request_id, model, language, audio_bytes, processing_seconds, outcome)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const recentTranscriptions = `SELECT id, created_at, request_id, model, language, audio_bytes, processing_seconds, outcome
FROM transcriptions
ORDER BY created_at DESC
LIMIT $1`

// RecordTranscription inserts one ledger row. ID and CreatedAt are filled in
// when zero.
func (s *Store) RecordTranscription(ctx context.Context, u Usage) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	_, err := s.conn.Exec(ctx, insertTranscription,
		u.ID, u.CreatedAt, u.RequestID, u.Model, u.Language, u.AudioBytes, u.ProcessingSeconds, u.Outcome,
	)
	if err != nil {
		return fmt.Errorf("inserting transcription: %w", err)
	}

	return nil
}

// RecentTranscriptions returns up to limit rows, newest first
func (s *Store) RecentTranscriptions(ctx context.Context, limit int) ([]Usage, error) {
	rows, err := s.conn.Query(ctx, recentTranscriptions, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transcriptions: %w", err)
	}

	usages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Usage, error) {
		var u Usage
		err := row.Scan(&u.ID, &u.CreatedAt, &u.RequestID, &u.Model, &u.Language, &u.AudioBytes, &u.ProcessingSeconds, &u.Outcome)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning transcriptions: %w", err)
	}

	return usages, nil
}
