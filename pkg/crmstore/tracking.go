package crmstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salesloop/salesloop/pkg/helpers"
	"github.com/salesloop/salesloop/pkg/threads"
)

// SQLite caps bound variables per statement; chunk bulk IN queries.
const bulkQueryBatchSize = 500

// TrackSentMessage registers an outgoing message for open tracking and
// returns the tracking token embedded in the sent email.
func (s *Store) TrackSentMessage(ctx context.Context, messageID, threadID, recipient, subject string) (string, error) {
	token := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tracked_messages (message_id, thread_id, recipient, subject, tracking_token)
		VALUES (?, ?, ?, ?, ?)
	`, messageID, threadID, recipient, subject, token)
	if err != nil {
		return "", fmt.Errorf("failed to track sent message: %w", err)
	}
	return token, nil
}

// RecordOpen registers one open event for the message behind the tracking
// token, setting the first-opened timestamp on the initial open.
func (s *Store) RecordOpen(ctx context.Context, trackingToken string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tracked_messages
		SET is_opened = 1,
		    open_count = open_count + 1,
		    first_opened_at = COALESCE(first_opened_at, CURRENT_TIMESTAMP)
		WHERE tracking_token = ?
	`, trackingToken)
	if err != nil {
		return fmt.Errorf("failed to record open: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("unknown tracking token %s", trackingToken)
	}
	return nil
}

// GetOpenStatsBulk returns the open-tracking records for the given message
// ids. Messages without a record are simply absent from the result.
func (s *Store) GetOpenStatsBulk(ctx context.Context, messageIDs []string) ([]threads.OpenStat, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	var out []threads.OpenStat
	for _, batch := range helpers.Batch(messageIDs, bulkQueryBatchSize) {
		query, args, err := sqlx.In(`
			SELECT message_id, has_tracking, is_opened, open_count, first_opened_at
			FROM tracked_messages
			WHERE message_id IN (?)
		`, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to build open stats query: %w", err)
		}

		var stats []threads.OpenStat
		if err := s.db.SelectContext(ctx, &stats, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to query open stats: %w", err)
		}
		out = append(out, stats...)
	}
	return out, nil
}
