package crmstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/salesloop/salesloop/pkg/helpers"
	"github.com/salesloop/salesloop/pkg/threads"
)

// SaveSentiment persists the classification of an incoming reply. The store
// is the single writer of sentiment state; re-analysis replaces the row.
func (s *Store) SaveSentiment(ctx context.Context, threadID, messageID string, sentiment threads.Sentiment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reply_sentiments (message_id, thread_id, label, confidence, reasoning)
		VALUES (?, ?, ?, ?, ?)
	`, messageID, threadID, string(sentiment.Label), sentiment.Confidence, sentiment.Reasoning)
	if err != nil {
		return fmt.Errorf("failed to save sentiment: %w", err)
	}
	return nil
}

// GetSentimentsByThreadIDs returns persisted classifications for the given
// threads, keyed by incoming message id so a regrouping pass can re-attach
// them without another classifier call.
func (s *Store) GetSentimentsByThreadIDs(ctx context.Context, threadIDs []string) (map[string]threads.Sentiment, error) {
	out := make(map[string]threads.Sentiment)
	if len(threadIDs) == 0 {
		return out, nil
	}

	for _, batch := range helpers.Batch(threadIDs, bulkQueryBatchSize) {
		query, args, err := sqlx.In(`
			SELECT message_id, label, confidence, reasoning
			FROM reply_sentiments
			WHERE thread_id IN (?)
		`, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to build sentiment query: %w", err)
		}

		var rows []struct {
			MessageID  string  `db:"message_id"`
			Label      string  `db:"label"`
			Confidence float64 `db:"confidence"`
			Reasoning  string  `db:"reasoning"`
		}
		if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to query sentiments: %w", err)
		}
		for _, r := range rows {
			out[r.MessageID] = threads.Sentiment{
				Label:      threads.SentimentLabel(r.Label),
				Confidence: r.Confidence,
				Reasoning:  r.Reasoning,
			}
		}
	}
	return out, nil
}
