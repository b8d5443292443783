package crmstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/salesloop/salesloop/pkg/helpers"
)

// AssociateLead links a CRM lead to a conversation thread.
func (s *Store) AssociateLead(ctx context.Context, threadID, leadID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO lead_threads (thread_id, lead_id) VALUES (?, ?)
	`, threadID, leadID)
	if err != nil {
		return fmt.Errorf("failed to associate lead: %w", err)
	}
	return nil
}

// GetLeadAssociationsByThreadIDs returns the lead ids associated with each
// of the given thread ids. Threads without associations are absent from the
// returned map.
func (s *Store) GetLeadAssociationsByThreadIDs(ctx context.Context, threadIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(threadIDs) == 0 {
		return out, nil
	}

	for _, batch := range helpers.Batch(threadIDs, bulkQueryBatchSize) {
		query, args, err := sqlx.In(`
			SELECT thread_id, lead_id FROM lead_threads WHERE thread_id IN (?)
		`, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to build lead query: %w", err)
		}

		var rows []struct {
			ThreadID string `db:"thread_id"`
			LeadID   string `db:"lead_id"`
		}
		if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("failed to query lead associations: %w", err)
		}
		for _, r := range rows {
			out[r.ThreadID] = append(out[r.ThreadID], r.LeadID)
		}
	}
	return out, nil
}
