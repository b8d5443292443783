package threads

// Enrichment passes annotate already-grouped threads with side data. Each
// pass is a pure lookup over its auxiliary input, commutes with the others,
// and leaves threads without matching records unannotated. A pass never
// drops a thread.

// AttachOpenStats aggregates per-message open-tracking records onto each
// thread's outgoing messages, matched by message id.
func AttachOpenStats(ts []Thread, stats []OpenStat) []Thread {
	byMessage := make(map[string]OpenStat, len(stats))
	for _, s := range stats {
		byMessage[s.MessageID] = s
	}

	out := make([]Thread, len(ts))
	copy(out, ts)
	for i := range out {
		var agg OpenStats
		matched := false
		for _, m := range out[i].Messages {
			if !m.IsOutgoing {
				continue
			}
			s, ok := byMessage[m.ID]
			if !ok {
				continue
			}
			matched = true
			if s.HasTracking {
				agg.TrackedMessages++
			}
			if s.IsOpened {
				agg.OpenedMessages++
			}
			agg.TotalOpens += s.OpenCount
			if s.FirstOpenedAt != nil &&
				(agg.FirstOpenedAt == nil || s.FirstOpenedAt.Before(*agg.FirstOpenedAt)) {
				first := *s.FirstOpenedAt
				agg.FirstOpenedAt = &first
			}
		}
		if matched {
			out[i].OpenStats = &agg
		}
	}
	return out
}

// AttachLeadAssociations links threads to their CRM leads by thread id.
func AttachLeadAssociations(ts []Thread, leads map[string][]string) []Thread {
	out := make([]Thread, len(ts))
	copy(out, ts)
	for i := range out {
		if ids, ok := leads[out[i].ID]; ok && len(ids) > 0 {
			out[i].LeadIDs = append([]string(nil), ids...)
		}
	}
	return out
}

// AttachSentiments re-applies previously persisted classifications, keyed by
// incoming message id, so a regrouping pass does not lose analysis results.
func AttachSentiments(ts []Thread, byMessageID map[string]Sentiment) []Thread {
	out := make([]Thread, len(ts))
	copy(out, ts)
	for i := range out {
		msgs := make([]Email, len(out[i].Messages))
		copy(msgs, out[i].Messages)
		for j := range msgs {
			if msgs[j].IsOutgoing {
				continue
			}
			if s, ok := byMessageID[msgs[j].ID]; ok {
				sc := s
				msgs[j].Sentiment = &sc
			}
		}
		out[i].Messages = msgs

		for j := len(msgs) - 1; j >= 0; j-- {
			if !msgs[j].IsOutgoing && msgs[j].Sentiment != nil {
				sc := *msgs[j].Sentiment
				out[i].Sentiment = &sc
				break
			}
		}
	}
	return out
}
