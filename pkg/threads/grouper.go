package threads

import (
	"sort"
)

// Group merges the sent and reply collections into one Thread per distinct
// provider thread id. The pass is idempotent and independent of the input
// order: duplicate message ids keep the instance with the latest date, and
// the output is deterministically ordered newest thread first.
func Group(sent, replies []Email, userEmail string) []Thread {
	byThread := make(map[string][]Email)

	add := func(e Email) {
		e.IsOutgoing = IsOutgoingAddress(e.From, userEmail)
		byThread[e.ThreadID] = append(byThread[e.ThreadID], e)
	}
	for _, e := range sent {
		add(e)
	}
	for _, e := range replies {
		add(e)
	}

	out := make([]Thread, 0, len(byThread))
	for id, msgs := range byThread {
		out = append(out, buildThread(id, msgs))
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].LastMessageDate(), out[j].LastMessageDate()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func buildThread(id string, msgs []Email) Thread {
	msgs = dedupeLatest(msgs)

	// Unparsable dates normalize to the zero time, which sorts earliest.
	// The id tiebreak keeps ordering independent of input order.
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Date.Equal(msgs[j].Date) {
			return msgs[i].Date.Before(msgs[j].Date)
		}
		return msgs[i].ID < msgs[j].ID
	})

	t := Thread{ID: id, Messages: msgs}
	t.Subject = t.LastMessage().Subject

	contact := msgs[0]
	for _, m := range msgs {
		if !m.IsOutgoing {
			contact = m
			break
		}
	}
	t.ContactName, t.ContactEmail = parseContact(contact.From)
	if contact.IsOutgoing {
		// Entirely outgoing thread: the counterpart is whoever we wrote to.
		t.ContactName, t.ContactEmail = parseContact(contact.To)
	}

	for _, m := range msgs {
		if !m.IsOutgoing && m.HasLabel(LabelUnread) {
			t.HasUnreadReply = true
			break
		}
	}
	t.AwaitingReply = t.LastMessage().IsOutgoing

	// Thread sentiment comes from the most recent analyzed incoming message.
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].IsOutgoing && msgs[i].Sentiment != nil {
			s := *msgs[i].Sentiment
			t.Sentiment = &s
			break
		}
	}

	return t
}

// dedupeLatest collapses duplicate message ids, keeping the instance with
// the latest date. The provider should never hand out duplicates, but a
// refetched message must not appear twice.
func dedupeLatest(msgs []Email) []Email {
	seen := make(map[string]int, len(msgs))
	out := make([]Email, 0, len(msgs))
	for _, m := range msgs {
		if i, ok := seen[m.ID]; ok {
			if m.Date.After(out[i].Date) {
				out[i] = m
			}
			continue
		}
		seen[m.ID] = len(out)
		out = append(out, m)
	}
	return out
}
