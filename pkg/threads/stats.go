package threads

// Stats are the dashboard summary counters for a thread collection.
type Stats struct {
	Total         int
	WithReplies   int
	AwaitingReply int
	Unread        int
}

// Aggregate computes summary counters over the given threads. Recomputed on
// every filtered view rather than cached.
func Aggregate(ts []Thread) Stats {
	var s Stats
	s.Total = len(ts)
	for i := range ts {
		if ts[i].HasIncoming() {
			s.WithReplies++
		}
		if ts[i].AwaitingReply {
			s.AwaitingReply++
		}
		if ts[i].HasUnreadReply {
			s.Unread++
		}
	}
	return s
}
