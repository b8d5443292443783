package threads

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

type SortMode string

const (
	SortNewest        SortMode = "newest"
	SortOldest        SortMode = "oldest"
	SortUnreadFirst   SortMode = "unread_first"
	SortAwaitingFirst SortMode = "awaiting_first"
	SortPositiveFirst SortMode = "positive_first"
	SortNegativeFirst SortMode = "negative_first"
)

// FilterByLabel keeps threads where any constituent message carries the
// label, matched exactly as provided by the source.
func FilterByLabel(ts []Thread, label string) []Thread {
	return lo.Filter(ts, func(t Thread, _ int) bool {
		for _, m := range t.Messages {
			if m.HasLabel(label) {
				return true
			}
		}
		return false
	})
}

// Search keeps threads matching the term case-insensitively against contact
// name, contact email, thread subject, and every message's snippet and body.
// An empty or whitespace term returns the input unchanged.
func Search(ts []Thread, term string) []Thread {
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return ts
	}
	return lo.Filter(ts, func(t Thread, _ int) bool {
		if strings.Contains(strings.ToLower(t.ContactName), term) ||
			strings.Contains(strings.ToLower(t.ContactEmail), term) ||
			strings.Contains(strings.ToLower(t.Subject), term) {
			return true
		}
		for _, m := range t.Messages {
			if strings.Contains(strings.ToLower(m.Snippet), term) ||
				strings.Contains(strings.ToLower(m.Body), term) {
				return true
			}
		}
		return false
	})
}

// SortThreads returns a new slice ordered by the given mode. Every mode is
// stable and breaks ties newest-first.
func SortThreads(ts []Thread, mode SortMode) []Thread {
	out := make([]Thread, len(ts))
	copy(out, ts)

	newer := func(a, b Thread) bool {
		return a.LastMessageDate().After(b.LastMessageDate())
	}

	switch mode {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LastMessageDate().Before(out[j].LastMessageDate())
		})
	case SortUnreadFirst:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].HasUnreadReply != out[j].HasUnreadReply {
				return out[i].HasUnreadReply
			}
			return newer(out[i], out[j])
		})
	case SortAwaitingFirst:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].AwaitingReply != out[j].AwaitingReply {
				return out[i].AwaitingReply
			}
			return newer(out[i], out[j])
		})
	case SortPositiveFirst:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := sentimentRank(out[i], false), sentimentRank(out[j], false)
			if ri != rj {
				return ri < rj
			}
			return newer(out[i], out[j])
		})
	case SortNegativeFirst:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := sentimentRank(out[i], true), sentimentRank(out[j], true)
			if ri != rj {
				return ri < rj
			}
			return newer(out[i], out[j])
		})
	default: // SortNewest
		sort.SliceStable(out, func(i, j int) bool {
			return newer(out[i], out[j])
		})
	}
	return out
}

// sentimentRank orders analyzed threads before unanalyzed ones, with the
// preferred polarity first within the analyzed group.
func sentimentRank(t Thread, negativeFirst bool) int {
	if t.Sentiment == nil {
		return 2
	}
	if t.Sentiment.Label.IsNegative() == negativeFirst {
		return 0
	}
	return 1
}
