package threads

import (
	"net/mail"
	"strings"
	"time"
)

// LabelUnread is the provider label carried by messages not yet read.
const LabelUnread = "UNREAD"

// LabelInbox is the provider label carried by messages in the inbox.
const LabelInbox = "INBOX"

type SentimentLabel string

const (
	SentimentPositive      SentimentLabel = "positive"
	SentimentDoubtful      SentimentLabel = "doubtful"
	SentimentNotInterested SentimentLabel = "not_interested"
)

// IsNegative reports whether the label counts as negative for sentiment
// ordering. Doubtful replies are grouped with not-interested ones.
func (l SentimentLabel) IsNegative() bool {
	return l == SentimentDoubtful || l == SentimentNotInterested
}

// Sentiment is the classification attached to an analyzed incoming reply.
type Sentiment struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
}

// Email is a canonical provider message. Immutable once constructed except
// for Sentiment, which is patched in when a reply gets analyzed, and
// IsOutgoing, which is derived during grouping.
type Email struct {
	ID         string
	ThreadID   string
	From       string
	To         string
	Subject    string
	Snippet    string
	Body       string
	Date       time.Time
	LabelIDs   []string
	Sentiment  *Sentiment
	IsOutgoing bool
}

// HasLabel reports whether the message carries the given provider label.
// Matching is exact and case-sensitive, as labels come from the provider.
func (e Email) HasLabel(label string) bool {
	for _, l := range e.LabelIDs {
		if l == label {
			return true
		}
	}
	return false
}

// OpenStat is the per-message open-tracking record kept by the CRM store.
type OpenStat struct {
	MessageID     string     `db:"message_id"`
	HasTracking   bool       `db:"has_tracking"`
	IsOpened      bool       `db:"is_opened"`
	OpenCount     int        `db:"open_count"`
	FirstOpenedAt *time.Time `db:"first_opened_at"`
}

// OpenStats is the aggregate of a thread's outgoing-message tracking records.
type OpenStats struct {
	TrackedMessages int
	OpenedMessages  int
	TotalOpens      int
	FirstOpenedAt   *time.Time
}

// Thread is a conversation aggregate rebuilt from Email collections on every
// grouping pass. Enrichment fields (Sentiment, OpenStats, LeadIDs) stay nil
// until the corresponding pass runs.
type Thread struct {
	ID             string
	Messages       []Email
	ContactName    string
	ContactEmail   string
	Subject        string
	HasUnreadReply bool
	AwaitingReply  bool
	Sentiment      *Sentiment
	OpenStats      *OpenStats
	LeadIDs        []string
}

// LastMessage returns the chronologically last message of the thread, which
// grouping guarantees exists.
func (t *Thread) LastMessage() Email {
	return t.Messages[len(t.Messages)-1]
}

// LastMessageDate returns the date of the chronologically last message.
func (t *Thread) LastMessageDate() time.Time {
	if len(t.Messages) == 0 {
		return time.Time{}
	}
	return t.Messages[len(t.Messages)-1].Date
}

// LatestIncoming returns a pointer to the most recent incoming message of
// the thread, or nil if the thread is entirely outgoing.
func (t *Thread) LatestIncoming() *Email {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if !t.Messages[i].IsOutgoing {
			return &t.Messages[i]
		}
	}
	return nil
}

// HasIncoming reports whether at least one incoming message exists.
func (t *Thread) HasIncoming() bool {
	return t.LatestIncoming() != nil
}

// IsOutgoingAddress reports whether the raw From header belongs to the
// authenticated user. Provider headers mix bare addresses and
// "Display Name <addr>" forms, so this is a case-insensitive substring
// match rather than strict address parsing.
func IsOutgoingAddress(from, userEmail string) bool {
	if userEmail == "" {
		return false
	}
	return strings.Contains(strings.ToLower(from), strings.ToLower(userEmail))
}

// parseContact splits a raw address header into display name and address.
func parseContact(raw string) (name, email string) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", strings.TrimSpace(raw)
	}
	return addr.Name, addr.Address
}
