package mailbox

import (
	"context"
	"errors"
)

// ErrReauthRequired is returned when the provider rejects the current
// credentials. Callers check for it with errors.Is and prompt for a fresh
// sign-in instead of retrying.
var ErrReauthRequired = errors.New("mail provider requires re-authentication")

// Criteria selects messages from the provider.
type Criteria struct {
	Query      string
	LabelIDs   []string
	MaxResults int
	PageToken  string
}

// SendResult identifies a message accepted by the provider.
type SendResult struct {
	MessageID string `json:"id"`
	ThreadID  string `json:"threadId"`
}

// Provider is the narrow mail capability consumed by the thread engine. Any
// concrete transport (Gmail REST, IMAP, a test fake) implements it.
type Provider interface {
	FetchMessages(ctx context.Context, criteria Criteria) ([]RawMessage, error)
	FetchThread(ctx context.Context, threadID string) ([]RawMessage, error)
	SendMessage(ctx context.Context, to, subject, body string) (SendResult, error)
}
