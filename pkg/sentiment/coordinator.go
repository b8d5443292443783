package sentiment

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/salesloop/salesloop/pkg/threads"
)

// ErrNoIncomingMessage is returned when a thread has nothing to classify.
var ErrNoIncomingMessage = errors.New("thread has no incoming message to classify")

// Store is the single writer of persisted classifications. Persisting
// through it keeps a later regrouping pass from re-querying the classifier.
type Store interface {
	SaveSentiment(ctx context.Context, threadID, messageID string, s threads.Sentiment) error
}

// Coordinator triggers at-most-once, lazy sentiment analysis per thread.
// Classification runs when a thread is opened, never eagerly for every
// loaded thread. Concurrent opens of the same thread share one in-flight
// classifier call, keyed by thread id for the lifetime of that call.
// Analysis is never auto-retried: a failure is returned to the caller and
// the thread left unset, so a later open retries.
type Coordinator struct {
	logger     *log.Logger
	classifier Classifier
	store      Store
	group      singleflight.Group

	// mu guards thread sentiment reads and attachment: every caller that
	// shared one in-flight classification attaches the result on return.
	mu sync.Mutex
}

func NewCoordinator(logger *log.Logger, classifier Classifier, store Store) *Coordinator {
	return &Coordinator{
		logger:     logger,
		classifier: classifier,
		store:      store,
	}
}

// EnsureSentiment returns the thread's classification, computing it only if
// absent. On success the result is attached to both the thread and its most
// recent incoming message, and persisted through the store.
func (c *Coordinator) EnsureSentiment(ctx context.Context, t *threads.Thread) (threads.Sentiment, error) {
	c.mu.Lock()
	if t.Sentiment != nil {
		s := *t.Sentiment
		c.mu.Unlock()
		return s, nil
	}
	incoming := t.LatestIncoming()
	c.mu.Unlock()

	if incoming == nil {
		return threads.Sentiment{}, ErrNoIncomingMessage
	}

	v, err, _ := c.group.Do(t.ID, func() (interface{}, error) {
		body := incoming.Body
		if strings.TrimSpace(body) == "" {
			body = incoming.Snippet
		}

		s, err := c.classifier.Classify(ctx, body, incoming.Subject)
		if err != nil {
			return nil, err
		}

		if c.store != nil {
			if err := c.store.SaveSentiment(ctx, t.ID, incoming.ID, s); err != nil {
				c.logger.Warn("Failed to persist sentiment",
					"thread_id", t.ID, "message_id", incoming.ID, "error", err)
			}
		}
		return s, nil
	})
	if err != nil {
		return threads.Sentiment{}, err
	}

	s := v.(threads.Sentiment)
	c.mu.Lock()
	if t.Sentiment == nil {
		t.Sentiment = &s
		incoming.Sentiment = &s
	}
	out := *t.Sentiment
	c.mu.Unlock()
	return out, nil
}
