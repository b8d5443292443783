package outreach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/salesloop/salesloop/pkg/mailbox"
	"github.com/salesloop/salesloop/pkg/threads"
)

// SideData is the tracking/association store the enrichment passes read
// from and the send path writes to.
type SideData interface {
	GetOpenStatsBulk(ctx context.Context, messageIDs []string) ([]threads.OpenStat, error)
	GetLeadAssociationsByThreadIDs(ctx context.Context, threadIDs []string) (map[string][]string, error)
	GetSentimentsByThreadIDs(ctx context.Context, threadIDs []string) (map[string]threads.Sentiment, error)
	TrackSentMessage(ctx context.Context, messageID, threadID, recipient, subject string) (string, error)
}

// SentimentEnsurer performs lazy at-most-once classification of a thread.
type SentimentEnsurer interface {
	EnsureSentiment(ctx context.Context, t *threads.Thread) (threads.Sentiment, error)
}

// ProgressFunc observes batch progress. Invoked after each unit with a
// monotonically non-decreasing completed count.
type ProgressFunc func(completed, total int)

// Service drives load cycles over the mail provider and holds the working
// thread collection. It is safe to create one per load context; the only
// shared state is the thread set it owns.
type Service struct {
	logger        *log.Logger
	provider      mailbox.Provider
	store         SideData
	coordinator   SentimentEnsurer
	userEmail     string
	outreachLabel string

	generation atomic.Int64

	mu      sync.Mutex
	threads []threads.Thread
}

func NewService(
	logger *log.Logger,
	provider mailbox.Provider,
	store SideData,
	coordinator SentimentEnsurer,
	userEmail string,
	outreachLabel string,
) *Service {
	return &Service{
		logger:        logger,
		provider:      provider,
		store:         store,
		coordinator:   coordinator,
		userEmail:     userEmail,
		outreachLabel: outreachLabel,
	}
}

// LoadThreads runs one full load cycle: fetch sent and reply messages
// concurrently, group, then enrich. A failed fetch degrades to an empty
// collection unless the provider demands re-authentication. Results from a
// load superseded by a newer one are not installed into the working set.
func (s *Service) LoadThreads(ctx context.Context) ([]threads.Thread, error) {
	gen := s.generation.Add(1)

	var sent, replies []threads.Email
	var sentErr, replyErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raws, err := s.provider.FetchMessages(gctx, mailbox.Criteria{Query: "in:sent"})
		if err != nil {
			sentErr = err
			return nil
		}
		sent = mailbox.NormalizeAll(raws)
		return nil
	})
	g.Go(func() error {
		raws, err := s.provider.FetchMessages(gctx, mailbox.Criteria{Query: "in:inbox"})
		if err != nil {
			replyErr = err
			return nil
		}
		for _, e := range mailbox.NormalizeAll(raws) {
			if s.isIncomingReply(e) {
				replies = append(replies, e)
			}
		}
		return nil
	})
	_ = g.Wait()

	// Credential expiry is the one fetch failure the caller must see;
	// anything else proceeds with whatever succeeded.
	for _, err := range []error{sentErr, replyErr} {
		if errors.Is(err, mailbox.ErrReauthRequired) {
			return nil, err
		}
		if err != nil {
			s.logger.Warn("Fetch failed, proceeding with partial data", "error", err)
		}
	}

	grouped := threads.Group(sent, replies, s.userEmail)
	grouped = s.enrich(ctx, grouped)

	if s.generation.Load() == gen {
		s.mu.Lock()
		s.threads = grouped
		s.mu.Unlock()
	} else {
		s.logger.Debug("Discarding superseded load", "generation", gen)
	}
	return grouped, nil
}

// enrich runs the open-tracking, lead-association, and persisted-sentiment
// passes concurrently. A failed lookup skips its pass; threads are never
// dropped.
func (s *Service) enrich(ctx context.Context, grouped []threads.Thread) []threads.Thread {
	if s.store == nil {
		return grouped
	}

	var outgoingIDs, threadIDs []string
	for i := range grouped {
		threadIDs = append(threadIDs, grouped[i].ID)
		for _, m := range grouped[i].Messages {
			if m.IsOutgoing {
				outgoingIDs = append(outgoingIDs, m.ID)
			}
		}
	}

	var stats []threads.OpenStat
	var leads map[string][]string
	var sentiments map[string]threads.Sentiment
	var statsErr, leadsErr, sentimentsErr error

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		stats, statsErr = s.store.GetOpenStatsBulk(ctx, outgoingIDs)
	}()
	go func() {
		defer wg.Done()
		leads, leadsErr = s.store.GetLeadAssociationsByThreadIDs(ctx, threadIDs)
	}()
	go func() {
		defer wg.Done()
		sentiments, sentimentsErr = s.store.GetSentimentsByThreadIDs(ctx, threadIDs)
	}()
	wg.Wait()

	if statsErr != nil {
		s.logger.Warn("Open-tracking enrichment skipped", "error", statsErr)
	} else {
		grouped = threads.AttachOpenStats(grouped, stats)
	}
	if leadsErr != nil {
		s.logger.Warn("Lead enrichment skipped", "error", leadsErr)
	} else {
		grouped = threads.AttachLeadAssociations(grouped, leads)
	}
	if sentimentsErr != nil {
		s.logger.Warn("Sentiment re-attachment skipped", "error", sentimentsErr)
	} else {
		grouped = threads.AttachSentiments(grouped, sentiments)
	}
	return grouped
}

// isIncomingReply preserves the reply-detection heuristic: an incoming
// reply sits in the inbox, is not from the user, and does not carry the
// outreach label. Forwarded or CC'd mail can slip through; known
// approximation.
func (s *Service) isIncomingReply(e threads.Email) bool {
	if threads.IsOutgoingAddress(e.From, s.userEmail) {
		return false
	}
	if !e.HasLabel(threads.LabelInbox) {
		return false
	}
	if s.outreachLabel != "" && e.HasLabel(s.outreachLabel) {
		return false
	}
	return true
}

// OpenThread returns the thread and lazily triggers sentiment analysis for
// just that thread, patching the working copy in place. The classification
// error, if any, is surfaced alongside the thread so the caller can still
// render it.
func (s *Service) OpenThread(ctx context.Context, threadID string) (*threads.Thread, error) {
	s.mu.Lock()
	var target *threads.Thread
	for i := range s.threads {
		if s.threads[i].ID == threadID {
			target = &s.threads[i]
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return nil, fmt.Errorf("thread %s not loaded", threadID)
	}

	if _, err := s.coordinator.EnsureSentiment(ctx, target); err != nil {
		return target, fmt.Errorf("sentiment analysis: %w", err)
	}
	return target, nil
}

// SendBatch sends the same outreach email to each recipient sequentially,
// registering every accepted message for open tracking. The progress
// observer is invoked after each unit. One failed send does not stop the
// batch; the error reports the failure count at the end.
func (s *Service) SendBatch(ctx context.Context, recipients []string, subject, body string, onProgress ProgressFunc) error {
	total := len(recipients)
	failed := 0

	for i, to := range recipients {
		if err := s.sendTracked(ctx, to, subject, body); err != nil {
			failed++
			s.logger.Error("Batch send failed", "to", to, "error", err)
		}
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sends failed", failed, total)
	}
	return nil
}

// Reply sends a reply within an existing thread and tracks it.
func (s *Service) Reply(ctx context.Context, threadID, to, body string) error {
	s.mu.Lock()
	subject := ""
	for i := range s.threads {
		if s.threads[i].ID == threadID {
			subject = s.threads[i].Subject
			break
		}
	}
	s.mu.Unlock()

	if subject != "" && !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}
	return s.sendTracked(ctx, to, subject, body)
}

func (s *Service) sendTracked(ctx context.Context, to, subject, body string) error {
	result, err := s.provider.SendMessage(ctx, to, subject, body)
	if err != nil {
		return err
	}
	if s.store == nil {
		return nil
	}
	if _, err := s.store.TrackSentMessage(ctx, result.MessageID, result.ThreadID, to, subject); err != nil {
		// The mail went out; losing the tracking row must not fail the send.
		s.logger.Warn("Failed to track sent message", "message_id", result.MessageID, "error", err)
	}
	return nil
}

// Threads returns the current working thread collection.
func (s *Service) Threads() []threads.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]threads.Thread, len(s.threads))
	copy(out, s.threads)
	return out
}

// Filtered composes label filter, free-text search, and sort over the
// working collection, sort applied last.
func (s *Service) Filtered(label, term string, mode threads.SortMode) []threads.Thread {
	ts := s.Threads()
	if label != "" {
		ts = threads.FilterByLabel(ts, label)
	}
	ts = threads.Search(ts, term)
	return threads.SortThreads(ts, mode)
}

// Stats aggregates dashboard counters over the working collection.
func (s *Service) Stats() threads.Stats {
	return threads.Aggregate(s.Threads())
}
