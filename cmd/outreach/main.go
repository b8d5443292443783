package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/salesloop/salesloop/pkg/ai"
	"github.com/salesloop/salesloop/pkg/config"
	"github.com/salesloop/salesloop/pkg/crmstore"
	"github.com/salesloop/salesloop/pkg/logging"
	"github.com/salesloop/salesloop/pkg/mailbox"
	"github.com/salesloop/salesloop/pkg/outreach"
	"github.com/salesloop/salesloop/pkg/sentiment"
	"github.com/salesloop/salesloop/pkg/threads"
)

func main() {
	logger := logging.NewDefaultLogger()

	if err := run(logger); err != nil {
		logger.Fatal("outreach failed", "error", err)
	}
}

func run(logger *log.Logger) error {
	logs := logging.NewFactory(logger)
	envs, err := config.LoadConfig(false)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if envs.UserEmail == "" {
		return errors.New("USER_EMAIL is not set")
	}

	accessToken := os.Getenv("GMAIL_ACCESS_TOKEN")
	if accessToken == "" {
		return errors.New("GMAIL_ACCESS_TOKEN is not set")
	}

	if err := os.MkdirAll(envs.AppDataPath, 0o755); err != nil {
		return errors.Wrap(err, "failed to create data directory")
	}

	store, err := crmstore.NewStore(envs.DBPath, logs.ForComponent("crmstore"))
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}
	defer func() { _ = store.Close() }()

	gmail := mailbox.NewGmailClient(logs.ForComponent("gmail"), envs.GmailAPIURL, func(ctx context.Context) (string, error) {
		return accessToken, nil
	})

	aiService := ai.NewOpenAIService(logs.ForComponent("ai"), envs.CompletionsAPIKey, envs.CompletionsAPIURL)
	classifier := sentiment.NewOpenAIClassifier(logs.ForComponent("sentiment"), aiService, envs.CompletionsModel)
	coordinator := sentiment.NewCoordinator(logs.ForComponent("sentiment"), classifier, store)

	service := outreach.NewService(logs.ForComponent("outreach"), gmail, store, coordinator, envs.UserEmail, envs.OutreachLabel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	loaded, err := service.LoadThreads(ctx)
	if err != nil {
		if errors.Is(err, mailbox.ErrReauthRequired) {
			return errors.Wrap(err, "credentials expired, sign in again")
		}
		return errors.Wrap(err, "failed to load threads")
	}

	stats := service.Stats()
	logger.Info("Loaded conversation threads",
		"total", stats.Total,
		"with_replies", stats.WithReplies,
		"awaiting_reply", stats.AwaitingReply,
		"unread", stats.Unread)

	for _, t := range threads.SortThreads(loaded, threads.SortUnreadFirst) {
		logger.Info("Thread",
			"id", t.ID,
			"contact", t.ContactEmail,
			"subject", t.Subject,
			"messages", len(t.Messages),
			"unread", t.HasUnreadReply,
			"awaiting", t.AwaitingReply)
	}
	return nil
}
