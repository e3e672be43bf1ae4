// Package scheduler runs the daily digest job: every subscriber with saved
// locations gets one multi-day forecast email per cron firing.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/geistdevelopment/wetter-bericht/internal/domain"
	"github.com/geistdevelopment/wetter-bericht/internal/observability"
)

// runTimeout bounds one complete digest pass across all subscribers.
const runTimeout = 10 * time.Minute

// Scheduler triggers the digest job on a cron spec.
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     domain.SubscriptionStore
	provider  domain.ForecastProvider
	mailer    domain.Mailer
	cronSpec  string
	subject   string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a digest scheduler. The cron spec uses standard five-field
// syntax evaluated in UTC.
func New(store domain.SubscriptionStore, provider domain.ForecastProvider, mailer domain.Mailer, cronSpec, subject string, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		provider:  provider,
		mailer:    mailer,
		cronSpec:  cronSpec,
		subject:   subject,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the digest job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Cron(s.cronSpec).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("digest scheduler started", "cron", s.cronSpec)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce executes one complete digest pass. Per-subscriber failures are
// logged and skipped so one broken mailbox cannot starve the rest. Every
// subscriber gets a digest; one without saved locations gets the
// "(No locations configured)" placeholder body.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	s.metrics.DigestRuns.Inc()
	defer func() {
		s.metrics.DigestDuration.Observe(time.Since(start).Seconds())
	}()

	emails, err := s.store.ListSubscribers(ctx)
	if err != nil {
		s.logger.Error("digest run aborted, cannot list subscribers", "error", err)
		return
	}
	s.logger.Info("digest run started", "subscribers", len(emails))

	sent := 0
	for _, email := range emails {
		if err := s.sendDigest(ctx, email); err != nil {
			s.logger.Warn("digest failed for subscriber", "email", email, "error", err)
			continue
		}
		sent++
	}

	s.logger.Info("digest run finished", "subscribers", len(emails), "sent", sent, "duration", time.Since(start))
}

func (s *Scheduler) sendDigest(ctx context.Context, email string) error {
	subs, err := s.store.ListSubscriptions(ctx, email)
	if err != nil {
		return err
	}
	payload := domain.BuildForecastPayload(ctx, subs, s.provider, s.logger)
	body := domain.ComposeDigest(payload)

	if err := s.mailer.Send(ctx, email, s.subject, body); err != nil {
		return err
	}

	s.metrics.RepliesSent.Inc()
	return nil
}
