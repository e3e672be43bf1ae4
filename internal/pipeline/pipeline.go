// Package pipeline executes inbound command batches: parse, apply against the
// subscription store, compose a reply, send it. One invocation handles exactly
// one sender's batch, sequentially; per-command failures are recorded and do
// not abort the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geistdevelopment/wetter-bericht/internal/domain"
	"github.com/geistdevelopment/wetter-bericht/internal/observability"
)

// Resolver turns a "City, ST" payload into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, payload string) (domain.Place, error)
}

// Pipeline wires the command executor to its collaborators.
type Pipeline struct {
	store    domain.SubscriptionStore
	resolver Resolver
	provider domain.ForecastProvider
	mailer   domain.Mailer
	logger   *slog.Logger
	metrics  *observability.Metrics
	subject  string
}

// New creates a Pipeline.
func New(store domain.SubscriptionStore, resolver Resolver, provider domain.ForecastProvider, mailer domain.Mailer, subject string, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		store:    store,
		resolver: resolver,
		provider: provider,
		mailer:   mailer,
		subject:  subject,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness reports whether the pipeline can serve traffic. The service
// is request-driven, so it is ready as soon as its collaborators are wired.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.store == nil || p.resolver == nil || p.provider == nil || p.mailer == nil {
		return errors.New("pipeline collaborators not wired")
	}
	return nil
}

// HandleInbound processes one decoded inbound email end to end: parse the
// body into commands, execute them for the sender, and reply unless the batch
// produced nothing actionable and LIST was not requested.
func (p *Pipeline) HandleInbound(ctx context.Context, msg domain.InboundEmail) error {
	p.logger.Info("inbound email received", "sender", msg.Sender, "subject", msg.Subject)

	commands := domain.ParseCommands(msg.Body)
	p.logger.Debug("parsed commands", "sender", msg.Sender, "count", len(commands))

	result, err := p.ExecuteCommands(ctx, msg.Sender, commands)
	if err != nil {
		p.metrics.InboundMessages.WithLabelValues("rejected").Inc()
		return fmt.Errorf("execute commands for %s: %w", msg.Sender, err)
	}

	body, ok := domain.ComposeReply(ctx, result, p.provider, p.logger)
	if !ok {
		p.logger.Info("nothing actionable, suppressing reply", "sender", msg.Sender)
		p.metrics.RepliesSuppressed.Inc()
		p.metrics.InboundMessages.WithLabelValues("processed").Inc()
		return nil
	}

	if err := p.mailer.Send(ctx, msg.Sender, p.subject, body); err != nil {
		p.metrics.InboundMessages.WithLabelValues("rejected").Inc()
		return fmt.Errorf("send reply to %s: %w", msg.Sender, err)
	}

	p.metrics.RepliesSent.Inc()
	p.metrics.InboundMessages.WithLabelValues("processed").Inc()
	return nil
}

// ExecuteCommands applies a parsed command batch for one subscriber.
//
// An empty batch returns a single "No valid commands found" error without
// touching the store. Otherwise the subscriber profile is created if absent,
// then commands run in input order with per-command error isolation: a failed
// ADD or REMOVE is recorded in the result and its siblings still execute.
// The returned error is reserved for store-level failures that prevent the
// batch from running at all.
func (p *Pipeline) ExecuteCommands(ctx context.Context, email string, commands []domain.Command) (domain.CommandResult, error) {
	var result domain.CommandResult

	if len(commands) == 0 {
		result.Errors = append(result.Errors, domain.CommandError{Message: "No valid commands found"})
		return result, nil
	}

	if err := p.ensureSubscriber(ctx, email); err != nil {
		return domain.CommandResult{}, err
	}

	for _, cmd := range commands {
		var err error
		switch cmd.Verb {
		case domain.VerbAdd:
			err = p.executeAdd(ctx, email, cmd, &result)
		case domain.VerbRemove:
			err = p.executeRemove(ctx, email, cmd, &result)
		case domain.VerbList:
			err = p.executeList(ctx, email, &result)
		}

		if err != nil {
			p.logger.Warn("command failed", "sender", email, "verb", cmd.Verb, "payload", cmd.Payload, "error", err)
			p.metrics.CommandsExecuted.WithLabelValues(string(cmd.Verb), "error").Inc()
			result.Errors = append(result.Errors, domain.CommandError{
				Command: cmd.Verb,
				Payload: cmd.Payload,
				Message: err.Error(),
			})
			continue
		}
		p.metrics.CommandsExecuted.WithLabelValues(string(cmd.Verb), "success").Inc()
	}

	return result, nil
}

// ensureSubscriber lazily creates the subscriber profile. The store's
// conditional write makes losing a creation race a success, so concurrent
// first commands from the same sender are tolerated.
func (p *Pipeline) ensureSubscriber(ctx context.Context, email string) error {
	exists, err := p.store.SubscriberExists(ctx, email)
	if err != nil {
		return fmt.Errorf("look up subscriber: %w", err)
	}
	if exists {
		return nil
	}

	if err := p.store.CreateSubscriber(ctx, email); err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	p.logger.Info("created new subscriber profile", "sender", email)
	return nil
}

func (p *Pipeline) executeAdd(ctx context.Context, email string, cmd domain.Command, result *domain.CommandResult) error {
	place, err := p.resolver.Resolve(ctx, cmd.Payload)
	if err != nil {
		return err
	}

	sub := domain.Subscription{
		Email:   email,
		City:    place.City,
		State:   place.State,
		Country: domain.DefaultCountry,
		Lat:     place.Lat,
		Lon:     place.Lon,
	}
	if err := p.store.UpsertSubscription(ctx, sub); err != nil {
		return err
	}

	result.Added = append(result.Added, domain.CityRef{City: place.City, State: place.State})
	return nil
}

func (p *Pipeline) executeRemove(ctx context.Context, email string, cmd domain.Command, result *domain.CommandResult) error {
	city, state, err := domain.ParseCityState(cmd.Payload)
	if err != nil {
		return err
	}

	// Deleting an absent row is a no-op at the store, so REMOVE of a
	// never-added location still reports success.
	if err := p.store.DeleteSubscription(ctx, email, city, state); err != nil {
		return err
	}

	result.Removed = append(result.Removed, domain.CityRef{City: city, State: state})
	return nil
}

func (p *Pipeline) executeList(ctx context.Context, email string, result *domain.CommandResult) error {
	subs, err := p.store.ListSubscriptions(ctx, email)
	if err != nil {
		return err
	}

	// Repeated LIST commands overwrite with the same query result. A nil
	// slice from the store still marks LIST as requested.
	if subs == nil {
		subs = []domain.Subscription{}
	}
	result.Listed = subs
	return nil
}
