// Package store provides the in-memory SubscriptionStore used for local runs
// and tests. It mirrors the DynamoDB adapter's key semantics: uppercase
// normalized state and city in the key, typed casing in the stored row.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/geistdevelopment/wetter-bericht/internal/domain"
)

// MemoryStore is a concurrency-safe in-memory implementation of
// domain.SubscriptionStore.
type MemoryStore struct {
	mu          sync.RWMutex
	subscribers map[string]domain.Subscriber
	// key: email -> composite location key -> subscription
	subscriptions map[string]map[string]domain.Subscription
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers:   make(map[string]domain.Subscriber),
		subscriptions: make(map[string]map[string]domain.Subscription),
	}
}

func locationKey(city, state string) string {
	return domain.NormalizeKeyPart(state) + "#" + domain.NormalizeKeyPart(city)
}

// SubscriberExists reports whether a profile exists for the email.
func (s *MemoryStore) SubscriberExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.subscribers[email]
	return ok, nil
}

// CreateSubscriber writes the profile if absent. Repeated creation keeps the
// original CreatedAt and reports success.
func (s *MemoryStore) CreateSubscriber(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[email]; ok {
		return nil
	}
	s.subscribers[email] = domain.Subscriber{Email: email, CreatedAt: domain.Now().UTC()}
	return nil
}

// UpsertSubscription inserts or overwrites the location row for the
// subscriber, keyed by normalized state and city.
func (s *MemoryStore) UpsertSubscription(_ context.Context, sub domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.subscriptions[sub.Email]
	if !ok {
		rows = make(map[string]domain.Subscription)
		s.subscriptions[sub.Email] = rows
	}

	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = domain.Now().UTC()
	}
	rows[locationKey(sub.City, sub.State)] = sub
	return nil
}

// DeleteSubscription removes the location row; deleting an absent row is a no-op.
func (s *MemoryStore) DeleteSubscription(_ context.Context, email, city, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subscriptions[email], locationKey(city, state))
	return nil
}

// ListSubscriptions returns the subscriber's locations ordered by their
// normalized key, matching the sort-key order of the DynamoDB adapter.
func (s *MemoryStore) ListSubscriptions(_ context.Context, email string) ([]domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.subscriptions[email]
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	subs := make([]domain.Subscription, 0, len(rows))
	for _, k := range keys {
		subs = append(subs, rows[k])
	}
	return subs, nil
}

// ListSubscribers returns every subscriber email in sorted order.
func (s *MemoryStore) ListSubscribers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := make([]string, 0, len(s.subscribers))
	for email := range s.subscribers {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails, nil
}
