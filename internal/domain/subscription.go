package domain

import (
	"context"
	"strings"
	"time"
)

// DefaultCountry is the only country the service geocodes and stores.
const DefaultCountry = "US"

// Subscriber is a unique sender identity. Created lazily on the first command
// from a new sender and never mutated afterwards.
type Subscriber struct {
	Email     string
	CreatedAt time.Time
}

// Subscription is one subscriber's saved location with resolved coordinates.
// City and State keep the casing the subscriber typed; storage keys normalize
// both to uppercase.
type Subscription struct {
	Email     string
	City      string
	State     string
	Country   string
	Lat       float64
	Lon       float64
	CreatedAt time.Time
}

// Ref returns the location reference used in result reporting.
func (s Subscription) Ref() CityRef {
	return CityRef{City: s.City, State: s.State}
}

// NormalizeKeyPart uppercases and trims a city or state for use in a storage key.
func NormalizeKeyPart(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// SubscriptionStore is the persistence contract the command pipeline and the
// digest job depend on. Implementations must make CreateSubscriber a
// conditional write: a concurrent or repeated creation is reported as success
// and must not overwrite the original CreatedAt.
type SubscriptionStore interface {
	// SubscriberExists reports whether a profile row exists for the email.
	SubscriberExists(ctx context.Context, email string) (bool, error)

	// CreateSubscriber writes the profile row if absent. Creation losing a
	// race to another writer is not an error.
	CreateSubscriber(ctx context.Context, email string) error

	// UpsertSubscription inserts or silently overwrites the location row
	// keyed by (email, normalized state, normalized city).
	UpsertSubscription(ctx context.Context, sub Subscription) error

	// DeleteSubscription removes the location row. Deleting an absent row is
	// a no-op, not an error.
	DeleteSubscription(ctx context.Context, email, city, state string) error

	// ListSubscriptions returns all of a subscriber's locations.
	ListSubscriptions(ctx context.Context, email string) ([]Subscription, error)

	// ListSubscribers returns the email of every subscriber profile, for the
	// scheduled digest fan-out.
	ListSubscribers(ctx context.Context) ([]string, error)
}

// Mailer sends one outbound plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// InboundEmail is a decoded inbound message, ready for command parsing.
// Producing it (transport unwrapping, MIME decoding) is the inbound adapter's
// job; a message that cannot be decoded never reaches the pipeline.
type InboundEmail struct {
	Sender  string
	Subject string
	Body    string
}
