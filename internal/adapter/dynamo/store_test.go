package dynamo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriberPK(t *testing.T) {
	assert.Equal(t, "SUBSCRIBER#alice@example.com", subscriberPK("alice@example.com"))
}

func TestCitySK(t *testing.T) {
	tests := []struct {
		name  string
		city  string
		state string
		want  string
	}{
		{"typed casing", "Charlotte", "NC", "CITY#US#NC#CHARLOTTE"},
		{"lowercase state", "Charlotte", "nc", "CITY#US#NC#CHARLOTTE"},
		{"mixed case city", "ChArLoTtE", "NC", "CITY#US#NC#CHARLOTTE"},
		{"surrounding whitespace", " Boise ", " id ", "CITY#US#ID#BOISE"},
		{"multi word city", "Kansas City", "MO", "CITY#US#MO#KANSAS CITY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, citySK(tt.city, tt.state))
		})
	}
}

func TestSubscriptionRecordToDomain(t *testing.T) {
	rec := subscriptionRecord{
		PK:        "SUBSCRIBER#alice@example.com",
		SK:        "CITY#US#NC#CHARLOTTE",
		Email:     "alice@example.com",
		City:      "Charlotte",
		State:     "NC",
		Country:   "US",
		Lat:       35.2271,
		Lon:       -80.8431,
		CreatedAt: "2026-08-01T12:00:00Z",
	}

	sub := rec.toDomain()
	assert.Equal(t, "alice@example.com", sub.Email)
	assert.Equal(t, "Charlotte", sub.City)
	assert.Equal(t, "NC", sub.State)
	assert.Equal(t, 35.2271, sub.Lat)
	assert.Equal(t, time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC), sub.CreatedAt)
}

func TestSubscriptionRecordToDomain_BadTimestamp(t *testing.T) {
	rec := subscriptionRecord{Email: "alice@example.com", CreatedAt: "not-a-time"}

	sub := rec.toDomain()
	assert.True(t, sub.CreatedAt.IsZero())
}
