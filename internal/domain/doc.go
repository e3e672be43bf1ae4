// Package domain models the Wetter Bericht subscription and forecast data.
//
// # Command Grammar
//
// Subscribers manage their locations by emailing plain-text commands, one per
// line of the message body:
//
//	ADD <City>, <ST>      subscribe to a US location, e.g. "ADD Charlotte, NC"
//	REMOVE <City>, <ST>   unsubscribe from a location
//	LIST                  list subscriptions with a multi-day forecast
//
// Verbs are case-insensitive and surrounding whitespace is ignored. Lines that
// do not start with a known verb are dropped without an error; malformed
// payloads on recognized verbs are surfaced as per-command errors instead.
//
// # Storage Key Scheme
//
// Subscriptions live in a single table keyed by subscriber:
//
//	PK = SUBSCRIBER#<email>
//	SK = PROFILE                         one row per subscriber
//	SK = CITY#US#<STATE>#<CITY>          one row per subscribed location
//
// State and city are uppercased in the sort key, so "charlotte, nc" and
// "Charlotte, NC" address the same row. The originally typed casing is kept in
// the row attributes for display. Re-adding a location overwrites the row.
//
// # Forecast Normalization
//
// The forecast provider returns parallel per-day series (date, high, low,
// weather code). Normalization truncates to at most 7 days and derives a
// display label per day: "Today" for index 0, "Tomorrow" for index 1, and the
// weekday name for later days. Weather codes follow the WMO interpretation
// used by Open-Meteo; unmapped codes render as "Unknown Weather Code".
package domain
