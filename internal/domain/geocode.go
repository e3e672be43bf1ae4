package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// maxGeocodeCandidates bounds how many ranked matches are requested per lookup.
const maxGeocodeCandidates = 5

// GeocodeError describes a failed location resolution. Its message is shown
// to the subscriber verbatim in the errors section of the reply.
type GeocodeError struct {
	Message string
}

func (e *GeocodeError) Error() string {
	return e.Message
}

// GeocodeCandidate is one ranked match from the geocoding service.
// Lat/Lon are pointers because the service may omit coordinate fields.
type GeocodeCandidate struct {
	Name        string
	Admin1      string // full region name, e.g. "North Carolina"
	CountryCode string
	Lat         *float64
	Lon         *float64
}

// GeocodeClient is the external geocoding service: city name plus country
// code in, up to count ranked candidates out.
type GeocodeClient interface {
	Search(ctx context.Context, city, country string, count int) ([]GeocodeCandidate, error)
}

// Place is a resolved location: the canonical city/state from the payload
// plus the selected candidate's coordinates.
type Place struct {
	City  string
	State string
	Lat   float64
	Lon   float64
}

// ParseCityState splits a "City, ST" payload into its trimmed city and
// uppercased 2-letter state. Both ADD (via Resolver) and REMOVE use this
// grammar.
func ParseCityState(payload string) (city, state string, err error) {
	before, after, found := strings.Cut(payload, ",")
	if !found {
		return "", "", &GeocodeError{Message: "Invalid location format. Use 'City, ST' (e.g. Charlotte, NC)"}
	}

	city = strings.TrimSpace(before)
	state = strings.ToUpper(strings.TrimSpace(after))

	if city == "" || state == "" || len(state) != 2 {
		return "", "", &GeocodeError{Message: "Invalid location format. Use 'City, ST' (e.g. Charlotte, NC)"}
	}

	return city, state, nil
}

// Resolver turns "City, ST" payloads into coordinates via a geocoding service.
type Resolver struct {
	client  GeocodeClient
	country string
	logger  *slog.Logger
}

// NewResolver creates a Resolver constrained to the default country.
func NewResolver(client GeocodeClient, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:  client,
		country: DefaultCountry,
		logger:  logger,
	}
}

// Resolve parses the payload and selects the best geocoding candidate.
//
// Candidate selection prefers the first match whose region equals the full
// state name from the catalog, to disambiguate same-named cities in different
// states (e.g. Springfield). When no candidate matches, the service's first
// result wins. The ranking is a heuristic: it cannot correct a service that
// orders results adversarially.
func (r *Resolver) Resolve(ctx context.Context, payload string) (Place, error) {
	city, state, err := ParseCityState(payload)
	if err != nil {
		return Place{}, err
	}

	candidates, err := r.client.Search(ctx, city, r.country, maxGeocodeCandidates)
	if err != nil {
		return Place{}, fmt.Errorf("geocode %q: %w", payload, err)
	}
	if len(candidates) == 0 {
		return Place{}, &GeocodeError{Message: fmt.Sprintf("No geocoding results for '%s'", payload)}
	}

	match := candidates[0]
	if stateName, ok := StateName(state); ok {
		for _, c := range candidates {
			if c.Admin1 == stateName {
				match = c
				break
			}
		}
	}

	if match.Lat == nil || match.Lon == nil {
		return Place{}, &GeocodeError{Message: fmt.Sprintf("Geocoding result missing lat/lon for '%s'", payload)}
	}

	r.logger.Debug("resolved location",
		"payload", payload,
		"candidate", match.Name,
		"admin1", match.Admin1,
		"lat", *match.Lat,
		"lon", *match.Lon,
	)

	return Place{City: city, State: state, Lat: *match.Lat, Lon: *match.Lon}, nil
}
