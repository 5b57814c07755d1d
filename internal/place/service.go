// Package place resolves booking locations through the Google Places
// APIs, with a cache in front since place attributes are effectively
// immutable.
package place

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/cache"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/logger"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

const (
	countryKeyPrefix      = "place:country:"
	autocompleteKeyPrefix = "place:autocomplete:"

	countryTTL      = 30 * 24 * time.Hour
	autocompleteTTL = 24 * time.Hour
)

// Geocoder is the provider surface the service needs. Implemented by
// GoogleClient.
type Geocoder interface {
	Autocomplete(ctx context.Context, query string) ([]Suggestion, error)
	CountryCode(ctx context.Context, placeID string) (string, error)
}

// Service is the cache-through place lookup. It satisfies the pricing
// engine's PlaceResolver.
type Service struct {
	geocoder Geocoder
	store    cache.Store
}

func NewService(geocoder Geocoder, store cache.Store) *Service {
	return &Service{geocoder: geocoder, store: store}
}

// Autocomplete suggests places for a query, serving repeats from cache.
func (s *Service) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("query must not be empty", nil)
	}

	key := autocompleteKeyPrefix + strings.ToLower(query)
	if result := s.store.Get(ctx, key); result.Found() {
		var suggestions []Suggestion
		if err := json.Unmarshal([]byte(result.Value), &suggestions); err == nil {
			return suggestions, nil
		}
	}

	suggestions, err := s.geocoder.Autocomplete(ctx, query)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(suggestions); err == nil {
		if err := s.store.SetEx(ctx, key, string(encoded), autocompleteTTL); err != nil {
			logger.Log.WithField("error", err).Warn("failed to cache place suggestions")
		}
	}
	return suggestions, nil
}

// CountryCodeForPlace resolves a place to its country code. Cache
// failures fall through to the geocoder.
func (s *Service) CountryCodeForPlace(ctx context.Context, placeID string) (string, error) {
	if placeID == "" {
		return "", apperror.Validation("place_id must not be empty", nil)
	}

	key := countryKeyPrefix + placeID
	if result := s.store.Get(ctx, key); result.Found() {
		return result.Value, nil
	}

	code, err := s.geocoder.CountryCode(ctx, placeID)
	if err != nil {
		return "", err
	}
	if code != "" {
		if err := s.store.SetEx(ctx, key, code, countryTTL); err != nil {
			logger.Log.WithField("error", err).Warn("failed to cache place country")
		}
	}
	return code, nil
}
