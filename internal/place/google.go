package place

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

const googleBaseURL = "https://maps.googleapis.com/maps/api/place"

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// GoogleClient calls the Google Places web APIs.
type GoogleClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGoogleClient(apiKey string) *GoogleClient {
	return &GoogleClient{
		apiKey:  apiKey,
		baseURL: googleBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Autocomplete returns place suggestions for a free-text query.
func (c *GoogleClient) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	params := url.Values{}
	params.Set("input", query)
	params.Set("key", c.apiKey)

	var payload struct {
		Status      string `json:"status"`
		Predictions []struct {
			PlaceID     string `json:"place_id"`
			Description string `json:"description"`
		} `json:"predictions"`
	}
	if err := c.get(ctx, "/autocomplete/json", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		return nil, apperror.Internal(fmt.Sprintf("place autocomplete failed with status %s", payload.Status), nil)
	}

	suggestions := make([]Suggestion, 0, len(payload.Predictions))
	for _, p := range payload.Predictions {
		suggestions = append(suggestions, Suggestion{PlaceID: p.PlaceID, Description: p.Description})
	}
	return suggestions, nil
}

// CountryCode resolves a place to its ISO 3166-1 alpha-2 country code,
// or "" when the place has no country component.
func (c *GoogleClient) CountryCode(ctx context.Context, placeID string) (string, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "address_component")
	params.Set("key", c.apiKey)

	var payload struct {
		Status string `json:"status"`
		Result struct {
			AddressComponents []struct {
				ShortName string   `json:"short_name"`
				Types     []string `json:"types"`
			} `json:"address_components"`
		} `json:"result"`
	}
	if err := c.get(ctx, "/details/json", params, &payload); err != nil {
		return "", err
	}
	switch payload.Status {
	case "OK":
	case "NOT_FOUND", "INVALID_REQUEST":
		return "", apperror.ResourceNotFound("place", placeID)
	default:
		return "", apperror.Internal(fmt.Sprintf("place details failed with status %s", payload.Status), nil)
	}

	for _, component := range payload.Result.AddressComponents {
		for _, t := range component.Types {
			if t == "country" {
				return component.ShortName, nil
			}
		}
	}
	return "", nil
}

func (c *GoogleClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return apperror.Internal("failed to build place request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return apperror.Internal("place lookup request failed", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Internal("failed to decode place response", err)
	}
	return nil
}
