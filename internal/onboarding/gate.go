// Package onboarding enforces the cleaner onboarding gate: cleaners whose
// profile review has not been approved may only read their own profile
// and resubmit onboarding. Decisions are cached per access token so the
// hot path costs one cache read.
package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/cache"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/logger"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// Operations an unapproved cleaner may still perform: reading their own
// profile and everything needed to finish onboarding.
var exemptOperations = map[string]struct{}{
	"GET:/cleaners/me":               {},
	"PUT:/cleaners/onboarding":       {},
	"POST:/cleaners/documents":       {},
	"GET:/cleaners/documents":        {},
	"DELETE:/cleaners/documents/:id": {},
}

// Path prefixes the gate guards. Everything else passes through.
var guardedPrefixes = []string{"/cleaners", "/bookings"}

const (
	tokenKeyPrefix   = "cleaner:onboarding:token:"
	userSetKeyPrefix = "cleaner:onboarding:user_tokens:"

	fallbackTTL = 5 * time.Minute
)

// decision is the cached gate verdict for one token.
type decision struct {
	Allowed          bool     `json:"allowed"`
	OnboardingStatus string   `json:"onboarding_status"`
	RejectionReason  *string  `json:"rejection_reason,omitempty"`
	MissingFields    []string `json:"missing_fields,omitempty"`
}

// AccountSource loads the live cleaner record on a cache miss.
type AccountSource interface {
	GetByID(ctx context.Context, role models.Role, id uuid.UUID) (*models.Account, error)
}

// Gate checks and caches onboarding decisions. The cache is advisory: if
// it is unreachable the gate falls back to the database, and if that also
// fails the request is allowed rather than blocking cleaners on
// infrastructure trouble.
type Gate struct {
	store    cache.Store
	accounts AccountSource

	// Cached decisions never outlive the token they were made for, so
	// the cap tracks the configured access token lifetime.
	tokenTTL time.Duration
}

func NewGate(store cache.Store, accounts AccountSource, tokenTTL time.Duration) *Gate {
	if tokenTTL <= 0 {
		tokenTTL = fallbackTTL
	}
	return &Gate{store: store, accounts: accounts, tokenTTL: tokenTTL}
}

// Applies reports whether the gate guards this request at all. Only
// cleaner tokens on guarded paths are checked, minus the exempt
// operations a cleaner needs to get approved in the first place.
func Applies(role models.Role, method, path string) bool {
	if role != models.RoleCleaner {
		return false
	}
	guarded := false
	for _, prefix := range guardedPrefixes {
		if strings.HasPrefix(path, prefix) {
			guarded = true
			break
		}
	}
	if !guarded {
		return false
	}
	_, exempt := exemptOperations[method+":"+path]
	return !exempt
}

// Check enforces the gate for a cleaner token. A nil return means the
// request may proceed.
func (g *Gate) Check(ctx context.Context, cleanerID uuid.UUID, tokenID string, issuedAt time.Time) error {
	if tokenID != "" {
		key := tokenKeyPrefix + tokenID
		result := g.store.Get(ctx, key)
		switch result.Kind {
		case cache.Found:
			var d decision
			if err := json.Unmarshal([]byte(result.Value), &d); err == nil {
				return d.toError()
			}
			// fall through to a fresh lookup on a corrupt entry
		case cache.Unavailable:
			logger.Log.WithFields(logrus.Fields{
				"cleaner_id": cleanerID,
				"error":      result.Err,
			}).Warn("onboarding cache unavailable, checking database")
		}
	}

	d, err := g.freshDecision(ctx, cleanerID)
	if err != nil {
		// Fail open: an infrastructure error must not lock cleaners out.
		logger.Log.WithFields(logrus.Fields{
			"cleaner_id": cleanerID,
			"error":      err,
		}).Error("onboarding check failed, allowing request")
		return nil
	}

	if tokenID != "" {
		g.cacheDecision(ctx, cleanerID, tokenID, issuedAt, d)
	}
	return d.toError()
}

func (g *Gate) freshDecision(ctx context.Context, cleanerID uuid.UUID) (*decision, error) {
	account, err := g.accounts.GetByID(ctx, models.RoleCleaner, cleanerID)
	if err != nil {
		return nil, fmt.Errorf("onboarding gate: load cleaner: %w", err)
	}
	return &decision{
		Allowed:          account.OnboardingStatus == models.OnboardingApproved,
		OnboardingStatus: account.OnboardingStatus,
		RejectionReason:  account.RejectionReason,
		MissingFields:    models.ProfileMissingFields(account.Profile),
	}, nil
}

func (g *Gate) cacheDecision(ctx context.Context, cleanerID uuid.UUID, tokenID string, issuedAt time.Time, d *decision) {
	encoded, err := json.Marshal(d)
	if err != nil {
		return
	}
	ttl := decisionTTL(g.tokenTTL, issuedAt, time.Now())
	key := tokenKeyPrefix + tokenID
	if err := g.store.SetEx(ctx, key, string(encoded), ttl); err != nil {
		logger.Log.WithField("error", err).Warn("failed to cache onboarding decision")
		return
	}
	setKey := userSetKeyPrefix + cleanerID.String()
	if err := g.store.AddToSet(ctx, setKey, key, g.tokenTTL); err != nil {
		logger.Log.WithField("error", err).Warn("failed to index onboarding decision")
	}
}

// decisionTTL bounds a cached decision by the remaining token lifetime.
// Tokens without a usable issue time get a short conservative TTL.
func decisionTTL(tokenTTL time.Duration, issuedAt, now time.Time) time.Duration {
	if issuedAt.IsZero() {
		return fallbackTTL
	}
	remaining := tokenTTL - now.Sub(issuedAt)
	if remaining < time.Second {
		return time.Second
	}
	return remaining
}

// Invalidate drops every cached decision for the cleaner. Called when
// the onboarding status changes so new verdicts take effect on the next
// request rather than at TTL expiry.
func (g *Gate) Invalidate(ctx context.Context, cleanerID uuid.UUID) {
	setKey := userSetKeyPrefix + cleanerID.String()
	members, err := g.store.SetMembers(ctx, setKey)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"cleaner_id": cleanerID,
			"error":      err,
		}).Warn("failed to list cached onboarding decisions")
		return
	}
	keys := append(members, setKey)
	if err := g.store.Delete(ctx, keys...); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"cleaner_id": cleanerID,
			"error":      err,
		}).Warn("failed to invalidate onboarding decisions")
	}
}

func (d *decision) toError() error {
	if d.Allowed {
		return nil
	}
	details := map[string]interface{}{
		"reason":            "cleaner onboarding not approved",
		"onboarding_status": d.OnboardingStatus,
	}
	if d.RejectionReason != nil {
		details["rejection_reason"] = *d.RejectionReason
	}
	if len(d.MissingFields) > 0 {
		details["missing_fields"] = d.MissingFields
	}
	return apperror.PermissionDeniedWithDetails("cleaner onboarding not approved", details)
}
