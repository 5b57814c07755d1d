package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/cache"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// stubAccounts returns a fixed account and counts lookups so tests can
// tell cache hits from database reads.
type stubAccounts struct {
	account *models.Account
	err     error
	calls   int
}

func (s *stubAccounts) GetByID(_ context.Context, _ models.Role, _ uuid.UUID) (*models.Account, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

// downStore reports Unavailable on reads and fails writes, simulating an
// unreachable cache backend.
type downStore struct{}

func (downStore) Get(context.Context, string) cache.Result {
	return cache.Result{Kind: cache.Unavailable, Err: errors.New("connection refused")}
}
func (downStore) SetEx(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}
func (downStore) Delete(context.Context, ...string) error { return errors.New("connection refused") }
func (downStore) AddToSet(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}
func (downStore) SetMembers(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func approvedCleaner() *models.Account {
	return &models.Account{
		ID:               uuid.New(),
		Role:             models.RoleCleaner,
		Status:           models.AccountStatusActive,
		OnboardingStatus: models.OnboardingApproved,
		Profile:          &models.CleanerProfile{Phone: "+2348000000000", Address: "Lagos", Bio: "ok", ExperienceLevel: "senior"},
	}
}

func TestGate_Applies(t *testing.T) {
	assert.False(t, Applies(models.RoleCustomer, "POST", "/bookings"))
	assert.False(t, Applies(models.RoleAdmin, "GET", "/cleaners/me"))

	assert.True(t, Applies(models.RoleCleaner, "POST", "/bookings/:id/accept"))
	assert.True(t, Applies(models.RoleCleaner, "GET", "/bookings"))

	// Onboarding operations stay reachable for unapproved cleaners.
	assert.False(t, Applies(models.RoleCleaner, "GET", "/cleaners/me"))
	assert.False(t, Applies(models.RoleCleaner, "PUT", "/cleaners/onboarding"))
	assert.False(t, Applies(models.RoleCleaner, "POST", "/cleaners/documents"))
	assert.False(t, Applies(models.RoleCleaner, "DELETE", "/cleaners/documents/:id"))

	// Paths outside the guarded prefixes pass through.
	assert.False(t, Applies(models.RoleCleaner, "GET", "/places/autocomplete"))
}

func TestGate_BlocksPendingCleaner(t *testing.T) {
	account := approvedCleaner()
	account.OnboardingStatus = models.OnboardingPending
	accounts := &stubAccounts{account: account}
	gate := NewGate(cache.NewMemoryStore(), accounts, 240*time.Hour)

	err := gate.Check(context.Background(), account.ID, "tok-1", time.Now())
	assert.True(t, apperror.IsPermissionDenied(err))

	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, models.OnboardingPending, appErr.Details["onboarding_status"])
}

func TestGate_BlockedRejectionCarriesReason(t *testing.T) {
	reason := "documents unreadable"
	account := approvedCleaner()
	account.OnboardingStatus = models.OnboardingRejected
	account.RejectionReason = &reason
	account.Profile = nil
	gate := NewGate(cache.NewMemoryStore(), &stubAccounts{account: account}, 240*time.Hour)

	err := gate.Check(context.Background(), account.ID, "tok-1", time.Now())
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, reason, appErr.Details["rejection_reason"])
	assert.Equal(t, []string{"profile"}, appErr.Details["missing_fields"])
}

func TestGate_ApprovedDecisionIsCached(t *testing.T) {
	account := approvedCleaner()
	accounts := &stubAccounts{account: account}
	gate := NewGate(cache.NewMemoryStore(), accounts, 240*time.Hour)
	ctx := context.Background()

	assert.NoError(t, gate.Check(ctx, account.ID, "tok-1", time.Now()))
	assert.NoError(t, gate.Check(ctx, account.ID, "tok-1", time.Now()))
	assert.Equal(t, 1, accounts.calls)
}

func TestGate_InvalidateDropsCachedDecisions(t *testing.T) {
	account := approvedCleaner()
	accounts := &stubAccounts{account: account}
	gate := NewGate(cache.NewMemoryStore(), accounts, 240*time.Hour)
	ctx := context.Background()

	assert.NoError(t, gate.Check(ctx, account.ID, "tok-1", time.Now()))
	assert.Equal(t, 1, accounts.calls)

	gate.Invalidate(ctx, account.ID)

	account.OnboardingStatus = models.OnboardingPending
	err := gate.Check(ctx, account.ID, "tok-1", time.Now())
	assert.True(t, apperror.IsPermissionDenied(err))
	assert.Equal(t, 2, accounts.calls)
}

func TestGate_CacheDownFallsBackToDatabase(t *testing.T) {
	account := approvedCleaner()
	account.OnboardingStatus = models.OnboardingPending
	gate := NewGate(downStore{}, &stubAccounts{account: account}, 240*time.Hour)

	err := gate.Check(context.Background(), account.ID, "tok-1", time.Now())
	assert.True(t, apperror.IsPermissionDenied(err))
}

func TestGate_DatabaseDownFailsOpen(t *testing.T) {
	gate := NewGate(cache.NewMemoryStore(), &stubAccounts{err: errors.New("pq: connection reset")}, 240*time.Hour)

	err := gate.Check(context.Background(), uuid.New(), "tok-1", time.Now())
	assert.NoError(t, err)
}

func TestDecisionTTL(t *testing.T) {
	now := time.Now()
	tokenTTL := 240 * time.Hour

	assert.Equal(t, fallbackTTL, decisionTTL(tokenTTL, time.Time{}, now))
	assert.Equal(t, time.Second, decisionTTL(tokenTTL, now.Add(-11*24*time.Hour), now))

	remaining := decisionTTL(tokenTTL, now.Add(-24*time.Hour), now)
	assert.Equal(t, 9*24*time.Hour, remaining)
}

func TestDecisionTTL_TracksConfiguredTokenLife(t *testing.T) {
	now := time.Now()

	// A shortened token life caps cached decisions with it.
	assert.Equal(t, 30*time.Minute, decisionTTL(time.Hour, now.Add(-30*time.Minute), now))
	assert.Equal(t, time.Second, decisionTTL(time.Hour, now.Add(-2*time.Hour), now))
}
