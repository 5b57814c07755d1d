package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

type recordingGate struct {
	invalidated []uuid.UUID
}

func (g *recordingGate) Invalidate(_ context.Context, cleanerID uuid.UUID) {
	g.invalidated = append(g.invalidated, cleanerID)
}

func validSubmission() OnboardingSubmission {
	return OnboardingSubmission{
		Phone:           "+2348000000000",
		Address:         "12 Marina Rd, Lagos",
		Bio:             "Five years of residential cleaning.",
		ExperienceLevel: "senior",
	}
}

func TestCleanerService_SubmitOnboarding_InvalidatesGate(t *testing.T) {
	repo := new(mockAccountRepo)
	gate := &recordingGate{}
	svc := NewCleanerService(repo, gate)
	ctx := context.Background()

	cleanerID := uuid.New()
	updated := &models.Account{ID: cleanerID, Role: models.RoleCleaner, OnboardingStatus: models.OnboardingPending}
	repo.On("SubmitOnboarding", ctx, cleanerID, models.CleanerProfile{
		Phone:           "+2348000000000",
		Address:         "12 Marina Rd, Lagos",
		Bio:             "Five years of residential cleaning.",
		ExperienceLevel: "senior",
	}).Return(updated, nil)

	account, err := svc.SubmitOnboarding(ctx, cleanerID, validSubmission())
	assert.NoError(t, err)
	assert.Equal(t, models.OnboardingPending, account.OnboardingStatus)
	assert.Equal(t, []uuid.UUID{cleanerID}, gate.invalidated)
	repo.AssertExpectations(t)
}

func TestCleanerService_SubmitOnboarding_BlankFieldRejected(t *testing.T) {
	repo := new(mockAccountRepo)
	gate := &recordingGate{}
	svc := NewCleanerService(repo, gate)

	submission := validSubmission()
	submission.Bio = "   "
	_, err := svc.SubmitOnboarding(context.Background(), uuid.New(), submission)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, gate.invalidated)
	repo.AssertNotCalled(t, "SubmitOnboarding")
}

func TestCleanerService_Review_Approve(t *testing.T) {
	repo := new(mockAccountRepo)
	gate := &recordingGate{}
	svc := NewCleanerService(repo, gate)
	ctx := context.Background()

	cleanerID := uuid.New()
	repo.On("ReviewOnboarding", ctx, cleanerID, models.OnboardingApproved, (*string)(nil)).
		Return(&models.Account{ID: cleanerID, OnboardingStatus: models.OnboardingApproved}, nil)

	account, err := svc.Review(ctx, cleanerID, OnboardingReview{Status: models.OnboardingApproved})
	assert.NoError(t, err)
	assert.Equal(t, models.OnboardingApproved, account.OnboardingStatus)
	assert.Equal(t, []uuid.UUID{cleanerID}, gate.invalidated)
}

func TestCleanerService_Review_RejectRequiresReason(t *testing.T) {
	svc := NewCleanerService(new(mockAccountRepo), &recordingGate{})

	_, err := svc.Review(context.Background(), uuid.New(), OnboardingReview{Status: models.OnboardingRejected})
	assert.True(t, apperror.IsValidation(err))

	blank := "  "
	_, err = svc.Review(context.Background(), uuid.New(), OnboardingReview{
		Status:          models.OnboardingRejected,
		RejectionReason: &blank,
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestCleanerService_Review_UnknownStatus(t *testing.T) {
	svc := NewCleanerService(new(mockAccountRepo), &recordingGate{})

	_, err := svc.Review(context.Background(), uuid.New(), OnboardingReview{Status: "MAYBE"})
	assert.True(t, apperror.IsValidation(err))
}
