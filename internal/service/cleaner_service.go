package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
)

// GateInvalidator drops cached onboarding decisions for a cleaner.
type GateInvalidator interface {
	Invalidate(ctx context.Context, cleanerID uuid.UUID)
}

// OnboardingSubmission is the profile payload a cleaner submits for
// review.
type OnboardingSubmission struct {
	Phone           string `json:"phone" binding:"required"`
	Address         string `json:"address" binding:"required"`
	Bio             string `json:"bio" binding:"required"`
	ExperienceLevel string `json:"experience_level" binding:"required"`
}

// OnboardingReview is the admin decision payload.
type OnboardingReview struct {
	Status          string  `json:"status" binding:"required"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

// CleanerService handles the cleaner onboarding flow: profile submission
// and the admin review that flips the gate.
type CleanerService struct {
	accounts AccountRepositoryInterface
	gate     GateInvalidator
}

func NewCleanerService(accounts AccountRepositoryInterface, gate GateInvalidator) *CleanerService {
	return &CleanerService{accounts: accounts, gate: gate}
}

// SubmitOnboarding stores the cleaner's profile and puts the review back
// into the pending state. Cached gate decisions are dropped so the new
// state is visible immediately.
func (s *CleanerService) SubmitOnboarding(ctx context.Context, cleanerID uuid.UUID, submission OnboardingSubmission) (*models.Account, error) {
	profile := models.CleanerProfile{
		Phone:           strings.TrimSpace(submission.Phone),
		Address:         strings.TrimSpace(submission.Address),
		Bio:             strings.TrimSpace(submission.Bio),
		ExperienceLevel: strings.TrimSpace(submission.ExperienceLevel),
	}
	if profile.Phone == "" || profile.Address == "" || profile.Bio == "" || profile.ExperienceLevel == "" {
		return nil, apperror.Validation("all onboarding profile fields are required", nil)
	}

	account, err := s.accounts.SubmitOnboarding(ctx, cleanerID, profile)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperror.ResourceNotFound("cleaner", cleanerID.String())
		}
		return nil, apperror.Internal("failed to submit onboarding", err)
	}

	s.gate.Invalidate(ctx, cleanerID)
	return account, nil
}

// Review applies an admin approval or rejection and invalidates the
// cleaner's cached gate decisions.
func (s *CleanerService) Review(ctx context.Context, cleanerID uuid.UUID, review OnboardingReview) (*models.Account, error) {
	if review.Status != models.OnboardingApproved && review.Status != models.OnboardingRejected {
		return nil, apperror.Validation("review status must be APPROVED or REJECTED", map[string]interface{}{
			"status": review.Status,
		})
	}
	if review.Status == models.OnboardingRejected && (review.RejectionReason == nil || strings.TrimSpace(*review.RejectionReason) == "") {
		return nil, apperror.Validation("a rejection requires a reason", nil)
	}

	account, err := s.accounts.ReviewOnboarding(ctx, cleanerID, review.Status, review.RejectionReason)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperror.ResourceNotFound("cleaner", cleanerID.String())
		}
		return nil, apperror.Internal("failed to review onboarding", err)
	}

	s.gate.Invalidate(ctx, cleanerID)
	return account, nil
}

// ListPendingReviews pages through cleaners waiting on a decision.
func (s *CleanerService) ListPendingReviews(ctx context.Context, limit, offset int) ([]models.Account, error) {
	accounts, err := s.accounts.ListCleanersByOnboardingStatus(ctx, models.OnboardingPending, limit, offset)
	if err != nil {
		return nil, apperror.Internal("failed to list pending reviews", err)
	}
	return accounts, nil
}
