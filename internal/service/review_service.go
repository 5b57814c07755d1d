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

// ReviewRepositoryInterface is the review persistence surface.
type ReviewRepositoryInterface interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.Review, error)
	ListByCleanerID(ctx context.Context, cleanerID uuid.UUID, start, stop int) ([]models.Review, error)
	RatingSummary(ctx context.Context, cleanerID uuid.UUID) (*models.ReviewRatingSummary, error)
	Update(ctx context.Context, id uuid.UUID, stars int, comment string) (*models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BookingSource is the slice of the booking repository the review flow
// needs to check who may review what.
type BookingSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// CreateReviewInput is the customer-facing review payload.
type CreateReviewInput struct {
	Comment string `json:"comment" binding:"required"`
	Stars   int    `json:"stars"`
}

// UpdateReviewInput carries a partial review update; nil fields keep
// their stored value.
type UpdateReviewInput struct {
	Comment *string `json:"comment,omitempty"`
	Stars   *int    `json:"stars,omitempty"`
}

// ReviewService owns customer reviews of cleaners. Only the customer on
// a booking may review it, once; reading reviews and rating summaries is
// open.
type ReviewService struct {
	reviews  ReviewRepositoryInterface
	bookings BookingSource
}

func NewReviewService(reviews ReviewRepositoryInterface, bookings BookingSource) *ReviewService {
	return &ReviewService{reviews: reviews, bookings: bookings}
}

// Create stores the customer's review of the cleaner on the booking.
func (s *ReviewService) Create(ctx context.Context, customer *models.Account, bookingID uuid.UUID, input CreateReviewInput) (*models.Review, error) {
	if err := validateStars(input.Stars); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Comment) == "" {
		return nil, apperror.Validation("comment must not be blank", nil)
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperror.ResourceNotFound("booking", bookingID.String())
		}
		return nil, apperror.Internal("failed to load booking", err)
	}
	if booking.CustomerID != customer.ID {
		return nil, apperror.PermissionDenied("you are not allowed to review this booking")
	}

	review := &models.Review{
		BookingID:  booking.ID,
		CustomerID: customer.ID,
		CleanerID:  booking.CleanerID,
		Stars:      input.Stars,
		Comment:    input.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperror.Conflict(apperror.ErrCodeValidationFailed, "you have already reviewed this booking", map[string]interface{}{
				"booking_id": booking.ID.String(),
			})
		}
		return nil, apperror.Internal("failed to store review", err)
	}
	return review, nil
}

// Get returns a review by id.
func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	return s.loadReview(ctx, id)
}

// ListForBooking returns the reviews left on a booking.
func (s *ReviewService) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Review, error) {
	reviews, err := s.reviews.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal("failed to list reviews", err)
	}
	return reviews, nil
}

// ListForCleaner returns the cleaner's reviews in the [start, stop)
// range.
func (s *ReviewService) ListForCleaner(ctx context.Context, cleanerID uuid.UUID, start, stop int) ([]models.Review, error) {
	reviews, err := s.reviews.ListByCleanerID(ctx, cleanerID, start, stop)
	if err != nil {
		return nil, apperror.Internal("failed to list reviews", err)
	}
	return reviews, nil
}

// RatingSummary aggregates the cleaner's reviews.
func (s *ReviewService) RatingSummary(ctx context.Context, cleanerID uuid.UUID) (*models.ReviewRatingSummary, error) {
	summary, err := s.reviews.RatingSummary(ctx, cleanerID)
	if err != nil {
		return nil, apperror.Internal("failed to summarize reviews", err)
	}
	return summary, nil
}

// Update applies a partial edit to the customer's own review.
func (s *ReviewService) Update(ctx context.Context, customer *models.Account, id uuid.UUID, input UpdateReviewInput) (*models.Review, error) {
	review, err := s.loadReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.CustomerID != customer.ID {
		return nil, apperror.PermissionDenied("you can only modify your own review")
	}

	stars := review.Stars
	if input.Stars != nil {
		if err := validateStars(*input.Stars); err != nil {
			return nil, err
		}
		stars = *input.Stars
	}
	comment := review.Comment
	if input.Comment != nil {
		if strings.TrimSpace(*input.Comment) == "" {
			return nil, apperror.Validation("comment must not be blank", nil)
		}
		comment = *input.Comment
	}

	updated, err := s.reviews.Update(ctx, id, stars, comment)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, apperror.ResourceNotFound("review", id.String())
		}
		return nil, apperror.Internal("failed to update review", err)
	}
	return updated, nil
}

// Delete removes the customer's own review.
func (s *ReviewService) Delete(ctx context.Context, customer *models.Account, id uuid.UUID) error {
	review, err := s.loadReview(ctx, id)
	if err != nil {
		return err
	}
	if review.CustomerID != customer.ID {
		return apperror.PermissionDenied("you can only modify your own review")
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return apperror.ResourceNotFound("review", id.String())
		}
		return apperror.Internal("failed to delete review", err)
	}
	return nil
}

func (s *ReviewService) loadReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, apperror.ResourceNotFound("review", id.String())
		}
		return nil, apperror.Internal("failed to load review", err)
	}
	return review, nil
}

func validateStars(stars int) error {
	if stars < 0 || stars > 5 {
		return apperror.Validation("stars must be between 0 and 5", map[string]interface{}{"stars": stars})
	}
	return nil
}
