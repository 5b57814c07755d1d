package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("booking already reviewed by this customer")
)

const reviewColumns = `
	id, booking_id, customer_id, cleaner_id, stars, comment,
	created_at, updated_at`

// ReviewRepository persists customer reviews of cleaners. The unique
// index on (booking_id, customer_id) enforces one review per booking.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. A unique violation surfaces as
// ErrDuplicateReview so the caller can report the conflict.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	query := `
		INSERT INTO reviews (id, booking_id, customer_id, cleaner_id, stars, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		review.ID,
		review.BookingID,
		review.CustomerID,
		review.CleanerID,
		review.Stars,
		review.Comment,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("review repository: insert: %w", err)
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: get: %w", err)
	}
	return &review, nil
}

// ListByBookingID returns the reviews on a booking, newest first.
func (r *ReviewRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]models.Review, error) {
	reviews := []models.Review{}
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE booking_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &reviews, query, bookingID); err != nil {
		return nil, fmt.Errorf("review repository: list by booking: %w", err)
	}
	return reviews, nil
}

// ListByCleanerID returns the cleaner's reviews in the [start, stop)
// range, newest first.
func (r *ReviewRepository) ListByCleanerID(ctx context.Context, cleanerID uuid.UUID, start, stop int) ([]models.Review, error) {
	if start < 0 {
		start = 0
	}
	limit := stop - start
	if limit <= 0 {
		return []models.Review{}, nil
	}

	reviews := []models.Review{}
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE cleaner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &reviews, query, cleanerID, limit, start); err != nil {
		return nil, fmt.Errorf("review repository: list by cleaner: %w", err)
	}
	return reviews, nil
}

// RatingSummary aggregates the cleaner's reviews into an average and a
// per-star breakdown. A cleaner without reviews yields all zeroes.
func (r *ReviewRepository) RatingSummary(ctx context.Context, cleanerID uuid.UUID) (*models.ReviewRatingSummary, error) {
	var row struct {
		Avg   int `db:"avg_ratings"`
		Total int `db:"total_ratings"`
		models.RatingBreakdown
	}
	query := `
		SELECT
			COALESCE(ROUND(AVG(stars)), 0)::int       AS avg_ratings,
			COUNT(*)                                  AS total_ratings,
			COUNT(*) FILTER (WHERE stars = 1)         AS one_star,
			COUNT(*) FILTER (WHERE stars = 2)         AS two_star,
			COUNT(*) FILTER (WHERE stars = 3)         AS three_star,
			COUNT(*) FILTER (WHERE stars = 4)         AS four_star,
			COUNT(*) FILTER (WHERE stars = 5)         AS five_star
		FROM reviews
		WHERE cleaner_id = $1
	`
	if err := r.db.GetContext(ctx, &row, query, cleanerID); err != nil {
		return nil, fmt.Errorf("review repository: rating summary: %w", err)
	}
	return &models.ReviewRatingSummary{
		AvgRatings:      row.Avg,
		TotalRatings:    row.Total,
		RatingBreakdown: row.RatingBreakdown,
	}, nil
}

// Update stores new stars and comment for the review and returns the
// updated row.
func (r *ReviewRepository) Update(ctx context.Context, id uuid.UUID, stars int, comment string) (*models.Review, error) {
	var review models.Review
	query := `
		UPDATE reviews
		SET stars = $2, comment = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + reviewColumns
	if err := r.db.GetContext(ctx, &review, query, id, stars, comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: update: %w", err)
	}
	return &review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("review repository: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewNotFound
	}
	return nil
}
