package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
)

// Repository-level errors. Services translate these into domain errors.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrStatusConflict  = errors.New("booking status changed concurrently")
)

const bookingColumns = `
	id, customer_id, cleaner_id, place_id, service,
	duration_hours, duration_minutes, extras, custom_details, status,
	payment_id, price_amount_minor, price_currency, price_breakdown,
	cleaner_acceptance_deadline, cleaner_accepted_at, cleaner_completed_at,
	customer_acknowledged_at, created_at, updated_at`

// BookingRepository persists bookings. Status changes go through
// TransitionStatus only; its conditional update is the concurrency-safety
// mechanism for the whole state machine.
type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts the booking and fills in its generated identity and
// timestamps.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	query := `
		INSERT INTO bookings (
			id, customer_id, cleaner_id, place_id, service,
			duration_hours, duration_minutes, extras, custom_details, status,
			cleaner_acceptance_deadline
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		booking.ID,
		booking.CustomerID,
		booking.CleanerID,
		booking.PlaceID,
		booking.Service,
		booking.DurationHours,
		booking.DurationMinutes,
		booking.Extras,
		booking.CustomDetails,
		booking.Status,
		booking.CleanerAcceptanceDeadline,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("booking repository: insert: %w", err)
	}
	return nil
}

// GetByID returns a booking by its identifier.
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repository: get by id: %w", err)
	}
	return &booking, nil
}

// BookingFilter scopes listing to a party and/or status.
type BookingFilter struct {
	CustomerID *uuid.UUID
	CleanerID  *uuid.UUID
	Status     string
}

// List returns bookings matching the filter within the [start, stop)
// offset range, newest first.
func (r *BookingRepository) List(ctx context.Context, filter BookingFilter, start, stop int) ([]models.Booking, error) {
	if start < 0 {
		start = 0
	}
	limit := stop - start
	if limit <= 0 {
		return []models.Booking{}, nil
	}

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.CleanerID != nil {
		args = append(args, *filter.CleanerID)
		conditions = append(conditions, fmt.Sprintf("cleaner_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, start)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	bookings := []models.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("booking repository: list: %w", err)
	}
	return bookings, nil
}

// PaymentAttachment carries the commercial fields attached to a booking
// right after creation, set together and atomically.
type PaymentAttachment struct {
	PaymentID        uuid.UUID
	PriceAmountMinor int64
	PriceCurrency    string
	PriceBreakdown   models.JSONMap
}

// AttachPayment sets the payment and price fields in one write.
func (r *BookingRepository) AttachPayment(ctx context.Context, id uuid.UUID, attachment PaymentAttachment) (*models.Booking, error) {
	var booking models.Booking
	query := `
		UPDATE bookings
		SET payment_id = $2,
		    price_amount_minor = $3,
		    price_currency = $4,
		    price_breakdown = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + bookingColumns
	err := r.db.GetContext(
		ctx, &booking, query, id,
		attachment.PaymentID,
		attachment.PriceAmountMinor,
		attachment.PriceCurrency,
		attachment.PriceBreakdown,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("booking repository: attach payment: %w", err)
	}
	return &booking, nil
}

// StatusTransition describes a guarded state change. Exactly one stamp
// pointer is set per transition.
type StatusTransition struct {
	NewStatus              string
	CleanerAcceptedAt      *time.Time
	CleanerCompletedAt     *time.Time
	CustomerAcknowledgedAt *time.Time
}

// TransitionStatus applies the transition only if the stored status still
// equals expectedStatus. A concurrent transition winning the race yields
// ErrStatusConflict; the caller re-reads and reports the actual status.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, expectedStatus string, transition StatusTransition) (*models.Booking, error) {
	setClauses := []string{"status = $3", "updated_at = NOW()"}
	args := []interface{}{id, expectedStatus, transition.NewStatus}

	if transition.CleanerAcceptedAt != nil {
		args = append(args, *transition.CleanerAcceptedAt)
		setClauses = append(setClauses, fmt.Sprintf("cleaner_accepted_at = $%d", len(args)))
	}
	if transition.CleanerCompletedAt != nil {
		args = append(args, *transition.CleanerCompletedAt)
		setClauses = append(setClauses, fmt.Sprintf("cleaner_completed_at = $%d", len(args)))
	}
	if transition.CustomerAcknowledgedAt != nil {
		args = append(args, *transition.CustomerAcknowledgedAt)
		setClauses = append(setClauses, fmt.Sprintf("customer_acknowledged_at = $%d", len(args)))
	}

	query := `
		UPDATE bookings
		SET ` + strings.Join(setClauses, ", ") + `
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("booking repository: transition status: %w", err)
	}
	return &booking, nil
}

// Delete removes a booking. Used only as the compensating action when
// payment or pricing setup fails right after creation.
func (r *BookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("booking repository: delete: %w", err)
	}
	return nil
}
