package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/logger"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pricing"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
)

// BookingRepositoryInterface is the booking persistence surface.
type BookingRepositoryInterface interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, filter repository.BookingFilter, start, stop int) ([]models.Booking, error)
	AttachPayment(ctx context.Context, id uuid.UUID, attachment repository.PaymentAttachment) (*models.Booking, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, expectedStatus string, transition repository.StatusTransition) (*models.Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentIntentCreator is the slice of the payment service the booking
// flow needs.
type PaymentIntentCreator interface {
	CreateIntentForBooking(ctx context.Context, booking *models.Booking, amountMinor int64, currency string, customerEmail string, providerName string) (*IntentResult, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.PaymentTransaction, error)
}

// QuoteEngine prices a booking.
type QuoteEngine interface {
	QuoteForBooking(ctx context.Context, booking *models.Booking) (*pricing.Quote, error)
}

// AccountLookup resolves an account by role and id, used to check the
// requested cleaner exists before a booking is stored.
type AccountLookup interface {
	GetByID(ctx context.Context, role models.Role, id uuid.UUID) (*models.Account, error)
}

// CreateBookingInput is the customer-facing creation payload.
type CreateBookingInput struct {
	CleanerID       uuid.UUID                    `json:"cleaner_id" binding:"required"`
	PlaceID         string                       `json:"place_id" binding:"required"`
	Service         string                       `json:"service" binding:"required"`
	Duration        models.Duration              `json:"duration"`
	Extras          models.Extras                `json:"extras"`
	CustomDetails   *models.CustomServiceDetails `json:"custom_details,omitempty"`
	PaymentProvider string                       `json:"payment_provider,omitempty"`
}

// BookingWithCheckout is the creation response: the stored booking plus
// the checkout URL for its payment.
type BookingWithCheckout struct {
	Booking     *models.Booking `json:"booking"`
	CheckoutURL string          `json:"checkout_url,omitempty"`
}

// BookingService owns the booking lifecycle. Creation is transactional
// in effect: a booking whose payment or quote cannot be set up is
// deleted again rather than left half-initialized.
type BookingService struct {
	bookings BookingRepositoryInterface
	quotes   QuoteEngine
	payments PaymentIntentCreator
	accounts AccountLookup

	allowPendingPayment bool
	now                 func() time.Time
}

func NewBookingService(
	bookings BookingRepositoryInterface,
	quotes QuoteEngine,
	payments PaymentIntentCreator,
	accounts AccountLookup,
	allowPendingPayment bool,
) *BookingService {
	return &BookingService{
		bookings:            bookings,
		quotes:              quotes,
		payments:            payments,
		accounts:            accounts,
		allowPendingPayment: allowPendingPayment,
		now:                 time.Now,
	}
}

// Create persists the booking, prices it, and opens its payment intent.
// The three steps are ordered so a failure in any later step rolls the
// booking back; the customer never sees a booking without a price and a
// way to pay.
func (s *BookingService) Create(ctx context.Context, customer *models.Account, input CreateBookingInput) (*BookingWithCheckout, error) {
	cleaner, err := s.accounts.GetByID(ctx, models.RoleCleaner, input.CleanerID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperror.ResourceNotFound("cleaner", input.CleanerID.String())
		}
		return nil, apperror.Internal("failed to load cleaner", err)
	}
	if !cleaner.IsActive() {
		return nil, apperror.Validation("cleaner account is not active", map[string]interface{}{
			"cleaner_id": input.CleanerID.String(),
		})
	}

	now := s.now()
	booking := &models.Booking{
		CustomerID:                customer.ID,
		CleanerID:                 input.CleanerID,
		PlaceID:                   input.PlaceID,
		Service:                   input.Service,
		DurationHours:             input.Duration.Hours,
		DurationMinutes:           input.Duration.Minutes,
		Extras:                    input.Extras,
		CustomDetails:             input.CustomDetails,
		Status:                    models.BookingStatusRequested,
		CleanerAcceptanceDeadline: now.Add(models.CleanerAcceptanceWindow),
	}
	if err := booking.ValidateSpec(); err != nil {
		return nil, apperror.Validation(err.Error(), nil)
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, apperror.Internal("failed to create booking", err)
	}

	result, err := s.setUpPayment(ctx, customer, booking, input.PaymentProvider)
	if err != nil {
		if deleteErr := s.bookings.Delete(ctx, booking.ID); deleteErr != nil {
			logger.Log.WithFields(logrus.Fields{
				"booking_id": booking.ID,
				"error":      deleteErr,
			}).Error("failed to roll back booking after payment setup failure")
		}
		return nil, err
	}
	return result, nil
}

func (s *BookingService) setUpPayment(ctx context.Context, customer *models.Account, booking *models.Booking, providerName string) (*BookingWithCheckout, error) {
	quote, err := s.quotes.QuoteForBooking(ctx, booking)
	if err != nil {
		return nil, err
	}

	intent, err := s.payments.CreateIntentForBooking(
		ctx, booking, quote.AmountMinor, quote.Currency, customer.Email, providerName,
	)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.AttachPayment(ctx, booking.ID, repository.PaymentAttachment{
		PaymentID:        intent.Transaction.ID,
		PriceAmountMinor: quote.AmountMinor,
		PriceCurrency:    quote.Currency,
		PriceBreakdown:   quote.Breakdown,
	})
	if err != nil {
		return nil, apperror.Internal("failed to attach payment to booking", err)
	}

	return &BookingWithCheckout{Booking: updated, CheckoutURL: intent.CheckoutURL}, nil
}

// Get returns a booking visible to the principal. Admins see all;
// customers and cleaners only bookings they are party to.
func (s *BookingService) Get(ctx context.Context, principal *models.Account, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeParty(principal, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// List returns the principal's bookings, optionally filtered by status,
// within the [start, stop) range.
func (s *BookingService) List(ctx context.Context, principal *models.Account, status string, start, stop int) ([]models.Booking, error) {
	if status != "" {
		if _, ok := models.ValidBookingStatuses[status]; !ok {
			return nil, apperror.Validation("unknown booking status", map[string]interface{}{"status": status})
		}
	}

	filter := repository.BookingFilter{Status: status}
	switch principal.Role {
	case models.RoleCustomer:
		id := principal.ID
		filter.CustomerID = &id
	case models.RoleCleaner:
		id := principal.ID
		filter.CleanerID = &id
	case models.RoleAdmin:
		// unscoped
	default:
		return nil, apperror.RoleMismatch("a known role", string(principal.Role))
	}

	bookings, err := s.bookings.List(ctx, filter, start, stop)
	if err != nil {
		return nil, apperror.Internal("failed to list bookings", err)
	}
	return bookings, nil
}

// Accept moves a booking to ACCEPTED on behalf of its assigned cleaner.
// The booking must still be inside the acceptance window, and unless
// pending payment is allowed its payment must have settled.
func (s *BookingService) Accept(ctx context.Context, cleaner *models.Account, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.CleanerID != cleaner.ID {
		return nil, apperror.PermissionDenied("only the assigned cleaner can accept this booking")
	}
	if booking.Status != models.BookingStatusRequested {
		return nil, apperror.StatusConflict("booking can no longer be accepted", booking.Status, models.BookingStatusRequested)
	}

	now := s.now()
	if now.After(booking.CleanerAcceptanceDeadline) {
		return nil, apperror.Conflict(apperror.ErrCodeValidationFailed, "acceptance window has expired", map[string]interface{}{
			"deadline": booking.CleanerAcceptanceDeadline,
		})
	}

	if !s.allowPendingPayment {
		payment, err := s.payments.GetByBookingID(ctx, booking.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.Conflict(apperror.ErrCodeValidationFailed, "payment is required before acceptance", map[string]interface{}{
					"booking_id": booking.ID.String(),
				})
			}
			return nil, err
		}
		if payment.Status != models.PaymentStatusSucceeded {
			return nil, apperror.Conflict(apperror.ErrCodeValidationFailed, "booking payment has not settled", map[string]interface{}{
				"payment_status": string(payment.Status),
			})
		}
	}

	return s.transition(ctx, id, models.BookingStatusRequested, repository.StatusTransition{
		NewStatus:         models.BookingStatusAccepted,
		CleanerAcceptedAt: &now,
	})
}

// CleanerComplete records that the assigned cleaner finished the job.
func (s *BookingService) CleanerComplete(ctx context.Context, cleaner *models.Account, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.CleanerID != cleaner.ID {
		return nil, apperror.PermissionDenied("only the assigned cleaner can complete this booking")
	}
	if booking.Status != models.BookingStatusAccepted {
		return nil, apperror.StatusConflict("booking cannot be completed", booking.Status, models.BookingStatusAccepted)
	}

	now := s.now()
	return s.transition(ctx, id, models.BookingStatusAccepted, repository.StatusTransition{
		NewStatus:          models.BookingStatusCleanerCompleted,
		CleanerCompletedAt: &now,
	})
}

// CustomerAcknowledge records the customer's sign-off on a completed job.
func (s *BookingService) CustomerAcknowledge(ctx context.Context, customer *models.Account, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != customer.ID {
		return nil, apperror.PermissionDenied("only the booking customer can acknowledge completion")
	}
	if booking.Status != models.BookingStatusCleanerCompleted {
		return nil, apperror.StatusConflict("booking cannot be acknowledged", booking.Status, models.BookingStatusCleanerCompleted)
	}

	now := s.now()
	return s.transition(ctx, id, models.BookingStatusCleanerCompleted, repository.StatusTransition{
		NewStatus:              models.BookingStatusCustomerAcknowledged,
		CustomerAcknowledgedAt: &now,
	})
}

// transition applies a guarded status change. Losing the race to a
// concurrent writer yields a 409 carrying the status actually stored.
func (s *BookingService) transition(ctx context.Context, id uuid.UUID, expected string, t repository.StatusTransition) (*models.Booking, error) {
	updated, err := s.bookings.TransitionStatus(ctx, id, expected, t)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, repository.ErrStatusConflict) {
		return nil, apperror.Internal("failed to update booking status", err)
	}

	current, readErr := s.bookings.GetByID(ctx, id)
	if readErr != nil {
		return nil, apperror.StatusConflict("booking status changed concurrently", "unknown", expected)
	}
	return nil, apperror.StatusConflict("booking status changed concurrently", current.Status, expected)
}

func (s *BookingService) loadBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, apperror.ResourceNotFound("booking", id.String())
		}
		return nil, apperror.Internal("failed to load booking", err)
	}
	return booking, nil
}

func authorizeParty(principal *models.Account, booking *models.Booking) error {
	switch principal.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if booking.CustomerID == principal.ID {
			return nil
		}
	case models.RoleCleaner:
		if booking.CleanerID == principal.ID {
			return nil
		}
	}
	return apperror.PermissionDenied("booking is not visible to this account")
}
