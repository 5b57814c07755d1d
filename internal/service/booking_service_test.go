package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pricing"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) List(ctx context.Context, filter repository.BookingFilter, start, stop int) ([]models.Booking, error) {
	args := m.Called(ctx, filter, start, stop)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingRepo) AttachPayment(ctx context.Context, id uuid.UUID, attachment repository.PaymentAttachment) (*models.Booking, error) {
	args := m.Called(ctx, id, attachment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) TransitionStatus(ctx context.Context, id uuid.UUID, expectedStatus string, transition repository.StatusTransition) (*models.Booking, error) {
	args := m.Called(ctx, id, expectedStatus, transition)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockQuoteEngine struct {
	mock.Mock
}

func (m *mockQuoteEngine) QuoteForBooking(ctx context.Context, booking *models.Booking) (*pricing.Quote, error) {
	args := m.Called(ctx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Quote), args.Error(1)
}

type mockPaymentCreator struct {
	mock.Mock
}

func (m *mockPaymentCreator) CreateIntentForBooking(ctx context.Context, booking *models.Booking, amountMinor int64, currency string, customerEmail string, providerName string) (*IntentResult, error) {
	args := m.Called(ctx, booking, amountMinor, currency, customerEmail, providerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*IntentResult), args.Error(1)
}

func (m *mockPaymentCreator) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.PaymentTransaction, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentTransaction), args.Error(1)
}

// staticCleanerLookup resolves any cleaner id to an active account.
type staticCleanerLookup struct{}

func (staticCleanerLookup) GetByID(_ context.Context, _ models.Role, id uuid.UUID) (*models.Account, error) {
	return &models.Account{ID: id, Role: models.RoleCleaner, Status: models.AccountStatusActive}, nil
}

func testCustomer() *models.Account {
	return &models.Account{
		ID:     uuid.New(),
		Role:   models.RoleCustomer,
		Email:  "customer@example.com",
		Status: models.AccountStatusActive,
	}
}

func testCleaner() *models.Account {
	return &models.Account{
		ID:     uuid.New(),
		Role:   models.RoleCleaner,
		Status: models.AccountStatusActive,
	}
}

func validInput(cleanerID uuid.UUID) CreateBookingInput {
	return CreateBookingInput{
		CleanerID: cleanerID,
		PlaceID:   "place-lagos",
		Service:   models.ServiceStandard,
		Duration:  models.Duration{Hours: 2},
	}
}

func TestBookingService_Create_Success(t *testing.T) {
	repo := new(mockBookingRepo)
	quotes := new(mockQuoteEngine)
	payments := new(mockPaymentCreator)
	svc := NewBookingService(repo, quotes, payments, staticCleanerLookup{}, false)
	ctx := context.Background()
	customer := testCustomer()

	quote := &pricing.Quote{AmountMinor: 11500, Currency: "NGN", Breakdown: models.JSONMap{"total_amount": int64(11500)}}
	paymentID := uuid.New()
	intent := &IntentResult{
		Transaction: &models.PaymentTransaction{ID: paymentID, Status: models.PaymentStatusPending},
		CheckoutURL: "https://pay.example/abc",
	}

	repo.On("Create", ctx, mock.AnythingOfType("*models.Booking")).Return(nil)
	quotes.On("QuoteForBooking", ctx, mock.AnythingOfType("*models.Booking")).Return(quote, nil)
	payments.On("CreateIntentForBooking", ctx, mock.AnythingOfType("*models.Booking"), int64(11500), "NGN", customer.Email, "").Return(intent, nil)

	stored := &models.Booking{ID: uuid.New(), Status: models.BookingStatusRequested, PaymentID: &paymentID}
	repo.On("AttachPayment", ctx, mock.AnythingOfType("uuid.UUID"), mock.MatchedBy(func(a repository.PaymentAttachment) bool {
		return a.PaymentID == paymentID && a.PriceAmountMinor == 11500 && a.PriceCurrency == "NGN"
	})).Return(stored, nil)

	result, err := svc.Create(ctx, customer, validInput(uuid.New()))
	assert.NoError(t, err)
	assert.Equal(t, stored, result.Booking)
	assert.Equal(t, "https://pay.example/abc", result.CheckoutURL)
	repo.AssertExpectations(t)
	quotes.AssertExpectations(t)
	payments.AssertExpectations(t)
}

func TestBookingService_Create_RollsBackOnPaymentFailure(t *testing.T) {
	repo := new(mockBookingRepo)
	quotes := new(mockQuoteEngine)
	payments := new(mockPaymentCreator)
	svc := NewBookingService(repo, quotes, payments, staticCleanerLookup{}, false)
	ctx := context.Background()
	customer := testCustomer()

	quote := &pricing.Quote{AmountMinor: 11500, Currency: "NGN"}
	providerErr := apperror.ProviderError("gateway rejected the request", nil, nil)

	repo.On("Create", ctx, mock.AnythingOfType("*models.Booking")).Return(nil)
	quotes.On("QuoteForBooking", ctx, mock.AnythingOfType("*models.Booking")).Return(quote, nil)
	payments.On("CreateIntentForBooking", ctx, mock.AnythingOfType("*models.Booking"), int64(11500), "NGN", customer.Email, "").Return(nil, providerErr)
	repo.On("Delete", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil)

	_, err := svc.Create(ctx, customer, validInput(uuid.New()))
	assert.Equal(t, providerErr, err)
	repo.AssertExpectations(t)
}

func TestBookingService_Create_CustomRequiresDetails(t *testing.T) {
	svc := NewBookingService(new(mockBookingRepo), new(mockQuoteEngine), new(mockPaymentCreator), staticCleanerLookup{}, false)

	input := validInput(uuid.New())
	input.Service = models.ServiceCustom

	_, err := svc.Create(context.Background(), testCustomer(), input)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestBookingService_Create_UnknownCleaner(t *testing.T) {
	accounts := new(mockAccountRepo)
	svc := NewBookingService(new(mockBookingRepo), new(mockQuoteEngine), new(mockPaymentCreator), accounts, false)
	ctx := context.Background()

	cleanerID := uuid.New()
	accounts.On("GetByID", ctx, models.RoleCleaner, cleanerID).Return(nil, repository.ErrAccountNotFound)

	_, err := svc.Create(ctx, testCustomer(), validInput(cleanerID))
	assert.True(t, apperror.IsNotFound(err))
}

func TestBookingService_Accept_Success(t *testing.T) {
	repo := new(mockBookingRepo)
	payments := new(mockPaymentCreator)
	svc := NewBookingService(repo, new(mockQuoteEngine), payments, staticCleanerLookup{}, false)
	ctx := context.Background()
	cleaner := testCleaner()
	bookingID := uuid.New()

	booking := &models.Booking{
		ID:                        bookingID,
		CleanerID:                 cleaner.ID,
		Status:                    models.BookingStatusRequested,
		CleanerAcceptanceDeadline: time.Now().Add(time.Hour),
	}
	repo.On("GetByID", ctx, bookingID).Return(booking, nil)
	payments.On("GetByBookingID", ctx, bookingID).Return(&models.PaymentTransaction{Status: models.PaymentStatusSucceeded}, nil)

	accepted := &models.Booking{ID: bookingID, Status: models.BookingStatusAccepted}
	repo.On("TransitionStatus", ctx, bookingID, models.BookingStatusRequested, mock.MatchedBy(func(tr repository.StatusTransition) bool {
		return tr.NewStatus == models.BookingStatusAccepted && tr.CleanerAcceptedAt != nil
	})).Return(accepted, nil)

	result, err := svc.Accept(ctx, cleaner, bookingID)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingStatusAccepted, result.Status)
	repo.AssertExpectations(t)
}

func TestBookingService_Accept_UnsettledPayment(t *testing.T) {
	repo := new(mockBookingRepo)
	payments := new(mockPaymentCreator)
	svc := NewBookingService(repo, new(mockQuoteEngine), payments, staticCleanerLookup{}, false)
	ctx := context.Background()
	cleaner := testCleaner()
	bookingID := uuid.New()

	booking := &models.Booking{
		ID:                        bookingID,
		CleanerID:                 cleaner.ID,
		Status:                    models.BookingStatusRequested,
		CleanerAcceptanceDeadline: time.Now().Add(time.Hour),
	}
	repo.On("GetByID", ctx, bookingID).Return(booking, nil)
	payments.On("GetByBookingID", ctx, bookingID).Return(&models.PaymentTransaction{Status: models.PaymentStatusPending}, nil)

	_, err := svc.Accept(ctx, cleaner, bookingID)
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	assert.Equal(t, "pending", appErr.Details["payment_status"])
}

func TestBookingService_Accept_MissingPayment(t *testing.T) {
	repo := new(mockBookingRepo)
	payments := new(mockPaymentCreator)
	svc := NewBookingService(repo, new(mockQuoteEngine), payments, staticCleanerLookup{}, false)
	ctx := context.Background()
	cleaner := testCleaner()
	bookingID := uuid.New()

	booking := &models.Booking{
		ID:                        bookingID,
		CleanerID:                 cleaner.ID,
		Status:                    models.BookingStatusRequested,
		CleanerAcceptanceDeadline: time.Now().Add(time.Hour),
	}
	repo.On("GetByID", ctx, bookingID).Return(booking, nil)
	payments.On("GetByBookingID", ctx, bookingID).Return(nil, apperror.ResourceNotFound("payment", bookingID.String()))

	_, err := svc.Accept(ctx, cleaner, bookingID)
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	assert.Equal(t, apperror.ErrCodeValidationFailed, appErr.Code)
	repo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Accept_PendingPaymentAllowed(t *testing.T) {
	repo := new(mockBookingRepo)
	payments := new(mockPaymentCreator)
	svc := NewBookingService(repo, new(mockQuoteEngine), payments, staticCleanerLookup{}, true)
	ctx := context.Background()
	cleaner := testCleaner()
	bookingID := uuid.New()

	booking := &models.Booking{
		ID:                        bookingID,
		CleanerID:                 cleaner.ID,
		Status:                    models.BookingStatusRequested,
		CleanerAcceptanceDeadline: time.Now().Add(time.Hour),
	}
	repo.On("GetByID", ctx, bookingID).Return(booking, nil)
	repo.On("TransitionStatus", ctx, bookingID, models.BookingStatusRequested, mock.Anything).
		Return(&models.Booking{ID: bookingID, Status: models.BookingStatusAccepted}, nil)

	_, err := svc.Accept(ctx, cleaner, bookingID)
	assert.NoError(t, err)
	payments.AssertNotCalled(t, "GetByBookingID", mock.Anything, mock.Anything)
}

func TestBookingService_Accept_DeadlineExpired(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, new(mockQuoteEngine), new(mockPaymentCreator), staticCleanerLookup{}, true)
	ctx := context.Background()
	cleaner := testCleaner()
	bookingID := uuid.New()

	booking := &models.Booking{
		ID:                        bookingID,
		CleanerID:                 cleaner.ID,
		Status:                    models.BookingStatusRequested,
		CleanerAcceptanceDeadline: time.Now().Add(-time.Minute),
	}
	repo.On("GetByID", ctx, bookingID).Return(booking, nil)

	_, err := svc.Accept(ctx, cleaner, bookingID)
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
}

func TestBookingService_Accept_WrongCleaner(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, new(mockQuoteEngine), new(mockPaymentCreator), staticCleanerLookup{}, true)
	ctx := context.Background()
	bookingID := uuid.New()

	booking := &models.Booking{
		ID:        bookingID,
		CleanerID: uuid.New(),
		Status:    models.BookingStatusRequested,
	}
	repo.On("GetByID", ctx, bookingID).Return(booking, nil)

	_, err := svc.Accept(ctx, testCleaner(), bookingID)
	assert.True(t, apperror.IsPermissionDenied(err))
}

func TestBookingService_Transition_ConcurrentConflict(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, new(mockQuoteEngine), new(mockPaymentCreator), staticCleanerLookup{}, true)
	ctx := context.Background()
	cleaner := testCleaner()
	bookingID := uuid.New()

	requested := &models.Booking{
		ID:                        bookingID,
		CleanerID:                 cleaner.ID,
		Status:                    models.BookingStatusRequested,
		CleanerAcceptanceDeadline: time.Now().Add(time.Hour),
	}
	cancelled := &models.Booking{ID: bookingID, CleanerID: cleaner.ID, Status: models.BookingStatusCancelled}

	repo.On("GetByID", ctx, bookingID).Return(requested, nil).Once()
	repo.On("TransitionStatus", ctx, bookingID, models.BookingStatusRequested, mock.Anything).
		Return(nil, repository.ErrStatusConflict)
	repo.On("GetByID", ctx, bookingID).Return(cancelled, nil).Once()

	_, err := svc.Accept(ctx, cleaner, bookingID)
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	assert.Equal(t, models.BookingStatusCancelled, appErr.Details["current_status"])
	assert.Equal(t, models.BookingStatusRequested, appErr.Details["expected_status"])
}

func TestBookingService_CustomerAcknowledge_WrongStatus(t *testing.T) {
	repo := new(mockBookingRepo)
	svc := NewBookingService(repo, new(mockQuoteEngine), new(mockPaymentCreator), staticCleanerLookup{}, true)
	ctx := context.Background()
	customer := testCustomer()
	bookingID := uuid.New()

	booking := &models.Booking{ID: bookingID, CustomerID: customer.ID, Status: models.BookingStatusAccepted}
	repo.On("GetByID", ctx, bookingID).Return(booking, nil)

	_, err := svc.CustomerAcknowledge(ctx, customer, bookingID)
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	assert.Equal(t, models.BookingStatusAccepted, appErr.Details["current_status"])
}
