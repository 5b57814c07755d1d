package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
)

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, role models.Role, id uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, role, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	args := m.Called(ctx, role, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountRepo) SubmitOnboarding(ctx context.Context, cleanerID uuid.UUID, profile models.CleanerProfile) (*models.Account, error) {
	args := m.Called(ctx, cleanerID, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountRepo) ReviewOnboarding(ctx context.Context, cleanerID uuid.UUID, status string, rejectionReason *string) (*models.Account, error) {
	args := m.Called(ctx, cleanerID, status, rejectionReason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountRepo) ListCleanersByOnboardingStatus(ctx context.Context, status string, limit, offset int) ([]models.Account, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Account), args.Error(1)
}

func newAuthService(repo *mockAccountRepo) *AuthService {
	return NewAuthService(repo, NewTokenService("test-secret", time.Hour))
}

func TestAuthService_Signup_NormalizesEmail(t *testing.T) {
	repo := new(mockAccountRepo)
	svc := newAuthService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(a *models.Account) bool {
		return a.Email == "jane@example.com" && a.Role == models.RoleCleaner && a.PasswordHash != "hunter2pass"
	})).Return(nil)

	account, token, err := svc.Signup(ctx, models.RoleCleaner, SignupInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "  Jane@Example.COM ",
		Password:  "hunter2pass",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("hunter2pass")))
	repo.AssertExpectations(t)
}

func TestAuthService_Signup_RejectsAdminRole(t *testing.T) {
	svc := newAuthService(new(mockAccountRepo))

	_, _, err := svc.Signup(context.Background(), models.RoleAdmin, SignupInput{
		FirstName: "A", LastName: "B", Email: "a@example.com", Password: "hunter2pass",
	})
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.ErrCodeAuthRoleMismatch, appErr.Code)
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	repo := new(mockAccountRepo)
	svc := newAuthService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(repository.ErrEmailTaken)

	_, _, err := svc.Signup(ctx, models.RoleCustomer, SignupInput{
		FirstName: "A", LastName: "B", Email: "a@example.com", Password: "hunter2pass",
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(mockAccountRepo)
	svc := newAuthService(repo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2pass"), bcrypt.MinCost)
	account := &models.Account{
		ID:           uuid.New(),
		Role:         models.RoleCustomer,
		Email:        "a@example.com",
		PasswordHash: string(hash),
		Status:       models.AccountStatusActive,
	}
	repo.On("GetByEmail", ctx, models.RoleCustomer, "a@example.com").Return(account, nil)

	got, token, err := svc.Login(ctx, models.RoleCustomer, LoginInput{Email: "A@example.com", Password: "hunter2pass"})
	assert.NoError(t, err)
	assert.Equal(t, account, got)
	assert.NotEmpty(t, token)
}

func TestAuthService_Login_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	repo := new(mockAccountRepo)
	svc := newAuthService(repo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2pass"), bcrypt.MinCost)
	account := &models.Account{
		ID: uuid.New(), Role: models.RoleCustomer, Email: "a@example.com",
		PasswordHash: string(hash), Status: models.AccountStatusActive,
	}
	repo.On("GetByEmail", ctx, models.RoleCustomer, "a@example.com").Return(account, nil)
	repo.On("GetByEmail", ctx, models.RoleCustomer, "b@example.com").Return(nil, repository.ErrAccountNotFound)

	_, _, wrongPassword := svc.Login(ctx, models.RoleCustomer, LoginInput{Email: "a@example.com", Password: "nope-nope"})
	_, _, unknownEmail := svc.Login(ctx, models.RoleCustomer, LoginInput{Email: "b@example.com", Password: "hunter2pass"})

	assert.True(t, errors.Is(wrongPassword, apperror.ErrInvalidCredentials))
	assert.True(t, errors.Is(unknownEmail, apperror.ErrInvalidCredentials))
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	repo := new(mockAccountRepo)
	svc := newAuthService(repo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2pass"), bcrypt.MinCost)
	repo.On("GetByEmail", ctx, models.RoleCleaner, "a@example.com").Return(&models.Account{
		ID: uuid.New(), Role: models.RoleCleaner, Email: "a@example.com",
		PasswordHash: string(hash), Status: models.AccountStatusSuspended,
	}, nil)

	_, _, err := svc.Login(ctx, models.RoleCleaner, LoginInput{Email: "a@example.com", Password: "hunter2pass"})
	assert.True(t, errors.Is(err, apperror.ErrAccountInactive))
}

func TestAuthService_Principal_GoneAccount(t *testing.T) {
	repo := new(mockAccountRepo)
	svc := newAuthService(repo)
	ctx := context.Background()

	claims := &TokenClaims{AccountID: uuid.New(), Role: models.RoleCustomer}
	repo.On("GetByID", ctx, models.RoleCustomer, claims.AccountID).Return(nil, repository.ErrAccountNotFound)

	_, err := svc.Principal(ctx, claims)
	appErr, ok := apperror.As(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.ErrCodeAuthPrincipalNotFound, appErr.Code)
}
