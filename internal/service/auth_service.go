package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
	"github.com/nathanieluriri/marcus-cleaning-backend/internal/repository"
)

// AccountRepositoryInterface is the account persistence surface the
// services depend on.
type AccountRepositoryInterface interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, role models.Role, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error)
	SubmitOnboarding(ctx context.Context, cleanerID uuid.UUID, profile models.CleanerProfile) (*models.Account, error)
	ReviewOnboarding(ctx context.Context, cleanerID uuid.UUID, status string, rejectionReason *string) (*models.Account, error)
	ListCleanersByOnboardingStatus(ctx context.Context, status string, limit, offset int) ([]models.Account, error)
}

// SignupInput is the common registration payload for customers and
// cleaners. Admin accounts are provisioned out of band.
type SignupInput struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthService registers principals and exchanges credentials for tokens.
type AuthService struct {
	accounts AccountRepositoryInterface
	tokens   *TokenService
}

func NewAuthService(accounts AccountRepositoryInterface, tokens *TokenService) *AuthService {
	return &AuthService{accounts: accounts, tokens: tokens}
}

// Signup creates an account in the table for the requested role and
// returns it with a fresh access token.
func (s *AuthService) Signup(ctx context.Context, role models.Role, input SignupInput) (*models.Account, string, error) {
	if role != models.RoleCustomer && role != models.RoleCleaner {
		return nil, "", apperror.RoleMismatch("customer or cleaner", string(role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apperror.Internal("failed to hash password", err)
	}

	account := &models.Account{
		Role:         role,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Status:       models.AccountStatusActive,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", apperror.Conflict(apperror.ErrCodeValidationFailed, "email already registered", nil)
		}
		return nil, "", apperror.Internal("failed to create account", err)
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, "", apperror.Internal("failed to issue token", err)
	}
	return account, token, nil
}

// Login checks credentials against the table for the requested role.
// Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, role models.Role, input LoginInput) (*models.Account, string, error) {
	if !role.Valid() {
		return nil, "", apperror.RoleMismatch("a known role", string(role))
	}

	account, err := s.accounts.GetByEmail(ctx, role, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, "", apperror.ErrInvalidCredentials
		}
		return nil, "", apperror.Internal("failed to load account", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)) != nil {
		return nil, "", apperror.ErrInvalidCredentials
	}
	if !account.IsActive() {
		return nil, "", apperror.ErrAccountInactive
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, "", apperror.Internal("failed to issue token", err)
	}
	return account, token, nil
}

// Principal resolves a verified token to its live account record. The
// role claim picks the backing table, so a token can never read across
// roles.
func (s *AuthService) Principal(ctx context.Context, claims *TokenClaims) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, claims.Role, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperror.New(apperror.ErrCodeAuthPrincipalNotFound, "account no longer exists")
		}
		return nil, apperror.Internal("failed to load account", err)
	}
	if !account.IsActive() {
		return nil, apperror.ErrAccountInactive
	}
	return account, nil
}
