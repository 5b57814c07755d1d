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
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUnknownRole     = errors.New("unknown role")
)

// Each role reads from its own table. The mapping is fixed at compile
// time so an unexpected role can never select an arbitrary table.
var roleTables = map[models.Role]string{
	models.RoleCustomer: "customers",
	models.RoleCleaner:  "cleaners",
	models.RoleAdmin:    "admins",
}

// AccountRepository persists the per-role principal tables. Cleaner rows
// additionally carry the onboarding review fields.
type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func accountColumns(role models.Role) string {
	base := `id, first_name, last_name, email, password_hash, account_status, created_at, updated_at`
	if role == models.RoleCleaner {
		base += `, onboarding_status, rejection_reason, profile`
	}
	return base
}

// Create inserts a principal into the table for its role.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	table, ok := roleTables[account.Role]
	if !ok {
		return ErrUnknownRole
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, first_name, last_name, email, password_hash, account_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, table)
	err := r.db.QueryRowxContext(
		ctx,
		query,
		account.ID,
		account.FirstName,
		account.LastName,
		account.Email,
		account.PasswordHash,
		account.Status,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("account repository: insert %s: %w", table, err)
	}
	if account.Role == models.RoleCleaner && account.OnboardingStatus == "" {
		account.OnboardingStatus = models.OnboardingPending
	}
	return nil
}

// GetByID loads a principal of the given role.
func (r *AccountRepository) GetByID(ctx context.Context, role models.Role, id uuid.UUID) (*models.Account, error) {
	table, ok := roleTables[role]
	if !ok {
		return nil, ErrUnknownRole
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, accountColumns(role), table)
	return r.getOne(ctx, role, query, id)
}

// GetByEmail loads a principal of the given role by email.
func (r *AccountRepository) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	table, ok := roleTables[role]
	if !ok {
		return nil, ErrUnknownRole
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1`, accountColumns(role), table)
	return r.getOne(ctx, role, query, email)
}

func (r *AccountRepository) getOne(ctx context.Context, role models.Role, query string, arg interface{}) (*models.Account, error) {
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("account repository: get: %w", err)
	}
	account.Role = role
	return &account, nil
}

// SubmitOnboarding stores the cleaner's profile and resets the review to
// pending, clearing any previous rejection reason.
func (r *AccountRepository) SubmitOnboarding(ctx context.Context, cleanerID uuid.UUID, profile models.CleanerProfile) (*models.Account, error) {
	query := fmt.Sprintf(`
		UPDATE cleaners
		SET profile = $2,
		    onboarding_status = $3,
		    rejection_reason = NULL,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, accountColumns(models.RoleCleaner))

	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, cleanerID, profile, models.OnboardingPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("account repository: submit onboarding: %w", err)
	}
	account.Role = models.RoleCleaner
	return &account, nil
}

// ReviewOnboarding records the admin decision. rejectionReason is stored
// only for rejections and cleared otherwise.
func (r *AccountRepository) ReviewOnboarding(ctx context.Context, cleanerID uuid.UUID, status string, rejectionReason *string) (*models.Account, error) {
	if status != models.OnboardingRejected {
		rejectionReason = nil
	}
	query := fmt.Sprintf(`
		UPDATE cleaners
		SET onboarding_status = $2,
		    rejection_reason = $3,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, accountColumns(models.RoleCleaner))

	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, cleanerID, status, rejectionReason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("account repository: review onboarding: %w", err)
	}
	account.Role = models.RoleCleaner
	return &account, nil
}

// ListCleanersByOnboardingStatus pages through cleaners in a given
// review state, oldest submissions first.
func (r *AccountRepository) ListCleanersByOnboardingStatus(ctx context.Context, status string, limit, offset int) ([]models.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM cleaners
		WHERE onboarding_status = $1
		ORDER BY updated_at ASC
		LIMIT $2 OFFSET $3
	`, accountColumns(models.RoleCleaner))

	accounts := []models.Account{}
	if err := r.db.SelectContext(ctx, &accounts, query, status, limit, offset); err != nil {
		return nil, fmt.Errorf("account repository: list cleaners: %w", err)
	}
	for i := range accounts {
		accounts[i].Role = models.RoleCleaner
	}
	return accounts, nil
}
