package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/models"
)

var (
	ErrPaymentNotFound       = errors.New("payment transaction not found")
	ErrDuplicateReference    = errors.New("payment reference already exists")
	ErrWebhookAlreadyHandled = errors.New("webhook event already processed")
)

const paymentColumns = `
	id, owner_id, booking_id, provider, reference, status,
	amount_minor, currency, response_payload, idempotency_key,
	created_at, updated_at`

// PaymentRepository persists payment transactions, webhook replay marks
// and the sandbox provider's intent store. Unique constraints on
// reference, idempotency key and (provider, event_id) are what make
// intent creation and webhook handling idempotent under races.
type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a transaction. A unique violation on the reference or
// idempotency key surfaces as ErrDuplicateReference so the caller can
// fall back to the already-stored row.
func (r *PaymentRepository) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	query := `
		INSERT INTO payment_transactions (
			id, owner_id, booking_id, provider, reference, status,
			amount_minor, currency, response_payload, idempotency_key
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		tx.ID,
		tx.OwnerID,
		tx.BookingID,
		tx.Provider,
		tx.Reference,
		tx.Status,
		tx.AmountMinor,
		tx.Currency,
		tx.ResponsePayload,
		tx.IdempotencyKey,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReference
		}
		return fmt.Errorf("payment repository: insert: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE reference = $1`
	return r.getOne(ctx, query, reference)
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.PaymentTransaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE booking_id = $1`
	return r.getOne(ctx, query, bookingID)
}

func (r *PaymentRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := r.db.GetContext(ctx, &tx, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get: %w", err)
	}
	return &tx, nil
}

// UpdateStatus sets the transaction status and stores the provider's
// latest payload alongside it.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, reference string, status models.PaymentStatus, payload models.JSONMap) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	query := `
		UPDATE payment_transactions
		SET status = $2, response_payload = $3, updated_at = NOW()
		WHERE reference = $1
		RETURNING ` + paymentColumns
	if err := r.db.GetContext(ctx, &tx, query, reference, status, payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: update status: %w", err)
	}
	return &tx, nil
}

// IsWebhookProcessed reports whether the provider event was handled before.
func (r *PaymentRepository) IsWebhookProcessed(ctx context.Context, provider models.Provider, eventID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM payment_webhook_events WHERE provider = $1 AND event_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, provider, eventID); err != nil {
		return false, fmt.Errorf("payment repository: webhook lookup: %w", err)
	}
	return exists, nil
}

// UpdateStatusAndMarkWebhook applies the status update and the replay
// mark in one transaction. A unique violation on (provider, event_id)
// means another delivery of the same event won the race; the whole
// update rolls back and ErrWebhookAlreadyHandled is returned.
func (r *PaymentRepository) UpdateStatusAndMarkWebhook(
	ctx context.Context,
	reference string,
	status models.PaymentStatus,
	payload models.JSONMap,
	provider models.Provider,
	eventID string,
) (*models.PaymentTransaction, error) {
	dbTx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("payment repository: begin tx: %w", err)
	}
	defer dbTx.Rollback()

	var tx models.PaymentTransaction
	query := `
		UPDATE payment_transactions
		SET status = $2, response_payload = $3, updated_at = NOW()
		WHERE reference = $1
		RETURNING ` + paymentColumns
	if err := dbTx.GetContext(ctx, &tx, query, reference, status, payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: update status: %w", err)
	}

	record := models.WebhookEventRecord{Provider: provider, EventID: eventID}
	_, err = dbTx.NamedExecContext(
		ctx,
		`INSERT INTO payment_webhook_events (provider, event_id) VALUES (:provider, :event_id)`,
		record,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrWebhookAlreadyHandled
		}
		return nil, fmt.Errorf("payment repository: mark webhook: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("payment repository: commit: %w", err)
	}
	return &tx, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const testIntentColumns = `
	reference, amount_minor, currency, customer_email, metadata,
	status, refunded_minor, created_at, updated_at`

// FindTestIntent returns the stored sandbox intent or (nil, nil) when
// none exists for the reference.
func (r *PaymentRepository) FindTestIntent(ctx context.Context, reference string) (*models.TestPaymentIntent, error) {
	var intent models.TestPaymentIntent
	query := `SELECT ` + testIntentColumns + ` FROM test_payment_intents WHERE reference = $1`
	if err := r.db.GetContext(ctx, &intent, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("payment repository: find test intent: %w", err)
	}
	return &intent, nil
}

func (r *PaymentRepository) SaveTestIntent(ctx context.Context, intent *models.TestPaymentIntent) error {
	query := `
		INSERT INTO test_payment_intents (
			reference, amount_minor, currency, customer_email, metadata, status
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		intent.Reference,
		intent.AmountMinor,
		intent.Currency,
		intent.CustomerEmail,
		intent.Metadata,
		intent.Status,
	).Scan(&intent.CreatedAt, &intent.UpdatedAt)
	if err != nil {
		return fmt.Errorf("payment repository: save test intent: %w", err)
	}
	return nil
}

// TouchTestIntent refreshes the metadata of an existing sandbox intent
// so repeated checkout requests carry the latest redirect target.
func (r *PaymentRepository) TouchTestIntent(ctx context.Context, reference string, metadata models.JSONMap) error {
	query := `
		UPDATE test_payment_intents
		SET metadata = $2, updated_at = NOW()
		WHERE reference = $1
	`
	if _, err := r.db.ExecContext(ctx, query, reference, metadata); err != nil {
		return fmt.Errorf("payment repository: touch test intent: %w", err)
	}
	return nil
}

// SetTestIntentStatus records the outcome chosen on the sandbox
// checkout page.
func (r *PaymentRepository) SetTestIntentStatus(ctx context.Context, reference, status string) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE test_payment_intents SET status = $2, updated_at = NOW() WHERE reference = $1`,
		reference, status,
	)
	if err != nil {
		return fmt.Errorf("payment repository: set test intent status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// RefundTestIntent marks the sandbox intent refunded and returns the
// updated row, or (nil, nil) when no intent exists for the reference.
// A nil amount means a full refund.
func (r *PaymentRepository) RefundTestIntent(ctx context.Context, reference string, requestedMinor *int64) (*models.TestPaymentIntent, error) {
	var intent models.TestPaymentIntent
	query := `
		UPDATE test_payment_intents
		SET status = 'refunded',
		    refunded_minor = COALESCE($2, amount_minor),
		    updated_at = NOW()
		WHERE reference = $1
		RETURNING ` + testIntentColumns
	if err := r.db.GetContext(ctx, &intent, query, reference, requestedMinor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("payment repository: refund test intent: %w", err)
	}
	return &intent, nil
}
