package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rendydev404/beatly/internal/domain/enums"
	"github.com/rendydev404/beatly/internal/domain/model"
)

var ErrTransactionNotFound = errors.New("transaction not found")

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `
	id,
	user_id,
	plan_id,
	amount,
	status,
	snap_token,
	created_at,
	updated_at
`

func (r *TransactionRepo) CreatePending(ctx context.Context, userID, planID string, amount int) (model.Transaction, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(planID) == "" || amount <= 0 {
		return model.Transaction{}, fmt.Errorf("invalid create transaction payload")
	}
	if r.pool == nil {
		return model.Transaction{}, fmt.Errorf("postgres pool is nil")
	}

	txn, err := scanTransaction(r.pool.QueryRow(ctx, `
INSERT INTO transactions (
	id,
	user_id,
	plan_id,
	amount,
	status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, 'pending', NOW(), NOW())
RETURNING`+transactionColumns+`
`, uuid.NewString(), userID, planID, amount))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("create pending transaction: %w", err)
	}

	return txn, nil
}

func (r *TransactionRepo) AttachSnapToken(ctx context.Context, transactionID, snapToken string) error {
	if strings.TrimSpace(transactionID) == "" || strings.TrimSpace(snapToken) == "" {
		return fmt.Errorf("invalid attach snap token payload")
	}
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE transactions
SET
	snap_token = $2,
	updated_at = NOW()
WHERE id = $1
`, transactionID, snapToken)
	if err != nil {
		return fmt.Errorf("attach snap token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepo) FindByID(ctx context.Context, transactionID string) (model.Transaction, error) {
	if strings.TrimSpace(transactionID) == "" {
		return model.Transaction{}, fmt.Errorf("transaction id is required")
	}
	return r.find(ctx, `
SELECT`+transactionColumns+`
FROM transactions
WHERE id = $1
`, transactionID)
}

// FindByIDForUser scopes the lookup to the owner so the poll path cannot be
// used to probe other users' transactions.
func (r *TransactionRepo) FindByIDForUser(ctx context.Context, transactionID, userID string) (model.Transaction, error) {
	if strings.TrimSpace(transactionID) == "" || strings.TrimSpace(userID) == "" {
		return model.Transaction{}, fmt.Errorf("transaction id and user id are required")
	}
	return r.find(ctx, `
SELECT`+transactionColumns+`
FROM transactions
WHERE id = $1 AND user_id = $2
`, transactionID, userID)
}

func (r *TransactionRepo) find(ctx context.Context, query string, args ...any) (model.Transaction, error) {
	if r.pool == nil {
		return model.Transaction{}, fmt.Errorf("postgres pool is nil")
	}

	txn, err := scanTransaction(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Transaction{}, ErrTransactionNotFound
		}
		return model.Transaction{}, fmt.Errorf("find transaction: %w", err)
	}

	return txn, nil
}

// MarkTerminal moves a transaction to a terminal status under a row lock.
// Success is sticky: once a row reads success, no later status from either
// the webhook or the poll path can change it. Re-applying the current status
// is a no-op, which makes both reconciliation paths idempotent.
func (r *TransactionRepo) MarkTerminal(ctx context.Context, transactionID string, status enums.TransactionStatus) (model.Transaction, bool, error) {
	if strings.TrimSpace(transactionID) == "" {
		return model.Transaction{}, false, fmt.Errorf("transaction id is required")
	}
	if !status.Terminal() {
		return model.Transaction{}, false, fmt.Errorf("status %q is not terminal", status)
	}
	if r.pool == nil {
		return model.Transaction{}, false, fmt.Errorf("postgres pool is nil")
	}

	var out model.Transaction
	changed := false
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		current, err := scanTransaction(tx.QueryRow(txCtx, `
SELECT`+transactionColumns+`
FROM transactions
WHERE id = $1
FOR UPDATE
`, transactionID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("lock transaction: %w", err)
		}

		if current.Status == enums.TransactionStatusSuccess || current.Status == status {
			out = current
			return nil
		}

		updated, err := scanTransaction(tx.QueryRow(txCtx, `
UPDATE transactions
SET
	status = $2,
	updated_at = NOW()
WHERE id = $1
RETURNING`+transactionColumns+`
`, transactionID, string(status)))
		if err != nil {
			return fmt.Errorf("mark transaction terminal: %w", err)
		}

		out = updated
		changed = true
		return nil
	})
	if err != nil {
		return model.Transaction{}, false, err
	}

	return out, changed, nil
}

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var txn model.Transaction
	var status string
	if err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.PlanID,
		&txn.Amount,
		&status,
		&txn.SnapToken,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	); err != nil {
		return model.Transaction{}, err
	}
	txn.Status = enums.TransactionStatus(status)
	return txn, nil
}
