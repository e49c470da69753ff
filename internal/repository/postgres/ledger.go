package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/internal/ledger"
	"proxydesk/pkg/errors"
)

type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, tx *domain.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (id, user_id, amount_usd, channel, status, reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.AmountUSD, tx.Channel, tx.Status, tx.Reference,
		tx.CreatedAt, tx.UpdatedAt,
	)

	return errors.Wrap(err, "failed to create transaction")
}

func (r *LedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentTransaction, error) {
	var tx domain.PaymentTransaction
	query := `
		SELECT id, user_id, amount_usd, channel, status, reference, created_at, updated_at
		FROM payment_transactions
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &tx, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find transaction")
	}

	return &tx, nil
}

func (r *LedgerRepository) List(ctx context.Context, filter ledger.Filter) ([]*domain.PaymentTransaction, error) {
	var (
		conditions []string
		args       []interface{}
	)

	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, clause+"$"+strconv.Itoa(len(args)))
	}

	if filter.Status != nil {
		add("status = ", *filter.Status)
	}
	if filter.UserID != nil {
		add("user_id = ", *filter.UserID)
	}
	if filter.Channel != nil {
		add("channel = ", *filter.Channel)
	}
	if filter.MinAmountUSD != nil {
		add("amount_usd >= ", *filter.MinAmountUSD)
	}
	if filter.MaxAmountUSD != nil {
		add("amount_usd <= ", *filter.MaxAmountUSD)
	}
	if filter.DateFrom != nil {
		add("created_at >= ", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("created_at <= ", *filter.DateTo)
	}

	query := `
		SELECT id, user_id, amount_usd, channel, status, reference, created_at, updated_at
		FROM payment_transactions
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	var txs []*domain.PaymentTransaction
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list transactions")
	}
	return txs, nil
}

func (r *LedgerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	query := `UPDATE payment_transactions SET status = $1, updated_at = NOW() WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return errors.Wrap(err, "failed to update transaction status")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read status update result")
	}
	if affected == 0 {
		return errors.ErrTransactionNotFound
	}
	return nil
}

func (r *LedgerRepository) UpdateAmount(ctx context.Context, id uuid.UUID, amountUSD decimal.Decimal) error {
	query := `UPDATE payment_transactions SET amount_usd = $1, updated_at = NOW() WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, amountUSD, id)
	if err != nil {
		return errors.Wrap(err, "failed to update transaction amount")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read amount update result")
	}
	if affected == 0 {
		return errors.ErrTransactionNotFound
	}
	return nil
}

func (r *LedgerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payment_transactions WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete transaction")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read delete result")
	}
	if affected == 0 {
		return errors.ErrTransactionNotFound
	}
	return nil
}

func (r *LedgerRepository) Totals(ctx context.Context) (*ledger.Totals, error) {
	rows := []struct {
		Status domain.TransactionStatus `db:"status"`
		Count  int                      `db:"count"`
	}{}

	err := r.db.SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS count
		FROM payment_transactions
		GROUP BY status
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count transactions by status")
	}

	totals := &ledger.Totals{
		CountByStatus: make(map[domain.TransactionStatus]int, len(rows)),
	}
	for _, row := range rows {
		totals.CountByStatus[row.Status] = row.Count
	}

	err = r.db.GetContext(ctx, &totals.ApprovedVolumeUSD, `
		SELECT COALESCE(SUM(amount_usd), 0)
		FROM payment_transactions
		WHERE status IN ('approved', 'completed')
	`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sum approved volume")
	}

	return totals, nil
}
