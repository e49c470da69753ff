package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/internal/orders"
	"proxydesk/pkg/errors"
)

type OrdersRepository struct {
	db *sqlx.DB
}

func NewOrdersRepository(db *sqlx.DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

func (r *OrdersRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, quantity, country, unit_price_usd, total_price_usd, status, credential_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	ids := make([]string, len(order.CredentialIDs))
	for i, id := range order.CredentialIDs {
		ids[i] = id.String()
	}

	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.UserID, order.Quantity, order.Country,
		order.UnitPriceUSD, order.TotalPriceUSD, order.Status,
		pq.Array(ids), order.CreatedAt,
	)

	return errors.Wrap(err, "failed to create order")
}

type orderRow struct {
	domain.Order
	RawCredentialIDs pq.StringArray `db:"credential_ids"`
}

func (row *orderRow) toDomain() (*domain.Order, error) {
	order := row.Order
	order.CredentialIDs = make([]uuid.UUID, 0, len(row.RawCredentialIDs))
	for _, raw := range row.RawCredentialIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(err, "corrupt credential id on order")
		}
		order.CredentialIDs = append(order.CredentialIDs, id)
	}
	return &order, nil
}

func (r *OrdersRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var row orderRow
	query := `
		SELECT id, user_id, quantity, country, unit_price_usd, total_price_usd, status, credential_ids, created_at
		FROM orders
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	return row.toDomain()
}

func (r *OrdersRepository) List(ctx context.Context, filter orders.Filter) ([]*domain.Order, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, "user_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	query := `
		SELECT id, user_id, quantity, country, unit_price_usd, total_price_usd, status, credential_ids, created_at
		FROM orders
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	out := make([]*domain.Order, 0, len(rows))
	for i := range rows {
		order, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, nil
}

func (r *OrdersRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return errors.Wrap(err, "failed to update order status")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read order update result")
	}
	if affected == 0 {
		return errors.ErrOrderNotFound
	}
	return nil
}

func (r *OrdersRepository) Totals(ctx context.Context) (*orders.Totals, error) {
	var totals orders.Totals
	query := `
		SELECT
			COUNT(*) AS total_orders,
			COALESCE(SUM(total_price_usd), 0) AS total_revenue_usd
		FROM orders
	`

	row := struct {
		TotalOrders     int             `db:"total_orders"`
		TotalRevenueUSD decimal.Decimal `db:"total_revenue_usd"`
	}{}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, errors.Wrap(err, "failed to aggregate order totals")
	}

	totals.TotalOrders = row.TotalOrders
	totals.TotalRevenueUSD = row.TotalRevenueUSD
	return &totals, nil
}
