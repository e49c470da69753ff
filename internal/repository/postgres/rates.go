package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"proxydesk/internal/domain"
	"proxydesk/pkg/errors"
)

type RatesRepository struct {
	db *sqlx.DB
}

func NewRatesRepository(db *sqlx.DB) *RatesRepository {
	return &RatesRepository{db: db}
}

func (r *RatesRepository) Upsert(ctx context.Context, rate *domain.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (currency, rate, set_by, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (currency) DO UPDATE
		SET rate = EXCLUDED.rate, set_by = EXCLUDED.set_by, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rate.Currency, rate.Rate, rate.SetBy, rate.UpdatedAt,
	)

	return errors.Wrap(err, "failed to upsert exchange rate")
}

func (r *RatesRepository) Get(ctx context.Context, currency domain.Currency) (*domain.ExchangeRate, error) {
	var rate domain.ExchangeRate
	query := `
		SELECT currency, rate, set_by, updated_at
		FROM exchange_rates
		WHERE currency = $1
	`

	err := r.db.GetContext(ctx, &rate, query, currency)
	if err == sql.ErrNoRows {
		return nil, errors.ErrRateNotConfigured
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get exchange rate")
	}

	return &rate, nil
}

func (r *RatesRepository) List(ctx context.Context) ([]*domain.ExchangeRate, error) {
	var rates []*domain.ExchangeRate
	query := `
		SELECT currency, rate, set_by, updated_at
		FROM exchange_rates
		ORDER BY currency ASC
	`

	err := r.db.SelectContext(ctx, &rates, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list exchange rates")
	}

	return rates, nil
}
