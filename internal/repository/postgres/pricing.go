package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/pkg/errors"
)

type PricingRepository struct {
	db *sqlx.DB
}

func NewPricingRepository(db *sqlx.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) FindTierForQuantity(ctx context.Context, quantity int) (*domain.PricingTier, error) {
	var tier domain.PricingTier
	query := `
		SELECT id, min_quantity, max_quantity, price_usd, updated_at
		FROM pricing_tiers
		WHERE min_quantity <= $1 AND max_quantity >= $1
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &tier, query, quantity)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNoTierForQuantity
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find pricing tier")
	}

	return &tier, nil
}

func (r *PricingRepository) UpdatePriceForQuantity(ctx context.Context, quantity int, price decimal.Decimal) error {
	query := `
		UPDATE pricing_tiers
		SET price_usd = $1, updated_at = NOW()
		WHERE min_quantity <= $2 AND max_quantity >= $2
	`

	res, err := r.db.ExecContext(ctx, query, price, quantity)
	if err != nil {
		return errors.Wrap(err, "failed to update tier price")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return errors.ErrNoTierForQuantity
	}

	return nil
}

func (r *PricingRepository) ListTiers(ctx context.Context) ([]*domain.PricingTier, error) {
	var tiers []*domain.PricingTier
	query := `
		SELECT id, min_quantity, max_quantity, price_usd, updated_at
		FROM pricing_tiers
		ORDER BY min_quantity ASC
	`

	err := r.db.SelectContext(ctx, &tiers, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pricing tiers")
	}

	return tiers, nil
}

func (r *PricingRepository) InsertTier(ctx context.Context, tier *domain.PricingTier) error {
	query := `
		INSERT INTO pricing_tiers (id, min_quantity, max_quantity, price_usd, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		tier.ID, tier.MinQuantity, tier.MaxQuantity, tier.PriceUSD, tier.UpdatedAt,
	)

	return errors.Wrap(err, "failed to insert pricing tier")
}
