// Package stats is the read side for dashboards: it composes tier inventory,
// order totals and ledger totals into one snapshot payload.
package stats

import (
	"context"
	"time"

	"proxydesk/internal/domain"
	"proxydesk/internal/ledger"
	"proxydesk/internal/orders"
	"proxydesk/pkg/errors"
)

// InventoryStats is the slice of the inventory service the read side needs.
type InventoryStats interface {
	StatsByTier(ctx context.Context) ([]*domain.TierStat, error)
}

// OrderTotals is the slice of the orders service the read side needs.
type OrderTotals interface {
	Totals(ctx context.Context) (*orders.Totals, error)
}

// LedgerTotals is the slice of the ledger service the read side needs.
type LedgerTotals interface {
	Totals(ctx context.Context) (*ledger.Totals, error)
}

// Snapshot is one dashboard refresh.
type Snapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Tiers       []*domain.TierStat `json:"tiers"`
	Orders      *orders.Totals     `json:"orders"`
	Ledger      *ledger.Totals     `json:"ledger"`
}

// Service aggregates the stores. Each sub-aggregate is internally
// consistent; the three reads are not mutually transactional, which is
// acceptable for a polling dashboard.
type Service struct {
	inventory InventoryStats
	orders    OrderTotals
	ledger    LedgerTotals
}

func NewService(inventory InventoryStats, orderTotals OrderTotals, ledgerTotals LedgerTotals) *Service {
	return &Service{
		inventory: inventory,
		orders:    orderTotals,
		ledger:    ledgerTotals,
	}
}

// Snapshot collects the current dashboard figures.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	tiers, err := s.inventory.StatsByTier(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tier stats")
	}

	orderTotals, err := s.orders.Totals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read order totals")
	}

	ledgerTotals, err := s.ledger.Totals(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ledger totals")
	}

	return &Snapshot{
		GeneratedAt: time.Now().UTC(),
		Tiers:       tiers,
		Orders:      orderTotals,
		Ledger:      ledgerTotals,
	}, nil
}
