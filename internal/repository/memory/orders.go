package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/internal/orders"
	"proxydesk/pkg/errors"
)

type OrdersRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

func NewOrdersRepository() *OrdersRepository {
	return &OrdersRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func copyOrder(order *domain.Order) *domain.Order {
	copied := *order
	copied.CredentialIDs = append([]uuid.UUID(nil), order.CredentialIDs...)
	return &copied
}

func (r *OrdersRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *OrdersRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, errors.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (r *OrdersRepository) List(_ context.Context, filter orders.Filter) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.UserID != nil && order.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		matched = append(matched, copyOrder(order))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *OrdersRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return errors.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (r *OrdersRepository) Totals(_ context.Context) (*orders.Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := &orders.Totals{TotalRevenueUSD: decimal.Zero}
	for _, order := range r.orders {
		totals.TotalOrders++
		totals.TotalRevenueUSD = totals.TotalRevenueUSD.Add(order.TotalPriceUSD)
	}
	return totals, nil
}
