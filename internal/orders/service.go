// Package orders composes pricing and inventory into the purchase flow:
// an order is priced, credentials are allocated, and the priced order is
// recorded with its price frozen at creation time.
package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	pkgerrors "proxydesk/pkg/errors"
	"proxydesk/pkg/logger"
)

// Filter narrows order listings.
type Filter struct {
	UserID *uuid.UUID
	Status *domain.OrderStatus
	Limit  int
	Offset int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter Filter) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	Totals(ctx context.Context) (*Totals, error)
}

// PriceResolver is the slice of the pricing service the facade needs.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, quantity int) (decimal.Decimal, error)
}

// Allocator is the slice of the inventory service the facade needs.
type Allocator interface {
	Allocate(ctx context.Context, tierCapacity, count int, assignee uuid.UUID) ([]*domain.ProxyCredential, error)
	Release(ctx context.Context, id uuid.UUID) error
}

// Totals summarizes orders for dashboards.
type Totals struct {
	TotalOrders     int             `json:"total_orders"`
	TotalRevenueUSD decimal.Decimal `json:"total_revenue_usd"`
}

// Service is the order settlement facade.
type Service struct {
	repo      Repository
	pricing   PriceResolver
	allocator Allocator
	logger    logger.Logger
}

func NewService(repo Repository, pricing PriceResolver, allocator Allocator, log logger.Logger) *Service {
	return &Service{
		repo:      repo,
		pricing:   pricing,
		allocator: allocator,
		logger:    log,
	}
}

// PlaceRequest describes a purchase to settle.
type PlaceRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gte=1"`
	Country  string    `json:"country"`
}

// Place settles a purchase: resolve the unit price in effect now, allocate
// matching credentials, and record the order with that price frozen in.
// Allocation failure aborts with nothing recorded; a failed record releases
// the allocated credentials so the pool is left unchanged.
func (s *Service) Place(ctx context.Context, req *PlaceRequest) (*domain.Order, error) {
	unitPrice, err := s.pricing.ResolvePrice(ctx, req.Quantity)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Quantity:      req.Quantity,
		Country:       req.Country,
		UnitPriceUSD:  unitPrice,
		TotalPriceUSD: unitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
		Status:        domain.OrderStatusActive,
		CreatedAt:     time.Now().UTC(),
	}

	creds, err := s.allocator.Allocate(ctx, req.Quantity, 1, order.UserID)
	if err != nil {
		return nil, err
	}

	order.CredentialIDs = make([]uuid.UUID, len(creds))
	for i, cred := range creds {
		order.CredentialIDs[i] = cred.ID
	}

	if err := s.repo.Create(ctx, order); err != nil {
		for _, cred := range creds {
			if relErr := s.allocator.Release(ctx, cred.ID); relErr != nil {
				s.logger.Error("Failed to release credential after order failure", map[string]interface{}{
					"credential_id": cred.ID,
					"error":         relErr.Error(),
				})
			}
		}
		return nil, pkgerrors.Wrap(err, "failed to record order")
	}

	s.logger.Info("Order placed", map[string]interface{}{
		"order_id":        order.ID,
		"user_id":         order.UserID,
		"quantity":        order.Quantity,
		"total_price_usd": order.TotalPriceUSD.String(),
	})
	return order, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a filtered page of orders.
func (s *Service) List(ctx context.Context, filter Filter) ([]*domain.Order, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// ReleaseOrder returns an order's credentials to the pool and marks the
// order released. Credentials already released individually are skipped.
func (s *Service) ReleaseOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, credID := range order.CredentialIDs {
		if err := s.allocator.Release(ctx, credID); err != nil &&
			err != pkgerrors.ErrNotAssigned && err != pkgerrors.ErrCredentialNotFound {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.OrderStatusReleased); err != nil {
		return nil, err
	}
	order.Status = domain.OrderStatusReleased
	return order, nil
}

// Totals summarizes orders for the dashboard read side.
func (s *Service) Totals(ctx context.Context) (*Totals, error) {
	return s.repo.Totals(ctx)
}
