// Package ledger maintains the multi-country payment transaction records.
// Amounts are stored USD-canonical; local currency is a derived projection.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	pkgerrors "proxydesk/pkg/errors"
	"proxydesk/pkg/logger"
)

// Filter narrows transaction listings. All fields are optional and combined
// with AND; amount bounds apply to the canonical USD amount.
type Filter struct {
	Status       *domain.TransactionStatus
	UserID       *uuid.UUID
	Channel      *domain.Channel
	MinAmountUSD *decimal.Decimal
	MaxAmountUSD *decimal.Decimal
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

// Repository defines persistence operations for payment transactions.
type Repository interface {
	Create(ctx context.Context, tx *domain.PaymentTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PaymentTransaction, error)
	List(ctx context.Context, filter Filter) ([]*domain.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error
	UpdateAmount(ctx context.Context, id uuid.UUID, amountUSD decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
	Totals(ctx context.Context) (*Totals, error)
}

// RateConverter is the slice of the rates service the ledger needs.
type RateConverter interface {
	ConvertBack(ctx context.Context, amountLocal decimal.Decimal, currency domain.Currency) (decimal.Decimal, error)
}

// Totals summarizes the ledger for dashboards.
type Totals struct {
	CountByStatus     map[domain.TransactionStatus]int `json:"count_by_status"`
	ApprovedVolumeUSD decimal.Decimal                  `json:"approved_volume_usd"`
}

// Service exposes the transaction ledger operations.
type Service struct {
	repo   Repository
	rates  RateConverter
	logger logger.Logger
}

func NewService(repo Repository, rates RateConverter, log logger.Logger) *Service {
	return &Service{repo: repo, rates: rates, logger: log}
}

// RecordRequest is the intake payload from the external payment collaborator.
type RecordRequest struct {
	UserID    uuid.UUID       `json:"user_id" validate:"required"`
	AmountUSD decimal.Decimal `json:"amount_usd" validate:"required,gt=0"`
	Channel   domain.Channel  `json:"channel" validate:"required,oneof=nigeria ghana crypto"`
	Reference string          `json:"reference" validate:"required"`
}

// Record creates a pending transaction from the payment intake collaborator.
func (s *Service) Record(ctx context.Context, req *RecordRequest) (*domain.PaymentTransaction, error) {
	if !req.AmountUSD.IsPositive() {
		return nil, pkgerrors.ErrInvalidAmount
	}
	if !req.Channel.Valid() {
		return nil, pkgerrors.ErrUnsupportedForChannel
	}

	now := time.Now().UTC()
	tx := &domain.PaymentTransaction{
		ID:        uuid.New(),
		UserID:    req.UserID,
		AmountUSD: req.AmountUSD,
		Channel:   req.Channel,
		Status:    domain.TransactionStatusPending,
		Reference: req.Reference,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction recorded", map[string]interface{}{
		"transaction_id": tx.ID,
		"channel":        tx.Channel,
		"amount_usd":     tx.AmountUSD.String(),
	})
	return tx, nil
}

// Get returns one transaction.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.PaymentTransaction, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns transactions matching every provided filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*domain.PaymentTransaction, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// Approve labels a transaction approved. The transition is re-enterable:
// a disapproved transaction may be approved again, and nothing beyond the
// label is triggered, so the reversal stays safe.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, domain.TransactionStatusApproved)
}

// Disapprove labels a transaction disapproved. Re-enterable like Approve.
func (s *Service) Disapprove(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, domain.TransactionStatusDisapproved)
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.Info("Transaction status changed", map[string]interface{}{
		"transaction_id": id,
		"status":         status,
	})
	return nil
}

// CorrectAmount replaces a transaction's canonical amount from a figure the
// admin entered in local currency. Crypto amounts are canonical at intake
// and not editable.
func (s *Service) CorrectAmount(ctx context.Context, id uuid.UUID, newLocalAmount decimal.Decimal, currency domain.Currency) (*domain.PaymentTransaction, error) {
	tx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.Channel == domain.ChannelCrypto {
		return nil, pkgerrors.ErrUnsupportedForChannel
	}
	if !newLocalAmount.IsPositive() {
		return nil, pkgerrors.ErrInvalidAmount
	}

	amountUSD, err := s.rates.ConvertBack(ctx, newLocalAmount, currency)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAmount(ctx, id, amountUSD); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction amount corrected", map[string]interface{}{
		"transaction_id": id,
		"local_amount":   newLocalAmount.String(),
		"currency":       currency,
		"amount_usd":     amountUSD.String(),
	})

	tx.AmountUSD = amountUSD
	return tx, nil
}

// Delete hard-removes a transaction. There is no undo path.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Warn("Transaction deleted", map[string]interface{}{
		"transaction_id": id,
	})
	return nil
}

// Totals summarizes the ledger for the dashboard read side.
func (s *Service) Totals(ctx context.Context) (*Totals, error) {
	return s.repo.Totals(ctx)
}
