package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"proxydesk/internal/domain"
	"proxydesk/internal/ledger"
	"proxydesk/pkg/errors"
)

type LedgerRepository struct {
	mu  sync.RWMutex
	txs map[uuid.UUID]*domain.PaymentTransaction
}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{txs: make(map[uuid.UUID]*domain.PaymentTransaction)}
}

func (r *LedgerRepository) Create(_ context.Context, tx *domain.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *tx
	r.txs[tx.ID] = &copied
	return nil
}

func (r *LedgerRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.txs[id]
	if !ok {
		return nil, errors.ErrTransactionNotFound
	}
	copied := *tx
	return &copied, nil
}

func (r *LedgerRepository) List(_ context.Context, filter ledger.Filter) ([]*domain.PaymentTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.PaymentTransaction, 0, len(r.txs))
	for _, tx := range r.txs {
		if !matches(tx, filter) {
			continue
		}
		copied := *tx
		matched = append(matched, &copied)
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

func matches(tx *domain.PaymentTransaction, filter ledger.Filter) bool {
	if filter.Status != nil && tx.Status != *filter.Status {
		return false
	}
	if filter.UserID != nil && tx.UserID != *filter.UserID {
		return false
	}
	if filter.Channel != nil && tx.Channel != *filter.Channel {
		return false
	}
	if filter.MinAmountUSD != nil && tx.AmountUSD.LessThan(*filter.MinAmountUSD) {
		return false
	}
	if filter.MaxAmountUSD != nil && tx.AmountUSD.GreaterThan(*filter.MaxAmountUSD) {
		return false
	}
	if filter.DateFrom != nil && tx.CreatedAt.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && tx.CreatedAt.After(*filter.DateTo) {
		return false
	}
	return true
}

func (r *LedgerRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.txs[id]
	if !ok {
		return errors.ErrTransactionNotFound
	}
	tx.Status = status
	tx.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *LedgerRepository) UpdateAmount(_ context.Context, id uuid.UUID, amountUSD decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.txs[id]
	if !ok {
		return errors.ErrTransactionNotFound
	}
	tx.AmountUSD = amountUSD
	tx.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *LedgerRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.txs[id]; !ok {
		return errors.ErrTransactionNotFound
	}
	delete(r.txs, id)
	return nil
}

func (r *LedgerRepository) Totals(_ context.Context) (*ledger.Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := &ledger.Totals{
		CountByStatus:     make(map[domain.TransactionStatus]int),
		ApprovedVolumeUSD: decimal.Zero,
	}
	for _, tx := range r.txs {
		totals.CountByStatus[tx.Status]++
		if tx.Status == domain.TransactionStatusApproved || tx.Status == domain.TransactionStatusCompleted {
			totals.ApprovedVolumeUSD = totals.ApprovedVolumeUSD.Add(tx.AmountUSD)
		}
	}
	return totals, nil
}
