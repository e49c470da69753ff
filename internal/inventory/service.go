// Package inventory manages the pool of resellable proxy credentials:
// bulk import, allocation to consumers, release, deletion and tier stats.
package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"proxydesk/internal/domain"
	pkgerrors "proxydesk/pkg/errors"
	"proxydesk/pkg/logger"
)

// ListFilter narrows credential listings for the admin pool view.
type ListFilter struct {
	TierCapacity *int
	Assigned     *bool
	Limit        int
	Offset       int
}

// Repository defines persistence operations for the credential pool.
//
// AllocateBatch is the one operation that must be atomic across records:
// it selects count unassigned credentials of the tier and marks them
// assigned in a single transaction (or critical section), failing with
// ErrInsufficientInventory and no change when the pool is short. Two
// concurrent calls must never receive overlapping credentials.
type Repository interface {
	Insert(ctx context.Context, creds []*domain.ProxyCredential) (int, error)
	AllocateBatch(ctx context.Context, tierCapacity, count int, assignee uuid.UUID, at time.Time) ([]*domain.ProxyCredential, error)
	Release(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ProxyCredential, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.ProxyCredential, error)
	StatsByTier(ctx context.Context) ([]*domain.TierStat, error)
}

// BulkEntry is one row of a bulk credential import.
type BulkEntry struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	TierCapacity int    `json:"tier_capacity" validate:"gte=1"`
}

// Service exposes the credential pool operations.
type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// BulkInsert imports credentials. Entries missing a username or password are
// skipped rather than rejected, matching the permissive import the console
// performs; duplicates are allowed.
func (s *Service) BulkInsert(ctx context.Context, entries []BulkEntry) (int, error) {
	creds := make([]*domain.ProxyCredential, 0, len(entries))
	skipped := 0
	now := time.Now().UTC()

	for _, entry := range entries {
		username := strings.TrimSpace(entry.Username)
		password := strings.TrimSpace(entry.Password)
		if username == "" || password == "" || entry.TierCapacity < 1 {
			skipped++
			continue
		}
		creds = append(creds, &domain.ProxyCredential{
			ID:           uuid.New(),
			Username:     username,
			Password:     password,
			TierCapacity: entry.TierCapacity,
			CreatedAt:    now,
		})
	}

	if len(creds) == 0 {
		return 0, nil
	}

	inserted, err := s.repo.Insert(ctx, creds)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Credentials imported", map[string]interface{}{
		"inserted": inserted,
		"skipped":  skipped,
	})
	return inserted, nil
}

// Allocate assigns count unassigned credentials of the tier to the consumer.
// All-or-nothing: a short pool fails with ErrInsufficientInventory and no
// credential changes hands.
func (s *Service) Allocate(ctx context.Context, tierCapacity, count int, assignee uuid.UUID) ([]*domain.ProxyCredential, error) {
	if count < 1 {
		return nil, pkgerrors.ErrInsufficientInventory
	}

	creds, err := s.repo.AllocateBatch(ctx, tierCapacity, count, assignee, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Credentials allocated", map[string]interface{}{
		"tier":     tierCapacity,
		"count":    len(creds),
		"assignee": assignee,
	})
	return creds, nil
}

// Release returns a credential to the pool. A second release reports
// ErrNotAssigned; an unknown id reports ErrCredentialNotFound.
func (s *Service) Release(ctx context.Context, id uuid.UUID) error {
	return s.repo.Release(ctx, id)
}

// Delete hard-removes a credential regardless of assignment state. Callers
// are expected to release first but the operation does not enforce it.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Get returns a single credential.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.ProxyCredential, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns a filtered page of the pool for the admin table.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*domain.ProxyCredential, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// StatsByTier aggregates the pool per tier from one consistent snapshot, so
// assigned and available counts always sum to the tier total.
func (s *Service) StatsByTier(ctx context.Context) ([]*domain.TierStat, error) {
	return s.repo.StatsByTier(ctx)
}
