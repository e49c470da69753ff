package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"proxydesk/internal/domain"
	"proxydesk/internal/inventory"
	"proxydesk/pkg/errors"
)

type InventoryRepository struct {
	mu    sync.Mutex
	creds map[uuid.UUID]*domain.ProxyCredential
}

func NewInventoryRepository() *InventoryRepository {
	return &InventoryRepository{creds: make(map[uuid.UUID]*domain.ProxyCredential)}
}

func (r *InventoryRepository) Insert(_ context.Context, creds []*domain.ProxyCredential) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cred := range creds {
		copied := *cred
		r.creds[cred.ID] = &copied
	}
	return len(creds), nil
}

// AllocateBatch runs the whole check-then-act sequence under the pool mutex,
// mirroring the row-locked transaction of the postgres repository.
func (r *InventoryRepository) AllocateBatch(_ context.Context, tierCapacity, count int, assignee uuid.UUID, at time.Time) ([]*domain.ProxyCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	available := make([]*domain.ProxyCredential, 0, count)
	for _, cred := range r.creds {
		if cred.TierCapacity == tierCapacity && !cred.IsAssigned {
			available = append(available, cred)
		}
	}
	if len(available) < count {
		return nil, errors.ErrInsufficientInventory
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].CreatedAt.Before(available[j].CreatedAt)
	})

	out := make([]*domain.ProxyCredential, 0, count)
	for _, cred := range available[:count] {
		assigned := assignee
		assignedAt := at
		cred.IsAssigned = true
		cred.AssignedTo = &assigned
		cred.AssignedAt = &assignedAt

		copied := *cred
		out = append(out, &copied)
	}
	return out, nil
}

func (r *InventoryRepository) Release(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.creds[id]
	if !ok {
		return errors.ErrCredentialNotFound
	}
	if !cred.IsAssigned {
		return errors.ErrNotAssigned
	}

	cred.IsAssigned = false
	cred.AssignedTo = nil
	cred.AssignedAt = nil
	return nil
}

func (r *InventoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.creds[id]; !ok {
		return errors.ErrCredentialNotFound
	}
	delete(r.creds, id)
	return nil
}

func (r *InventoryRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.ProxyCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cred, ok := r.creds[id]
	if !ok {
		return nil, errors.ErrCredentialNotFound
	}
	copied := *cred
	return &copied, nil
}

func (r *InventoryRepository) List(_ context.Context, filter inventory.ListFilter) ([]*domain.ProxyCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*domain.ProxyCredential, 0, len(r.creds))
	for _, cred := range r.creds {
		if filter.TierCapacity != nil && cred.TierCapacity != *filter.TierCapacity {
			continue
		}
		if filter.Assigned != nil && cred.IsAssigned != *filter.Assigned {
			continue
		}
		copied := *cred
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

func (r *InventoryRepository) StatsByTier(_ context.Context) ([]*domain.TierStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byTier := make(map[int]*domain.TierStat)
	for _, cred := range r.creds {
		stat, ok := byTier[cred.TierCapacity]
		if !ok {
			stat = &domain.TierStat{Tier: cred.TierCapacity}
			byTier[cred.TierCapacity] = stat
		}
		stat.AllTimeTotal++
		if cred.IsAssigned {
			stat.TotalAssigned++
		} else {
			stat.TotalAvailable++
		}
	}

	out := make([]*domain.TierStat, 0, len(byTier))
	for _, stat := range byTier {
		out = append(out, stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out, nil
}
