package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"proxydesk/internal/domain"
	"proxydesk/internal/inventory"
	"proxydesk/pkg/errors"
)

type InventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Insert(ctx context.Context, creds []*domain.ProxyCredential) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin insert transaction")
	}
	defer tx.Rollback()

	query := `
		INSERT INTO proxy_credentials (id, username, password, tier_capacity, is_assigned, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`

	inserted := 0
	for _, cred := range creds {
		if _, err := tx.ExecContext(ctx, query,
			cred.ID, cred.Username, cred.Password, cred.TierCapacity, cred.CreatedAt,
		); err != nil {
			return 0, errors.Wrap(err, "failed to insert credential")
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit credential insert")
	}
	return inserted, nil
}

// AllocateBatch selects and marks credentials inside one transaction.
// FOR UPDATE SKIP LOCKED guarantees two concurrent allocators never pick the
// same row; a short selection rolls back with ErrInsufficientInventory.
func (r *InventoryRepository) AllocateBatch(ctx context.Context, tierCapacity, count int, assignee uuid.UUID, at time.Time) ([]*domain.ProxyCredential, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin allocation transaction")
	}
	defer tx.Rollback()

	var creds []*domain.ProxyCredential
	selectQuery := `
		SELECT id, username, password, tier_capacity, is_assigned, assigned_to, assigned_at, created_at
		FROM proxy_credentials
		WHERE tier_capacity = $1 AND is_assigned = FALSE
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	if err := tx.SelectContext(ctx, &creds, selectQuery, tierCapacity, count); err != nil {
		return nil, errors.Wrap(err, "failed to select unassigned credentials")
	}

	if len(creds) < count {
		return nil, errors.ErrInsufficientInventory
	}

	ids := make([]uuid.UUID, len(creds))
	for i, cred := range creds {
		ids[i] = cred.ID
	}

	updateQuery, args, err := sqlx.In(`
		UPDATE proxy_credentials
		SET is_assigned = TRUE, assigned_to = ?, assigned_at = ?
		WHERE id IN (?)`, assignee, at, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build allocation update")
	}

	updateQuery = tx.Rebind(updateQuery)
	if _, err := tx.ExecContext(ctx, updateQuery, args...); err != nil {
		return nil, errors.Wrap(err, "failed to mark credentials assigned")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit allocation")
	}

	for _, cred := range creds {
		cred.IsAssigned = true
		assigned := assignee
		assignedAt := at
		cred.AssignedTo = &assigned
		cred.AssignedAt = &assignedAt
	}
	return creds, nil
}

func (r *InventoryRepository) Release(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE proxy_credentials
		SET is_assigned = FALSE, assigned_to = NULL, assigned_at = NULL
		WHERE id = $1 AND is_assigned = TRUE
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return errors.Wrap(err, "failed to release credential")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read release result")
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM proxy_credentials WHERE id = $1)`, id)
	if err != nil {
		return errors.Wrap(err, "failed to check credential existence")
	}
	if !exists {
		return errors.ErrCredentialNotFound
	}
	return errors.ErrNotAssigned
}

func (r *InventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proxy_credentials WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete credential")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read delete result")
	}
	if affected == 0 {
		return errors.ErrCredentialNotFound
	}
	return nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ProxyCredential, error) {
	var cred domain.ProxyCredential
	query := `
		SELECT id, username, password, tier_capacity, is_assigned, assigned_to, assigned_at, created_at
		FROM proxy_credentials
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &cred, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrCredentialNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find credential")
	}

	return &cred, nil
}

func (r *InventoryRepository) List(ctx context.Context, filter inventory.ListFilter) ([]*domain.ProxyCredential, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.TierCapacity != nil {
		args = append(args, *filter.TierCapacity)
		conditions = append(conditions, "tier_capacity = $"+strconv.Itoa(len(args)))
	}
	if filter.Assigned != nil {
		args = append(args, *filter.Assigned)
		conditions = append(conditions, "is_assigned = $"+strconv.Itoa(len(args)))
	}

	query := `
		SELECT id, username, password, tier_capacity, is_assigned, assigned_to, assigned_at, created_at
		FROM proxy_credentials
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit)
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	var creds []*domain.ProxyCredential
	if err := r.db.SelectContext(ctx, &creds, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list credentials")
	}
	return creds, nil
}

// StatsByTier aggregates in a single statement so every tier row comes from
// the same snapshot.
func (r *InventoryRepository) StatsByTier(ctx context.Context) ([]*domain.TierStat, error) {
	var stats []*domain.TierStat
	query := `
		SELECT
			tier_capacity AS tier,
			COUNT(*) AS all_time_total,
			COUNT(*) FILTER (WHERE is_assigned) AS total_assigned,
			COUNT(*) FILTER (WHERE NOT is_assigned) AS total_available
		FROM proxy_credentials
		GROUP BY tier_capacity
		ORDER BY tier_capacity ASC
	`

	err := r.db.SelectContext(ctx, &stats, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate tier stats")
	}

	return stats, nil
}
