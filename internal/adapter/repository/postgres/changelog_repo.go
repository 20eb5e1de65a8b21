package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// ChangeLogRepository implements usecase.ChangeLogRepository.
type ChangeLogRepository struct {
	pool DB
}

// NewChangeLogRepository creates a new change log repository
func NewChangeLogRepository(pool DB) *ChangeLogRepository {
	return &ChangeLogRepository{pool: pool}
}

// Create inserts a change log row. Changes are stored as a JSON array.
func (r *ChangeLogRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.ChangeLogEntry) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("encode changes: %w", err)
	}

	query := `
		INSERT INTO change_logs (
			id, entity_type, entity_id, change_type, change_date, changes, memo, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = pgxTx.Exec(ctx, query,
		entry.ID,
		entry.EntityType,
		entry.EntityID,
		string(entry.ChangeType),
		entry.ChangeDate,
		changes,
		entry.Memo,
		entry.CreatedBy,
		entry.CreatedAt,
	)

	return mapError(err)
}

// ListByEntity returns an entity's change log, oldest first.
func (r *ChangeLogRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*domain.ChangeLogEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, change_type, change_date, changes, memo, created_by, created_at
		FROM change_logs
		WHERE entity_id = $1 AND entity_type = $2
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, entityID, entityType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.ChangeLogEntry
	for rows.Next() {
		var e domain.ChangeLogEntry
		var changeType string
		var changes []byte
		if err := rows.Scan(
			&e.ID,
			&e.EntityType,
			&e.EntityID,
			&changeType,
			&e.ChangeDate,
			&changes,
			&e.Memo,
			&e.CreatedBy,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}

		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, fmt.Errorf("decode changes of %s: %w", e.ID, err)
		}
		e.ChangeType = domain.ChangeType(changeType)

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
