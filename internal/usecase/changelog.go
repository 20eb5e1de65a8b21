package usecase

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// ChangeInput describes one entity mutation to audit.
type ChangeInput struct {
	EntityType string
	EntityID   string
	ChangeType domain.ChangeType
	ChangeDate time.Time
	Before     domain.Trackable
	After      domain.Trackable
	Actor      string
	Memo       string
}

// RecordChange writes one change log row bundling every tracked field that
// differs between Before and After. It writes nothing and returns nil, nil
// when no tracked field changed.
func RecordChange(
	ctx context.Context,
	tx Transaction,
	repo ChangeLogRepository,
	idGen IDGenerator,
	now time.Time,
	input ChangeInput,
) (*domain.ChangeLogEntry, error) {
	changes := domain.Diff(input.Before, input.After)
	if len(changes) == 0 {
		return nil, nil
	}

	changeDate := input.ChangeDate
	if changeDate.IsZero() {
		changeDate = domain.DateOf(now)
	}

	entry := &domain.ChangeLogEntry{
		ID:         idGen.Generate(),
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		ChangeType: input.ChangeType,
		ChangeDate: changeDate,
		Changes:    changes,
		Memo:       input.Memo,
		CreatedBy:  input.Actor,
		CreatedAt:  now,
	}

	if err := repo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}
