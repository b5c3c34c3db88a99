package repository

import (
	"context"

	"github.com/okravets/volleyball-match-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
// I prefer a single entry point to keep transaction boundaries explicit and testable.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// MatchRepository is the persistence collaborator the live core hands
// finished and scheduled matches to. It must support partial updates
// keyed by match id (narrative attach) on top of full record writes.
type MatchRepository interface {
	Create(ctx context.Context, r model.MatchRecord) (model.MatchRecord, error)
	GetByID(ctx context.Context, id string) (model.MatchRecord, error)
	// Update replaces every mutable field of an existing record.
	Update(ctx context.Context, r model.MatchRecord) (model.MatchRecord, error)
	// AttachNarrative sets only the narrative field, leaving the rest
	// of the record untouched.
	AttachNarrative(ctx context.Context, id string, narrative string) error
	List(ctx context.Context, p Page) (PageResult[model.MatchRecord], error)
}
