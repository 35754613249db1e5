package repositories

import (
	"context"

	"github.com/angelstack/captable_engine/internal/core/domain"
)

// ApplySnapshotChanges lists what a successor snapshot changed relative to
// its predecessor, so the repository knows which holding rows are new and
// which instrument rows to mark CONVERTED.
type ApplySnapshotChanges struct {
	NewHoldingIDs    []string
	ConvertedSafeIDs []string
	ConvertedNoteIDs []string
}

// CapTableReader defines read operations for cap table data
type CapTableReader interface {
	// FindSnapshot assembles the current snapshot for a cap table: its
	// holdings, outstanding instruments and the stored version counter.
	FindSnapshot(ctx context.Context, capTableID string) (*domain.CapTableSnapshot, error)
}

// CapTableWriter defines write operations for cap table data
type CapTableWriter interface {
	// CreateCapTable persists a new, empty cap table at version 1.
	CreateCapTable(ctx context.Context, snapshot domain.CapTableSnapshot) error

	// SaveHolding persists one issued block of shares against the cap table.
	SaveHolding(ctx context.Context, holding domain.SecurityHolding) error

	// ApplySnapshot persists a successor snapshot atomically: bumps the
	// version counter, inserts the newly issued holdings and marks converted
	// instruments. It fails with apperrors.ErrStaleSnapshot when the stored
	// version no longer matches expectedVersion.
	ApplySnapshot(ctx context.Context, next domain.CapTableSnapshot, expectedVersion int64, changes ApplySnapshotChanges, userID string) error
}

// CapTableRepositoryFacade combines all cap-table-related repository interfaces
type CapTableRepositoryFacade interface {
	CapTableReader
	CapTableWriter
}
