package repositories

import (
	"context"
	"time"

	"github.com/angelstack/captable_engine/internal/core/domain"
)

// InstrumentReader defines read operations for SAFE and note data
type InstrumentReader interface {
	// FindSafeByID retrieves a SAFE by its unique identifier.
	FindSafeByID(ctx context.Context, safeID string) (*domain.SafeAgreement, error)

	// FindNoteByID retrieves a convertible note by its unique identifier.
	FindNoteByID(ctx context.Context, noteID string) (*domain.ConvertibleNote, error)

	// ListSafesByCapTable retrieves all SAFEs recorded against a cap table.
	ListSafesByCapTable(ctx context.Context, capTableID string) ([]domain.SafeAgreement, error)

	// ListNotesByCapTable retrieves all notes recorded against a cap table.
	ListNotesByCapTable(ctx context.Context, capTableID string) ([]domain.ConvertibleNote, error)
}

// InstrumentWriter defines write operations for SAFE and note data
type InstrumentWriter interface {
	// SaveSafe persists a new SAFE.
	SaveSafe(ctx context.Context, safe domain.SafeAgreement) error

	// SaveNote persists a new convertible note.
	SaveNote(ctx context.Context, note domain.ConvertibleNote) error

	// UpdateSafeStatus moves a SAFE to a new lifecycle status.
	UpdateSafeStatus(ctx context.Context, safeID string, status domain.SafeStatus, userID string, now time.Time) error

	// UpdateNoteStatus moves a note to a new lifecycle status.
	UpdateNoteStatus(ctx context.Context, noteID string, status domain.NoteStatus, userID string, now time.Time) error
}

// InstrumentRepositoryFacade combines all instrument-related repository interfaces
type InstrumentRepositoryFacade interface {
	InstrumentReader
	InstrumentWriter
}
